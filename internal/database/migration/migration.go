package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id                UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  original_filename TEXT        NOT NULL,
  storage_path      TEXT        NOT NULL UNIQUE,
  mime_type         TEXT        NOT NULL,
  size              BIGINT      NOT NULL CHECK (size >= 0),
  doc_type          TEXT,
  status            TEXT        NOT NULL DEFAULT 'UPLOADED'
    CHECK (status IN ('UPLOADED', 'PROCESSING', 'PROCESSED', 'VALIDATED', 'FAILED')),
  error_message     TEXT,
  validated_by      TEXT,
  validated_at      TIMESTAMPTZ,
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (status);`,
	},
	{
		Name: "create_index_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at);`,
	},
	{
		Name: "create_table_ai_requests",
		SQL: `CREATE TABLE IF NOT EXISTS ai_requests (
  id                 UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  correlation_id     UUID        NOT NULL UNIQUE,
  document_id        UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  doc_type_sent      TEXT        NOT NULL DEFAULT 'unknown',
  http_status        INTEGER,
  outcome            TEXT        NOT NULL CHECK (outcome IN ('SUCCESS', 'FAILED')),
  processing_time_ms BIGINT,
  error_message      TEXT,
  created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_ai_requests_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_ai_requests_document_id ON ai_requests (document_id);`,
	},
	{
		Name: "create_table_extractions",
		SQL: `CREATE TABLE IF NOT EXISTS extractions (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id   UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  ai_request_id UUID        NOT NULL REFERENCES ai_requests (id) ON DELETE CASCADE,
  version       INTEGER     NOT NULL CHECK (version >= 1),
  result        JSONB       NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (document_id, version)
);`,
	},
	{
		Name: "create_table_field_corrections",
		SQL: `CREATE TABLE IF NOT EXISTS field_corrections (
  id              UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id     UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  field_name      TEXT        NOT NULL,
  original_value  TEXT,
  corrected_value TEXT,
  user_id         TEXT,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_field_corrections_document_field",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_field_corrections_document_field ON field_corrections (document_id, field_name);`,
	},
}

// EnsureMigrated checks if the 'field_corrections' table (the last one added
// to the schema) exists and runs all migration steps if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.field_corrections') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
