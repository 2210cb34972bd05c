package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"medidoc/internal/config"
	"medidoc/internal/model"
	"medidoc/internal/service"
)

// allowedUploadMimes is the whitelist of accepted document content types.
var allowedUploadMimes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
}

// HealthCheck reports whether the database dependency is reachable.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a bare liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListDocuments returns a paginated document listing.
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// UploadDocument accepts a multipart upload (field "file", optional field
// "doc_type") and answers 201 with the stored document. Extraction runs in
// the background afterwards.
func UploadDocument(svc service.DocumentService, cfg config.UploadConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		if cfg.MaxSizeBytes > 0 && fh.Size > cfg.MaxSizeBytes {
			return writeError(c, fiber.StatusBadRequest, "FILE_TOO_LARGE", "file exceeds the maximum allowed size")
		}

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}
		if !allowedUploadMimes[ct] {
			return writeError(c, fiber.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "only pdf, jpg, jpeg and png files are accepted")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		var docType *string
		if v := c.FormValue("doc_type"); v != "" {
			docType = &v
		}

		doc, err := svc.Upload(c.UserContext(), f, fh.Filename, ct, fh.Size, docType)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument returns a document with its latest extraction and correction
// history.
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		detail, err := svc.Detail(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(detail)
	}
}

// validateRequest is the body of a validation submission. Fields is a
// partial overlay over the extracted values.
type validateRequest struct {
	Fields      model.FieldPatch `json:"fields"`
	ValidatedBy *string          `json:"validated_by"`
}

// validateResponse mirrors the shape review clients expect.
type validateResponse struct {
	Message          string            `json:"message"`
	Document         documentSummary   `json:"document"`
	LatestExtraction extractionSummary `json:"latest_extraction"`
	Warnings         []string          `json:"warnings"`
}

type documentSummary struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type extractionSummary struct {
	Version int                  `json:"version"`
	Fields  model.DocumentFields `json:"fields"`
}

// ValidateDocument submits reviewer corrections and transitions the document
// to VALIDATED. Rejections carry the status the taxonomy prescribes: 400 for
// ineligibility, 404 for missing document or extraction, 422 for blocking
// field problems, 500 for broken internal invariants.
func ValidateDocument(svc service.ValidationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var req validateRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		res, err := svc.Submit(c.UserContext(), service.ValidationRequest{
			DocumentID:  id,
			Fields:      req.Fields,
			ValidatedBy: req.ValidatedBy,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotEligible):
				return writeError(c, fiber.StatusBadRequest, "NOT_ELIGIBLE", "document is not ready for validation")
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			case errors.Is(err, service.ErrNoExtraction):
				return writeError(c, fiber.StatusNotFound, "NO_EXTRACTION", "no extraction exists for this document")
			case errors.Is(err, service.ErrInvalidAmount):
				return writeError(c, fiber.StatusUnprocessableEntity, "INVALID_AMOUNT", service.ErrInvalidAmount.Error())
			case errors.Is(err, service.ErrInvalidFields):
				return writeError(c, fiber.StatusUnprocessableEntity, "INVALID_FIELDS", "submitted fields cannot be decoded")
			case errors.Is(err, service.ErrMissingCorrelation):
				return writeError(c, fiber.StatusInternalServerError, "MISSING_CORRELATION", "extraction is missing its audit link")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}

		return c.JSON(validateResponse{
			Message: res.Message,
			Document: documentSummary{
				ID:     res.Document.ID,
				Status: string(res.Document.Status),
			},
			LatestExtraction: extractionSummary{
				Version: res.Version,
				Fields:  res.Fields,
			},
			Warnings: res.Warnings,
		})
	}
}

// DeleteDocument removes a document and its stored file.
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DownloadDocument answers a presigned, time-limited download URL.
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		url, err := svc.DownloadURL(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"url": url})
	}
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService, valSvc service.ValidationService, uploadCfg config.UploadConfig) {
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/documents", ListDocuments(docSvc))
	app.Post("/documents", UploadDocument(docSvc, uploadCfg))
	app.Get("/documents/:id", GetDocument(docSvc))
	app.Post("/documents/:id/validate", ValidateDocument(valSvc))
	app.Delete("/documents/:id", DeleteDocument(docSvc))
	app.Get("/documents/:id/download", DownloadDocument(docSvc))
}
