package postgres

import (
	"context"
	"testing"
	"time"

	"medidoc/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAiRequestPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAiRequestPostgres(db)
	now := time.Now().UTC()
	msg := "extract request failed: status 500"

	req := &model.AiRequest{
		ID:               "req-1",
		CorrelationID:    "corr-1",
		DocumentID:       "doc-1",
		DocTypeSent:      "pharmacy_invoice",
		HTTPStatus:       500,
		Outcome:          model.OutcomeFailed,
		ProcessingTimeMS: 1200,
		ErrorMessage:     &msg,
		CreatedAt:        now,
	}

	rows := sqlmock.NewRows([]string{
		"id", "correlation_id", "document_id", "doc_type_sent", "http_status",
		"outcome", "processing_time_ms", "error_message", "created_at",
	}).AddRow(req.ID, req.CorrelationID, req.DocumentID, req.DocTypeSent, req.HTTPStatus,
		req.Outcome, req.ProcessingTimeMS, req.ErrorMessage, req.CreatedAt)

	mock.ExpectQuery("INSERT INTO ai_requests").
		WithArgs(req.ID, req.CorrelationID, req.DocumentID, req.DocTypeSent, req.HTTPStatus,
			req.Outcome, req.ProcessingTimeMS, &msg, now).
		WillReturnRows(rows)

	stored, err := repo.Create(context.Background(), req)

	assert.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.OutcomeFailed, stored.Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFieldCorrectionPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFieldCorrectionPostgres(db)
	now := time.Now().UTC()
	orig := "Acme"
	corrected := "Acme Corp"

	fc := &model.FieldCorrection{
		ID:             "fc-1",
		DocumentID:     "doc-1",
		FieldName:      model.FieldProviderName,
		OriginalValue:  &orig,
		CorrectedValue: &corrected,
		CreatedAt:      now,
	}

	rows := sqlmock.NewRows([]string{
		"id", "document_id", "field_name", "original_value", "corrected_value", "user_id", "created_at",
	}).AddRow(fc.ID, fc.DocumentID, fc.FieldName, fc.OriginalValue, fc.CorrectedValue, nil, now)

	mock.ExpectQuery("INSERT INTO field_corrections").
		WithArgs(fc.ID, fc.DocumentID, fc.FieldName, &orig, &corrected, nil, now).
		WillReturnRows(rows)

	stored, err := repo.Create(context.Background(), fc)

	assert.NoError(t, err)
	require.NotNil(t, stored)
	assert.Nil(t, stored.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFieldCorrectionPostgres_ListByDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFieldCorrectionPostgres(db)

	rows := sqlmock.NewRows([]string{
		"id", "document_id", "field_name", "original_value", "corrected_value", "user_id", "created_at",
	}).
		AddRow("fc-1", "doc-1", model.FieldProviderName, "Acme", "Acme Corp", nil, time.Now()).
		AddRow("fc-2", "doc-1", model.FieldTotalTTC, "100", "120.00", "reviewer-7", time.Now())

	mock.ExpectQuery("SELECT (.+) FROM field_corrections WHERE document_id = ?").
		WithArgs("doc-1").
		WillReturnRows(rows)

	items, err := repo.ListByDocument(context.Background(), "doc-1")

	assert.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, model.FieldProviderName, items[0].FieldName)
	assert.Equal(t, "reviewer-7", *items[1].UserID)
}
