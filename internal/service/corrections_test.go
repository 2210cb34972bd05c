package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medidoc/internal/model"
)

func TestDiffFieldsNoChanges(t *testing.T) {
	fields := model.DocumentFields{
		InvoiceDate:  strPtr("2025-03-07"),
		ProviderName: strPtr("Clinique du Parc"),
		TotalTTC:     amountPtr("180.50"),
	}
	assert.Empty(t, diffFields("doc-1", fields, fields, nil))
}

func TestDiffFieldsNumericEquality(t *testing.T) {
	original := model.DocumentFields{TotalTTC: amountPtr("100")}
	merged := model.DocumentFields{TotalTTC: amountPtr("100.00")}

	// Same numeric value in a different lexical form is not a correction.
	assert.Empty(t, diffFields("doc-1", original, merged, nil))
}

func TestDiffFieldsChangedValue(t *testing.T) {
	user := strPtr("reviewer-7")
	original := model.DocumentFields{
		ProviderName: strPtr("Clinique du Prc"),
		TotalTTC:     amountPtr("180.50"),
	}
	merged := model.DocumentFields{
		ProviderName: strPtr("Clinique du Parc"),
		TotalTTC:     amountPtr("180.50"),
	}

	diffs := diffFields("doc-1", original, merged, user)
	require.Len(t, diffs, 1)
	fc := diffs[0]
	assert.Equal(t, "doc-1", fc.DocumentID)
	assert.Equal(t, model.FieldProviderName, fc.FieldName)
	assert.Equal(t, "Clinique du Prc", *fc.OriginalValue)
	assert.Equal(t, "Clinique du Parc", *fc.CorrectedValue)
	assert.Equal(t, "reviewer-7", *fc.UserID)
}

func TestDiffFieldsNullTransitions(t *testing.T) {
	original := model.DocumentFields{InvoiceDate: strPtr("2025-03-07")}
	merged := model.DocumentFields{ProviderName: strPtr("Dr. Martin")}

	diffs := diffFields("doc-1", original, merged, nil)
	require.Len(t, diffs, 2)

	// Cleared field: original value kept, corrected is null.
	assert.Equal(t, model.FieldInvoiceDate, diffs[0].FieldName)
	assert.Equal(t, "2025-03-07", *diffs[0].OriginalValue)
	assert.Nil(t, diffs[0].CorrectedValue)

	// Filled field: original null, corrected holds the new value.
	assert.Equal(t, model.FieldProviderName, diffs[1].FieldName)
	assert.Nil(t, diffs[1].OriginalValue)
	assert.Equal(t, "Dr. Martin", *diffs[1].CorrectedValue)
	assert.Nil(t, diffs[1].UserID)
}

func TestDiffFieldsAmountChanged(t *testing.T) {
	original := model.DocumentFields{TotalTTC: amountPtr("180.50")}
	merged := model.DocumentFields{TotalTTC: amountPtr("185.00")}

	diffs := diffFields("doc-1", original, merged, nil)
	require.Len(t, diffs, 1)
	assert.Equal(t, model.FieldTotalTTC, diffs[0].FieldName)
	assert.Equal(t, "180.50", *diffs[0].OriginalValue)
	assert.Equal(t, "185.00", *diffs[0].CorrectedValue)
}
