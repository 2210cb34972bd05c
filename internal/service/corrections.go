package service

import (
	"strconv"

	"medidoc/internal/model"
)

// diffFields compares the original and merged field sets and returns one
// correction record per changed whitelisted field. Values are stringified as
// submitted; a null stays a nil pointer, never the string "null". The caller
// stamps IDs and timestamps and persists the records in its own transaction.
func diffFields(documentID string, original, merged model.DocumentFields, userID *string) []model.FieldCorrection {
	var out []model.FieldCorrection
	for _, name := range model.FieldNames {
		origVal := original.Value(name)
		newVal := merged.Value(name)
		if fieldEqual(name, origVal, newVal) {
			continue
		}
		out = append(out, model.FieldCorrection{
			DocumentID:     documentID,
			FieldName:      name,
			OriginalValue:  origVal,
			CorrectedValue: newVal,
			UserID:         userID,
		})
	}
	return out
}

// fieldEqual compares two field values. total_ttc compares numerically, so
// "100" and "100.00" are the same value and produce no correction record.
func fieldEqual(name string, a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if name == model.FieldTotalTTC {
		af, aerr := strconv.ParseFloat(*a, 64)
		bf, berr := strconv.ParseFloat(*b, 64)
		if aerr == nil && berr == nil {
			return af == bf
		}
	}
	return *a == *b
}
