package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Field names recognized by the extraction contract (contract v1).
// Submissions carrying any other key are silently ignored.
const (
	FieldInvoiceDate  = "invoice_date"
	FieldProviderName = "provider_name"
	FieldTotalTTC     = "total_ttc"
)

// FieldNames lists the allowed field names in their canonical order.
var FieldNames = []string{FieldInvoiceDate, FieldProviderName, FieldTotalTTC}

// Amount is a monetary value that accepts both JSON numbers and numeric
// strings ("100.00"). The original lexical form is preserved so that audit
// records keep exactly what the extractor or reviewer supplied.
type Amount string

// UnmarshalJSON accepts a JSON number or a string holding a number.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("invalid amount %q", s)
	}
	*a = Amount(s)
	return nil
}

// MarshalJSON emits the amount as a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseFloat(string(a), 64); err != nil {
		return nil, fmt.Errorf("invalid amount %q", string(a))
	}
	return []byte(a), nil
}

// Float64 returns the parsed numeric value.
func (a Amount) Float64() float64 {
	f, _ := strconv.ParseFloat(string(a), 64)
	return f
}

func (a Amount) String() string { return string(a) }

// DocumentFields is the closed set of domain fields carried by an extraction.
// Values are nullable: a nil pointer means the extractor (or a reviewer)
// produced no value for that field.
type DocumentFields struct {
	InvoiceDate  *string `json:"invoice_date"`
	ProviderName *string `json:"provider_name"`
	TotalTTC     *Amount `json:"total_ttc"`
}

// FieldPatch is a partial update of DocumentFields as submitted by a reviewer.
// Keys absent from the submitted JSON leave the field untouched; explicit
// nulls clear it. Keys outside the allowed set are ignored.
type FieldPatch map[string]json.RawMessage

// Apply overlays the patch on base and returns the merged field set.
// It fails only when a submitted value cannot be decoded into the field's type.
func (p FieldPatch) Apply(base DocumentFields) (DocumentFields, error) {
	out := base
	for name, raw := range p {
		switch name {
		case FieldInvoiceDate:
			var v *string
			if err := json.Unmarshal(raw, &v); err != nil {
				return out, fmt.Errorf("field %s: %w", name, err)
			}
			out.InvoiceDate = v
		case FieldProviderName:
			var v *string
			if err := json.Unmarshal(raw, &v); err != nil {
				return out, fmt.Errorf("field %s: %w", name, err)
			}
			out.ProviderName = v
		case FieldTotalTTC:
			var v *Amount
			if err := json.Unmarshal(raw, &v); err != nil {
				return out, fmt.Errorf("field %s: %w", name, err)
			}
			out.TotalTTC = v
		}
	}
	return out, nil
}

// Value returns the stringified value of the named field, or nil when unset.
// Amounts keep their original lexical form.
func (f DocumentFields) Value(name string) *string {
	switch name {
	case FieldInvoiceDate:
		return f.InvoiceDate
	case FieldProviderName:
		return f.ProviderName
	case FieldTotalTTC:
		if f.TotalTTC == nil {
			return nil
		}
		s := f.TotalTTC.String()
		return &s
	}
	return nil
}

// NonNull returns the names of fields holding a value, in canonical order.
func (f DocumentFields) NonNull() []string {
	var names []string
	for _, name := range FieldNames {
		if f.Value(name) != nil {
			names = append(names, name)
		}
	}
	return names
}
