package service

import (
	"time"

	"medidoc/internal/model"
)

// Warning messages produced by the business rules. Returned verbatim to API
// clients, so the wording is part of the contract.
const (
	WarningFutureInvoiceDate = "Invoice date is in the future."
	WarningHighAmount        = "High amount detected: requires supervisor review."
)

// invoiceDateLayout is the format extracted invoice dates are expected in.
const invoiceDateLayout = "2006-01-02"

// BusinessRuleValidator evaluates the domain rules against a merged field
// set. Rules are independent: the blocking rule aborts the submission, the
// others only collect warnings.
type BusinessRuleValidator struct {
	HighAmountThreshold float64

	// Now is overridable in tests.
	Now func() time.Time
}

// NewBusinessRuleValidator builds a validator with the configured
// high-amount threshold.
func NewBusinessRuleValidator(highAmountThreshold float64) *BusinessRuleValidator {
	return &BusinessRuleValidator{
		HighAmountThreshold: highAmountThreshold,
		Now:                 time.Now,
	}
}

// Evaluate returns the warnings raised by fields, or ErrInvalidAmount when
// the blocking rule fires. A date that does not parse as YYYY-MM-DD skips
// the future-date rule rather than failing the submission.
func (v *BusinessRuleValidator) Evaluate(fields model.DocumentFields) ([]string, error) {
	if fields.TotalTTC != nil && fields.TotalTTC.Float64() <= 0 {
		return nil, ErrInvalidAmount
	}

	warnings := []string{}

	if fields.InvoiceDate != nil {
		if d, err := time.Parse(invoiceDateLayout, *fields.InvoiceDate); err == nil {
			if d.After(v.now()) {
				warnings = append(warnings, WarningFutureInvoiceDate)
			}
		}
	}

	if fields.TotalTTC != nil && fields.TotalTTC.Float64() > v.HighAmountThreshold {
		warnings = append(warnings, WarningHighAmount)
	}

	return warnings, nil
}

func (v *BusinessRuleValidator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}
