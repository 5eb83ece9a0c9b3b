package domui

import (
	"errors"
	"fmt"

	"github.com/sigrams/livevalidate/pkg/dom"
	"github.com/sigrams/livevalidate/pkg/validate"
)

// ErrNoForm is returned when a page has no marked form at the requested
// index.
var ErrNoForm = errors.New("domui: no marked form")

// MarkedForm returns the index-th marked form in document order.
func (h *Host) MarkedForm(index int) (*dom.Node, error) {
	forms := h.MarkedForms()
	if index < 0 || index >= len(forms) {
		return nil, fmt.Errorf("%w at index %d (page has %d)", ErrNoForm, index, len(forms))
	}
	return forms[index], nil
}

// FieldReport is the outcome for one control.
type FieldReport struct {
	Name    string `json:"name"`
	HID     string `json:"hid"`
	Valid   bool   `json:"valid"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message,omitempty"`
}

// FormReport is the outcome of validating a whole form.
type FormReport struct {
	Valid        bool          `json:"valid"`
	Fields       []FieldReport `json:"fields"`
	FirstInvalid string        `json:"first_invalid,omitempty"`
}

// NewFormReport summarises the results of Validator.ValidateFormResults.
func NewFormReport(valid bool, results []validate.FieldResult[*dom.Node]) FormReport {
	report := FormReport{Valid: valid, Fields: make([]FieldReport, 0, len(results))}
	for _, r := range results {
		report.Fields = append(report.Fields, FieldReport{
			Name:    r.Name,
			HID:     r.Field.HID,
			Valid:   r.Result.Valid,
			Rule:    string(r.Result.Rule),
			Message: r.Result.Message,
		})
		if !r.Result.Valid && report.FirstInvalid == "" {
			report.FirstInvalid = r.Name
		}
	}
	return report
}
