package models

import (
	"fmt"
	"strings"
)

const (
	OutcomeComplete = "complete"
	OutcomePartial  = "partial"
	OutcomeFailed   = "failed"
)

// BatchResult accumulates the outcome of a multi-image run. It is only
// mutated by the run that owns it.
type BatchResult struct {
	Products       []ProductEntry `json:"products"`
	TotalRequested int            `json:"totalRequested"`
	SucceededCount int            `json:"succeededCount"`
	FailedCount    int            `json:"failedCount"`
	Errors         []string       `json:"errors"`
}

func NewBatchResult(total int) *BatchResult {
	return &BatchResult{
		Products:       make([]ProductEntry, 0, total),
		TotalRequested: total,
		Errors:         []string{},
	}
}

func (r *BatchResult) AddSuccess(index int, name string, product GeneratedProduct) {
	r.Products = append(r.Products, ProductEntry{
		ImageIndex: index,
		ImageName:  name,
		Product:    product,
	})
	r.SucceededCount++
}

func (r *BatchResult) AddFailure(message string) {
	r.Errors = append(r.Errors, message)
	r.FailedCount++
}

func (r *BatchResult) Outcome() string {
	switch {
	case r.SucceededCount == 0:
		return OutcomeFailed
	case r.FailedCount > 0:
		return OutcomePartial
	default:
		return OutcomeComplete
	}
}

// Summary is the user-facing status line for the run.
func (r *BatchResult) Summary() string {
	switch r.Outcome() {
	case OutcomeFailed:
		return "failed to process all images, please try again"
	case OutcomePartial:
		return fmt.Sprintf("processed %d of %d images; some images failed: %s",
			r.SucceededCount, r.TotalRequested, strings.Join(r.Errors, ", "))
	default:
		return fmt.Sprintf("processed %d of %d images", r.SucceededCount, r.TotalRequested)
	}
}
