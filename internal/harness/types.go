package harness

import (
	"github.com/roach88/flexstore/internal/schema"
)

// Outcome is what a scenario's query produced. It is the golden snapshot.
type Outcome struct {
	Scenario string `json:"scenario"`

	// Entries lists entry names in result order (entries queries).
	Entries *[]string `json:"entries,omitempty"`

	// Page is set for collections queries.
	Page *PageOutcome `json:"page,omitempty"`

	// Error is set when the query failed.
	Error *ErrorOutcome `json:"error,omitempty"`
}

// PageOutcome summarizes a collections page.
type PageOutcome struct {
	Collections []string `json:"collections"`
	NumItems    int      `json:"num_items"`
	NumPages    int      `json:"num_pages"`
	Index       int      `json:"index"`
	Size        int      `json:"size"`
}

// ErrorOutcome records a failed query.
type ErrorOutcome struct {
	Code    schema.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Outcome is what the query produced.
	Outcome Outcome `json:"outcome"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Pass:    true,
		Outcome: Outcome{Scenario: name},
		Errors:  []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
