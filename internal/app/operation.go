package app

import "notty-go/internal/notty"

// Operation tracks the CLI command being run. It lives in memory until a
// mutating command persists it to the history, which assigns its ID.
// Read-only commands (list, desc, notes show) never persist.
type Operation struct {
	ID         string
	Name       string
	Parameters string
	Status     notty.OperationStatus
}

// NewOperation creates an in-memory operation that succeeds unless marked failed.
func NewOperation(name, parameters string) *Operation {
	return &Operation{
		Name:       name,
		Parameters: parameters,
		Status:     notty.OperationSuccess,
	}
}

// Persisted returns true if this operation has been recorded in the history.
func (op *Operation) Persisted() bool {
	return op.ID != ""
}

// Fail marks the operation as failed. It is recorded on Close.
func (op *Operation) Fail() {
	op.Status = notty.OperationError
}
