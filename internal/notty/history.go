package notty

import "time"

// OperationStatus is the outcome recorded for a finished operation.
type OperationStatus string

const (
	OperationRunning OperationStatus = "running"
	OperationSuccess OperationStatus = "success"
	OperationError   OperationStatus = "error"
)

// Operation is one recorded invocation of a mutating command.
type Operation struct {
	ID         string
	Repository string
	Name       string
	Parameters string
	Status     OperationStatus
	StartedAt  time.Time
	FinishedAt time.Time
}

// History records mutating operations so `notty history` can list them.
type History interface {
	// StartOperation records a new operation and returns its id.
	StartOperation(repository, name, parameters string, startedAt time.Time) (string, error)

	// FinishOperation sets the status and finish time of a started operation.
	FinishOperation(id string, status OperationStatus, finishedAt time.Time) error

	// RecentOperations returns up to limit operations for repository, newest first.
	// An empty repository lists operations for every repository.
	RecentOperations(repository string, limit int) ([]*Operation, error)

	Close() error
}
