package app

import "time"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Operation tracks the CLI command being run. Its ID tags every log line
// written during the command.
type Operation struct {
	ID         string
	Name       string
	Parameters string
	Status     string
	StartedAt  time.Time
}

// NewOperation creates an operation that starts successful until Fail is called.
func NewOperation(name, parameters string, now time.Time) *Operation {
	now = now.UTC()
	return &Operation{
		ID:         now.Format("20060102T150405Z"),
		Name:       name,
		Parameters: parameters,
		Status:     StatusSuccess,
		StartedAt:  now,
	}
}

// Fail records err against the operation and returns it unchanged.
func (op *Operation) Fail(err error) error {
	if err != nil {
		op.Status = StatusError
	}
	return err
}

// Succeeded reports whether no step of the operation failed.
func (op *Operation) Succeeded() bool {
	return op.Status == StatusSuccess
}
