package app

import (
	"time"

	"foodlog-go/internal/foodlog"
)

// Operation tracks one CLI invocation. Its ID tags every log line written
// while it runs; its outcome and duration are logged when it finishes.
type Operation struct {
	ID      string
	Name    string
	Status  string // "success" or "error"
	Started time.Time
}

// NewOperation starts an operation at now. The ID is the UTC start time.
func NewOperation(name string, now time.Time) *Operation {
	return &Operation{
		ID:      now.UTC().Format("20060102T150405Z"),
		Name:    name,
		Status:  "success",
		Started: now,
	}
}

// Fail marks the operation as failed if err is non-nil.
func (op *Operation) Fail(err error) {
	if err != nil {
		op.Status = "error"
	}
}

// Finish logs the operation's outcome.
func (op *Operation) Finish(logger foodlog.Logger, now time.Time) {
	args := []any{"operation", op.Name, "status", op.Status, "duration", now.Sub(op.Started).String()}
	if op.Status == "error" {
		logger.Warn("operation finished", args...)
		return
	}
	logger.Info("operation finished", args...)
}
