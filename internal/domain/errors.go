// Package domain defines core types, interfaces, and errors for the scouting hub.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates a malformed or empty inbound payload. It is raised
// at the boundary before any side effect is attempted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// SinkError reports a failure of a single persistence sink. It never aborts
// the other sink.
type SinkError struct {
	Sink string // "csv" or "db"
	Err  error
}

func (e *SinkError) Error() string { return fmt.Sprintf("%s sink: %v", e.Sink, e.Err) }

func (e *SinkError) Unwrap() error { return e.Err }

// GateError is a terminal rejection of a generated query. Candidate always holds
// the raw generator output so operators can debug without regenerating.
type GateError struct {
	Stage     GateStage
	Reason    string
	Detail    string
	Candidate string
	Err       error
}

func (e *GateError) Error() string {
	msg := "query rejected at " + string(e.Stage) + ": " + e.Reason
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *GateError) Unwrap() error { return e.Err }

// ExecError wraps a database-level failure while executing a validated query.
// Query is the exact text that was sent to the store.
type ExecError struct {
	Query string
	Err   error
}

func (e *ExecError) Error() string { return "query execution failed: " + e.Err.Error() }

func (e *ExecError) Unwrap() error { return e.Err }

// ServiceError indicates an external dependency (the text generator, object
// storage) could not be reached or returned an unusable response.
type ServiceError struct {
	Service string
	Err     error
}

func (e *ServiceError) Error() string { return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err) }

func (e *ServiceError) Unwrap() error { return e.Err }

// UnavailableError is returned by entry points whose capability was not
// resolved at startup.
type UnavailableError struct {
	Capability string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("capability unavailable: %s", e.Capability)
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
