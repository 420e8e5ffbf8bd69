package errors

import "errors"

// Kinds. Every domain error wraps exactly one of these so transports can map
// failures with errors.Is without knowing each concrete error.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
)

var (
	ErrAllFieldsRequired     = newError(ErrValidation, "all fields required")
	ErrInvalidIdentifier     = newError(ErrValidation, "invalid identifier")
	ErrTitleRequired         = newError(ErrValidation, "agenda item title is required")
	ErrSessionRequired       = newError(ErrValidation, "session id is required")
	ErrSessionWindowRequired = newError(ErrValidation, "session start and end are required")

	ErrAlreadyVoted   = newError(ErrConflict, "already voted")
	ErrSessionNotOpen = newError(ErrConflict, "session not open")

	ErrSessionNotFound    = newError(ErrNotFound, "session not found")
	ErrAgendaItemNotFound = newError(ErrNotFound, "agenda item not found")
)

// DomainError is a named failure tagged with its kind.
type DomainError struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *DomainError {
	return &DomainError{kind: kind, msg: msg}
}

func (e *DomainError) Error() string {
	return e.msg
}

func (e *DomainError) Unwrap() error {
	return e.kind
}

// Kind returns the sentinel kind of the error.
func (e *DomainError) Kind() error {
	return e.kind
}
