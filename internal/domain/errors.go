package domain

import "fmt"

// ValidationErrorKind is the closed set of reasons the Validator can reject a parsed
// frame.
type ValidationErrorKind string

const (
	ValidationDomainMismatch         ValidationErrorKind = "domain_mismatch"
	ValidationOutOfRange             ValidationErrorKind = "out_of_range"
	ValidationShortRead              ValidationErrorKind = "short_read"
	ValidationUnknownMissingSentinel ValidationErrorKind = "unknown_missing_sentinel"
)

// ValidationError is the structured verdict the Validator emits on failure. Variable and
// Count are optional context, populated when the kind makes them meaningful
// (out_of_range -> Variable, short_read -> Count).
type ValidationError struct {
	Kind     ValidationErrorKind
	Variable Variable
	Count    int
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ValidationOutOfRange:
		return fmt.Sprintf("validation failed: %s (variable=%s)", e.Kind, e.Variable)
	case ValidationShortRead:
		return fmt.Sprintf("validation failed: %s (count=%d)", e.Kind, e.Count)
	default:
		return fmt.Sprintf("validation failed: %s", e.Kind)
	}
}

// NewValidationError constructs a ValidationError of the given kind with no extra
// context.
func NewValidationError(kind ValidationErrorKind) *ValidationError {
	return &ValidationError{Kind: kind}
}

// JobErrorKind is the closed set of reasons an ingestion job can fail, per §7.
type JobErrorKind string

const (
	JobErrorTransient JobErrorKind = "transient" // fetch failure, retries exhausted.
	JobErrorMalformed JobErrorKind = "malformed" // parse error, missing variable, unknown unit.
	JobErrorInvalid   JobErrorKind = "invalid"   // validator rejection.
	JobErrorStore     JobErrorKind = "store"     // bulk insert / transaction failure.
	JobErrorTimeout   JobErrorKind = "timeout"   // job deadline expired.
)

// JobError wraps the underlying cause of an ingestion job failure with its taxonomy
// kind, so the Loader can set IngestionLog.Status/ErrorMessage without re-deriving the
// classification from error string matching.
type JobError struct {
	Kind  JobErrorKind
	Cause error
}

func (e *JobError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("job failed(%s)", e.Kind)
	}
	return fmt.Sprintf("job failed(%s): %v", e.Kind, e.Cause)
}

func (e *JobError) Unwrap() error {
	return e.Cause
}

// NewJobError wraps cause with a job-error kind.
func NewJobError(kind JobErrorKind, cause error) *JobError {
	return &JobError{Kind: kind, Cause: cause}
}
