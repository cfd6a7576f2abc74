package core

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError is a user-correctable error; it carries the offending fields
// and is surfaced verbatim to the caller.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// IntegrityError indicates persisted state that violates an invariant
// (e.g. a frozen template version missing from the store). It is fatal,
// non-retriable, and must never be downgraded to an ordinary not-found.
type IntegrityError struct {
	Err error
}

func NewIntegrityError(err error) error {
	return &IntegrityError{Err: err}
}

func (err IntegrityError) Error() string {
	if err.Err == nil {
		return "data integrity violation"
	}
	return "data integrity violation: " + err.Err.Error()
}

func (err IntegrityError) Unwrap() error { return err.Err }

func IsIntegrity(err error) bool {
	_, ok := err.(*IntegrityError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := err.(*shutdown)
	return ok
}
