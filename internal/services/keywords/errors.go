package keywords

import (
	"errors"
	"fmt"
)

// Extraction failure reasons
var (
	ErrNoPayload        = errors.New("no structural payload found")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrMissingField     = errors.New("record is missing a required field")
	ErrEmptyPayload     = errors.New("payload contains no records")
)

// ExtractionError is returned when no valid keyword list can be recovered from an LLM reply.
type ExtractionError struct {
	Reason error
	Detail string
	Cause  error
}

func (e *ExtractionError) Error() string {
	msg := "extraction failed: " + e.Reason.Error()
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the reason sentinel and the underlying decode error.
func (e *ExtractionError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Reason, e.Cause}
	}
	return []error{e.Reason}
}

// ValidationError reports bad user input. The store is left unchanged.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NotFoundError is returned when an inclusion change references a record the store does not hold.
type NotFoundError struct {
	ID RecordID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("keyword record %d not found", e.ID)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsExtraction reports whether err is (or wraps) an ExtractionError.
func IsExtraction(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}
