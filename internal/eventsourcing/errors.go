package eventsourcing

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError is a single named validation failure. Code is stable and
// machine-readable ("Price.GreaterThanOrEqualToZero"), Message is for
// humans.
type FieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValidationErrors aggregates every validation failure of one command or
// value-object construction. Validation failures are returned, never
// panicked, and a non-empty ValidationErrors means no state was mutated and
// no event was recorded.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

// Has reports whether the collection contains the given error code.
func (v ValidationErrors) Has(code string) bool {
	for _, e := range v {
		if e.Code == code {
			return true
		}
	}
	return false
}

// AsValidation unwraps err into a ValidationErrors collection if it is one.
func AsValidation(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// Validation builds a single-entry collection. Convenience for callers that
// surface exactly one coded failure.
func Validation(code, message string) ValidationErrors {
	return ValidationErrors{{Code: code, Message: message}}
}

// Collector accumulates field errors across a multi-field validation pass so
// the caller gets every failure at once, not just the first.
type Collector struct {
	errs ValidationErrors
}

func (c *Collector) Add(code, message string) {
	c.errs = append(c.errs, FieldError{Code: code, Message: message})
}

// Merge folds another error into the collection. ValidationErrors are
// flattened; any other error is reported as-is by returning it from Err via
// the caller's own handling, so Merge only accepts validation shapes.
func (c *Collector) Merge(err error) {
	if err == nil {
		return
	}
	if v, ok := AsValidation(err); ok {
		c.errs = append(c.errs, v...)
		return
	}
	c.errs = append(c.errs, FieldError{Code: "Validation.Unclassified", Message: err.Error()})
}

// Err returns the accumulated collection, or nil when nothing failed.
func (c *Collector) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}
