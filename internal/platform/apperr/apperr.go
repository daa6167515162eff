// Package apperr defines the error taxonomy shared by the visit workflow
// packages and its mapping onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

// Kind classifies an error for callers and transports.
type Kind string

const (
	NotFound           Kind = "not_found"
	Conflict           Kind = "conflict"
	IllegalTransition  Kind = "illegal_transition"
	InvalidInput       Kind = "invalid_input"
	StorageUnavailable Kind = "storage_unavailable"
	PartialCommit      Kind = "partial_commit"
)

// Error is a classified error. Two errors match under errors.Is when their
// codes are equal, so package-level sentinels can be compared against
// instances that carry ids and details.
type Error struct {
	Kind    Kind
	Code    string
	Entity  string
	ID      string
	Message string
	Details map[string]string
	Err     error
}

// New returns a sentinel-style error without an id.
func New(kind Kind, code, entity, message string) *Error {
	return &Error{Kind: kind, Code: code, Entity: entity, Message: message}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.ID != "" {
		fmt.Fprintf(&b, " (%s %s)", e.Entity, e.ID)
	}
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%s", k, e.Details[k])
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on code; an empty code only matches the identical pointer.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == "" {
		return t == e
	}
	return t.Code == e.Code
}

// WithID returns a copy of e bound to a specific entity id.
func (e *Error) WithID(id string) *Error {
	c := e.clone()
	c.ID = id
	return c
}

// WithDetail returns a copy of e with one extra detail entry.
func (e *Error) WithDetail(key, value string) *Error {
	c := e.clone()
	c.Details[key] = value
	return c
}

// Wrap returns a copy of e carrying cause as its underlying error.
func (e *Error) Wrap(cause error) *Error {
	c := e.clone()
	c.Err = cause
	return c
}

func (e *Error) clone() *Error {
	c := *e
	c.Details = make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		c.Details[k] = v
	}
	return &c
}

// Storage wraps a persistence failure as StorageUnavailable. Errors that are
// already classified pass through untouched.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{
		Kind:    StorageUnavailable,
		Code:    "storage_unavailable",
		Message: op,
		Err:     err,
	}
}

// Invalid builds an InvalidInput error for a single field.
func Invalid(code, message string) *Error {
	return &Error{Kind: InvalidInput, Code: code, Message: message}
}

// KindOf returns the kind of the first classified error in err's chain, or
// the empty kind.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Details returns the details map of the classified error in err's chain.
func Details(err error) map[string]string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Details
	}
	return nil
}

// codeStatus overrides the kind-level status for specific codes.
var codeStatus = map[string]int{
	"transition_not_permitted": http.StatusForbidden,
}

// HTTPStatus maps err onto a response status.
func HTTPStatus(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	if s, ok := codeStatus[ae.Code]; ok {
		return s
	}
	switch ae.Kind {
	case NotFound:
		return http.StatusNotFound
	case Conflict, IllegalTransition:
		return http.StatusConflict
	case InvalidInput:
		return http.StatusBadRequest
	case StorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ToHTTP converts err into an echo.HTTPError with a structured body.
// Unclassified errors are reported as a bare 500 without leaking internals.
func ToHTTP(err error) *echo.HTTPError {
	var ae *Error
	if !errors.As(err, &ae) {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
	body := map[string]interface{}{
		"code":    ae.Code,
		"kind":    ae.Kind,
		"message": ae.Message,
	}
	if ae.Entity != "" {
		body["entity"] = ae.Entity
	}
	if ae.ID != "" {
		body["id"] = ae.ID
	}
	if len(ae.Details) > 0 {
		body["details"] = ae.Details
	}
	he := echo.NewHTTPError(HTTPStatus(err), body)
	if ae.Err != nil {
		he = he.SetInternal(ae.Err)
	}
	return he
}
