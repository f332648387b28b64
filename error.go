package docdex

import (
	"errors"
	"fmt"
)

// Application error codes.
//
// These are meant to be human readable and machine processable: callers
// branch on the code, users see the message.
const (
	ECONFLICT    = "conflict"    // action cannot be performed
	EINTERNAL    = "internal"    // internal error
	EINVALID     = "invalid"     // validation failed (includes bad query syntax)
	ENOTFOUND    = "not_found"   // entity does not exist
	EPOLICY      = "policy"      // crawl policy (robots.txt) disallows the URL
	EUNSUPPORTED = "unsupported" // document format cannot be extracted
	EUNAVAILABLE = "unavailable" // optional capability (OCR, semantic) not present
	EFETCH       = "fetch"       // HTTP transport failure
)

// Error represents an application-specific error. Application errors can be
// unwrapped by the caller to extract out the code and message.
type Error struct {
	// Machine-readable error code.
	Code string

	// Human-readable message.
	Message string
}

// Error implements the error interface. Not used by the application
// otherwise.
func (e *Error) Error() string {
	return fmt.Sprintf("docdex error: code=%s message=%s", e.Code, e.Message)
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return EFETCH
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// FetchError describes a failed HTTP fetch. Transient failures (timeouts,
// 5xx, 429) are retried by the fetcher before one of these surfaces;
// permanent failures (other 4xx) are not.
type FetchError struct {
	URL       string
	Status    int // zero when the request never completed
	Transient bool
	Err       error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying transport error, if any.
func (e *FetchError) Unwrap() error { return e.Err }
