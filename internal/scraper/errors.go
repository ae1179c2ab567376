package scraper

import (
	"errors"
	"fmt"
)

// Stable error codes. The UI maps them to localized text.
const (
	CodeTimeout        = 32000
	CodeFetch          = 32001
	CodeParse          = 32002
	CodeAuth           = 32003
	CodeProxyList      = 32004
	CodeNoValidProxies = 32005
)

// Error is the single error type surfaced by the fetch gateway and the site
// scrapers built on it.
type Error struct {
	Code    int    // Localized message key
	Message string // English log message
	Cause   error
}

// NewError builds an Error with a formatted message.
func NewError(code int, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Code returns the error code carried by err, or 0 if err is not an *Error.
func Code(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}
