// Package apierror classifies failures of calls to the catalog API.
//
// Every error returned by the catalog and chat clients wraps exactly one of
// NetworkError, HTTPStatusError or UnknownError. DecodeError only ever reaches
// the logs: a malformed stream line is skipped, never returned.
package apierror

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Kind is the coarse class of an API failure.
type Kind int

const (
	KindNone Kind = iota
	KindNetwork
	KindHTTPStatus
	KindDecode
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNetwork:
		return "network"
	case KindHTTPStatus:
		return "http_status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// maxBodySnippet bounds how much of an error response body is kept.
const maxBodySnippet = 512

// NetworkError means the request never produced a response, or the
// connection broke while the body was being read.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network issue or server did not respond: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPStatusError means the server answered with a non-2xx status.
type HTTPStatusError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: API error: %d %s", e.Op, e.StatusCode, e.Status)
	}
	return fmt.Sprintf("%s: API error: %d %s: %s", e.Op, e.StatusCode, e.Status, e.Body)
}

// DecodeError is one stream line that failed to parse.
type DecodeError struct {
	Line string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error parsing JSON line %q: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnknownError is everything else, e.g. a response body that is not the
// expected JSON document.
type UnknownError struct {
	Op  string
	Err error
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UnknownError) Unwrap() error { return e.Err }

// Network wraps err as a NetworkError.
func Network(op string, err error) error {
	return &NetworkError{Op: op, Err: err}
}

// Unknown wraps err as an UnknownError.
func Unknown(op string, err error) error {
	return &UnknownError{Op: op, Err: err}
}

// CheckStatus returns an HTTPStatusError for any non-2xx response, keeping a
// short prefix of the body for diagnostics. The body is not closed.
func CheckStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySnippet))
	return &HTTPStatusError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
		Body:       strings.TrimSpace(string(body)),
	}
}

// KindOf classifies err. Errors not produced by this package are KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var netErr *NetworkError
	var statusErr *HTTPStatusError
	var decErr *DecodeError
	switch {
	case errors.As(err, &statusErr):
		return KindHTTPStatus
	case errors.As(err, &netErr):
		return KindNetwork
	case errors.As(err, &decErr):
		return KindDecode
	default:
		return KindUnknown
	}
}

// StatusCode returns the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}
	return 0, false
}

// Describe renders err as the one-line flag shown to the user, prefixed with
// the component that failed.
func Describe(component string, err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindHTTPStatus:
		code, _ := StatusCode(err)
		return fmt.Sprintf("[%s] API Error: %d - %s", component, code, http.StatusText(code))
	case KindNetwork:
		return fmt.Sprintf("[%s] Network issue or server did not respond", component)
	default:
		return fmt.Sprintf("[%s] %s", component, errors.Cause(err).Error())
	}
}
