package engine

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/law-makers/seocrawl/pkg/models"
	"github.com/rs/zerolog"
)

var (
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrBrowserCrash    = errors.New("browser crashed")
	ErrTimeout         = errors.New("request timeout")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrNetworkError    = errors.New("network error")
	ErrParseError      = errors.New("failed to parse markup")
	ErrServerError     = errors.New("server error")
	ErrBodyTooLarge    = errors.New("response body too large")
	ErrClientAppError  = errors.New("client-side application error page")
)

// ErrorCode names the stage of a crawl that failed.
type ErrorCode string

const (
	ErrCodeTimeout      ErrorCode = "TIMEOUT"
	ErrCodeValidation   ErrorCode = "VALIDATION"
	ErrCodeBrowserCrash ErrorCode = "BROWSER_CRASH"
	ErrCodeNetworkError ErrorCode = "NETWORK_ERROR"
	ErrCodeParseError   ErrorCode = "PARSE_ERROR"
	ErrCodeServerError  ErrorCode = "SERVER_ERROR"
	ErrCodeClientApp    ErrorCode = "CLIENT_APP_ERROR"
	ErrCodeStartup      ErrorCode = "BACKEND_STARTUP"
)

// errorKinds maps codes to the kind recorded on a page's error record.
// Codes not listed are fetch errors.
var errorKinds = map[ErrorCode]models.ErrorKind{
	ErrCodeServerError: models.ErrorKindServer,
	ErrCodeClientApp:   models.ErrorKindClientApp,
	ErrCodeParseError:  models.ErrorKindExtraction,
}

// EngineError is a backend or extraction failure. It satisfies the retry
// package's StatusCoder and Retryable, and logs its details as a zerolog
// object.
type EngineError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	StatusCode int
	Retry      bool
	Details    map[string]interface{}
}

func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{Code: code, Message: message, Underlying: err}
}

func (e *EngineError) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

func (e *EngineError) Unwrap() error { return e.Underlying }

// Is matches another *EngineError by code, or anything in the wrapped chain.
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

func (e *EngineError) GetStatusCode() int { return e.StatusCode }

func (e *EngineError) IsRetryable() bool { return e.Retry }

// WithRetry marks a failure that may succeed on another attempt.
func (e *EngineError) WithRetry() *EngineError {
	e.Retry = true
	return e
}

// WithStatus records the HTTP status behind the failure.
func (e *EngineError) WithStatus(status int) *EngineError {
	e.StatusCode = status
	return e
}

func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// MarshalZerologObject writes the code, status and details.
func (e *EngineError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("code", string(e.Code))
	if e.StatusCode > 0 {
		ev.Int("status", e.StatusCode)
	}
	for k, v := range e.Details {
		ev.Interface(k, v)
	}
}

// LogError attaches err to ev, embedding the fields of an EngineError found
// in its chain.
func LogError(ev *zerolog.Event, err error) *zerolog.Event {
	ev = ev.Err(err)
	var ee *EngineError
	if errors.As(err, &ee) {
		ev = ev.EmbedObject(ee)
	}
	return ev
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.StatusCode
	}
	return 0
}

func ClassifyError(err error) models.ErrorKind {
	var ee *EngineError
	if errors.As(err, &ee) {
		if kind, ok := errorKinds[ee.Code]; ok {
			return kind
		}
	}
	return models.ErrorKindFetch
}

// WrapTransportError turns a failed round trip into a retryable timeout or
// network error.
func WrapTransportError(url string, err error) *EngineError {
	var netErr net.Error
	timedOut := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())

	ee := NewEngineError(ErrCodeNetworkError, "failed to fetch URL", errors.Join(ErrNetworkError, err))
	if timedOut {
		ee = NewEngineError(ErrCodeTimeout, "request timed out", errors.Join(ErrTimeout, err))
	}
	return ee.WithRetry().WithDetail("url", url)
}
