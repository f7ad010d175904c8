package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"regexp"
	"strings"
	"syscall"

	ollamaapi "github.com/ollama/ollama/api"
	"google.golang.org/genai"
)

// ErrorClass is the kind of a gateway failure. Callers branch on the class,
// never on the message text.
type ErrorClass string

const (
	ClassAuthentication ErrorClass = "authentication"
	ClassNotFound       ErrorClass = "not_found"
	ClassTransient      ErrorClass = "transient"
	ClassEmptyResponse  ErrorClass = "empty_response"
)

var (
	ErrAuthentication = errors.New("model provider rejected the credentials")
	ErrNotFound       = errors.New("model or endpoint not found")
	ErrTransient      = errors.New("model provider temporarily unavailable")
	ErrEmptyResponse  = errors.New("model returned no content")
)

// Operator-facing messages, one per class.
const (
	msgAuthentication = "The model provider rejected the configured credentials. Check GEMINI_API_KEY or the provider access settings."
	msgNotFound       = "The configured model or endpoint was not found. Check GENERATOR_MODEL_NAME and OLLAMA_HOST."
	msgTransient      = "The model provider is temporarily unavailable (timeout, rate limit or network error)."
	msgEmptyResponse  = "The model returned an empty response."
)

// Retryable reports whether a failure of this class may succeed on retry.
func (c ErrorClass) Retryable() bool { return c == ClassTransient }

func (c ErrorClass) sentinel() error {
	switch c {
	case ClassAuthentication:
		return ErrAuthentication
	case ClassNotFound:
		return ErrNotFound
	case ClassEmptyResponse:
		return ErrEmptyResponse
	default:
		return ErrTransient
	}
}

// GatewayError is a classified provider failure.
type GatewayError struct {
	Class   ErrorClass
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *GatewayError) Is(target error) bool { return target == e.Class.sentinel() }

func (e *GatewayError) Unwrap() error { return e.Err }

// ClassOf returns the class of a gateway error anywhere in err's chain.
func ClassOf(err error) (ErrorClass, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Class, true
	}
	return "", false
}

func newGatewayError(class ErrorClass, err error) *GatewayError {
	msg := msgTransient
	switch class {
	case ClassAuthentication:
		msg = msgAuthentication
	case ClassNotFound:
		msg = msgNotFound
	case ClassEmptyResponse:
		msg = msgEmptyResponse
	}
	return &GatewayError{Class: class, Message: msg, Err: err}
}

var (
	transientCodeRegex = regexp.MustCompile(`\b(408|429|500|502|503|504)\b`)
	authTextRegex      = regexp.MustCompile(`(?i)\b(401|403)\b|unauthori[sz]ed|forbidden|invalid api key|api key not valid|permission denied|authentication`)
	notFoundTextRegex  = regexp.MustCompile(`(?i)\b404\b|not found|no such model|unknown model|try pulling it first`)
	transientTextRegex = regexp.MustCompile(`(?i)rate limit|quota|timeout|timed out|temporarily|unavailable|connection refused|connection reset|eof`)
)

// classify maps a raw provider error to a GatewayError. Typed errors from the
// provider SDKs are inspected first; the message text is the fallback for
// clients that only return formatted strings. Unknown failures are treated as
// transient.
func classify(err error) *GatewayError {
	if err == nil {
		return nil
	}
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr
	}
	if code, ok := statusCode(err); ok {
		return newGatewayError(classForStatus(code), err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return newGatewayError(ClassTransient, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return newGatewayError(ClassTransient, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return newGatewayError(ClassTransient, err)
	}

	// A transient status code wins over words in the body: a 503 saying
	// "authentication backend unavailable" is still worth a retry.
	msg := strings.TrimSpace(err.Error())
	switch {
	case transientCodeRegex.MatchString(msg):
		return newGatewayError(ClassTransient, err)
	case authTextRegex.MatchString(msg):
		return newGatewayError(ClassAuthentication, err)
	case notFoundTextRegex.MatchString(msg):
		return newGatewayError(ClassNotFound, err)
	case transientTextRegex.MatchString(msg):
		return newGatewayError(ClassTransient, err)
	default:
		return newGatewayError(ClassTransient, err)
	}
}

func statusCode(err error) (int, bool) {
	var ollamaErr ollamaapi.StatusError
	if errors.As(err, &ollamaErr) {
		return ollamaErr.StatusCode, true
	}
	var ollamaErrPtr *ollamaapi.StatusError
	if errors.As(err, &ollamaErrPtr) && ollamaErrPtr != nil {
		return ollamaErrPtr.StatusCode, true
	}
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return genaiErr.Code, true
	}
	var genaiErrPtr *genai.APIError
	if errors.As(err, &genaiErrPtr) && genaiErrPtr != nil {
		return genaiErrPtr.Code, true
	}
	return 0, false
}

func classForStatus(code int) ErrorClass {
	switch {
	case code == 401 || code == 403:
		return ClassAuthentication
	case code == 404:
		return ClassNotFound
	default:
		return ClassTransient
	}
}
