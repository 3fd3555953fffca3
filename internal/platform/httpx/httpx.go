// Package httpx provides HTTP middleware and JSON response helpers.
package httpx

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	apperrors "github.com/imranshabbir-developer/project-management/internal/platform/errors"
	"github.com/imranshabbir-developer/project-management/internal/platform/errors/i18n"
)

// RequestIDHeader carries the correlation id in and out of each request.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Middleware wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

var requestIDCounter atomic.Uint64

// Chain applies middleware in declaration order.
func Chain(handler http.Handler, middleware ...Middleware) http.Handler {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	wrapped := handler
	for idx := len(middleware) - 1; idx >= 0; idx-- {
		if middleware[idx] == nil {
			continue
		}
		wrapped = middleware[idx](wrapped)
	}
	return wrapped
}

// RequestID injects and echoes a request id for correlation.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if requestID == "" {
				requestID = fmt.Sprintf("mkt-%d-%d", time.Now().UnixNano(), requestIDCounter.Add(1))
				r.Header.Set(RequestIDHeader, requestID)
			}
			w.Header().Set(RequestIDHeader, requestID)
			next.ServeHTTP(w, r)
		})
	}
}

// RecoverPanic converts panics into HTTP 500 responses.
func RecoverPanic() Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					log.Printf(
						"panic recovered method=%s path=%s request_id=%s panic=%v stack=%s",
						r.Method,
						r.URL.Path,
						requestIDOrDash(r),
						recovered,
						strings.TrimSpace(string(debug.Stack())),
					)
					_ = WriteJSON(w, http.StatusInternalServerError, errorEnvelope{Error: errorBody{
						Code:    string(apperrors.CodeInternal),
						Message: i18n.Negotiate(r.Header.Get("Accept-Language")).Format(string(apperrors.CodeInternal), nil),
					}})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// LogRequests logs one line per request with status and latency.
func LogRequests(logf func(string, ...any)) Middleware {
	if logf == nil {
		logf = log.Printf
	}
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logf(
				"http request method=%s path=%s status=%d duration=%s request_id=%s",
				r.Method,
				r.URL.Path,
				rec.status,
				time.Since(start).Round(time.Microsecond),
				requestIDOrDash(r),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func requestIDOrDash(r *http.Request) string {
	if r == nil {
		return "-"
	}
	if rid := strings.TrimSpace(r.Header.Get(RequestIDHeader)); rid != "" {
		return rid
	}
	return "-"
}

// ErrEncodeResponse marks a payload that could not be encoded. Nothing has
// been written to the response when WriteJSON returns it.
var ErrEncodeResponse = stderrors.New("encode response")

// WriteJSON writes a JSON response with the provided status code. The
// payload is encoded before the header is sent.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return fmt.Errorf("response writer is required")
	}
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return fmt.Errorf("%w: %w", ErrEncodeResponse, err)
		}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(body.Bytes())
	return err
}

// DecodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are rejected.
func DecodeJSON(r *http.Request, dst any) error {
	if r == nil || r.Body == nil {
		return apperrors.Validation("body", "request body is required")
	}
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if stderrors.Is(err, io.EOF) {
			return apperrors.Validation("body", "request body is required")
		}
		return &apperrors.Error{
			Code:     apperrors.CodeValidation,
			Message:  "decode request body",
			Metadata: map[string]string{"Field": "body"},
			Cause:    err,
		}
	}
	return nil
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Detail   string            `json:"detail,omitempty"`
}

// ErrorWriter renders domain errors as localized JSON envelopes.
type ErrorWriter struct {
	// DevMode includes the raw error text as "detail".
	DevMode bool
	Logf    func(string, ...any)
}

// Write maps err to its HTTP status and writes {"error":{...}}.
// Errors without a domain code are reported as INTERNAL and logged.
func (ew ErrorWriter) Write(w http.ResponseWriter, r *http.Request, err error) {
	if w == nil || err == nil {
		return
	}
	code := apperrors.CodeOf(err)
	var metadata map[string]string
	var domainErr *apperrors.Error
	if stderrors.As(err, &domainErr) {
		metadata = domainErr.Metadata
	}
	if code == apperrors.CodeUnknown || code == "" {
		code = apperrors.CodeInternal
		metadata = nil
	}
	if code == apperrors.CodeInternal {
		logf := ew.Logf
		if logf == nil {
			logf = log.Printf
		}
		logf("http internal error path=%s request_id=%s err=%v", requestPath(r), requestIDOrDash(r), err)
	}

	acceptLanguage := ""
	if r != nil {
		acceptLanguage = r.Header.Get("Accept-Language")
	}
	catalog := i18n.Negotiate(acceptLanguage)
	body := errorBody{
		Code:     string(code),
		Message:  catalog.Format(string(code), metadata),
		Metadata: metadata,
	}
	if ew.DevMode {
		body.Detail = err.Error()
	}
	w.Header().Set("Content-Language", catalog.Locale())
	_ = WriteJSON(w, code.HTTPStatus(), errorEnvelope{Error: body})
}

func requestPath(r *http.Request) string {
	if r == nil || r.URL == nil {
		return "-"
	}
	return r.URL.Path
}
