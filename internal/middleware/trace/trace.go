package trace

import (
	"context"
	"net/http"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"budgetdesk/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	// HeaderRequestID is read from callers and echoed on every response.
	HeaderRequestID = "X-Request-ID"
)

// inbound ids are accepted only when they cannot break log lines
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// Middleware handles request tracing and access logging
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *log.Logger

	total      int64
	inFlight   int64
	durationUS int64
	byClass    [6]int64 // index = status / 100
}

// Metrics is a snapshot of request counters.
type Metrics struct {
	TotalRequests       int64
	InFlight            int64
	TotalDuration       time.Duration
	AverageResponseTime time.Duration
	ByStatusClass       map[string]int64 // "2xx", "4xx", ...
}

// NewMiddleware creates a new trace middleware. A nil logger uses the default.
func NewMiddleware(extractIP func(*http.Request) string, logger *log.Logger) *Middleware {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Middleware{
		extractIP: extractIP,
		logger:    logger.WithComponent(log.ComponentTrace),
	}
}

// Middleware assigns a request id, puts a request-scoped logger in the
// context and logs request start and completion.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	access := log.NewStructuredLogger(m.logger)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(HeaderRequestID)
		if !validRequestID.MatchString(requestID) {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		access.LogHTTPStart(ctx, r, clientIP)

		atomic.AddInt64(&m.total, 1)
		atomic.AddInt64(&m.inFlight, 1)
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			atomic.AddInt64(&m.inFlight, -1)
			duration := time.Since(start)
			atomic.AddInt64(&m.durationUS, duration.Microseconds())
			if class := rw.statusCode / 100; class > 0 && class < len(m.byClass) {
				atomic.AddInt64(&m.byClass[class], 1)
			}
			access.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
		}()

		next.ServeHTTP(rw, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return uuid.NewString()
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	total := atomic.LoadInt64(&m.total)
	duration := time.Duration(atomic.LoadInt64(&m.durationUS)) * time.Microsecond
	out := Metrics{
		TotalRequests: total,
		InFlight:      atomic.LoadInt64(&m.inFlight),
		TotalDuration: duration,
		ByStatusClass: make(map[string]int64, 5),
	}
	if completed := total - out.InFlight; completed > 0 {
		out.AverageResponseTime = duration / time.Duration(completed)
	}
	for class := 1; class < len(m.byClass); class++ {
		out.ByStatusClass[string(rune('0'+class))+"xx"] = atomic.LoadInt64(&m.byClass[class])
	}
	return out
}
