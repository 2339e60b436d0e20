package main

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/myrjola/lifelog/internal/contexthelpers"
	"github.com/myrjola/lifelog/internal/errors"
	"github.com/myrjola/lifelog/internal/logging"
)

const (
	maxRequestBytes = 1 << 20
	maxImportBytes  = 32 << 20
)

// responseRecorder remembers the status code and the body size for the request log.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	written    int
	wroteHead  bool
}

func (rec *responseRecorder) WriteHeader(statusCode int) {
	if !rec.wroteHead {
		rec.statusCode = statusCode
		rec.wroteHead = true
	}
	rec.ResponseWriter.WriteHeader(statusCode)
}

func (rec *responseRecorder) Write(b []byte) (int, error) {
	rec.wroteHead = true
	n, err := rec.ResponseWriter.Write(b)
	rec.written += n
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rec *responseRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// secureHeaders sets a strict CSP. Pages carry no scripts and the stylesheet is allowed through the nonce.
func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cspNonce := rand.Text()
		csp := fmt.Sprintf("default-src 'none'; script-src 'none'; style-src 'nonce-%s' 'self'; img-src 'self'; "+
			"form-action 'self'; frame-ancestors 'none'; base-uri 'none'; object-src 'none';", cspNonce)

		h := w.Header()
		h.Set("Content-Security-Policy", csp)
		h.Set("Referrer-Policy", "same-origin")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "deny")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")

		next.ServeHTTP(w, contexthelpers.SetCSPNonce(r, cspNonce))
	})
}

func cacheForever(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		next.ServeHTTP(w, r)
	})
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		next.ServeHTTP(w, r)
	})
}

// limitRequestBody caps the request body. Reading past the limit fails with [http.MaxBytesError].
func limitRequestBody(limit int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next.ServeHTTP(w, r)
	})
}

// logAndTraceRequest tags every log line of the request with a trace id and logs the outcome.
func (app *application) logAndTraceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithAttrs(r.Context(),
			slog.String("trace_id", rand.Text()),
			slog.String("method", r.Method),
			slog.String("uri", r.URL.RequestURI()),
		)
		r = r.WithContext(ctx)

		start := time.Now()
		app.logger.LogAttrs(ctx, slog.LevelDebug, "received request")

		rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK, written: 0, wroteHead: false}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		app.logger.LogAttrs(ctx, level, "request completed",
			slog.Int("status_code", rec.statusCode),
			slog.Int("bytes", rec.written),
			slog.Duration("duration", time.Since(start)))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if excp := recover(); excp != nil {
				w.Header().Set("Connection", "close")
				app.serverError(w, r, errors.DecoratePanic(excp))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// commonContext stores request values that templates and handlers read from the context.
func commonContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = contexthelpers.SetCurrentPath(r, r.URL.Path)
		r = contexthelpers.SetEnvironment(r, r.URL.Query().Get("environment"))
		next.ServeHTTP(w, r)
	})
}

// crossOriginProtection rejects cross-origin state-changing requests.
func (app *application) crossOriginProtection(next http.Handler) http.Handler {
	return http.NewCrossOriginProtection().Handler(next)
}

// timeout cancels the request context and responds with 503 when the handler misses the deadline.
func (app *application) timeout(next http.Handler) http.Handler {
	// Writing the response takes time so the handler deadline is a little shorter than the server's write timeout.
	handlerTimeout := app.requestTimeout - (200 * time.Millisecond) //nolint:mnd // 200ms
	return http.TimeoutHandler(next, handlerTimeout, "timed out")
}
