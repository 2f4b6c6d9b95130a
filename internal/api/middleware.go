package api

import (
	"net/http"
	"time"

	"github.com/Craig-Turley/listsync/internal/auth"
	"github.com/Craig-Turley/listsync/internal/logging"
	"github.com/Craig-Turley/listsync/pkg/utils"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

type Middleware func(h http.Handler) http.Handler

// type for the Logging middleware to get status for logging purposes
type WrappedWriter struct {
	http.ResponseWriter
	Status int
}

func NewWrappedWriter(w http.ResponseWriter) *WrappedWriter {
	return &WrappedWriter{
		ResponseWriter: w,
		Status:         http.StatusOK,
	}
}

func (w *WrappedWriter) WriteHeader(statusCode int) {
	w.Status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

const RequestIdHeader = "X-Request-Id"

// Logging tags the request context with a request id and logs one line per
// request once the handler returns.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestId := r.Header.Get(RequestIdHeader)
		if requestId == "" {
			requestId = uuid.NewString()
		}
		w.Header().Set(RequestIdHeader, requestId)

		ctx := logging.WithRequest(r.Context(), requestId)
		wrappedWriter := NewWrappedWriter(w)
		next.ServeHTTP(wrappedWriter, r.WithContext(ctx))

		logging.Ctx(ctx).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrappedWriter.Status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func Authorization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.TokenFromRequest(r)
		if token == "" {
			unauthorizedErrorResponse(w, r, utils.NewError("Missing auth token"))
			return
		}

		if _, err := auth.VerifyToken(token); err != nil {
			unauthorizedErrorResponse(w, r, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func EnableCors(origins []string) Middleware {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIdHeader},
		ExposedHeaders:   []string{RequestIdHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

func MiddlewareChain(xs ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(xs) - 1; i >= 0; i-- {
			x := xs[i]
			next = x(next)
		}

		return next
	}
}
