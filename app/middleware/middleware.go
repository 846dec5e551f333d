package appMiddleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

// SessionIDKey carries the chat session targeted by the request.
const SessionIDKey contextKey = "chatSessionID"

// ChatSession extracts the X-Session-ID header, validates it as a UUID and
// stores it in the request context. Requests without the header pass
// through untouched; handlers that require a session reject those
// themselves.
func ChatSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-Session-ID")
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "X-Session-ID must be a valid UUID", http.StatusBadRequest)
			return
		}

		ctx := context.WithValue(r.Context(), SessionIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionIDFromContext returns the session ID stored by ChatSession.
func SessionIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(SessionIDKey).(uuid.UUID)
	return id, ok
}
