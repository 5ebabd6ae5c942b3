package middleware

import (
	"context"
	"net/http"
	"strings"
)

const userIDKey contextKey = "user_id"

// Identity installs the caller's user id from the X-User-ID header set by
// the fronting proxy after it authenticates the session. Requests without
// the header pass through with no identity; handlers that need one reject
// them.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}
