package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/hashkeeper/internal/common"
	"github.com/dmitrijs2005/hashkeeper/internal/logging"
	"github.com/dmitrijs2005/hashkeeper/internal/server/models"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const userCtxKey ctxKey = "hashkeeper-user"

func userFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userCtxKey).(*models.User)
	return u, ok && u != nil
}

// requestLogger logs one line per request with status, size and latency.
func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info(r.Context(), "request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
			)
		})
	}
}

// requireSession resolves the session cookie to a user and stores it in the
// request context. Anonymous requests are redirected to /login; a session
// whose user vanished is destroyed and its cookie cleared.
func (h *handlers) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token := sessionToken(r)
		if token == "" {
			redirectToLogin(w, "Please log in to access this page.")
			return
		}

		userID, err := h.sessions.Authorize(ctx, token)
		if err != nil {
			if errors.Is(err, common.ErrUnauthenticated) {
				h.clearSessionCookie(w)
				redirectToLogin(w, "Please log in to access this page.")
				return
			}
			writeMessage(w, http.StatusInternalServerError, "Internal server error.")
			return
		}

		user, err := h.sessions.ResolveOrInvalidate(ctx, token, userID)
		if err != nil {
			if errors.Is(err, common.ErrSessionInvalidated) {
				h.clearSessionCookie(w)
				redirectToLogin(w, "User not found.")
				return
			}
			writeMessage(w, http.StatusInternalServerError, "Internal server error.")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, userCtxKey, user)))
	})
}
