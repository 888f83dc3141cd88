package main

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type ctxKey string

const subjectKey ctxKey = "subject"

// authMiddleware extracts and validates the Bearer token, checks the session
// is still live (logout revokes it) and injects the subject into context.
func (a *App) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		raw := strings.TrimPrefix(authz, "Bearer ")
		subject, err := parseJWT(a.cfg.JWTSecret, raw)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if _, ok := a.session(subject); !ok {
			http.Error(w, "session expired", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), subjectKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// mustSubject returns the subject injected by authMiddleware.
func mustSubject(r *http.Request) string {
	val := r.Context().Value(subjectKey)
	if val == nil {
		return ""
	}
	return val.(string)
}

// recoverMiddleware is the top-level catch-all: an uncaught panic becomes a
// 500 with a reload hint instead of a dropped connection.
func (a *App) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				a.log.Error("panic in handler",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path))
				http.Error(w, "something went wrong, please reload", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
