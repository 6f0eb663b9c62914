package server

import (
	"context"
	"net/http"
	"time"

	"augnotes/internal/store"
)

type authContextKey struct{}

func contextWithUser(ctx context.Context, user *store.AuthUser) context.Context {
	return context.WithValue(ctx, authContextKey{}, user)
}

func userFromContext(ctx context.Context) *store.AuthUser {
	if ctx == nil {
		return nil
	}
	user, _ := ctx.Value(authContextKey{}).(*store.AuthUser)
	return user
}

// requireAdmin guards a handler behind an authenticated admin session.
// Unauthenticated browsers are redirected to the sign-in page. The guard
// is applied uniformly to every admin route instead of per-handler checks.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		required, err := s.auth.AuthRequired(ctx)
		if err != nil {
			s.writeError(w, r, internalError(err))
			return
		}
		if !required {
			next(w, r)
			return
		}

		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			redirectToLogin(w, r)
			return
		}

		user, err := s.auth.Authenticate(ctx, cookie.Value, time.Now())
		if err != nil {
			s.writeError(w, r, internalError(err))
			return
		}
		if user == nil {
			clearSessionCookie(w)
			redirectToLogin(w, r)
			return
		}

		next(w, r.WithContext(contextWithUser(ctx, user)))
	}
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
