package server

import (
	"net/http"
	"time"
)

type loginView struct {
	Failed      bool
	RateLimited bool
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if user, err := s.auth.Authenticate(r.Context(), cookie.Value, time.Now()); err == nil && user != nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}
	s.render(w, http.StatusOK, "login.html", loginView{
		Failed: r.URL.Query().Get("failed") != "",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}

	now := time.Now()
	key := clientKey(r)
	if !s.loginLimiter.Allow(key, now) {
		s.render(w, http.StatusTooManyRequests, "login.html", loginView{RateLimited: true})
		return
	}

	result, err := s.auth.Login(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"), now)
	if err != nil {
		s.loginLimiter.RecordFailure(key, now)
		s.log().Warn("sign-in rejected", "remote_addr", r.RemoteAddr, "error", err)
		http.Redirect(w, r, "/login?failed=1", http.StatusSeeOther)
		return
	}

	s.loginLimiter.RecordSuccess(key)
	setSessionCookie(w, result.Token, result.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := s.auth.Logout(r.Context(), cookie.Value); err != nil {
			s.log().Warn("logout", "error", err)
		}
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
