package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	internalauth "augnotes/internal/auth"
	"augnotes/internal/store"
)

func createAdmin(t *testing.T, st *store.Store, email, password string) {
	t.Helper()
	hash, err := internalauth.HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.CreateAdminUser(context.Background(), email, hash, time.Now()); err != nil {
		t.Fatal(err)
	}
}

func login(t *testing.T, s *Server, email, password string) *http.Cookie {
	t.Helper()
	form := url.Values{"email": {email}, "password": {password}}
	w := postForm(t, s, "/login", form)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after login, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to index, got %q", loc)
	}
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == sessionCookieName && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("expected session cookie")
	return nil
}

func TestBootstrapModeRunsOpen(t *testing.T) {
	s, _ := newTestServer(t)

	// With no provisioned accounts every admin page is reachable, so the
	// first account can be created out of band.
	w := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected open access with no accounts, got %d", w.Code)
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	s, st := newTestServer(t)
	createAdmin(t, st, "admin@example.com", "password123")

	for _, path := range []string{"/", "/songs", "/box_edit/1", "/zip/1", "/example"} {
		w := do(t, s, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusSeeOther {
			t.Errorf("%s: expected redirect, got %d", path, w.Code)
			continue
		}
		if loc := w.Header().Get("Location"); loc != "/login" {
			t.Errorf("%s: expected redirect to login, got %q", path, loc)
		}
	}

	// Health stays open.
	w := do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected open health endpoint, got %d", w.Code)
	}
}

func TestLoginFlow(t *testing.T) {
	s, st := newTestServer(t)
	createAdmin(t, st, "admin@example.com", "password123")

	cookie := login(t, s, "admin@example.com", "password123")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	w := do(t, s, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected access with session, got %d", w.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s, st := newTestServer(t)
	createAdmin(t, st, "admin@example.com", "password123")

	form := url.Values{"email": {"admin@example.com"}, "password": {"wrong password"}}
	w := postForm(t, s, "/login", form)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login?failed=1" {
		t.Errorf("expected failed login redirect, got %q", loc)
	}

	form = url.Values{"email": {"nobody@example.com"}, "password": {"password123"}}
	w = postForm(t, s, "/login", form)
	if loc := w.Header().Get("Location"); loc != "/login?failed=1" {
		t.Errorf("expected failed login redirect for unknown user, got %q", loc)
	}
}

func TestLoginRejectsDisabledUser(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()
	createAdmin(t, st, "admin@example.com", "password123")
	createAdmin(t, st, "other@example.com", "password456")
	if err := st.SetUserDisabled(ctx, "admin@example.com", true, time.Now()); err != nil {
		t.Fatal(err)
	}

	form := url.Values{"email": {"admin@example.com"}, "password": {"password123"}}
	w := postForm(t, s, "/login", form)
	if loc := w.Header().Get("Location"); loc != "/login?failed=1" {
		t.Errorf("expected disabled account rejected, got %q", loc)
	}
}

func TestAllowListRestrictsLogin(t *testing.T) {
	s, st := newTestServer(t)
	s.cfg.AdminEmails = []string{"listed@example.com"}
	createAdmin(t, st, "listed@example.com", "password123")
	createAdmin(t, st, "unlisted@example.com", "password123")

	login(t, s, "listed@example.com", "password123")

	form := url.Values{"email": {"unlisted@example.com"}, "password": {"password123"}}
	w := postForm(t, s, "/login", form)
	if loc := w.Header().Get("Location"); loc != "/login?failed=1" {
		t.Errorf("expected unlisted account rejected, got %q", loc)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	s, st := newTestServer(t)
	createAdmin(t, st, "admin@example.com", "password123")
	cookie := login(t, s, "admin@example.com", "password123")

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	w := do(t, s, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}

	// The old token no longer authenticates.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	w = do(t, s, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after logout, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("expected redirect to login, got %q", loc)
	}
}

func TestSessionExpires(t *testing.T) {
	s, st := newTestServer(t)
	createAdmin(t, st, "admin@example.com", "password123")

	result, err := s.auth.Login(context.Background(), "admin@example.com", "password123", time.Now().Add(-48*time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	user, err := s.auth.Authenticate(context.Background(), result.Token, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if user != nil {
		t.Error("expected expired session rejected")
	}
}

func TestLoginRateLimited(t *testing.T) {
	s, st := newTestServer(t)
	createAdmin(t, st, "admin@example.com", "password123")

	form := url.Values{"email": {"admin@example.com"}, "password": {"wrong password"}}
	for i := 0; i < loginMaxFailures; i++ {
		w := postForm(t, s, "/login", form)
		if w.Code != http.StatusSeeOther {
			t.Fatalf("attempt %d: expected redirect, got %d", i, w.Code)
		}
	}

	// The block applies even to correct credentials.
	good := url.Values{"email": {"admin@example.com"}, "password": {"password123"}}
	w := postForm(t, s, "/login", good)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after repeated failures, got %d", w.Code)
	}
}
