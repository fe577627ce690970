package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Emarwalker/project-back-deploy100/internal/model"
)

func issueTestToken(t *testing.T, issuer *TokenIssuer, role model.Role) string {
	t.Helper()

	token, err := issuer.Issue("user-1", role)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

func TestAuthMiddleware_RejectsRequestWithoutToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	handler := NewAuthMiddleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler was called without token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_AcceptsBearerToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	var gotClaims *TokenClaims
	handler := NewAuthMiddleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+issueTestToken(t, issuer, model.RoleStudent))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if gotClaims == nil || gotClaims.UserID != "user-1" {
		t.Errorf("claims = %+v, want UserID user-1", gotClaims)
	}
}

func TestAuthMiddleware_AcceptsCookieToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	handler := NewAuthMiddleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: issueTestToken(t, issuer, model.RoleStudent)})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestAuthMiddleware_RejectsTamperedToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	handler := NewAuthMiddleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler was called with tampered token")
	}))

	token := issueTestToken(t, issuer, model.RoleStudent)
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestAdminMiddleware_RejectsStudentRole(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	handler := NewAuthMiddleware(issuer)(NewAdminMiddleware()(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler was called for student role")
		}),
	))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer "+issueTestToken(t, issuer, model.RoleStudent))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

func TestAdminMiddleware_AllowsAdminRole(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	handler := NewAuthMiddleware(issuer)(NewAdminMiddleware()(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer "+issueTestToken(t, issuer, model.RoleAdmin))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}
