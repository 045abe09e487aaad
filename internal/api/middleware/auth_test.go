package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/playgrid/playgrid-server/internal/config"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func authRequest(cookie string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/developer/games", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: cookie})
	}
	return req
}

func TestAuthMiddlewarePassesValidSession(t *testing.T) {
	devID := uuid.New()
	cookie := signToken(t, config.Envs.JWTSecret, jwt.MapClaims{
		"developerId": devID.String(),
		"exp":         time.Now().Add(time.Hour).Unix(),
	})

	var gotID uuid.UUID
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = DeveloperID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	AuthMiddleware(next).ServeHTTP(rec, authRequest(cookie))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !gotOK || gotID != devID {
		t.Errorf("developer id in context = %v (ok=%v), want %v", gotID, gotOK, devID)
	}
}

func TestAuthMiddlewareRejectsMissingCookie(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler reached without a session")
	})

	rec := httptest.NewRecorder()
	AuthMiddleware(next).ServeHTTP(rec, authRequest(""))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	devID := uuid.New()
	cases := map[string]string{
		"garbage": "not-a-jwt",
		"wrong signature": signToken(t, "some-other-secret", jwt.MapClaims{
			"developerId": devID.String(),
			"exp":         time.Now().Add(time.Hour).Unix(),
		}),
		"expired": signToken(t, config.Envs.JWTSecret, jwt.MapClaims{
			"developerId": devID.String(),
			"exp":         time.Now().Add(-time.Hour).Unix(),
		}),
		"missing claim": signToken(t, config.Envs.JWTSecret, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		}),
		"malformed id": signToken(t, config.Envs.JWTSecret, jwt.MapClaims{
			"developerId": "not-a-uuid",
			"exp":         time.Now().Add(time.Hour).Unix(),
		}),
	}

	for name, cookie := range cases {
		t.Run(name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("next handler reached with an invalid session")
			})

			rec := httptest.NewRecorder()
			AuthMiddleware(next).ServeHTTP(rec, authRequest(cookie))

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestAuthMiddlewareLetsPreflightThrough(t *testing.T) {
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/developer/games", nil)
	rec := httptest.NewRecorder()
	AuthMiddleware(next).ServeHTTP(rec, req)

	if !reached {
		t.Error("OPTIONS request blocked by auth")
	}
}
