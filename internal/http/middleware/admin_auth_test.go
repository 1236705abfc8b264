package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func serveAdmin(t *testing.T, secret, authHeader string) (*httptest.ResponseRecorder, *AdminClaims) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()

	var got *AdminClaims
	AdminJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := AdminClaimsFromContext(r.Context()); ok {
			got = &claims
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec, got
}

func TestAdminJWTMissingSecret(t *testing.T) {
	rec, _ := serveAdmin(t, "", "Bearer "+signedAdminToken(t, "secret", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAdminJWTMissingHeader(t *testing.T) {
	for _, header := range []string{"", "Basic abc", "Bearer  "} {
		rec, _ := serveAdmin(t, "secret", header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected status %d, got %d", header, http.StatusUnauthorized, rec.Code)
		}
	}
}

func TestAdminJWTRejectsBadTokens(t *testing.T) {
	cases := map[string]string{
		"wrong secret": signedAdminToken(t, "wrong", nil),
		"expired": signedAdminToken(t, "secret", &AdminClaims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin-user",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}),
		"no expiry": signedAdminToken(t, "secret", &AdminClaims{RegisteredClaims: jwt.RegisteredClaims{
			Subject: "admin-user",
		}}),
		"no subject": signedAdminToken(t, "secret", &AdminClaims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}}),
	}
	for name, token := range cases {
		rec, _ := serveAdmin(t, "secret", "Bearer "+token)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected status %d, got %d", name, http.StatusUnauthorized, rec.Code)
		}
	}
}

func TestAdminJWTRejectsOtherAlgorithms(t *testing.T) {
	claims := AdminClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "admin-user",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	rec, _ := serveAdmin(t, "secret", "Bearer "+signed)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAdminJWTValidToken(t *testing.T) {
	rec, claims := serveAdmin(t, "secret", "Bearer "+signedAdminToken(t, "secret", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if claims == nil {
		t.Fatalf("expected admin claims in context")
	}
	if claims.Subject != "admin-user" || claims.Email != "sales@assistauraofficial.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

// signedAdminToken signs a valid dashboard token when claims is nil.
func signedAdminToken(t *testing.T, secret string, claims *AdminClaims) string {
	t.Helper()
	if claims == nil {
		claims = &AdminClaims{
			Email: "sales@assistauraofficial.com",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "admin-user",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
			},
		}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
