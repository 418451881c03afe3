package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestTokenRoundTrip(t *testing.T) {
	j := NewJWTHandler("0123456789abcdef0123456789abcdef", time.Minute, "editor")

	token, err := j.Token()
	if err != nil {
		t.Fatal(err)
	}
	claims, err := j.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Service != "editor" || claims.Issuer != "scriptsynth" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestValidateRejectsForeignSecretAndExpiry(t *testing.T) {
	a := NewJWTHandler("secret-a-secret-a-secret-a-secret-a", time.Minute, "editor")
	b := NewJWTHandler("secret-b-secret-b-secret-b-secret-b", time.Minute, "editor")

	token, _ := a.Token()
	if _, err := b.Validate(token); err == nil {
		t.Error("token signed with another secret accepted")
	}

	expired := NewJWTHandler("secret-a-secret-a-secret-a-secret-a", -time.Minute, "editor")
	token, _ = expired.Token()
	if _, err := a.Validate(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	j := NewJWTHandler("0123456789abcdef0123456789abcdef", time.Minute, "editor")
	token, _ := j.Token()

	tests := []struct {
		name    string
		handler *JWTHandler
		header  string
		want    int
	}{
		{"disabled", nil, "", http.StatusOK},
		{"missing header", j, "", http.StatusUnauthorized},
		{"wrong scheme", j, "Basic abc", http.StatusUnauthorized},
		{"garbage token", j, "Bearer abc", http.StatusUnauthorized},
		{"valid", j, "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", Middleware(tt.handler), func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
