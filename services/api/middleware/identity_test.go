package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/learnato/forum/services/auth"
)

func identityProbe(t *testing.T, verifier auth.Verifier, header string) *auth.Identity {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var got *auth.Identity
	router := gin.New()
	router.Use(Identity(verifier))
	router.GET("/probe", func(c *gin.Context) {
		got = GetIdentity(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	return got
}

func TestIdentityMiddleware(t *testing.T) {
	verifier := &auth.StaticVerifier{Tokens: map[string]*auth.Identity{
		"good": {ID: "u1", DisplayName: "sam", Role: auth.RoleLearner},
	}}

	t.Run("valid bearer token", func(t *testing.T) {
		ident := identityProbe(t, verifier, "Bearer good")
		if ident == nil || ident.ID != "u1" {
			t.Errorf("identity = %+v, want u1", ident)
		}
	})

	t.Run("missing header is anonymous", func(t *testing.T) {
		if ident := identityProbe(t, verifier, ""); ident != nil {
			t.Errorf("identity = %+v, want nil", ident)
		}
	})

	t.Run("invalid token is anonymous not rejected", func(t *testing.T) {
		if ident := identityProbe(t, verifier, "Bearer bogus"); ident != nil {
			t.Errorf("identity = %+v, want nil", ident)
		}
	})

	t.Run("non-bearer scheme ignored", func(t *testing.T) {
		if ident := identityProbe(t, verifier, "Basic Zm9vOmJhcg=="); ident != nil {
			t.Errorf("identity = %+v, want nil", ident)
		}
	})

	t.Run("nil verifier is anonymous", func(t *testing.T) {
		if ident := identityProbe(t, nil, "Bearer good"); ident != nil {
			t.Errorf("identity = %+v, want nil", ident)
		}
	})
}
