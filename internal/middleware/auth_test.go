package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klass-lk/blogboot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRevocations struct {
	revoked map[string]bool
	err     error
}

func (s stubRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return s.revoked[tokenID], s.err
}

func protectedEngine(issuer *blogboot.TokenIssuer, revoked RevocationChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/private", Protect(issuer, revoked, nil), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  c.GetString(blogboot.ContextUserIDKey),
			"role":     c.GetString(blogboot.ContextRoleKey),
			"token_id": c.GetString(blogboot.ContextTokenIDKey),
		})
	})
	return engine
}

func TestProtect(t *testing.T) {
	issuer := blogboot.NewTokenIssuer("access", "refresh", time.Hour, time.Hour)
	pair, err := issuer.GenerateTokens("user-1", blogboot.RoleAdmin)
	require.NoError(t, err)
	claims, err := issuer.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		revoked  RevocationChecker
		wantCode int
		wantBody string
	}{
		{name: "missing header", wantCode: http.StatusUnauthorized, wantBody: "Not authorized, no token"},
		{name: "wrong scheme", header: "Basic abc", wantCode: http.StatusUnauthorized, wantBody: "invalid authorization header format"},
		{name: "empty bearer", header: "Bearer  ", wantCode: http.StatusUnauthorized, wantBody: "no token"},
		{name: "garbage token", header: "Bearer nope", wantCode: http.StatusUnauthorized, wantBody: "token failed"},
		{name: "refresh token rejected", header: "Bearer " + pair.RefreshToken, wantCode: http.StatusUnauthorized, wantBody: "token failed"},
		{name: "valid token", header: "Bearer " + pair.AccessToken, wantCode: http.StatusOK, wantBody: `"user_id":"user-1"`},
		{name: "lowercase scheme", header: "bearer " + pair.AccessToken, wantCode: http.StatusOK, wantBody: `"role":"admin"`},
		{
			name:     "revoked token",
			header:   "Bearer " + pair.AccessToken,
			revoked:  stubRevocations{revoked: map[string]bool{claims.Id: true}},
			wantCode: http.StatusUnauthorized,
			wantBody: "token revoked",
		},
		{
			name:     "revocation store down fails open",
			header:   "Bearer " + pair.AccessToken,
			revoked:  stubRevocations{err: errors.New("connection refused")},
			wantCode: http.StatusOK,
			wantBody: claims.Id,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := protectedEngine(issuer, tt.revoked)
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}
