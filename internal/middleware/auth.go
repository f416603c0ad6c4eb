package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klass-lk/blogboot"
	"go.uber.org/zap"
)

// RevocationChecker reports whether a token id was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Protect requires a valid, unrevoked bearer access token and stores the
// caller in the gin context for blogboot.Context.GetAuthContext.
func Protect(issuer *blogboot.TokenIssuer, revoked RevocationChecker, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, blogboot.ErrUnauthorized.New("no token"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, blogboot.ErrUnauthorized.New("invalid authorization header format"))
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			abort(c, blogboot.ErrUnauthorized.New("no token"))
			return
		}

		claims, err := issuer.ParseAccessToken(tokenString)
		if err != nil {
			abort(c, blogboot.ErrUnauthorized.New("token failed"))
			return
		}

		if revoked != nil && claims.Id != "" {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.Id)
			if err != nil {
				// Revocation storage being down must not lock every user out.
				logger.Warn("token revocation check failed", zap.Error(err))
			} else if isRevoked {
				abort(c, blogboot.ErrUnauthorized.New("token revoked"))
				return
			}
		}

		role := claims.Role
		if role == "" {
			role = blogboot.RoleUser
		}
		c.Set(blogboot.ContextUserIDKey, claims.UserID())
		c.Set(blogboot.ContextRoleKey, role)
		c.Set(blogboot.ContextTokenIDKey, claims.Id)
		c.Set(blogboot.ContextTokenExpKey, claims.ExpiresAtTime())
		c.Next()
	}
}

func abort(c *gin.Context, err error) {
	blogboot.SendError(c, err)
	c.Abort()
}
