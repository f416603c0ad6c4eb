package blogboot

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Keys under which the auth middleware stores the caller in the gin context.
const (
	ContextUserIDKey   = "user_id"
	ContextRoleKey     = "role"
	ContextTokenIDKey  = "token_id"
	ContextTokenExpKey = "token_exp"
	RoleAdmin          = "admin"
	RoleUser           = "user"
)

// AuthContext is the authenticated caller of a request.
type AuthContext struct {
	UserID    string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

func (a AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanModify reports whether the caller owns the resource or is an admin.
func (a AuthContext) CanModify(ownerID string) bool {
	return a.UserID != "" && (a.UserID == ownerID || a.IsAdmin())
}

type Context struct {
	*gin.Context
	logger *zap.Logger
}

func NewContext(c *gin.Context, logger *zap.Logger) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{
		Context: c,
		logger:  logger,
	}
}

// Logger returns the server logger annotated with the request path.
func (c *Context) Logger() *zap.Logger {
	return c.logger.With(zap.String("path", c.FullPath()))
}

// GetAuthContext returns the current auth context
func (c *Context) GetAuthContext() (AuthContext, error) {
	userId := c.GetString(ContextUserIDKey)
	if userId == "" {
		return AuthContext{}, ErrUnauthorized.New("no token")
	}
	role := c.GetString(ContextRoleKey)
	if role == "" {
		return AuthContext{}, ErrUnauthorized.New("no role")
	}
	return AuthContext{
		UserID:    userId,
		Role:      role,
		TokenID:   c.GetString(ContextTokenIDKey),
		ExpiresAt: c.GetTime(ContextTokenExpKey),
	}, nil
}

// GetRequest binds the body (JSON, form or multipart, by content type) into
// request. Binding and validation failures become ErrValidationFailed.
func (c *Context) GetRequest(request interface{}) error {
	if err := c.ShouldBind(request); err != nil {
		return ErrValidationFailed.New(validationMessage(err))
	}
	return nil
}

// GetPageRequest reads page and limit from the query string; the sort field
// defaults to defaultSort and is always descending.
func (c *Context) GetPageRequest(defaultSort string) PageRequest {
	sortField := c.DefaultQuery("sort", defaultSort)
	return NewPageRequest(c.Query("page"), c.Query("limit"), SortField{
		Field:     sortField,
		Direction: -1,
	})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return "Please provide " + fe.Field()
		case "max":
			return fe.Field() + " must be at most " + fe.Param() + " characters"
		case "min":
			return fe.Field() + " must be at least " + fe.Param() + " characters"
		case "email":
			return "Please provide a valid email"
		}
		return fe.Field() + " is invalid"
	}
	return "invalid request payload"
}
