package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klass-lk/blogboot"
	"github.com/klass-lk/blogboot/internal/model"
	"github.com/klass-lk/blogboot/internal/service"
)

type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (service.AuthResult, error)
	Login(ctx context.Context, email, password string) (service.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (service.AuthResult, error)
	Logout(ctx context.Context, caller blogboot.AuthContext) error
	Me(ctx context.Context, userID string) (model.User, error)
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type AuthController struct {
	auth    AuthService
	protect gin.HandlerFunc
	limit   gin.HandlerFunc
}

func NewAuthController(auth AuthService, protect, limit gin.HandlerFunc) *AuthController {
	return &AuthController{auth: auth, protect: passThrough(protect), limit: passThrough(limit)}
}

func (c *AuthController) Register(group *blogboot.ControllerGroup) {
	group.POST("/register", c.RegisterUser, c.limit)
	group.POST("/login", c.Login, c.limit)
	group.POST("/refresh", c.Refresh, c.limit)
	group.POST("/logout", c.Logout, c.protect)
	group.GET("/me", c.Me, c.protect)
}

func (c *AuthController) RegisterUser(ctx *blogboot.Context) (interface{}, error) {
	var req registerRequest
	if err := ctx.GetRequest(&req); err != nil {
		return nil, err
	}
	result, err := c.auth.Register(ctx.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}
	return blogboot.Response{Status: http.StatusCreated, Body: toAuthResponse(result)}, nil
}

func (c *AuthController) Login(ctx *blogboot.Context) (interface{}, error) {
	var req loginRequest
	if err := ctx.GetRequest(&req); err != nil {
		return nil, err
	}
	result, err := c.auth.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return toAuthResponse(result), nil
}

func (c *AuthController) Refresh(ctx *blogboot.Context) (interface{}, error) {
	var req refreshRequest
	if err := ctx.GetRequest(&req); err != nil {
		return nil, err
	}
	result, err := c.auth.Refresh(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		return nil, err
	}
	return toAuthResponse(result), nil
}

func (c *AuthController) Logout(ctx *blogboot.Context) (interface{}, error) {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return nil, err
	}
	if err := c.auth.Logout(ctx.Request.Context(), auth); err != nil {
		return nil, err
	}
	return messageResponse{Success: true, Message: "Logged out"}, nil
}

func (c *AuthController) Me(ctx *blogboot.Context) (interface{}, error) {
	auth, err := ctx.GetAuthContext()
	if err != nil {
		return nil, err
	}
	user, err := c.auth.Me(ctx.Request.Context(), auth.UserID)
	if err != nil {
		return nil, err
	}
	return userResponse{Success: true, User: user}, nil
}

func toAuthResponse(result service.AuthResult) authResponse {
	return authResponse{
		Success:      true,
		Token:        result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         result.User,
	}
}
