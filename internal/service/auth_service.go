package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/klass-lk/blogboot"
	"github.com/klass-lk/blogboot/internal/model"
	"github.com/klass-lk/blogboot/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type AuthResult struct {
	blogboot.TokenPair
	User model.User
}

type AuthService struct {
	users     UserStore
	tokens    *blogboot.TokenIssuer
	crypt     *blogboot.Crypt
	revoked   TokenStore
	isAdmin   func(email string) bool
	sanitizer *Sanitizer
	logger    *zap.Logger
}

// NewAuthService builds the account operations. isAdmin decides which
// registering emails receive the admin role; nil grants it to nobody.
func NewAuthService(
	users UserStore,
	tokens *blogboot.TokenIssuer,
	crypt *blogboot.Crypt,
	revoked TokenStore,
	isAdmin func(email string) bool,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		crypt:     crypt,
		revoked:   revoked,
		isAdmin:   isAdmin,
		sanitizer: NewSanitizer(),
		logger:    logger.Named("auth"),
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	name := s.sanitizer.PlainText(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" {
		return AuthResult{}, blogboot.ErrValidationFailed.New("Please provide name")
	}
	if email == "" {
		return AuthResult{}, blogboot.ErrValidationFailed.New("Please provide a valid email")
	}
	if len(in.Password) < 6 {
		return AuthResult{}, blogboot.ErrValidationFailed.New("Password must be at least 6 characters")
	}

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return AuthResult{}, blogboot.ErrUserExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, err
	}

	hash, err := s.crypt.GetPasswordHash(in.Password)
	if err != nil {
		return AuthResult{}, err
	}

	role := blogboot.RoleUser
	if s.isAdmin(email) {
		role = blogboot.RoleAdmin
	}
	user := model.User{
		ID:        primitive.NewObjectID().Hex(),
		Name:      name,
		Email:     email,
		Password:  hash,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return AuthResult{}, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", role))
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, blogboot.ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, err
	}
	if !s.crypt.IsMatching(user.Password, password) {
		return AuthResult{}, blogboot.ErrInvalidCredentials
	}
	return s.issue(user)
}

// Refresh exchanges a refresh token for a new pair. The presented refresh
// token is revoked atomically, so concurrent refreshes with it yield at most
// one new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return AuthResult{}, blogboot.ErrUnauthorized.New("invalid refresh token")
	}
	first, err := s.revoked.RevokeOnce(ctx, claims.Id, claims.ExpiresAtTime())
	if err != nil {
		return AuthResult{}, err
	}
	if !first {
		return AuthResult{}, blogboot.ErrUnauthorized.New("refresh token revoked")
	}

	user, err := s.users.FindByID(ctx, claims.UserID())
	if errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, blogboot.ErrUnauthorized.New("user no longer exists")
	}
	if err != nil {
		return AuthResult{}, err
	}
	return s.issue(user)
}

// Logout revokes the access token the caller authenticated with.
func (s *AuthService) Logout(ctx context.Context, caller blogboot.AuthContext) error {
	if caller.TokenID == "" {
		return nil
	}
	return s.revoked.Revoke(ctx, caller.TokenID, caller.ExpiresAt)
}

func (s *AuthService) Me(ctx context.Context, userID string) (model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, blogboot.ErrNotFound.New("User")
	}
	return user, err
}

func (s *AuthService) issue(user model.User) (AuthResult, error) {
	pair, err := s.tokens.GenerateTokens(user.ID, user.Role)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{TokenPair: pair, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
