package service

import (
	"context"
	"time"

	"github.com/klass-lk/blogboot"
	"github.com/klass-lk/blogboot/internal/model"
	"github.com/klass-lk/blogboot/internal/repository"
)

// PostStore is the persistence the post service needs. Lookups that match
// nothing return repository.ErrNotFound.
type PostStore interface {
	Insert(ctx context.Context, post model.Post) error
	FindByID(ctx context.Context, id string) (model.Post, error)
	FindByIDOrSlug(ctx context.Context, idOrSlug string) (model.Post, error)
	IncrementViewCount(ctx context.Context, id string) (model.Post, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (model.Post, error)
	DeleteByID(ctx context.Context, id string) error
	AppendComment(ctx context.Context, id string, comment model.Comment) (model.Post, error)
	List(ctx context.Context, req blogboot.PageRequest, filter repository.PostFilter) (blogboot.PageResponse[model.Post], error)
	Search(ctx context.Context, pattern string) ([]model.Post, error)
}

// CategoryLookup is what category resolution reads.
type CategoryLookup interface {
	FindByID(ctx context.Context, id string) (model.Category, error)
	FindByNameOrSlug(ctx context.Context, value string) (model.Category, error)
}

type CategoryStore interface {
	CategoryLookup
	FindAllByID(ctx context.Context, ids []string) ([]model.Category, error)
	FindAll(ctx context.Context) ([]model.Category, error)
	Insert(ctx context.Context, category model.Category) error
	EnsureSeeded(ctx context.Context, categories []model.Category) (int, error)
}

type UserStore interface {
	Insert(ctx context.Context, user model.User) error
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindAllByID(ctx context.Context, ids []string) ([]model.User, error)
}

// TokenStore remembers revoked token ids until the token would have expired
// anyway.
type TokenStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	// RevokeOnce revokes tokenID and reports whether this call did it. Of
	// several concurrent calls for the same id at most one returns true.
	RevokeOnce(ctx context.Context, tokenID string, expiresAt time.Time) (bool, error)
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
