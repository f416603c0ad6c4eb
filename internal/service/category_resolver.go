package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/klass-lk/blogboot"
	"github.com/klass-lk/blogboot/internal/repository"
)

// CategoryUpdatePolicy decides what an update does with a category
// reference that does not resolve.
type CategoryUpdatePolicy string

const (
	// CategoryPolicyStrict rejects the update with ErrCategoryNotFound.
	CategoryPolicyStrict CategoryUpdatePolicy = "strict"
	// CategoryPolicyLenient keeps the post's current category.
	CategoryPolicyLenient CategoryUpdatePolicy = "lenient"
)

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// CategoryResolver maps a category reference (id, name or slug) to the
// category's id.
type CategoryResolver struct {
	categories CategoryLookup
}

func NewCategoryResolver(categories CategoryLookup) *CategoryResolver {
	return &CategoryResolver{categories: categories}
}

// Resolve returns the id of the category input refers to. Input shaped like
// an ObjectID is only matched against ids; anything else is matched exactly
// against names and slugs.
func (r *CategoryResolver) Resolve(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", blogboot.ErrCategoryNotFound.New(input)
	}

	var (
		id  string
		err error
	)
	if objectIDPattern.MatchString(input) {
		category, findErr := r.categories.FindByID(ctx, input)
		id, err = category.ID, findErr
	} else {
		category, findErr := r.categories.FindByNameOrSlug(ctx, input)
		id, err = category.ID, findErr
	}

	if errors.Is(err, repository.ErrNotFound) {
		return "", blogboot.ErrCategoryNotFound.New(input)
	}
	if err != nil {
		return "", err
	}
	return id, nil
}
