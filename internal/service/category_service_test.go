package service

import (
	"context"
	"testing"

	"github.com/klass-lk/blogboot"
	"github.com/klass-lk/blogboot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCategoryResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	news := model.Category{ID: primitive.NewObjectID().Hex(), Name: "News", Slug: "news"}
	resolver := NewCategoryResolver(newFakeCategoryStore(news))

	tests := []struct {
		name    string
		input   string
		wantID  string
		wantErr error
	}{
		{name: "by id", input: news.ID, wantID: news.ID},
		{name: "by name", input: "News", wantID: news.ID},
		{name: "by slug", input: "news", wantID: news.ID},
		{name: "surrounding whitespace", input: "  News ", wantID: news.ID},
		{name: "unknown name", input: "Sports", wantErr: blogboot.ErrCategoryNotFound},
		{name: "unknown id", input: primitive.NewObjectID().Hex(), wantErr: blogboot.ErrCategoryNotFound},
		{name: "empty", input: "", wantErr: blogboot.ErrCategoryNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := resolver.Resolve(ctx, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestCategoryService(t *testing.T) {
	ctx := context.Background()
	store := newFakeCategoryStore()
	svc := NewCategoryService(store, nil)

	t.Run("seeding is idempotent", func(t *testing.T) {
		require.NoError(t, svc.SeedDefaults(ctx))
		require.NoError(t, svc.SeedDefaults(ctx))

		all, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, len(model.DefaultCategories))
		assert.Equal(t, "Education", all[0].Name)
	})

	t.Run("create derives slug", func(t *testing.T) {
		category, err := svc.Create(ctx, CreateCategoryInput{Name: "Open Source"})
		require.NoError(t, err)
		assert.Equal(t, "open-source", category.Slug)
		assert.NotEmpty(t, category.ID)
	})

	t.Run("create rejects blank names", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateCategoryInput{Name: "  "})
		assert.ErrorIs(t, err, blogboot.ErrValidationFailed)
		_, err = svc.Create(ctx, CreateCategoryInput{Name: "???"})
		assert.ErrorIs(t, err, blogboot.ErrValidationFailed)
	})

	t.Run("duplicate surfaces storage error", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateCategoryInput{Name: "News"})
		assert.Error(t, err)
	})
}
