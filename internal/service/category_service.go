package service

import (
	"context"
	"strings"
	"time"

	"github.com/klass-lk/blogboot"
	"github.com/klass-lk/blogboot/internal/model"
	"github.com/klass-lk/blogboot/internal/slug"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type CreateCategoryInput struct {
	Name string
	Slug string
}

type CategoryService struct {
	categories CategoryStore
	sanitizer  *Sanitizer
	logger     *zap.Logger
}

func NewCategoryService(categories CategoryStore, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{
		categories: categories,
		sanitizer:  NewSanitizer(),
		logger:     logger.Named("categories"),
	}
}

func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.categories.FindAll(ctx)
}

// Create stores a new category. The slug is derived from the name unless
// one is given; duplicates surface as a duplicate key error from storage.
func (s *CategoryService) Create(ctx context.Context, in CreateCategoryInput) (model.Category, error) {
	name := s.sanitizer.PlainText(in.Name)
	if name == "" {
		return model.Category{}, blogboot.ErrValidationFailed.New("Please provide a category name")
	}
	source := in.Slug
	if strings.TrimSpace(source) == "" {
		source = name
	}
	categorySlug := slug.Generate(source)
	if categorySlug == "" {
		return model.Category{}, blogboot.ErrValidationFailed.New("Category name must contain letters or digits")
	}

	category := model.Category{
		ID:        primitive.NewObjectID().Hex(),
		Name:      name,
		Slug:      categorySlug,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.categories.Insert(ctx, category); err != nil {
		return model.Category{}, err
	}
	return category, nil
}

// SeedDefaults creates any of model.DefaultCategories that are missing.
func (s *CategoryService) SeedDefaults(ctx context.Context) error {
	defaults := make([]model.Category, 0, len(model.DefaultCategories))
	for _, name := range model.DefaultCategories {
		defaults = append(defaults, model.Category{Name: name, Slug: slug.Generate(name)})
	}
	created, err := s.categories.EnsureSeeded(ctx, defaults)
	if err != nil {
		return err
	}
	if created > 0 {
		s.logger.Info("seeded default categories", zap.Int("created", created))
	}
	return nil
}
