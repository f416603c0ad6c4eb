package repository

import (
	"context"
	"time"

	"github.com/klass-lk/blogboot"
	"github.com/klass-lk/blogboot/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CategoryRepository struct {
	*blogboot.MongoRepository[model.Category]
}

func NewCategoryRepository(database *mongo.Database) *CategoryRepository {
	return &CategoryRepository{
		MongoRepository: blogboot.NewMongoRepository[model.Category](database),
	}
}

func (r *CategoryRepository) Insert(ctx context.Context, category model.Category) error {
	return r.Save(ctx, category)
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (model.Category, error) {
	category, err := r.FindById(ctx, id)
	return category, translate(err)
}

// FindByNameOrSlug matches value exactly against either field.
func (r *CategoryRepository) FindByNameOrSlug(ctx context.Context, value string) (model.Category, error) {
	category, err := r.FindOneByFilters(ctx, bson.M{"$or": bson.A{
		bson.M{"name": value},
		bson.M{"slug": value},
	}})
	return category, translate(err)
}

func (r *CategoryRepository) FindAllByID(ctx context.Context, ids []string) ([]model.Category, error) {
	return r.FindAllById(ctx, ids)
}

// FindAll lists every category ordered by name.
func (r *CategoryRepository) FindAll(ctx context.Context) ([]model.Category, error) {
	return r.FindByFilters(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

// EnsureSeeded creates each category that does not exist yet, matched by
// name. Existing categories are left untouched. It returns how many were
// created.
func (r *CategoryRepository) EnsureSeeded(ctx context.Context, categories []model.Category) (int, error) {
	created := 0
	for _, c := range categories {
		id := c.ID
		if id == "" {
			id = primitive.NewObjectID().Hex()
		}
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		res, err := r.Query().UpdateOne(ctx,
			bson.M{"name": c.Name},
			bson.M{"$setOnInsert": bson.M{
				"_id":       id,
				"slug":      c.Slug,
				"createdAt": createdAt,
			}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return created, err
		}
		if res.UpsertedCount > 0 {
			created++
		}
	}
	return created, nil
}
