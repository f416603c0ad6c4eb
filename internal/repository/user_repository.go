package repository

import (
	"context"
	"strings"

	"github.com/klass-lk/blogboot"
	"github.com/klass-lk/blogboot/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserRepository struct {
	*blogboot.MongoRepository[model.User]
}

func NewUserRepository(database *mongo.Database) *UserRepository {
	return &UserRepository{
		MongoRepository: blogboot.NewMongoRepository[model.User](database),
	}
}

func (r *UserRepository) Insert(ctx context.Context, user model.User) error {
	return r.Save(ctx, user)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	user, err := r.FindById(ctx, id)
	return user, translate(err)
}

// FindByEmail looks the address up in its stored, lowercased form.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	user, err := r.FindOneByFilters(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
	return user, translate(err)
}

func (r *UserRepository) FindAllByID(ctx context.Context, ids []string) ([]model.User, error) {
	return r.FindAllById(ctx, ids)
}
