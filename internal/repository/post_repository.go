package repository

import (
	"context"

	"github.com/klass-lk/blogboot"
	"github.com/klass-lk/blogboot/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostFilter narrows listings. Empty fields do not filter.
type PostFilter struct {
	Category string
	Author   string
}

func (f PostFilter) bson() bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Author != "" {
		filter["author"] = f.Author
	}
	return filter
}

type PostRepository struct {
	*blogboot.MongoRepository[model.Post]
}

func NewPostRepository(database *mongo.Database) *PostRepository {
	return &PostRepository{
		MongoRepository: blogboot.NewMongoRepository[model.Post](database),
	}
}

func (r *PostRepository) Insert(ctx context.Context, post model.Post) error {
	return r.Save(ctx, post)
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (model.Post, error) {
	post, err := r.FindById(ctx, id)
	return post, translate(err)
}

// FindByIDOrSlug matches either key; ids are hex and slugs are hyphenated
// words, so at most one kind can match a given value.
func (r *PostRepository) FindByIDOrSlug(ctx context.Context, idOrSlug string) (model.Post, error) {
	post, err := r.FindOneByFilters(ctx, bson.M{"$or": bson.A{
		bson.M{"_id": idOrSlug},
		bson.M{"slug": idOrSlug},
	}})
	return post, translate(err)
}

// IncrementViewCount bumps viewCount atomically and returns the updated post.
func (r *PostRepository) IncrementViewCount(ctx context.Context, id string) (model.Post, error) {
	post, err := r.UpdateById(ctx, id, bson.M{"$inc": bson.M{"viewCount": 1}})
	return post, translate(err)
}

// Update sets the given stored fields and returns the post as persisted.
func (r *PostRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (model.Post, error) {
	post, err := r.UpdateById(ctx, id, bson.M{"$set": fields})
	return post, translate(err)
}

func (r *PostRepository) DeleteByID(ctx context.Context, id string) error {
	return translate(r.Delete(ctx, id))
}

// AppendComment pushes comment onto the post in a single update, so
// concurrent appends cannot overwrite one another.
func (r *PostRepository) AppendComment(ctx context.Context, id string, comment model.Comment) (model.Post, error) {
	post, err := r.UpdateById(ctx, id, bson.M{"$push": bson.M{"comments": comment}})
	return post, translate(err)
}

func (r *PostRepository) List(ctx context.Context, req blogboot.PageRequest, filter PostFilter) (blogboot.PageResponse[model.Post], error) {
	return r.FindByPaginated(ctx, req, filter.bson())
}

// Search returns every post whose title, content or one of its tags matches
// pattern case-insensitively, newest first. pattern is a regular expression;
// callers quote user input.
func (r *PostRepository) Search(ctx context.Context, pattern string) ([]model.Post, error) {
	regex := bson.M{"$regex": pattern, "$options": "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"title": regex},
		bson.M{"content": regex},
		bson.M{"tags": regex},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return r.FindByFilters(ctx, filter, opts)
}
