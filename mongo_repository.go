package blogboot

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	pointQueryTimeout = 5 * time.Second
	listQueryTimeout  = 10 * time.Second
)

// MongoRepository provides the collection-level operations shared by every
// document type. Lookups that find nothing return mongo.ErrNoDocuments.
type MongoRepository[T Document] struct {
	collection *mongo.Collection
}

func NewMongoRepository[T Document](db *mongo.Database) *MongoRepository[T] {
	var doc T
	return &MongoRepository[T]{
		collection: db.Collection(doc.GetCollectionName()),
	}
}

func (r *MongoRepository[T]) FindById(ctx context.Context, id string) (T, error) {
	return r.FindOneByFilters(ctx, bson.M{"_id": id})
}

func (r *MongoRepository[T]) FindAllById(ctx context.Context, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	return r.FindByFilters(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *MongoRepository[T]) Save(ctx context.Context, doc T) error {
	ctx, cancel := context.WithTimeout(ctx, pointQueryTimeout)
	defer cancel()
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}

// UpdateById applies update to the document and returns it as stored
// afterwards.
func (r *MongoRepository[T]) UpdateById(ctx context.Context, id string, update interface{}) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, pointQueryTimeout)
	defer cancel()

	var result T
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&result)
	return result, err
}

// Delete removes the document, returning mongo.ErrNoDocuments when there was
// nothing to remove.
func (r *MongoRepository[T]) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, pointQueryTimeout)
	defer cancel()
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoRepository[T]) FindOneByFilters(ctx context.Context, filters interface{}) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, pointQueryTimeout)
	defer cancel()

	var result T
	err := r.collection.FindOne(ctx, filters).Decode(&result)
	return result, err
}

func (r *MongoRepository[T]) FindByFilters(ctx context.Context, filters interface{}, findOpts ...*options.FindOptions) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, listQueryTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filters, findOpts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []T{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// FindByPaginated returns the window of documents matching filters described
// by pageRequest, sorted by its sort field.
func (r *MongoRepository[T]) FindByPaginated(ctx context.Context, pageRequest PageRequest, filters interface{}) (PageResponse[T], error) {
	ctx, cancel := context.WithTimeout(ctx, listQueryTimeout)
	defer cancel()

	total, err := r.collection.CountDocuments(ctx, filters)
	if err != nil {
		return PageResponse[T]{}, err
	}

	opts := options.Find().
		SetSkip(pageRequest.Skip()).
		SetLimit(int64(pageRequest.Limit))

	if pageRequest.Sort.Field != "" {
		direction := 1
		if pageRequest.Sort.Direction < 0 {
			direction = -1
		}
		// _id breaks ties so windows never overlap on equal sort keys.
		opts.SetSort(bson.D{{Key: pageRequest.Sort.Field, Value: direction}, {Key: "_id", Value: direction}})
	}

	items, err := r.FindByFilters(ctx, filters, opts)
	if err != nil {
		return PageResponse[T]{}, err
	}

	return NewPageResponse(items, total, pageRequest), nil
}

func (r *MongoRepository[T]) CountByFilters(ctx context.Context, filters interface{}) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, pointQueryTimeout)
	defer cancel()
	return r.collection.CountDocuments(ctx, filters)
}

func (r *MongoRepository[T]) ExistsByFilters(ctx context.Context, filters interface{}) (bool, error) {
	count, err := r.CountByFilters(ctx, filters)
	return count > 0, err
}

func (r *MongoRepository[T]) Query() *mongo.Collection {
	return r.collection
}
