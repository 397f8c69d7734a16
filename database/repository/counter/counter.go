package counterRepo

import (
	"context"
	"fmt"

	"wellbe/database/repository"
	"wellbe/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CounterRepository hands out monotonically increasing sequence values.
type CounterRepository interface {
	// Next atomically increments the counter named key and returns the new value.
	// A missing counter starts at 1.
	Next(ctx context.Context, key string) (int64, error)
}

type counterDoc struct {
	Key string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// MongoCounterRepo keeps one document per counter key.
type MongoCounterRepo struct {
	coll *mongo.Collection
}

func NewMongoCounterRepo(db *mongo.Database) CounterRepository {
	return &MongoCounterRepo{coll: db.Collection("counters")}
}

func (r *MongoCounterRepo) Next(ctx context.Context, key string) (int64, error) {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc counterDoc
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": key}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to advance counter %s: %w", key, err)
	}
	return doc.Seq, nil
}
