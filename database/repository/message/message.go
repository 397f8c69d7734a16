package messageRepo

import (
	"context"
	"fmt"
	"time"

	"wellbe/database/repository"
	"wellbe/models"
	"wellbe/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MessageRepository covers the chat-message state the order flow touches.
type MessageRepository interface {
	GetByID(ctx context.Context, id string) (*models.Message, error)
	// MarkProcessed flips an unprocessed message to processed and links the
	// order. An already processed message yields repository.ErrAlreadyProcessed.
	MarkProcessed(ctx context.Context, id, orderID string) error
	// MarkRejected flips an unprocessed message to processed+rejected.
	MarkRejected(ctx context.Context, id, reason string) error
	// Reopen reverts MarkProcessed; used when the order could not be stored.
	Reopen(ctx context.Context, id string) error
}

type MongoMessageRepo struct {
	coll *mongo.Collection
}

func NewMongoMessageRepo(db *mongo.Database) MessageRepository {
	return &MongoMessageRepo{coll: db.Collection("messages")}
}

func (r *MongoMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	var msg models.Message
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&msg); err != nil {
		return nil, fmt.Errorf("failed to fetch message with id %s: %w", id, repository.MapError(err))
	}
	return &msg, nil
}

func (r *MongoMessageRepo) MarkProcessed(ctx context.Context, id, orderID string) error {
	return r.flip(ctx, id, bson.M{"processed": true, "orderId": orderID})
}

func (r *MongoMessageRepo) MarkRejected(ctx context.Context, id, reason string) error {
	return r.flip(ctx, id, bson.M{"processed": true, "rejected": true, "rejectionReason": reason})
}

func (r *MongoMessageRepo) flip(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	fields["updatedAt"] = time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id, "processed": false}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("error updating message %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("message %s: %w", id, repository.ErrAlreadyProcessed)
	}
	return nil
}

func (r *MongoMessageRepo) Reopen(ctx context.Context, id string) error {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	update := bson.M{
		"$set":   bson.M{"processed": false, "updatedAt": time.Now()},
		"$unset": bson.M{"orderId": ""},
	}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update); err != nil {
		return fmt.Errorf("error reopening message %s: %w", id, err)
	}
	return nil
}
