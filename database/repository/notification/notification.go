package notificationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wellbe/database/repository"
	"wellbe/models"
	"wellbe/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// NotificationRepository persists notifications. Records are never deleted
// here; only the read flag changes.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	// Exists reports whether userID already has a notification of type t whose
	// data[dataKey] equals dataValue.
	Exists(ctx context.Context, userID string, t models.NotificationType, dataKey, dataValue string) (bool, error)
}

type MongoNotificationRepo struct {
	coll *mongo.Collection
}

func NewMongoNotificationRepo(db *mongo.Database) NotificationRepository {
	repo := &MongoNotificationRepo{coll: db.Collection("notifications")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to create notification indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoNotificationRepo) ensureIndexes() error {
	ctx, cancel := repository.NewContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "type", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

func (r *MongoNotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int64) ([]models.Notification, error) {
	ctx, cancel := repository.NewContext(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"userId": userID}
	if unreadOnly {
		filter["read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

func (r *MongoNotificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id, "userId": userID}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return fmt.Errorf("error marking notification %s read: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("notification %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *MongoNotificationRepo) Exists(ctx context.Context, userID string, t models.NotificationType, dataKey, dataValue string) (bool, error) {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	filter := bson.M{"userId": userID, "type": t, "data." + dataKey: dataValue}
	err := r.coll.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking notification existence: %w", err)
	}
	return true, nil
}
