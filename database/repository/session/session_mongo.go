package sessionRepo

import (
	"context"
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

// MongoSessionRepo implements SessionRepository using MongoDB.
type MongoSessionRepo struct {
	coll *mongo.Collection
}

func NewMongoSessionRepo(db *mongo.Database) SessionRepository {
	repo := &MongoSessionRepo{coll: db.Collection("sessions")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to create session indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoSessionRepo) ensureIndexes() error {
	ctx, cancel := repository.NewContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "professionalId", Value: 1}, {Key: "startsAt", Value: 1}}},
		{Keys: bson.D{{Key: "endsAt", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	var session models.Session
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to fetch session with id %s: %w", id, repository.MapError(err))
	}
	return &session, nil
}

func (r *MongoSessionRepo) SaveParticipants(ctx context.Context, session *models.Session) error {
	return r.versionedSet(ctx, session, bson.M{"participants": session.Participants})
}

func (r *MongoSessionRepo) SaveReviews(ctx context.Context, session *models.Session) error {
	return r.versionedSet(ctx, session, bson.M{
		"reviews":     session.Reviews,
		"ratingStats": session.RatingStats,
	})
}

func (r *MongoSessionRepo) versionedSet(ctx context.Context, session *models.Session, fields bson.M) error {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	now := time.Now()
	fields["updatedAt"] = now
	filter := bson.M{"id": session.ID, "version": session.Version}
	update := bson.M{"$set": fields, "$inc": bson.M{"version": 1}}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error updating session %s: %w", session.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("session %s: %w", session.ID, repository.ErrVersionConflict)
	}
	session.Version++
	session.UpdatedAt = now
	return nil
}

func (r *MongoSessionRepo) ListEndedBetween(ctx context.Context, from, to time.Time) ([]models.Session, error) {
	ctx, cancel := repository.NewContext(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"endsAt": bson.M{"$gte": from, "$lt": to}}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list ended sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []models.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	return sessions, nil
}
