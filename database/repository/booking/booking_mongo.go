package bookingRepo

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

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo creates a BookingRepository on the "bookings" collection.
func NewMongoBookingRepo(db *mongo.Database) BookingRepository {
	repo := &MongoBookingRepo{coll: db.Collection("bookings")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to create booking indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := repository.NewContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "bookingNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "professionalId", Value: 1}, {Key: "createdAt", Value: -1}}},
		// At most one live booking per (client, session).
		{
			Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "service.sessionId", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{
				"service.sessionId": bson.M{"$exists": true},
				"status":            bson.M{"$in": bson.A{models.BookingPending, models.BookingConfirmed}},
			}),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("error creating booking: %w", repository.MapError(err))
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	var booking models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		return nil, fmt.Errorf("failed to fetch booking with id %s: %w", id, repository.MapError(err))
	}
	return &booking, nil
}

func (r *MongoBookingRepo) Update(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":           booking.Status,
		"paymentStatus":    booking.PaymentStatus,
		"paymentMethod":    booking.PaymentMethod,
		"paymentReference": booking.PaymentReference,
		"cancellation":     booking.Cancellation,
		"updatedAt":        booking.UpdatedAt,
	}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": booking.ID}, update)
	if err != nil {
		return fmt.Errorf("error updating booking %s: %w", booking.ID, repository.MapError(err))
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("booking %s: %w", booking.ID, repository.ErrNotFound)
	}
	return nil
}

func (r *MongoBookingRepo) FindActiveForSession(ctx context.Context, clientID, sessionID string) (*models.Booking, error) {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	filter := bson.M{
		"clientId":          clientID,
		"service.sessionId": sessionID,
		"status":            bson.M{"$ne": models.BookingCancelled},
	}
	var booking models.Booking
	err := r.coll.FindOne(ctx, filter).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error looking up booking for session %s: %w", sessionID, err)
	}
	return &booking, nil
}

func (r *MongoBookingRepo) ListByClient(ctx context.Context, clientID string) ([]models.Booking, error) {
	return r.list(ctx, bson.M{"clientId": clientID})
}

func (r *MongoBookingRepo) ListByProfessional(ctx context.Context, professionalID string) ([]models.Booking, error) {
	return r.list(ctx, bson.M{"professionalId": professionalID})
}

func (r *MongoBookingRepo) list(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	ctx, cancel := repository.NewContext(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}
