package orderRepo

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

// MongoOrderRepo implements OrderRepository using MongoDB.
type MongoOrderRepo struct {
	coll *mongo.Collection
}

func NewMongoOrderRepo(db *mongo.Database) OrderRepository {
	repo := &MongoOrderRepo{coll: db.Collection("orders")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to create order indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoOrderRepo) ensureIndexes() error {
	ctx, cancel := repository.NewContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "orderNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "items.professionalId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoOrderRepo) Create(ctx context.Context, order *models.Order) error {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("error creating order %s: %w", order.OrderNumber, repository.MapError(err))
	}
	return nil
}

func (r *MongoOrderRepo) GetByID(ctx context.Context, id string) (*models.Order, error) {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	var order models.Order
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to fetch order with id %s: %w", id, repository.MapError(err))
	}
	return &order, nil
}

func (r *MongoOrderRepo) Update(ctx context.Context, order *models.Order) error {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":        order.Status,
		"paymentStatus": order.PaymentStatus,
		"shippedAt":     order.ShippedAt,
		"deliveredAt":   order.DeliveredAt,
		"cancelledAt":   order.CancelledAt,
		"notes":         order.Notes,
		"updatedAt":     order.UpdatedAt,
	}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": order.ID}, update)
	if err != nil {
		return fmt.Errorf("error updating order %s: %w", order.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("order %s: %w", order.ID, repository.ErrNotFound)
	}
	return nil
}

func (r *MongoOrderRepo) ListByClient(ctx context.Context, clientID string) ([]models.Order, error) {
	return r.list(ctx, bson.M{"clientId": clientID})
}

func (r *MongoOrderRepo) ListByProfessional(ctx context.Context, professionalID string) ([]models.Order, error) {
	return r.list(ctx, bson.M{"items.professionalId": professionalID})
}

func (r *MongoOrderRepo) list(ctx context.Context, filter bson.M) ([]models.Order, error) {
	ctx, cancel := repository.NewContext(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}
