package productRepo

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"wellbe/database/repository"
	"wellbe/models"
	"wellbe/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoProductRepo implements ProductRepository using MongoDB.
type MongoProductRepo struct {
	coll *mongo.Collection
}

func NewMongoProductRepo(db *mongo.Database) ProductRepository {
	repo := &MongoProductRepo{coll: db.Collection("products")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to create product indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoProductRepo) ensureIndexes() error {
	ctx, cancel := repository.NewContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "professionalId", Value: 1}, {Key: "createdAt", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoProductRepo) GetByID(ctx context.Context, id string) (*models.Product, error) {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	var product models.Product
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&product); err != nil {
		return nil, fmt.Errorf("failed to fetch product with id %s: %w", id, repository.MapError(err))
	}
	return &product, nil
}

func (r *MongoProductRepo) FindByTitle(ctx context.Context, professionalID, name string) ([]models.Product, error) {
	name = strings.TrimSpace(name)
	quoted := regexp.QuoteMeta(name)

	exact, err := r.find(ctx, professionalID, "^"+quoted+"$")
	if err != nil || len(exact) > 0 {
		return exact, err
	}
	return r.find(ctx, professionalID, quoted)
}

func (r *MongoProductRepo) find(ctx context.Context, professionalID, pattern string) ([]models.Product, error) {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	filter := bson.M{
		"professionalId": professionalID,
		"title":          primitive.Regex{Pattern: pattern, Options: "i"},
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (r *MongoProductRepo) SaveInventory(ctx context.Context, product *models.Product) error {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	now := time.Now()
	filter := bson.M{"id": product.ID, "version": product.Version}
	update := bson.M{
		"$set": bson.M{
			"stock":     product.Stock,
			"sizes":     product.Sizes,
			"updatedAt": now,
		},
		"$inc": bson.M{"version": 1},
	}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error saving inventory for product %s: %w", product.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("product %s: %w", product.ID, repository.ErrVersionConflict)
	}
	product.Version++
	product.UpdatedAt = now
	return nil
}
