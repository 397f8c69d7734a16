package professionalRepo

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

// ProfessionalRepository is the read side of professional profiles.
type ProfessionalRepository interface {
	GetByID(ctx context.Context, id string) (*models.Professional, error)
	// GetByUserID returns the professional owned by the given account.
	GetByUserID(ctx context.Context, userID string) (*models.Professional, error)
}

type MongoProfessionalRepo struct {
	coll *mongo.Collection
}

func NewMongoProfessionalRepo(db *mongo.Database) ProfessionalRepository {
	repo := &MongoProfessionalRepo{coll: db.Collection("professionals")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to create professional indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoProfessionalRepo) ensureIndexes() error {
	ctx, cancel := repository.NewContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoProfessionalRepo) GetByID(ctx context.Context, id string) (*models.Professional, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *MongoProfessionalRepo) GetByUserID(ctx context.Context, userID string) (*models.Professional, error) {
	return r.findOne(ctx, bson.M{"userId": userID})
}

func (r *MongoProfessionalRepo) findOne(ctx context.Context, filter bson.M) (*models.Professional, error) {
	ctx, cancel := repository.NewContext(ctx, utils.RepoTimeout)
	defer cancel()

	var prof models.Professional
	if err := r.coll.FindOne(ctx, filter).Decode(&prof); err != nil {
		return nil, fmt.Errorf("failed to fetch professional: %w", repository.MapError(err))
	}
	return &prof, nil
}
