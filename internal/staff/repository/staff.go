package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	stafferrors "asiops/internal/staff/errors"
	"asiops/pkg/config"
	mongotx "asiops/pkg/db/mongo"
	"asiops/pkg/model"
)

const (
	CollectionName = "Staff"
)

type StaffRepository interface {
	Create(ctx context.Context, staff *model.Staff) error
	FindAll(ctx context.Context, activeOnly bool) ([]model.Staff, error)
}

type mongoStaffRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoStaffRepository(cfg *config.Config) StaffRepository {
	return &mongoStaffRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func (r *mongoStaffRepository) Create(ctx context.Context, staff *model.Staff) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	staff.ID = ""
	staff.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, staff)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", stafferrors.ErrDuplicateName, staff.Name)
		}
		return fmt.Errorf("failed to create staff member: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		staff.ID = oid.Hex()
	}
	return nil
}

// FindAll returns the directory in display order: by name, then creation.
func (r *mongoStaffRepository) FindAll(ctx context.Context, activeOnly bool) ([]model.Staff, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer cursor.Close(ctx)

	staff := []model.Staff{}
	if err := cursor.All(ctx, &staff); err != nil {
		return nil, fmt.Errorf("failed to decode staff: %w", err)
	}
	return staff, nil
}
