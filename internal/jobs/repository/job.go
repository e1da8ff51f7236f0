package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"asiops/pkg/config"
	mongotx "asiops/pkg/db/mongo"
	"asiops/pkg/model"
)

const (
	CollectionName = "Jobs"
)

// JobRepository is a read-only view of work orders. Jobs are owned by the
// jobs service; the planner only needs their status.
type JobRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]model.Job, error)
}

type mongoJobRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoJobRepository(cfg *config.Config) JobRepository {
	return &mongoJobRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

// FindByIDs matches each id both as a plain string and, when it is a valid
// hex ObjectID, as an ObjectID. Missing jobs are simply absent from the result.
func (r *mongoJobRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Job, error) {
	if len(ids) == 0 {
		return []model.Job{}, nil
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	keys := make(bson.A, 0, len(ids)*2)
	for _, id := range ids {
		keys = append(keys, id)
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			keys = append(keys, oid)
		}
	}

	opts := options.Find().SetProjection(bson.M{"_id": 1, "status": 1, "booking_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": keys}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer cursor.Close(ctx)

	jobs := []model.Job{}
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode jobs: %w", err)
	}
	return jobs, nil
}
