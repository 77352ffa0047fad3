package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cfroster/internal/roster/model"
)

// GetOrCreate loads the singleton configuration, inserting defaults on first
// access. A concurrent first-read race can insert two documents; the read
// always takes the latest-created one, so a single document wins.
func (r *MongoRepository) GetOrCreate(ctx context.Context) (*model.SyncConfig, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var cfg model.SyncConfig
	err := r.SyncConfig.FindOne(ctx, bson.M{}, opts).Decode(&cfg)
	if err == nil {
		return &cfg, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	defaults := model.DefaultSyncConfig()
	res, err := r.SyncConfig.InsertOne(ctx, defaults)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		defaults.ID = oid
	}
	return defaults, nil
}

func (r *MongoRepository) Save(ctx context.Context, cfg *model.SyncConfig) error {
	cfg.UpdatedAt = time.Now()
	res, err := r.SyncConfig.ReplaceOne(ctx, bson.M{"_id": cfg.ID}, cfg)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
