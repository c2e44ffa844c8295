package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const WebtoonCollection = "webtoons"

var ErrMissingURI = errors.New("MONGO_URI is not set")

func NewMongoConn(ctx context.Context, mongoURI, dbName string, logger *zap.Logger) (*mongo.Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mongoURI == "" {
		return nil, ErrMissingURI
	}
	if dbName == "" {
		return nil, fmt.Errorf("database name is not set")
	}

	clientOptions := options.Client().ApplyURI(mongoURI)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	if err := createWebtoonIndexes(ctx, client.Database(dbName)); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("connected to MongoDB", zap.String("db", dbName))
	return client, nil
}

func createWebtoonIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection(WebtoonCollection)

	// Korean text has no stemmer, so the text index uses "none".
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "story", Value: "text"},
			},
			Options: options.Index().SetDefaultLanguage("none"),
		},
		{
			Keys:    bson.D{{Key: "platform", Value: 1}, {Key: "title", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes on %s collection: %w", WebtoonCollection, err)
	}
	return nil
}
