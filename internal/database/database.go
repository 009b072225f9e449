package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoDB holds the moderation audit trail only; relational data lives in PostgreSQL.
var Client *mongo.Client
var DB *mongo.Database

// ModerationEventsCollection is where every moderation transition is appended.
const ModerationEventsCollection = "moderation_events"

func Connect(mongoURI, dbName string) error {
	// Use longer timeout for Atlas connections
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	zap.L().Info("Attempting to connect to MongoDB...")
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return err
	}

	// Ping the database with a separate context
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return err
	}

	if dbName == "" {
		dbName = "mindfulkids"
	}
	Client = client
	DB = client.Database(dbName)

	if err := ensureAuditIndexes(ctx, DB); err != nil {
		zap.L().Warn("⚠️  Could not create moderation event indexes", zap.Error(err))
	}

	zap.L().Info("✅ Connected to MongoDB", zap.String("database", dbName))
	return nil
}

func ensureAuditIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(ModerationEventsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "actor_id", Value: 1}}},
	})
	return err
}

func Disconnect() error {
	if Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return Client.Disconnect(ctx)
}
