package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used across the services.
const (
	ColUsers         = "users"
	ColProjects      = "projects"
	ColTrustLog      = "trust_log"
	ColTrustVotes    = "trust_votes"
	ColMessages      = "messages"
	ColReports       = "reports"
	ColNotifications = "notifications"
	ColAttachments   = "attachments"
)

// Connect opens the MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}
	return client.Database(dbName), nil
}

// EnsureIndexes creates the indexes the uniqueness invariants rely on:
// duplicate-key failures on these are mapped to conflict responses instead of
// being prevented by in-process locking.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	if _, err := database.Collection(ColUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users.email index: %w", err)
	}

	if _, err := database.Collection(ColTrustVotes).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "voter_id", Value: 1},
			{Key: "target_id", Value: 1},
			{Key: "project_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("trust_votes unique index: %w", err)
	}

	if _, err := database.Collection(ColMessages).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "project_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
	}); err != nil {
		return fmt.Errorf("messages index: %w", err)
	}

	if _, err := database.Collection(ColNotifications).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
	}); err != nil {
		return fmt.Errorf("notifications index: %w", err)
	}

	return nil
}
