package database

import (
	"context"
	"fmt"
	"time"

	"market-backend/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"
)

// Connect establishes a connection to MongoDB and ensures indexes exist.
func Connect(mongoURI string) (*mongo.Database, error) {
	cs, err := connstring.ParseAndValidate(mongoURI)
	if err != nil {
		return nil, fmt.Errorf("invalid MongoDB URI: %v", err)
	}

	clientOptions := options.Client().ApplyURI(mongoURI)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	logger.Logger().Info("connected to MongoDB")

	dbName := cs.Database
	if dbName == "" {
		dbName = "marketplace_admin"
	}

	db := client.Database(dbName)

	if err := createIndexes(db); err != nil {
		logger.Logger().Warn("failed to create indexes", zap.Error(err))
	}

	return db, nil
}

// createIndexes creates necessary indexes for all collections
func createIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	usersCollection := db.Collection("users")
	userIndexes := []mongo.IndexModel{
		{
			Keys:    map[string]interface{}{"username": 1},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    map[string]interface{}{"email": 1},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: map[string]interface{}{"role": 1},
		},
		{
			Keys: map[string]interface{}{"status": 1},
		},
	}

	if _, err := usersCollection.Indexes().CreateMany(ctx, userIndexes); err != nil {
		logger.Logger().Warn("failed to create user indexes", zap.Error(err))
	}

	applicationsCollection := db.Collection("applications")
	applicationIndexes := []mongo.IndexModel{
		{
			Keys:    map[string]interface{}{"slug": 1},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: map[string]interface{}{"status": 1},
		},
		{
			Keys: map[string]interface{}{"category": 1},
		},
		{
			Keys: map[string]interface{}{"created_at": 1},
		},
	}

	if _, err := applicationsCollection.Indexes().CreateMany(ctx, applicationIndexes); err != nil {
		logger.Logger().Warn("failed to create application indexes", zap.Error(err))
	}

	templatesCollection := db.Collection("templates")
	templateIndexes := []mongo.IndexModel{
		{
			Keys:    map[string]interface{}{"slug": 1},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: map[string]interface{}{"status": 1},
		},
		{
			Keys: map[string]interface{}{"category": 1},
		},
	}

	if _, err := templatesCollection.Indexes().CreateMany(ctx, templateIndexes); err != nil {
		logger.Logger().Warn("failed to create template indexes", zap.Error(err))
	}

	platformsCollection := db.Collection("platforms")
	platformIndexes := []mongo.IndexModel{
		{
			Keys:    map[string]interface{}{"name": 1},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: map[string]interface{}{"enabled": 1},
		},
	}

	if _, err := platformsCollection.Indexes().CreateMany(ctx, platformIndexes); err != nil {
		logger.Logger().Warn("failed to create platform indexes", zap.Error(err))
	}

	ordersCollection := db.Collection("orders")
	orderIndexes := []mongo.IndexModel{
		{
			Keys:    map[string]interface{}{"reference": 1},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: map[string]interface{}{"buyer_email": 1},
		},
		{
			Keys: map[string]interface{}{"status": 1},
		},
		{
			Keys: map[string]interface{}{"created_at": -1},
		},
		{
			Keys: map[string]interface{}{
				"status":     1,
				"created_at": 1,
			},
		},
	}

	if _, err := ordersCollection.Indexes().CreateMany(ctx, orderIndexes); err != nil {
		logger.Logger().Warn("failed to create order indexes", zap.Error(err))
	}

	return nil
}

// Disconnect closes the MongoDB connection
func Disconnect(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %v", err)
	}

	logger.Logger().Info("disconnected from MongoDB")
	return nil
}

// Health checks the database connection health
func Health(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return db.Client().Ping(ctx, nil)
}
