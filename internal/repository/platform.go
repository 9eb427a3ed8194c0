package repository

import (
	"context"
	"errors"
	"time"

	"market-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type PlatformRepository struct {
	collection *mongo.Collection
}

func NewPlatformRepository(db *mongo.Database) *PlatformRepository {
	return &PlatformRepository{
		collection: db.Collection("platforms"),
	}
}

func (r *PlatformRepository) Create(platform *models.Platform) (*models.Platform, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, platform)
	if err != nil {
		return nil, err
	}

	platform.ID = result.InsertedID.(primitive.ObjectID)
	return platform, nil
}

func (r *PlatformRepository) FindByID(id string) (*models.Platform, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid platform ID")
	}

	var platform models.Platform
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&platform)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("platform not found")
		}
		return nil, err
	}

	return &platform, nil
}

func (r *PlatformRepository) FindByName(name string) (*models.Platform, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var platform models.Platform
	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&platform)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("platform not found")
		}
		return nil, err
	}

	return &platform, nil
}

func (r *PlatformRepository) FindAll() ([]*models.Platform, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var platforms []*models.Platform
	for cursor.Next(ctx) {
		var platform models.Platform
		if err := cursor.Decode(&platform); err != nil {
			return nil, err
		}
		platforms = append(platforms, &platform)
	}

	return platforms, nil
}

func (r *PlatformRepository) Update(id string, platform *models.Platform) (*models.Platform, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid platform ID")
	}

	platform.UpdatedAt = time.Now()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": platform})
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, errors.New("platform not found")
	}

	return r.FindByID(id)
}

func (r *PlatformRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid platform ID")
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return errors.New("platform not found")
	}

	return nil
}
