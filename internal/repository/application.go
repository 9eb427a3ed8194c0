package repository

import (
	"context"
	"errors"
	"time"

	"market-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ApplicationRepository struct {
	collection *mongo.Collection
}

func NewApplicationRepository(db *mongo.Database) *ApplicationRepository {
	return &ApplicationRepository{
		collection: db.Collection("applications"),
	}
}

func (r *ApplicationRepository) Create(app *models.Application) (*models.Application, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, app)
	if err != nil {
		return nil, err
	}

	app.ID = result.InsertedID.(primitive.ObjectID)
	return app, nil
}

func (r *ApplicationRepository) FindByID(id string) (*models.Application, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid application ID")
	}

	var app models.Application
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&app)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("application not found")
		}
		return nil, err
	}

	return &app, nil
}

func (r *ApplicationRepository) FindBySlug(slug string) (*models.Application, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var app models.Application
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&app)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("application not found")
		}
		return nil, err
	}

	return &app, nil
}

func (r *ApplicationRepository) FindAll() ([]*models.Application, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var apps []*models.Application
	for cursor.Next(ctx) {
		var app models.Application
		if err := cursor.Decode(&app); err != nil {
			return nil, err
		}
		apps = append(apps, &app)
	}

	return apps, nil
}

func (r *ApplicationRepository) FindByStatus(status string) ([]*models.Application, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var apps []*models.Application
	for cursor.Next(ctx) {
		var app models.Application
		if err := cursor.Decode(&app); err != nil {
			return nil, err
		}
		apps = append(apps, &app)
	}

	return apps, nil
}

func (r *ApplicationRepository) Update(id string, app *models.Application) (*models.Application, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid application ID")
	}

	app.UpdatedAt = time.Now()
	update := bson.M{"$set": app}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, errors.New("application not found")
	}

	return r.FindByID(id)
}

func (r *ApplicationRepository) IncrementDownloads(id string, delta int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid application ID")
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objectID},
		bson.M{"$inc": bson.M{"downloads": delta}})
	return err
}

func (r *ApplicationRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid application ID")
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return errors.New("application not found")
	}

	return nil
}
