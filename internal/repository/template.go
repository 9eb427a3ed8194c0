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

type TemplateRepository struct {
	collection *mongo.Collection
}

func NewTemplateRepository(db *mongo.Database) *TemplateRepository {
	return &TemplateRepository{
		collection: db.Collection("templates"),
	}
}

func (r *TemplateRepository) Create(tmpl *models.Template) (*models.Template, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, tmpl)
	if err != nil {
		return nil, err
	}

	tmpl.ID = result.InsertedID.(primitive.ObjectID)
	return tmpl, nil
}

func (r *TemplateRepository) FindByID(id string) (*models.Template, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid template ID")
	}

	var tmpl models.Template
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&tmpl)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("template not found")
		}
		return nil, err
	}

	return &tmpl, nil
}

func (r *TemplateRepository) FindBySlug(slug string) (*models.Template, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var tmpl models.Template
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&tmpl)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("template not found")
		}
		return nil, err
	}

	return &tmpl, nil
}

func (r *TemplateRepository) FindAll() ([]*models.Template, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var templates []*models.Template
	for cursor.Next(ctx) {
		var tmpl models.Template
		if err := cursor.Decode(&tmpl); err != nil {
			return nil, err
		}
		templates = append(templates, &tmpl)
	}

	return templates, nil
}

func (r *TemplateRepository) Update(id string, tmpl *models.Template) (*models.Template, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid template ID")
	}

	tmpl.UpdatedAt = time.Now()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": tmpl})
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, errors.New("template not found")
	}

	return r.FindByID(id)
}

func (r *TemplateRepository) IncrementSales(id string, delta int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid template ID")
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objectID},
		bson.M{"$inc": bson.M{"sales": delta}})
	return err
}

func (r *TemplateRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid template ID")
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return errors.New("template not found")
	}

	return nil
}
