package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoWriteTimeout = 5 * time.Second
	mongoReadTimeout  = 3 * time.Second
	mongoQueryTimeout = 10 * time.Second
)

// MongoProductRepository stores products in a MongoDB collection. Keys are
// ObjectID hex strings kept as the document _id.
type MongoProductRepository struct {
	collection *mongo.Collection
}

// NewMongoProductRepository creates a new instance of MongoProductRepository.
func NewMongoProductRepository(collection *mongo.Collection) *MongoProductRepository {
	return &MongoProductRepository{
		collection: collection,
	}
}

// EnsureIndexes creates the index used to sort listings.
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, mongoWriteTimeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create products index: %w", err)
	}
	return nil
}

// GetAll lists every product, newest first.
func (r *MongoProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// GetByID obtains a product by ID.
func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	if !isObjectIDHex(id) {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, mongoReadTimeout)
	defer cancel()

	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create inserts a new product.
func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, mongoWriteTimeout)
	defer cancel()

	product.ID = primitive.NewObjectID().Hex()
	// Mongo keeps millisecond precision.
	now := time.Now().UTC().Truncate(time.Millisecond)
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of a product.
func (r *MongoProductRepository) Update(ctx context.Context, product *models.Product) error {
	if !isObjectIDHex(product.ID) {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, mongoWriteTimeout)
	defer cancel()

	product.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{"$set": bson.M{
		"title":         product.Title,
		"category":      product.Category,
		"description":   product.Description,
		"price":         product.Price,
		"stockQuantity": product.StockQuantity,
		"supplier":      product.Supplier,
		"updatedAt":     product.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": product.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a product permanently.
func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	if !isObjectIDHex(id) {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, mongoWriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

func isObjectIDHex(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
