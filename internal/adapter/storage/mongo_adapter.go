package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kwalram/textile-pos/internal/core/domain"
)

const productsCollection = "products"

// MongoCatalogRepository reads and manages the product catalog in the
// document store. Mongo object IDs are exposed as hex strings.
type MongoCatalogRepository struct {
	collection *mongo.Collection
}

func NewMongoCatalogRepository(db *mongo.Database) *MongoCatalogRepository {
	return &MongoCatalogRepository{collection: db.Collection(productsCollection)}
}

type productDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	UnitPrice   int64              `bson:"unitPrice"`
	Category    string             `bson:"category"`
	ImageRef    string             `bson:"imageRef"`
	Description string             `bson:"description"`
}

func (d productDocument) toDomain() domain.Product {
	return domain.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		UnitPrice:   d.UnitPrice,
		Category:    d.Category,
		ImageRef:    d.ImageRef,
		Description: d.Description,
	}
}

func toDocument(p domain.Product) productDocument {
	return productDocument{
		Name:        p.Name,
		UnitPrice:   p.UnitPrice,
		Category:    p.Category,
		ImageRef:    p.ImageRef,
		Description: p.Description,
	}
}

func (r *MongoCatalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	products := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.toDomain())
	}
	return products, nil
}

func (r *MongoCatalogRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// malformed ID can never match a document
		return nil, nil
	}

	var doc productDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}

	p := doc.toDomain()
	return &p, nil
}

func (r *MongoCatalogRepository) CreateProduct(ctx context.Context, p domain.Product) (string, error) {
	res, err := r.collection.InsertOne(ctx, toDocument(p))
	if err != nil {
		return "", fmt.Errorf("insert product: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted ID type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (r *MongoCatalogRepository) UpdateProduct(ctx context.Context, id string, p domain.Product) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	res, err := r.collection.UpdateByID(ctx, oid, bson.M{"$set": toDocument(p)})
	if err != nil {
		return false, fmt.Errorf("update product: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoCatalogRepository) DeleteProduct(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	return res.DeletedCount > 0, nil
}
