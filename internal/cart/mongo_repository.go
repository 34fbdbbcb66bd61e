package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront-checkout/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// cartDocument mirrors the storefront's cart collection. Weights are stored either as
// numbers (pounds) or as labels like "800g".
type cartDocument struct {
	ID        any            `bson:"_id,omitempty"`
	OwnerID   string         `bson:"owner_id"`
	Items     []itemDocument `bson:"items"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

type itemDocument struct {
	ProductID    string        `bson:"product_id"`
	VariantID    string        `bson:"variant_id,omitempty"`
	Title        string        `bson:"title"`
	VariantTitle string        `bson:"variant_title,omitempty"`
	Price        float64       `bson:"price"`
	Quantity     int           `bson:"quantity"`
	Weight       bson.RawValue `bson:"weight,omitempty"`
	Image        string        `bson:"image,omitempty"`
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *mongoRepository) GetCart(ctx context.Context, ownerID string) (*domain.Cart, error) {
	var doc cartDocument
	err := m.collection.FindOne(ctx, bson.M{"owner_id": ownerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return doc.toDomain(), nil
}

func (m *mongoRepository) DeleteCart(ctx context.Context, ownerID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *mongoRepository) DeleteCartUnchangedSince(ctx context.Context, ownerID string, since time.Time) error {
	filter := bson.M{
		"owner_id":   ownerID,
		"updated_at": bson.M{"$lte": since},
	}
	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (d cartDocument) toDomain() *domain.Cart {
	cart := &domain.Cart{
		OwnerID:   d.OwnerID,
		Items:     make([]domain.CartItem, 0, len(d.Items)),
		UpdatedAt: d.UpdatedAt,
	}
	switch id := d.ID.(type) {
	case primitive.ObjectID:
		cart.ID = id.Hex()
	case nil:
	default:
		cart.ID = fmt.Sprint(id)
	}
	for _, it := range d.Items {
		cart.Items = append(cart.Items, domain.CartItem{
			ID:           it.ProductID,
			VariantID:    it.VariantID,
			Title:        it.Title,
			VariantTitle: it.VariantTitle,
			Price:        it.Price,
			Quantity:     it.Quantity,
			Weight:       weightInPounds(it.Weight),
			Image:        it.Image,
		})
	}
	return cart
}

func weightInPounds(v bson.RawValue) float64 {
	switch v.Type {
	case bsontype.Double:
		return v.Double()
	case bsontype.Int32:
		return float64(v.Int32())
	case bsontype.Int64:
		return float64(v.Int64())
	case bsontype.String:
		return domain.ParseWeight(v.StringValue())
	default:
		return domain.ParseWeight("")
	}
}
