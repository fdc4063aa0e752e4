package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_delivery/internal/cart"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

type cartDocument struct {
	Key       string    `bson:"_id"`
	Data      string    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoCartSlots keeps one document per visitor session in the carts
// collection. Documents expire through a TTL index on updated_at.
type MongoCartSlots struct {
	collection *mongo.Collection
	ttl        time.Duration
}

func NewMongoCartSlots(db *mongo.Database, ttl time.Duration) *MongoCartSlots {
	return &MongoCartSlots{
		collection: db.Collection("carts"),
		ttl:        ttl,
	}
}

func (m *MongoCartSlots) CreateIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(m.ttl.Seconds())),
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (m *MongoCartSlots) Slot(sessionID string) cart.Slot {
	return mongoSlot{collection: m.collection, key: cart.StorageKey + ":" + sessionID}
}

type mongoSlot struct {
	collection *mongo.Collection
	key        string
}

func (s mongoSlot) Load(ctx context.Context) ([]byte, error) {
	var doc cartDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": s.key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, cart.ErrSlotEmpty
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return []byte(doc.Data), nil
}

func (s mongoSlot) Save(ctx context.Context, data []byte) error {
	update := bson.M{"$set": bson.M{"data": string(data), "updated_at": time.Now().UTC()}}
	_, err := s.collection.UpdateOne(ctx, bson.M{"_id": s.key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}
