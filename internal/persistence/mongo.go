package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoSlotDoc is the stored shape: one document per session key holding the
// raw serialized cart.
type mongoSlotDoc struct {
	Key       string    `bson:"_id"`
	Payload   []byte    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

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

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

func NewMongoSlot(db *mongo.Database) *MongoSlot {
	return &MongoSlot{collection: db.Collection("carts")}
}

// MongoSlot keeps one carts document per session key, upserted on every save.
type MongoSlot struct {
	collection *mongo.Collection
}

func (m *MongoSlot) Load(ctx context.Context, key string) ([]byte, error) {
	var doc mongoSlotDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrEmptySlot
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return doc.Payload, nil
}

func (m *MongoSlot) Save(ctx context.Context, key string, payload []byte) error {
	doc := mongoSlotDoc{
		Key:       key,
		Payload:   payload,
		UpdatedAt: time.Now(),
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (m *MongoSlot) Delete(ctx context.Context, key string) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
