package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type kvDocument struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoBlobStore implements BlobStore on a MongoDB collection, one document per key
type MongoBlobStore struct {
	collection *mongo.Collection
}

// NewMongoBlobStore creates a new MongoBlobStore using the "kv" collection
func NewMongoBlobStore(db *mongo.Database) *MongoBlobStore {
	return &MongoBlobStore{collection: db.Collection("kv")}
}

func (r *MongoBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var doc kvDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("find kv document %s: %w", key, err)
	}
	return []byte(doc.Value), nil
}

func (r *MongoBlobStore) Set(ctx context.Context, key string, value []byte) error {
	doc := kvDocument{Key: key, Value: string(value), UpdatedAt: time.Now()}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		return fmt.Errorf("replace kv document %s: %w", key, err)
	}
	return nil
}
