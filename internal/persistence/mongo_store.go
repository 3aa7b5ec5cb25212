package persistence

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBackend is a Backend storing one document per key.
type MongoBackend struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// Ensure MongoBackend implements Backend.
var _ Backend = (*MongoBackend)(nil)

// NewMongoBackend creates a Mongo-backed record store.
// dbName defaults to "surveyflow" if empty, collName defaults to "sessions".
func NewMongoBackend(client *mongo.Client, dbName, collName string) *MongoBackend {
	if dbName == "" {
		dbName = "surveyflow"
	}
	if collName == "" {
		collName = "sessions"
	}

	return &MongoBackend{
		coll:    client.Database(dbName).Collection(collName),
		timeout: 5 * time.Second,
	}
}

type mongoRecordDoc struct {
	Key       string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (b *MongoBackend) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var doc mongoRecordDoc
	err := b.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return doc.Data, nil
}

func (b *MongoBackend) Put(ctx context.Context, key string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	doc := mongoRecordDoc{
		Key:       key,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := b.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

func (b *MongoBackend) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	_, err := b.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}
