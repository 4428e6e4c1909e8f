package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// slotTTL expires lists nobody touched for a quarter.
const slotTTL = 90 * 24 * time.Hour

type slotDocument struct {
	Owner     string    `bson:"owner"`
	Slot      string    `bson:"slot"`
	Data      string    `bson:"data"`
	Version   int64     `bson:"version"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{collection: db.Collection("slots")}
}

// ConnectMongoDB opens a pooled client and verifies it with a ping.
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client.Database(database), nil
}

func (m *MongoRepository) Load(ctx context.Context, key Key) (*Record, error) {
	var doc slotDocument
	err := m.collection.FindOne(ctx, keyFilter(key)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to load %s slot: %w", key.Slot, err)
	}
	return &Record{Data: []byte(doc.Data), Version: doc.Version}, nil
}

func (m *MongoRepository) Save(ctx context.Context, key Key, expected int64, data []byte) (int64, error) {
	now := time.Now()

	if expected == 0 {
		_, err := m.collection.InsertOne(ctx, slotDocument{
			Owner:     key.Owner,
			Slot:      string(key.Slot),
			Data:      string(data),
			Version:   1,
			UpdatedAt: now,
		})
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return 0, ErrVersionConflict
			}
			return 0, fmt.Errorf("failed to create %s slot: %w", key.Slot, err)
		}
		return 1, nil
	}

	filter := keyFilter(key)
	filter["version"] = expected
	update := bson.M{
		"$set": bson.M{"data": string(data), "updated_at": now},
		"$inc": bson.M{"version": 1},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to save %s slot: %w", key.Slot, err)
	}
	if result.MatchedCount == 0 {
		return 0, ErrVersionConflict
	}
	return expected + 1, nil
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "slot", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(slotTTL.Seconds())),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func keyFilter(key Key) bson.M {
	return bson.M{"owner": key.Owner, "slot": string(key.Slot)}
}

var _ SlotRepository = (*MongoRepository)(nil)
var _ SlotRepository = (*MemoryRepository)(nil)
