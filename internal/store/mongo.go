package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// snapshotDoc is the Mongo representation of a persisted snapshot.
type snapshotDoc struct {
	ID        string    `bson:"_id"`
	Content   string    `bson:"content"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoStore persists snapshots one document per id, upserting on Put.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

func (s *MongoStore) Put(ctx context.Context, id, content string) error {
	rec := snapshotDoc{ID: id, Content: content, UpdatedAt: time.Now().UTC()}
	opts := options.Update().SetUpsert(true)
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": rec}, opts)
	return err
}

func (s *MongoStore) Get(ctx context.Context, id string) (string, error) {
	var rec snapshotDoc
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", ErrNotFound
		}
		return "", err
	}
	return rec.Content, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
