package storage

import (
	"context"
	"errors"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

type MongoStore struct {
	mongoClient *mongo.Client
	places      *mongo.Collection
	users       *mongo.Collection
}

func (s *MongoStore) Connect(ctx context.Context, connectionString, databaseName string) error {
	var err error

	s.mongoClient, err = mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return err
	}

	if err = s.mongoClient.Ping(ctx, nil); err != nil {
		return err
	}

	db := s.mongoClient.Database(databaseName)
	s.places = db.Collection("places")
	s.users = db.Collection("users")

	log.Println("Connected to MongoDB")
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s.mongoClient != nil {
		if err := s.mongoClient.Disconnect(ctx); err != nil {
			return err
		}
		log.Println("Disconnected from MongoDB")
	}
	return nil
}

// EnsureIndexes creates the unique index backing the email invariant.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// withTransaction runs fn inside a Mongo session transaction. Only the
// two multi-document mutations (create place, delete place) use it; all
// other operations touch a single document.
func (s *MongoStore) withTransaction(ctx context.Context, fn func(mongo.SessionContext) error) error {
	session, err := s.mongoClient.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
