package storage

import (
	"context"
	"errors"
	"places-api/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type PlaceDB interface {
	GetPlace(ctx context.Context, id string) (*model.Place, error)
	GetPlacesByUser(ctx context.Context, userID string) ([]model.Place, error)
	CreatePlace(ctx context.Context, place *model.Place) error
	UpdatePlace(ctx context.Context, place *model.Place) error
	DeletePlace(ctx context.Context, place *model.Place) error
}

func (s *MongoStore) GetPlace(ctx context.Context, id string) (*model.Place, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var place model.Place
	err = s.places.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&place)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &place, nil
}

// GetPlacesByUser expands the user's places references into full records,
// keeping the order of the user's places array.
func (s *MongoStore) GetPlacesByUser(ctx context.Context, userID string) ([]model.Place, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Places) == 0 {
		return nil, nil
	}

	cursor, err := s.places.Find(ctx, bson.D{
		{Key: "_id", Value: bson.D{{Key: "$in", Value: user.Places}}},
	})
	if err != nil {
		return nil, err
	}

	var found []model.Place
	if err = cursor.All(ctx, &found); err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]model.Place, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	places := make([]model.Place, 0, len(found))
	for _, id := range user.Places {
		if p, ok := byID[id]; ok {
			places = append(places, p)
		}
	}

	return places, nil
}

// CreatePlace inserts the place and appends its reference to the
// creator's places array in one transaction.
func (s *MongoStore) CreatePlace(ctx context.Context, place *model.Place) error {
	if place.ID.IsZero() {
		place.ID = primitive.NewObjectID()
	}

	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.places.InsertOne(sc, place); err != nil {
			return err
		}

		result, err := s.users.UpdateOne(sc,
			bson.D{{Key: "_id", Value: place.Creator}},
			bson.D{{Key: "$push", Value: bson.D{{Key: "places", Value: place.ID}}}},
		)
		if err != nil {
			return err
		}
		if result.MatchedCount == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *MongoStore) UpdatePlace(ctx context.Context, place *model.Place) error {
	result, err := s.places.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: place.ID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "title", Value: place.Title},
			{Key: "description", Value: place.Description},
		}}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePlace removes the place and pulls its reference from the
// creator's places array in one transaction.
func (s *MongoStore) DeletePlace(ctx context.Context, place *model.Place) error {
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		result, err := s.places.DeleteOne(sc, bson.D{{Key: "_id", Value: place.ID}})
		if err != nil {
			return err
		}
		if result.DeletedCount == 0 {
			return ErrNotFound
		}

		_, err = s.users.UpdateOne(sc,
			bson.D{{Key: "_id", Value: place.Creator}},
			bson.D{{Key: "$pull", Value: bson.D{{Key: "places", Value: place.ID}}}},
		)
		return err
	})
}
