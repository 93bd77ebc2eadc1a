package auth

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

// MongoStore is the MongoDB-backed user Store.
type MongoStore struct {
	users *mongo.Collection
}

// NewMongoStore creates a MongoStore over the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{users: db.Collection(shared.ColUsers)}
}

// UserByIdentifier finds a user by email or USN.
func (s *MongoStore) UserByIdentifier(ctx context.Context, identifier string) (*shared.User, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"email": identifier},
			{"student_id": identifier},
			{"_id": identifier},
		},
	}

	var user shared.User
	err := s.users.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, shared.Errorf(shared.CodeNotFound, "user %s not found", identifier)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
