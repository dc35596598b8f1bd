package mongodb

import (
	"context"
	"errors"
	"fmt"

	"income-bridge/api/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const UserCollection = "users"

// UserRepository reads and updates onboarding user records.
type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(client *mongo.Client, database string) *UserRepository {
	return &UserRepository{
		collection: client.Database(database).Collection(UserCollection),
	}
}

// Find returns the user for the given firebase id, or nil if none exists.
func (r *UserRepository) Find(ctx context.Context, firebaseID string) (*models.User, error) {
	filter := bson.M{"firebase_id": firebaseID}

	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // Not found, but not an error
		}
		return nil, fmt.Errorf("error finding user %s: %w", firebaseID, err)
	}

	return &user, nil
}

// UpdateFields applies a partial update to the user record.
func (r *UserRepository) UpdateFields(ctx context.Context, firebaseID string, update models.UserUpdate) error {
	filter := bson.M{"firebase_id": firebaseID}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("error updating user %s: %w", firebaseID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("no user found for firebase id %s", firebaseID)
	}

	return nil
}

// SetUserTokenIfEmpty stores the token only while the field is still empty
// and returns whatever token the record ends up holding. Concurrent
// provisioners race on the filter; exactly one write lands and both callers
// converge on the stored token.
func (r *UserRepository) SetUserTokenIfEmpty(ctx context.Context, firebaseID, token string) (string, error) {
	filter := bson.M{
		"firebase_id": firebaseID,
		"$or": []bson.M{
			{"user_token": ""},
			{"user_token": bson.M{"$exists": false}},
		},
	}
	update := bson.M{"$set": bson.M{"user_token": token}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return updated.UserToken, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return "", fmt.Errorf("error storing user token for %s: %w", firebaseID, err)
	}

	// No match: either another writer already set the token, or the user
	// vanished. Read back to tell the two apart.
	user, findErr := r.Find(ctx, firebaseID)
	if findErr != nil {
		return "", findErr
	}
	if user == nil {
		return "", fmt.Errorf("no user found for firebase id %s", firebaseID)
	}
	return user.UserToken, nil
}
