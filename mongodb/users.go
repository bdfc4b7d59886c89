package mongodb

import (
	"context"
	"errors"
	"fmt"

	"finance-advisor/api/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ErrInvalidUserID marks a user identifier that is not a 24-character hex
// ObjectID. Handlers map it to a 400 before any database call is made.
var ErrInvalidUserID = errors.New("invalid user id format")

// ParseUserID validates and converts the opaque identifier used in API
// paths.
func ParseUserID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("%w: %q", ErrInvalidUserID, id)
	}
	return oid, nil
}

// GetUserByID fetches the full user record. Returns (nil, nil) when no
// record exists.
func GetUserByID(ctx context.Context, id bson.ObjectID) (*models.UserProfile, error) {
	filter := bson.M{"_id": id}

	var profile models.UserProfile
	err := users().FindOne(ctx, filter).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching user: %w", err)
	}

	return &profile, nil
}

// GetUserFinancial fetches only the financial subdocument, for the ad hoc
// analysis endpoint. Returns (nil, nil) when the user does not exist; a user
// without financial data yields a non-nil profile with a nil Financial.
func GetUserFinancial(ctx context.Context, id bson.ObjectID) (*models.UserProfile, error) {
	filter := bson.M{"_id": id}
	projection := bson.M{"financial": 1}

	var profile models.UserProfile
	err := users().FindOne(ctx, filter, options.FindOne().SetProjection(projection)).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching user financial data: %w", err)
	}

	return &profile, nil
}

// UpdateDerivedFields applies a field-scoped $set of the merged analysis
// outputs. Only non-empty fields are written and the document is never
// replaced, so everything outside the five derived fields is untouched.
func UpdateDerivedFields(ctx context.Context, id bson.ObjectID, fields models.DerivedFields) error {
	set := bson.M{}
	if fields.SpendAnalysis != nil {
		set["spend_analysis"] = fields.SpendAnalysis
	}
	if len(fields.Longterm) > 0 {
		set["longterm"] = fields.Longterm
	}
	if len(fields.Shortterm) > 0 {
		set["shortterm"] = fields.Shortterm
	}
	if len(fields.GoodHabits) > 0 {
		set["good_habits"] = fields.GoodHabits
	}
	if len(fields.BadHabits) > 0 {
		set["bad_habits"] = fields.BadHabits
	}
	if len(set) == 0 {
		return nil
	}

	_, err := users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("error updating derived fields: %w", err)
	}
	return nil
}

// DeleteUser removes the user record. Returns the number of deleted
// documents so handlers can 404 on zero.
func DeleteUser(ctx context.Context, id bson.ObjectID) (int64, error) {
	result, err := users().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("error deleting user: %w", err)
	}
	return result.DeletedCount, nil
}
