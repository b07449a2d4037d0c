package users

import (
	"context"
	"errors"
	"time"

	"github.com/gitmax/gitmax/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrConflict is returned when a write loses a uniqueness race on github_id.
var ErrConflict = errors.New("conflicting user write")

// Update carries the mutable profile fields; nil pointers are left untouched.
type Update struct {
	GithubUsername *string
	IsActive       *bool
}

// UserRepository defines persistence operations for users
type UserRepository interface {
	FindByGithubID(ctx context.Context, githubID string) (*models.User, error)
	Upsert(ctx context.Context, u *models.User) (*models.User, error)
	UpdateFields(ctx context.Context, githubID string, upd Update) (*models.User, error)
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col}
}

// EnsureIndexes creates the unique index on githubId. The index is what
// serializes concurrent callbacks for the same external identity.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "githubId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoUserRepository) FindByGithubID(ctx context.Context, githubID string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"githubId": githubID}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Upsert creates or updates the row keyed by githubId in a single atomic
// FindOneAndUpdate. The username and provider token are always refreshed to
// the supplied values; createdAt and isActive are set only on insert.
func (r *MongoUserRepository) Upsert(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	filter := bson.M{"githubId": u.GithubID}
	update := bson.M{
		"$set": bson.M{
			"githubUsername": u.GithubUsername,
			"githubToken":    u.GithubToken,
			"updatedAt":      now,
		},
		"$setOnInsert": bson.M{
			"githubId":  u.GithubID,
			"createdAt": now,
			"isActive":  true,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated models.User
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return &updated, nil
}

func (r *MongoUserRepository) UpdateFields(ctx context.Context, githubID string, upd Update) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.GithubUsername != nil {
		set["githubUsername"] = *upd.GithubUsername
	}
	if upd.IsActive != nil {
		set["isActive"] = *upd.IsActive
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.User
	err := r.col.FindOneAndUpdate(ctx, bson.M{"githubId": githubID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &updated, nil
}
