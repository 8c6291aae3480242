package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/model"
	"github.com/sakif/scholar-stream/internal/repository"
)

var _ repository.UserRepository = (*UserCollection)(nil)

type userDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	model.User `bson:",inline"`
}

func (d userDoc) toModel() model.User {
	u := d.User
	u.ID = d.ID.Hex()
	return u
}

// UserCollection is the users collection.
type UserCollection struct {
	coll *mongo.Collection
}

// CreateIfAbsent upserts on email with $setOnInsert, so an existing user is
// never modified. The unique email index turns a lost race into a duplicate
// key error, which is also reported as "not created".
func (c *UserCollection) CreateIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	doc := userDoc{ID: primitive.NewObjectID(), User: *user}
	doc.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if doc.Role == "" {
		doc.Role = model.RoleUser
	}

	res, err := c.coll.UpdateOne(ctx,
		bson.M{"email": user.Email},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mongo: upserting user (email=%s): %w", user.Email, err)
	}
	if res.UpsertedCount == 0 {
		return false, nil
	}

	*user = doc.toModel()
	return true, nil
}

func (c *UserCollection) GetByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := objectID("user", id)
	if err != nil {
		return nil, err
	}
	doc, err := findOne[userDoc](ctx, c.coll, bson.M{"_id": oid}, apperror.NotFound("user", id))
	if err != nil {
		return nil, err
	}
	u := doc.toModel()
	return &u, nil
}

func (c *UserCollection) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	doc, err := findOne[userDoc](ctx, c.coll, bson.M{"email": email}, apperror.NotFoundBy("user", "email", email))
	if err != nil {
		return nil, err
	}
	u := doc.toModel()
	return &u, nil
}

func (c *UserCollection) List(ctx context.Context) ([]model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return findAll(ctx, c.coll, bson.M{}, opts, userDoc.toModel)
}

func (c *UserCollection) UpdateProfile(ctx context.Context, email string, patch model.UserProfilePatch) error {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Photo != nil {
		set["photo"] = *patch.Photo
	}
	if len(set) == 0 {
		_, err := c.GetByEmail(ctx, email)
		return err
	}

	res, err := c.coll.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("mongo: updating user %s: %w", email, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFoundBy("user", "email", email)
	}
	return nil
}

func (c *UserCollection) UpdateRole(ctx context.Context, id string, role model.Role) error {
	return updateByID(ctx, c.coll, "user", id, bson.M{"$set": bson.M{"role": role}})
}

func (c *UserCollection) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, c.coll, "user", id)
}
