package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/model"
	"github.com/sakif/scholar-stream/internal/repository"
)

var _ repository.ReviewRepository = (*ReviewCollection)(nil)

type reviewDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	model.Review `bson:",inline"`
}

func (d reviewDoc) toModel() model.Review {
	r := d.Review
	r.ID = d.ID.Hex()
	return r
}

// ReviewCollection is the reviews collection.
type ReviewCollection struct {
	coll *mongo.Collection
}

func (c *ReviewCollection) Create(ctx context.Context, r *model.Review) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := reviewDoc{ID: primitive.NewObjectID(), Review: *r}
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo: inserting review: %w", err)
	}
	*r = doc.toModel()
	return nil
}

func (c *ReviewCollection) GetByID(ctx context.Context, id string) (*model.Review, error) {
	oid, err := objectID("review", id)
	if err != nil {
		return nil, err
	}
	doc, err := findOne[reviewDoc](ctx, c.coll, bson.M{"_id": oid}, apperror.NotFound("review", id))
	if err != nil {
		return nil, err
	}
	r := doc.toModel()
	return &r, nil
}

func (c *ReviewCollection) ListByScholarship(ctx context.Context, scholarshipID string) ([]model.Review, error) {
	return findAll(ctx, c.coll, bson.M{"scholarshipId": scholarshipID}, newestFirst("createdAt"), reviewDoc.toModel)
}

func (c *ReviewCollection) ListByReviewer(ctx context.Context, email string) ([]model.Review, error) {
	return findAll(ctx, c.coll, bson.M{"reviewerEmail": email}, newestFirst("createdAt"), reviewDoc.toModel)
}

func (c *ReviewCollection) ListAll(ctx context.Context) ([]model.Review, error) {
	return findAll(ctx, c.coll, bson.M{}, newestFirst("createdAt"), reviewDoc.toModel)
}

func (c *ReviewCollection) Update(ctx context.Context, id string, patch model.ReviewPatch) error {
	set := bson.M{"updatedAt": time.Now().UTC().Truncate(time.Millisecond)}
	if patch.Rating != nil {
		set["rating"] = *patch.Rating
	}
	if patch.Comment != nil {
		set["comment"] = *patch.Comment
	}
	return updateByID(ctx, c.coll, "review", id, bson.M{"$set": set})
}

func (c *ReviewCollection) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, c.coll, "review", id)
}
