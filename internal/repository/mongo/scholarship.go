package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/listing"
	"github.com/sakif/scholar-stream/internal/model"
	"github.com/sakif/scholar-stream/internal/repository"
)

var _ repository.ScholarshipRepository = (*ScholarshipCollection)(nil)

type scholarshipDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	model.Scholarship `bson:",inline"`
}

func (d scholarshipDoc) toModel() model.Scholarship {
	s := d.Scholarship
	s.ID = d.ID.Hex()
	return s
}

// ScholarshipCollection is the scholarships collection.
type ScholarshipCollection struct {
	coll *mongo.Collection
}

func (c *ScholarshipCollection) Create(ctx context.Context, s *model.Scholarship) error {
	doc := scholarshipDoc{ID: primitive.NewObjectID(), Scholarship: *s}
	doc.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo: inserting scholarship: %w", err)
	}
	*s = doc.toModel()
	return nil
}

func (c *ScholarshipCollection) GetByID(ctx context.Context, id string) (*model.Scholarship, error) {
	oid, err := objectID("scholarship", id)
	if err != nil {
		return nil, err
	}
	doc, err := findOne[scholarshipDoc](ctx, c.coll, bson.M{"_id": oid}, apperror.NotFound("scholarship", id))
	if err != nil {
		return nil, err
	}
	s := doc.toModel()
	return &s, nil
}

// List counts the matches and fetches one sorted window of them.
func (c *ScholarshipCollection) List(ctx context.Context, q listing.Query) ([]model.Scholarship, int64, error) {
	filter := listingFilter(q)

	total, err := c.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("mongo: counting scholarships: %w", err)
	}

	opts := options.Find().
		SetSort(listingSort(q)).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.Limit))
	data, err := findAll(ctx, c.coll, filter, opts, scholarshipDoc.toModel)
	if err != nil {
		return nil, 0, err
	}
	return data, total, nil
}

// listingFilter translates the query's filters. The search text is quoted so
// it matches literally, case-insensitively, anywhere in the field.
func listingFilter(q listing.Query) bson.M {
	filter := bson.M{}
	if q.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"scholarshipName": re},
			bson.M{"universityName": re},
			bson.M{"degree": re},
		}
	}
	if q.Category != "" {
		filter["scholarshipCategory"] = q.Category
	}
	if q.Subject != "" {
		filter["subjectCategory"] = q.Subject
	}
	if q.Country != "" {
		filter["universityCountry"] = q.Country
	}
	return filter
}

// listingSort orders by the primary key, then _id ascending.
func listingSort(q listing.Query) bson.D {
	return bson.D{
		{Key: q.SortField(), Value: q.Direction()},
		{Key: "_id", Value: 1},
	}
}

func (c *ScholarshipCollection) Update(ctx context.Context, id string, patch model.ScholarshipPatch) error {
	fields := patch.Fields()
	if len(fields) == 0 {
		_, err := c.GetByID(ctx, id)
		return err
	}
	return updateByID(ctx, c.coll, "scholarship", id, bson.M{"$set": bson.M(fields)})
}

func (c *ScholarshipCollection) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, c.coll, "scholarship", id)
}
