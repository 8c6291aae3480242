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

var _ repository.ApplicationRepository = (*ApplicationCollection)(nil)

type applicationDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	model.Application `bson:",inline"`
}

func (d applicationDoc) toModel() model.Application {
	a := d.Application
	a.ID = d.ID.Hex()
	return a
}

// ApplicationCollection is the applications collection.
type ApplicationCollection struct {
	coll *mongo.Collection
}

func (c *ApplicationCollection) Create(ctx context.Context, a *model.Application) error {
	doc := applicationDoc{ID: primitive.NewObjectID(), Application: *a}
	doc.ApplicationDate = time.Now().UTC().Truncate(time.Millisecond)
	if doc.ApplicationStatus == "" {
		doc.ApplicationStatus = model.StatusPending
	}
	if doc.PaymentStatus == "" {
		doc.PaymentStatus = model.PaymentUnpaid
	}

	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo: inserting application: %w", err)
	}
	*a = doc.toModel()
	return nil
}

func (c *ApplicationCollection) GetByID(ctx context.Context, id string) (*model.Application, error) {
	oid, err := objectID("application", id)
	if err != nil {
		return nil, err
	}
	doc, err := findOne[applicationDoc](ctx, c.coll, bson.M{"_id": oid}, apperror.NotFound("application", id))
	if err != nil {
		return nil, err
	}
	a := doc.toModel()
	return &a, nil
}

func (c *ApplicationCollection) ListByApplicant(ctx context.Context, email string) ([]model.Application, error) {
	return findAll(ctx, c.coll, bson.M{"userEmail": email}, newestFirst("applicationDate"), applicationDoc.toModel)
}

func (c *ApplicationCollection) ListAll(ctx context.Context, filter repository.ApplicationFilter) ([]model.Application, error) {
	return findAll(ctx, c.coll, applicationFilter(filter), newestFirst("applicationDate"), applicationDoc.toModel)
}

func applicationFilter(f repository.ApplicationFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["applicationStatus"] = f.Status
	}
	return filter
}

func (c *ApplicationCollection) SetPaymentStatus(ctx context.Context, id string, status model.PaymentStatus) error {
	return updateByID(ctx, c.coll, "application", id, bson.M{"$set": bson.M{"paymentStatus": status}})
}

func (c *ApplicationCollection) SetStatus(ctx context.Context, id string, status model.ApplicationStatus) error {
	return updateByID(ctx, c.coll, "application", id, bson.M{"$set": bson.M{"applicationStatus": status}})
}

func (c *ApplicationCollection) SetFeedback(ctx context.Context, id, feedback string) error {
	return updateByID(ctx, c.coll, "application", id, bson.M{"$set": bson.M{"feedback": feedback}})
}

func (c *ApplicationCollection) Reject(ctx context.Context, id, feedback string) error {
	return updateByID(ctx, c.coll, "application", id, bson.M{"$set": rejectFields(feedback)})
}

func rejectFields(feedback string) bson.M {
	set := bson.M{"applicationStatus": model.StatusRejected}
	if feedback != "" {
		set["feedback"] = feedback
	}
	return set
}

// DeletePending removes the document only while its status is pending. A
// miss is resolved by a follow-up count: no document at all is NotFound.
func (c *ApplicationCollection) DeletePending(ctx context.Context, id string) (bool, error) {
	oid, err := objectID("application", id)
	if err != nil {
		return false, err
	}

	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": oid, "applicationStatus": model.StatusPending})
	if err != nil {
		return false, fmt.Errorf("mongo: deleting application %s: %w", id, err)
	}
	if res.DeletedCount > 0 {
		return true, nil
	}

	n, err := c.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("mongo: checking application %s: %w", id, err)
	}
	if n == 0 {
		return false, apperror.NotFound("application", id)
	}
	return false, nil
}
