// Package mongo implements the repository interfaces on MongoDB, the
// production document store.
//
// Documents keep the camelCase field names of the JSON API. Each model is
// stored through a small wrapper that adds the ObjectID "_id" and inlines the
// model's fields; IDs cross the repository boundary as hex strings.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/repository"
)

const (
	usersCollection        = "users"
	scholarshipsCollection = "scholarships"
	reviewsCollection      = "reviews"
	applicationsCollection = "applications"
)

var _ repository.Store = (*Store)(nil)

// Store is a connected client plus the database holding the four collections.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, verifies the connection and ensures the indexes the
// repositories rely on (the unique email index in particular).
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		scholarshipsCollection: {
			{Keys: bson.D{{Key: "applicationFees", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}},
		},
		reviewsCollection: {
			{Keys: bson.D{{Key: "scholarshipId", Value: 1}}},
			{Keys: bson.D{{Key: "reviewerEmail", Value: 1}}},
		},
		applicationsCollection: {
			{Keys: bson.D{{Key: "userEmail", Value: 1}}},
			{Keys: bson.D{{Key: "applicationStatus", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: creating indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo: ping: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Users() repository.UserRepository {
	return &UserCollection{coll: s.db.Collection(usersCollection)}
}

func (s *Store) Scholarships() repository.ScholarshipRepository {
	return &ScholarshipCollection{coll: s.db.Collection(scholarshipsCollection)}
}

func (s *Store) Reviews() repository.ReviewRepository {
	return &ReviewCollection{coll: s.db.Collection(reviewsCollection)}
}

func (s *Store) Applications() repository.ApplicationRepository {
	return &ApplicationCollection{coll: s.db.Collection(applicationsCollection)}
}

// objectID parses a hex ID. A malformed ID cannot name any document, so it
// is reported as NotFound rather than as a validation error.
func objectID(resource, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperror.NotFound(resource, id)
	}
	return oid, nil
}

// findOne decodes a single document into D, mapping "no documents" to notFound.
func findOne[D any](ctx context.Context, coll *mongo.Collection, filter any, notFound error) (*D, error) {
	var doc D
	err := coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find in %s: %w", coll.Name(), err)
	}
	return &doc, nil
}

// findAll runs Find and converts every decoded document with conv. The
// result is never nil.
func findAll[D, M any](ctx context.Context, coll *mongo.Collection, filter any, opts *options.FindOptions, conv func(D) M) ([]M, error) {
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: find in %s: %w", coll.Name(), err)
	}
	defer cur.Close(ctx)

	out := make([]M, 0)
	for cur.Next(ctx) {
		var doc D
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decoding %s document: %w", coll.Name(), err)
		}
		out = append(out, conv(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo: iterating %s: %w", coll.Name(), err)
	}
	return out, nil
}

// updateByID applies update to one document and reports a miss as NotFound.
func updateByID(ctx context.Context, coll *mongo.Collection, resource, id string, update any) error {
	oid, err := objectID(resource, id)
	if err != nil {
		return err
	}
	res, err := coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("mongo: updating %s %s: %w", resource, id, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, resource, id string) error {
	oid, err := objectID(resource, id)
	if err != nil {
		return err
	}
	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongo: deleting %s %s: %w", resource, id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

// newestFirst sorts on a timestamp field descending with _id as tiebreaker.
func newestFirst(field string) *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: field, Value: -1}, {Key: "_id", Value: 1}})
}
