package mongo

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/listing"
	"github.com/sakif/scholar-stream/internal/model"
	"github.com/sakif/scholar-stream/internal/repository"
)

func TestListingFilter_Empty(t *testing.T) {
	assert.Equal(t, bson.M{}, listingFilter(listing.Query{}))
}

func TestListingFilter_SearchAndExactFilters(t *testing.T) {
	q := listing.Query{
		Search:   "c++ (MSc)",
		Category: "Full fund",
		Subject:  "Engineering",
		Country:  "Japan",
	}
	f := listingFilter(q)

	re := primitive.Regex{Pattern: regexp.QuoteMeta("c++ (MSc)"), Options: "i"}
	assert.Equal(t, bson.A{
		bson.M{"scholarshipName": re},
		bson.M{"universityName": re},
		bson.M{"degree": re},
	}, f["$or"])
	assert.Equal(t, "Full fund", f["scholarshipCategory"])
	assert.Equal(t, "Engineering", f["subjectCategory"])
	assert.Equal(t, "Japan", f["universityCountry"])
}

func TestListingFilter_SearchPatternIsLiteral(t *testing.T) {
	f := listingFilter(listing.Query{Search: "100%.*"})
	or := f["$or"].(bson.A)
	re := or[0].(bson.M)["scholarshipName"].(primitive.Regex)

	compiled, err := regexp.Compile("(?i)" + re.Pattern)
	require.NoError(t, err)
	assert.True(t, compiled.MatchString("A 100%.* grant"))
	assert.False(t, compiled.MatchString("100% grant"))
}

func TestListingSort(t *testing.T) {
	tests := []struct {
		name string
		q    listing.Query
		want bson.D
	}{
		{"fee asc", listing.Query{SortBy: "fee", Order: "asc"},
			bson.D{{Key: "applicationFees", Value: 1}, {Key: "_id", Value: 1}}},
		{"fee desc", listing.Query{SortBy: "fee", Order: "desc"},
			bson.D{{Key: "applicationFees", Value: -1}, {Key: "_id", Value: 1}}},
		{"default date desc", listing.Query{},
			bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, listingSort(tt.q))
		})
	}
}

func TestApplicationFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, applicationFilter(repository.ApplicationFilter{}))
	assert.Equal(t,
		bson.M{"applicationStatus": model.StatusRejected},
		applicationFilter(repository.ApplicationFilter{Status: model.StatusRejected}))
}

func TestRejectFields(t *testing.T) {
	assert.Equal(t, bson.M{"applicationStatus": model.StatusRejected}, rejectFields(""))
	assert.Equal(t,
		bson.M{"applicationStatus": model.StatusRejected, "feedback": "late"},
		rejectFields("late"))
}

func TestObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	got, err := objectID("scholarship", oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	_, err = objectID("scholarship", "not-hex")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDocumentShape(t *testing.T) {
	oid := primitive.NewObjectID()
	doc := scholarshipDoc{ID: oid, Scholarship: model.Scholarship{ID: "ignored", ScholarshipName: "Grant"}}

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.Equal(t, oid, m["_id"])
	assert.Equal(t, "Grant", m["scholarshipName"])
	assert.NotContains(t, m, "ID")
	assert.NotContains(t, m, "Scholarship")

	var back scholarshipDoc
	require.NoError(t, bson.Unmarshal(raw, &back))
	assert.Equal(t, oid.Hex(), back.toModel().ID)
}
