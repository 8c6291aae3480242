package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/model"
)

func createTestReview(t *testing.T, d *ReviewDB, scholarshipID, email string, rating int) *model.Review {
	t.Helper()
	r := &model.Review{
		ScholarshipID: scholarshipID,
		ReviewerName:  "Reviewer",
		ReviewerEmail: email,
		Rating:        rating,
		Comment:       "fine",
	}
	if err := d.Create(context.Background(), r); err != nil {
		t.Fatalf("failed to create test review: %v", err)
	}
	return r
}

func TestReviewCreateAndGet(t *testing.T) {
	d := newTestDB(t).Reviews().(*ReviewDB)
	created := createTestReview(t, d, "sch-1", "ana@example.com", 4)

	if created.ID == "" || created.CreatedAt.IsZero() || !created.UpdatedAt.Equal(created.CreatedAt) {
		t.Fatalf("Create() did not fill ID and timestamps: %+v", created)
	}

	found, err := d.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Rating != 4 || found.ReviewerEmail != "ana@example.com" {
		t.Errorf("GetByID() = %+v", found)
	}

	if _, err := d.GetByID(context.Background(), "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() missing error = %v, want ErrNotFound", err)
	}
}

func TestReviewListings(t *testing.T) {
	d := newTestDB(t).Reviews().(*ReviewDB)
	createTestReview(t, d, "sch-1", "ana@example.com", 5)
	createTestReview(t, d, "sch-1", "bo@example.com", 3)
	createTestReview(t, d, "sch-2", "ana@example.com", 2)

	bySch, err := d.ListByScholarship(context.Background(), "sch-1")
	if err != nil {
		t.Fatalf("ListByScholarship() error = %v", err)
	}
	if len(bySch) != 2 {
		t.Errorf("ListByScholarship() len = %d, want 2", len(bySch))
	}

	byAna, err := d.ListByReviewer(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("ListByReviewer() error = %v", err)
	}
	if len(byAna) != 2 {
		t.Errorf("ListByReviewer() len = %d, want 2", len(byAna))
	}

	all, err := d.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListAll() len = %d, want 3", len(all))
	}

	none, err := d.ListByScholarship(context.Background(), "sch-none")
	if err != nil {
		t.Fatalf("ListByScholarship() error = %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("ListByScholarship() = %v, want empty non-nil slice", none)
	}
}

func TestReviewUpdate(t *testing.T) {
	d := newTestDB(t).Reviews().(*ReviewDB)
	created := createTestReview(t, d, "sch-1", "ana@example.com", 2)

	rating := 5
	if err := d.Update(context.Background(), created.ID, model.ReviewPatch{Rating: &rating}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	found, _ := d.GetByID(context.Background(), created.ID)
	if found.Rating != 5 {
		t.Errorf("Rating = %d, want 5", found.Rating)
	}
	if found.Comment != "fine" {
		t.Errorf("Comment = %q, an unset field was overwritten", found.Comment)
	}

	if err := d.Update(context.Background(), "missing", model.ReviewPatch{Rating: &rating}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() missing error = %v, want ErrNotFound", err)
	}
}

func TestReviewDelete(t *testing.T) {
	d := newTestDB(t).Reviews().(*ReviewDB)
	created := createTestReview(t, d, "sch-1", "ana@example.com", 2)

	if err := d.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := d.Delete(context.Background(), created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}
