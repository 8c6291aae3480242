package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/model"
	"github.com/sakif/scholar-stream/internal/repository"
)

func newTestApplicationDB(t *testing.T) *ApplicationDB {
	t.Helper()
	return newTestDB(t).Applications().(*ApplicationDB)
}

func createTestApplication(t *testing.T, d *ApplicationDB, email string) *model.Application {
	t.Helper()
	a := &model.Application{
		ScholarshipID:   "sch-1",
		ScholarshipName: "Engineering Grant",
		UserEmail:       email,
		ApplicationFees: 30,
	}
	if err := d.Create(context.Background(), a); err != nil {
		t.Fatalf("failed to create test application: %v", err)
	}
	return a
}

func TestApplicationCreate_Defaults(t *testing.T) {
	d := newTestApplicationDB(t)
	a := createTestApplication(t, d, "ana@example.com")

	found, err := d.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.ApplicationStatus != model.StatusPending {
		t.Errorf("ApplicationStatus = %q, want pending", found.ApplicationStatus)
	}
	if found.PaymentStatus != model.PaymentUnpaid {
		t.Errorf("PaymentStatus = %q, want unpaid", found.PaymentStatus)
	}
	if found.Feedback != "" {
		t.Errorf("Feedback = %q, want empty", found.Feedback)
	}
	if !found.ApplicationDate.Equal(a.ApplicationDate) {
		t.Errorf("ApplicationDate = %v, want %v", found.ApplicationDate, a.ApplicationDate)
	}
}

func TestApplicationListings(t *testing.T) {
	d := newTestApplicationDB(t)
	createTestApplication(t, d, "ana@example.com")
	second := createTestApplication(t, d, "ana@example.com")
	createTestApplication(t, d, "bo@example.com")

	if err := d.SetStatus(context.Background(), second.ID, model.StatusProcessing); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	mine, err := d.ListByApplicant(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("ListByApplicant() error = %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("ListByApplicant() len = %d, want 2", len(mine))
	}

	all, err := d.ListAll(context.Background(), repository.ApplicationFilter{})
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListAll() len = %d, want 3", len(all))
	}

	processing, err := d.ListAll(context.Background(), repository.ApplicationFilter{Status: model.StatusProcessing})
	if err != nil {
		t.Fatalf("ListAll(processing) error = %v", err)
	}
	if len(processing) != 1 || processing[0].ID != second.ID {
		t.Errorf("ListAll(processing) = %d rows, want only %s", len(processing), second.ID)
	}
}

func TestApplicationSetters(t *testing.T) {
	d := newTestApplicationDB(t)
	a := createTestApplication(t, d, "ana@example.com")
	ctx := context.Background()

	if err := d.SetPaymentStatus(ctx, a.ID, model.PaymentPaid); err != nil {
		t.Fatalf("SetPaymentStatus() error = %v", err)
	}
	if err := d.SetFeedback(ctx, a.ID, "add transcript"); err != nil {
		t.Fatalf("SetFeedback() error = %v", err)
	}

	found, _ := d.GetByID(ctx, a.ID)
	if found.PaymentStatus != model.PaymentPaid {
		t.Errorf("PaymentStatus = %q, want paid", found.PaymentStatus)
	}
	if found.Feedback != "add transcript" {
		t.Errorf("Feedback = %q", found.Feedback)
	}

	for name, err := range map[string]error{
		"SetPaymentStatus": d.SetPaymentStatus(ctx, "missing", model.PaymentPaid),
		"SetStatus":        d.SetStatus(ctx, "missing", model.StatusCompleted),
		"SetFeedback":      d.SetFeedback(ctx, "missing", "x"),
		"Reject":           d.Reject(ctx, "missing", ""),
	} {
		if !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("%s() missing error = %v, want ErrNotFound", name, err)
		}
	}
}

func TestApplicationReject(t *testing.T) {
	d := newTestApplicationDB(t)
	ctx := context.Background()

	withFeedback := createTestApplication(t, d, "ana@example.com")
	if err := d.SetFeedback(ctx, withFeedback.ID, "old note"); err != nil {
		t.Fatalf("SetFeedback() error = %v", err)
	}
	if err := d.Reject(ctx, withFeedback.ID, ""); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	found, _ := d.GetByID(ctx, withFeedback.ID)
	if found.ApplicationStatus != model.StatusRejected || found.Feedback != "old note" {
		t.Errorf("Reject(no feedback) = status %q feedback %q", found.ApplicationStatus, found.Feedback)
	}

	if err := d.Reject(ctx, withFeedback.ID, "incomplete"); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	found, _ = d.GetByID(ctx, withFeedback.ID)
	if found.Feedback != "incomplete" {
		t.Errorf("Feedback = %q, want %q", found.Feedback, "incomplete")
	}
}

// =========================================================================
// DELETE PENDING TESTS
// =========================================================================

func TestApplicationDeletePending(t *testing.T) {
	d := newTestApplicationDB(t)
	a := createTestApplication(t, d, "ana@example.com")

	deleted, err := d.DeletePending(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("DeletePending() error = %v", err)
	}
	if !deleted {
		t.Fatal("DeletePending() deleted = false for a pending application")
	}
	if _, err := d.GetByID(context.Background(), a.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestApplicationDeletePending_NotPending(t *testing.T) {
	d := newTestApplicationDB(t)
	a := createTestApplication(t, d, "ana@example.com")
	if err := d.SetStatus(context.Background(), a.ID, model.StatusProcessing); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	deleted, err := d.DeletePending(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("DeletePending() error = %v", err)
	}
	if deleted {
		t.Fatal("DeletePending() deleted a processing application")
	}
	found, err := d.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.ApplicationStatus != model.StatusProcessing {
		t.Errorf("ApplicationStatus = %q, record was changed", found.ApplicationStatus)
	}
}

func TestApplicationDeletePending_NotFound(t *testing.T) {
	d := newTestApplicationDB(t)

	_, err := d.DeletePending(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeletePending() error = %v, want ErrNotFound", err)
	}
}
