package service

import (
	"context"
	"testing"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/model"
)

type applicationFixture struct {
	svc          *ApplicationService
	apps         *mockApplicationRepo
	scholarships *mockScholarshipRepo
	users        *mockUserRepo
}

func newApplicationFixture(t *testing.T) applicationFixture {
	t.Helper()
	f := applicationFixture{
		apps:         newMockApplicationRepo(),
		scholarships: newMockScholarshipRepo(),
		users:        newMockUserRepo(),
	}
	f.svc = NewApplicationService(f.apps, f.scholarships, f.users, testLogger())
	return f
}

func (f applicationFixture) apply(t *testing.T, email string) *model.Application {
	t.Helper()
	s := seedScholarship(t, f.scholarships)
	a, err := f.svc.Create(context.Background(), principal(email), ApplicationInput{
		ScholarshipID: s.ID,
		UserName:      "Applicant",
		Phone:         "+880 1700 000000",
		Address:       "Dhaka",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return a
}

// =========================================================================
// CREATE / READ
// =========================================================================

func TestApplicationCreate_SnapshotsScholarship(t *testing.T) {
	f := newApplicationFixture(t)
	stored := f.users.add("ada@example.com", model.RoleUser)

	a := f.apply(t, "ada@example.com")

	if a.ApplicationStatus != model.StatusPending || a.PaymentStatus != model.PaymentUnpaid {
		t.Errorf("status = (%q, %q), want (pending, unpaid)", a.ApplicationStatus, a.PaymentStatus)
	}
	if a.ApplicationFees != 50 || a.ServiceCharge != 10 || a.Degree != "Masters" {
		t.Errorf("snapshot = (%v, %v, %q), want (50, 10, Masters)", a.ApplicationFees, a.ServiceCharge, a.Degree)
	}
	if a.UserEmail != "ada@example.com" {
		t.Errorf("UserEmail = %q, want the caller", a.UserEmail)
	}
	if a.UserID != stored.ID {
		t.Errorf("UserID = %q, want stored user ID %q", a.UserID, stored.ID)
	}
}

func TestApplicationCreate_UnknownScholarship(t *testing.T) {
	f := newApplicationFixture(t)

	_, err := f.svc.Create(context.Background(), principal("ada@example.com"), ApplicationInput{ScholarshipID: "missing"})
	assertIs(t, err, apperror.ErrNotFound)
}

func TestApplicationGet_Access(t *testing.T) {
	f := newApplicationFixture(t)
	a := f.apply(t, "ada@example.com")
	f.users.add("bob@example.com", model.RoleUser)
	f.users.add("mod@example.com", model.RoleModerator)
	ctx := context.Background()

	if _, err := f.svc.Get(ctx, principal("ada@example.com"), a.ID); err != nil {
		t.Errorf("owner Get() error = %v", err)
	}
	if _, err := f.svc.Get(ctx, principal("mod@example.com"), a.ID); err != nil {
		t.Errorf("staff Get() error = %v", err)
	}
	_, err := f.svc.Get(ctx, principal("bob@example.com"), a.ID)
	assertIs(t, err, apperror.ErrForbidden)
}

func TestApplicationListAll_StatusFilter(t *testing.T) {
	f := newApplicationFixture(t)
	first := f.apply(t, "ada@example.com")
	f.apply(t, "bob@example.com")
	ctx := context.Background()

	if err := f.svc.SetStatus(ctx, first.ID, "completed"); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	all, err := f.svc.ListAll(ctx, "")
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all = %d, want 2", len(all))
	}

	completed, err := f.svc.ListAll(ctx, "Completed")
	if err != nil {
		t.Fatalf("ListAll(completed) error = %v", err)
	}
	if len(completed) != 1 || completed[0].ID != first.ID {
		t.Errorf("completed = %v, want only %s", completed, first.ID)
	}

	_, err = f.svc.ListAll(ctx, "archived")
	assertIs(t, err, apperror.ErrValidation)
}

// =========================================================================
// STAFF ACTIONS
// =========================================================================

func TestApplicationStaffActions(t *testing.T) {
	f := newApplicationFixture(t)
	a := f.apply(t, "ada@example.com")
	ctx := context.Background()

	if err := f.svc.SetStatus(ctx, a.ID, "processing"); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if err := f.svc.SetFeedback(ctx, a.ID, "  missing transcript  "); err != nil {
		t.Fatalf("SetFeedback() error = %v", err)
	}
	got := f.apps.apps[a.ID]
	if got.ApplicationStatus != model.StatusProcessing || got.Feedback != "missing transcript" {
		t.Errorf("after update = (%q, %q)", got.ApplicationStatus, got.Feedback)
	}

	if err := f.svc.Reject(ctx, a.ID, ""); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	got = f.apps.apps[a.ID]
	if got.ApplicationStatus != model.StatusRejected {
		t.Errorf("status = %q, want rejected", got.ApplicationStatus)
	}
	if got.Feedback != "missing transcript" {
		t.Errorf("Reject without feedback cleared it: %q", got.Feedback)
	}

	assertIs(t, f.svc.SetStatus(ctx, a.ID, "done"), apperror.ErrValidation)
	assertIs(t, f.svc.SetStatus(ctx, "missing", "completed"), apperror.ErrNotFound)
	assertIs(t, f.svc.Reject(ctx, "missing", "no"), apperror.ErrNotFound)
}

func TestApplicationMarkPaid(t *testing.T) {
	f := newApplicationFixture(t)
	a := f.apply(t, "ada@example.com")
	f.users.add("bob@example.com", model.RoleUser)
	ctx := context.Background()

	err := f.svc.MarkPaid(ctx, principal("bob@example.com"), a.ID)
	assertIs(t, err, apperror.ErrForbidden)
	if f.apps.apps[a.ID].PaymentStatus != model.PaymentUnpaid {
		t.Fatal("forbidden MarkPaid changed the payment status")
	}

	if err := f.svc.MarkPaid(ctx, principal("ada@example.com"), a.ID); err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	if f.apps.apps[a.ID].PaymentStatus != model.PaymentPaid {
		t.Error("payment status not paid")
	}
}

// =========================================================================
// DELETE
// =========================================================================

func TestApplicationDelete_PendingOwner(t *testing.T) {
	f := newApplicationFixture(t)
	a := f.apply(t, "ada@example.com")

	if err := f.svc.Delete(context.Background(), principal("ada@example.com"), a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(f.apps.apps) != 0 {
		t.Error("application still stored")
	}
}

func TestApplicationDelete_NotPendingIsForbidden(t *testing.T) {
	f := newApplicationFixture(t)
	a := f.apply(t, "ada@example.com")
	ctx := context.Background()
	if err := f.svc.SetStatus(ctx, a.ID, "processing"); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	err := f.svc.Delete(ctx, principal("ada@example.com"), a.ID)
	assertIs(t, err, apperror.ErrForbidden)
	if got, ok := f.apps.apps[a.ID]; !ok || got.ApplicationStatus != model.StatusProcessing {
		t.Error("application changed by a forbidden delete")
	}
}

func TestApplicationDelete_OtherUserIsForbidden(t *testing.T) {
	f := newApplicationFixture(t)
	a := f.apply(t, "ada@example.com")
	f.users.add("admin@example.com", model.RoleAdmin)

	err := f.svc.Delete(context.Background(), principal("admin@example.com"), a.ID)
	assertIs(t, err, apperror.ErrForbidden)
	if len(f.apps.apps) != 1 {
		t.Error("application deleted by non-owner")
	}
}

func TestApplicationDelete_StatusChangesBeforeDelete(t *testing.T) {
	f := newApplicationFixture(t)
	a := f.apply(t, "ada@example.com")
	f.apps.beforeDelete = func(app *model.Application) {
		app.ApplicationStatus = model.StatusProcessing
	}

	err := f.svc.Delete(context.Background(), principal("ada@example.com"), a.ID)
	assertIs(t, err, apperror.ErrForbidden)
	if len(f.apps.apps) != 1 {
		t.Error("application deleted after leaving pending")
	}
}

func TestApplicationDelete_Unknown(t *testing.T) {
	f := newApplicationFixture(t)

	err := f.svc.Delete(context.Background(), principal("ada@example.com"), "missing")
	assertIs(t, err, apperror.ErrNotFound)
}
