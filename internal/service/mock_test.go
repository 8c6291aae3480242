package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/auth"
	"github.com/sakif/scholar-stream/internal/listing"
	"github.com/sakif/scholar-stream/internal/model"
	"github.com/sakif/scholar-stream/internal/payment"
	"github.com/sakif/scholar-stream/internal/repository"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================
//
// In-memory implementations of the repository interfaces. They store copies
// so a test cannot mutate stored state through a returned pointer, and they
// follow the same NotFound conventions as the real backends.

var (
	_ repository.UserRepository        = (*mockUserRepo)(nil)
	_ repository.ScholarshipRepository = (*mockScholarshipRepo)(nil)
	_ repository.ReviewRepository      = (*mockReviewRepo)(nil)
	_ repository.ApplicationRepository = (*mockApplicationRepo)(nil)
)

type mockUserRepo struct {
	users  map[string]*model.User // by ID
	nextID int
	// deleteErr, when set, is returned by Delete.
	deleteErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) CreateIfAbsent(_ context.Context, u *model.User) (bool, error) {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return false, nil
		}
	}
	m.nextID++
	u.ID = fmt.Sprintf("user-%d", m.nextID)
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	u.CreatedAt = time.Now().UTC()
	stored := *u
	m.users[u.ID] = &stored
	return true, nil
}

// add stores a user directly, bypassing the role reset done by the service.
func (m *mockUserRepo) add(email string, role model.Role) *model.User {
	m.nextID++
	u := &model.User{ID: fmt.Sprintf("user-%d", m.nextID), Email: email, Role: role}
	m.users[u.ID] = u
	return u
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFoundBy("user", "email", email)
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	result := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, email string, patch model.UserProfilePatch) error {
	for _, u := range m.users {
		if u.Email != email {
			continue
		}
		if patch.Name != nil {
			u.Name = *patch.Name
		}
		if patch.Photo != nil {
			u.Photo = *patch.Photo
		}
		return nil
	}
	return apperror.NotFoundBy("user", "email", email)
}

func (m *mockUserRepo) UpdateRole(_ context.Context, id string, role model.Role) error {
	u, ok := m.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.Role = role
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(m.users, id)
	return nil
}

type mockScholarshipRepo struct {
	scholarships map[string]*model.Scholarship
	nextID       int
	// lastQuery records the query passed to List.
	lastQuery listing.Query
}

func newMockScholarshipRepo() *mockScholarshipRepo {
	return &mockScholarshipRepo{scholarships: make(map[string]*model.Scholarship)}
}

func (m *mockScholarshipRepo) Create(_ context.Context, s *model.Scholarship) error {
	m.nextID++
	s.ID = fmt.Sprintf("sch-%d", m.nextID)
	s.CreatedAt = time.Now().UTC()
	stored := *s
	m.scholarships[s.ID] = &stored
	return nil
}

func (m *mockScholarshipRepo) GetByID(_ context.Context, id string) (*model.Scholarship, error) {
	s, ok := m.scholarships[id]
	if !ok {
		return nil, apperror.NotFound("scholarship", id)
	}
	result := *s
	return &result, nil
}

// List ignores filters and sort; it only slices a stable ID order.
func (m *mockScholarshipRepo) List(_ context.Context, q listing.Query) ([]model.Scholarship, int64, error) {
	m.lastQuery = q
	all := make([]model.Scholarship, 0, len(m.scholarships))
	for _, s := range m.scholarships {
		all = append(all, *s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := int64(len(all))
	if q.Offset() >= len(all) {
		return []model.Scholarship{}, total, nil
	}
	all = all[q.Offset():]
	if q.Limit < len(all) {
		all = all[:q.Limit]
	}
	return all, total, nil
}

func (m *mockScholarshipRepo) Update(_ context.Context, id string, patch model.ScholarshipPatch) error {
	s, ok := m.scholarships[id]
	if !ok {
		return apperror.NotFound("scholarship", id)
	}
	if patch.ScholarshipName != nil {
		s.ScholarshipName = *patch.ScholarshipName
	}
	if patch.ApplicationFees != nil {
		s.ApplicationFees = *patch.ApplicationFees
	}
	return nil
}

func (m *mockScholarshipRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.scholarships[id]; !ok {
		return apperror.NotFound("scholarship", id)
	}
	delete(m.scholarships, id)
	return nil
}

type mockReviewRepo struct {
	reviews map[string]*model.Review
	nextID  int
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{reviews: make(map[string]*model.Review)}
}

func (m *mockReviewRepo) Create(_ context.Context, r *model.Review) error {
	m.nextID++
	r.ID = fmt.Sprintf("rev-%d", m.nextID)
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	stored := *r
	m.reviews[r.ID] = &stored
	return nil
}

func (m *mockReviewRepo) GetByID(_ context.Context, id string) (*model.Review, error) {
	r, ok := m.reviews[id]
	if !ok {
		return nil, apperror.NotFound("review", id)
	}
	result := *r
	return &result, nil
}

func (m *mockReviewRepo) filter(keep func(model.Review) bool) []model.Review {
	result := make([]model.Review, 0)
	for _, r := range m.reviews {
		if keep(*r) {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *mockReviewRepo) ListByScholarship(_ context.Context, scholarshipID string) ([]model.Review, error) {
	return m.filter(func(r model.Review) bool { return r.ScholarshipID == scholarshipID }), nil
}

func (m *mockReviewRepo) ListByReviewer(_ context.Context, email string) ([]model.Review, error) {
	return m.filter(func(r model.Review) bool { return r.ReviewerEmail == email }), nil
}

func (m *mockReviewRepo) ListAll(_ context.Context) ([]model.Review, error) {
	return m.filter(func(model.Review) bool { return true }), nil
}

func (m *mockReviewRepo) Update(_ context.Context, id string, patch model.ReviewPatch) error {
	r, ok := m.reviews[id]
	if !ok {
		return apperror.NotFound("review", id)
	}
	if patch.Rating != nil {
		r.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		r.Comment = *patch.Comment
	}
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockReviewRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.reviews[id]; !ok {
		return apperror.NotFound("review", id)
	}
	delete(m.reviews, id)
	return nil
}

type mockApplicationRepo struct {
	apps   map[string]*model.Application
	nextID int
	// beforeDelete runs inside DeletePending, before the status check, to
	// simulate a concurrent status change.
	beforeDelete func(*model.Application)
}

func newMockApplicationRepo() *mockApplicationRepo {
	return &mockApplicationRepo{apps: make(map[string]*model.Application)}
}

func (m *mockApplicationRepo) Create(_ context.Context, a *model.Application) error {
	m.nextID++
	a.ID = fmt.Sprintf("app-%d", m.nextID)
	a.ApplicationDate = time.Now().UTC()
	if a.ApplicationStatus == "" {
		a.ApplicationStatus = model.StatusPending
	}
	if a.PaymentStatus == "" {
		a.PaymentStatus = model.PaymentUnpaid
	}
	stored := *a
	m.apps[a.ID] = &stored
	return nil
}

func (m *mockApplicationRepo) GetByID(_ context.Context, id string) (*model.Application, error) {
	a, ok := m.apps[id]
	if !ok {
		return nil, apperror.NotFound("application", id)
	}
	result := *a
	return &result, nil
}

func (m *mockApplicationRepo) filter(keep func(model.Application) bool) []model.Application {
	result := make([]model.Application, 0)
	for _, a := range m.apps {
		if keep(*a) {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *mockApplicationRepo) ListByApplicant(_ context.Context, email string) ([]model.Application, error) {
	return m.filter(func(a model.Application) bool { return a.UserEmail == email }), nil
}

func (m *mockApplicationRepo) ListAll(_ context.Context, f repository.ApplicationFilter) ([]model.Application, error) {
	return m.filter(func(a model.Application) bool {
		return f.Status == "" || a.ApplicationStatus == f.Status
	}), nil
}

func (m *mockApplicationRepo) update(id string, apply func(*model.Application)) error {
	a, ok := m.apps[id]
	if !ok {
		return apperror.NotFound("application", id)
	}
	apply(a)
	return nil
}

func (m *mockApplicationRepo) SetPaymentStatus(_ context.Context, id string, status model.PaymentStatus) error {
	return m.update(id, func(a *model.Application) { a.PaymentStatus = status })
}

func (m *mockApplicationRepo) SetStatus(_ context.Context, id string, status model.ApplicationStatus) error {
	return m.update(id, func(a *model.Application) { a.ApplicationStatus = status })
}

func (m *mockApplicationRepo) SetFeedback(_ context.Context, id, feedback string) error {
	return m.update(id, func(a *model.Application) { a.Feedback = feedback })
}

func (m *mockApplicationRepo) Reject(_ context.Context, id, feedback string) error {
	return m.update(id, func(a *model.Application) {
		a.ApplicationStatus = model.StatusRejected
		if feedback != "" {
			a.Feedback = feedback
		}
	})
}

func (m *mockApplicationRepo) DeletePending(_ context.Context, id string) (bool, error) {
	a, ok := m.apps[id]
	if !ok {
		return false, apperror.NotFound("application", id)
	}
	if m.beforeDelete != nil {
		m.beforeDelete(a)
	}
	if a.ApplicationStatus != model.StatusPending {
		return false, nil
	}
	delete(m.apps, id)
	return true, nil
}

// =========================================================================
// MOCK COLLABORATORS
// =========================================================================

type fakeDeprovisioner struct {
	deleted []string
	err     error
}

func (f *fakeDeprovisioner) DeleteUserByEmail(_ context.Context, email string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, email)
	return nil
}

type fakeProvider struct {
	lastRequest  payment.CheckoutRequest
	url          string
	checkoutErr  error
	confirmation *payment.Confirmation
	webhookErr   error
}

func (f *fakeProvider) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (string, error) {
	f.lastRequest = req
	if f.checkoutErr != nil {
		return "", f.checkoutErr
	}
	return f.url, nil
}

func (f *fakeProvider) ParseWebhook(_ []byte, _ string) (*payment.Confirmation, error) {
	return f.confirmation, f.webhookErr
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// principal builds a caller without a resolved role, as on routes that only
// authenticate.
func principal(email string) auth.Principal {
	return auth.Principal{Claims: auth.Claims{Email: email, UID: "uid-" + email}}
}

func assertIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

// seedScholarship stores a scholarship that satisfies validation.
func seedScholarship(t *testing.T, repo *mockScholarshipRepo) *model.Scholarship {
	t.Helper()
	s := &model.Scholarship{
		ScholarshipName:     "Global Excellence",
		UniversityName:      "MIT",
		UniversityCountry:   "USA",
		SubjectCategory:     "Engineering",
		ScholarshipCategory: "Full fund",
		Degree:              "Masters",
		ApplicationFees:     50,
		ServiceCharge:       10,
		ApplicationDeadline: "2026-12-31",
	}
	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("seeding scholarship: %v", err)
	}
	return s
}
