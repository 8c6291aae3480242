package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/model"
)

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, u *UserDB, name string) *model.User {
	t.Helper()
	user := &model.User{
		Name:  name,
		Email: name + "@example.com",
		Photo: "https://example.com/" + name + ".png",
	}
	created, err := u.CreateIfAbsent(context.Background(), user)
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	if !created {
		t.Fatalf("test user %s already existed", name)
	}
	return user
}

func newTestUserDB(t *testing.T) *UserDB {
	t.Helper()
	return newTestDB(t).Users().(*UserDB)
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreateIfAbsent(t *testing.T) {
	u := newTestUserDB(t)

	user := &model.User{Name: "Ana", Email: "ana@example.com"}
	created, err := u.CreateIfAbsent(context.Background(), user)
	if err != nil {
		t.Fatalf("CreateIfAbsent() error = %v", err)
	}
	if !created {
		t.Fatal("CreateIfAbsent() created = false for a new email")
	}
	if user.ID == "" {
		t.Error("CreateIfAbsent() did not set user.ID")
	}
	if user.Role != model.RoleUser {
		t.Errorf("Role = %q, want %q", user.Role, model.RoleUser)
	}
	if user.CreatedAt.IsZero() {
		t.Error("CreateIfAbsent() did not set user.CreatedAt")
	}
}

func TestUserCreateIfAbsent_ExistingEmail(t *testing.T) {
	u := newTestUserDB(t)
	first := createTestUser(t, u, "ana")

	again := &model.User{Name: "Someone Else", Email: first.Email}
	created, err := u.CreateIfAbsent(context.Background(), again)
	if err != nil {
		t.Fatalf("CreateIfAbsent() error = %v", err)
	}
	if created {
		t.Fatal("CreateIfAbsent() created = true for an existing email")
	}
	if again.ID != "" {
		t.Errorf("ID = %q, want untouched empty ID", again.ID)
	}

	users, err := u.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("len(users) = %d, want 1", len(users))
	}
	if users[0].Name != "ana" {
		t.Errorf("Name = %q, the existing row was overwritten", users[0].Name)
	}
}

// =========================================================================
// LOOKUP TESTS
// =========================================================================

func TestUserGetByID(t *testing.T) {
	u := newTestUserDB(t)
	created := createTestUser(t, u, "getbyid")

	found, err := u.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Email != created.Email {
		t.Errorf("Email = %q, want %q", found.Email, created.Email)
	}
	if !found.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", found.CreatedAt, created.CreatedAt)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	u := newTestUserDB(t)

	_, err := u.GetByID(context.Background(), "nonexistent-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	u := newTestUserDB(t)
	created := createTestUser(t, u, "lookup")

	found, err := u.GetByEmail(context.Background(), "lookup@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}

	_, err = u.GetByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByEmail() unknown error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestUserUpdateProfile(t *testing.T) {
	u := newTestUserDB(t)
	created := createTestUser(t, u, "profile")

	name := "New Name"
	if err := u.UpdateProfile(context.Background(), created.Email, model.UserProfilePatch{Name: &name}); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	found, err := u.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Name != name {
		t.Errorf("Name = %q, want %q", found.Name, name)
	}
	if found.Photo != created.Photo {
		t.Errorf("Photo = %q, an unset field was overwritten", found.Photo)
	}
}

func TestUserUpdateProfile_NotFound(t *testing.T) {
	u := newTestUserDB(t)
	name := "x"

	err := u.UpdateProfile(context.Background(), "ghost@example.com", model.UserProfilePatch{Name: &name})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateProfile() error = %v, want ErrNotFound", err)
	}
	err = u.UpdateProfile(context.Background(), "ghost@example.com", model.UserProfilePatch{})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateProfile() empty patch error = %v, want ErrNotFound", err)
	}
}

func TestUserUpdateRole(t *testing.T) {
	u := newTestUserDB(t)
	created := createTestUser(t, u, "promote")

	if err := u.UpdateRole(context.Background(), created.ID, model.RoleModerator); err != nil {
		t.Fatalf("UpdateRole() error = %v", err)
	}
	found, _ := u.GetByID(context.Background(), created.ID)
	if found.Role != model.RoleModerator {
		t.Errorf("Role = %q, want %q", found.Role, model.RoleModerator)
	}

	err := u.UpdateRole(context.Background(), "missing", model.RoleAdmin)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateRole() missing error = %v, want ErrNotFound", err)
	}
}

func TestUserDelete(t *testing.T) {
	u := newTestUserDB(t)
	created := createTestUser(t, u, "deleteme")

	if err := u.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := u.GetByID(context.Background(), created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := u.Delete(context.Background(), created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}
