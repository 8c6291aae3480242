package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/model"
	"github.com/sakif/scholar-stream/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the users table.
type UserDB struct {
	conn *sql.DB
}

const userColumns = `id, name, email, photo, role, created_at`

// CreateIfAbsent inserts the user unless the email is taken.
//
// The UNIQUE constraint on email plus ON CONFLICT DO NOTHING makes the check
// and the insert one statement, so two concurrent first sign-ins for the same
// email produce exactly one row.
func (u *UserDB) CreateIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	id := xid.New().String()
	createdAt := time.Now().UTC()
	role := user.Role
	if role == "" {
		role = model.RoleUser
	}

	result, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, photo, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO NOTHING`,
		id, user.Name, user.Email, user.Photo, string(role), toMillis(createdAt),
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	user.ID = id
	user.Role = role
	user.CreatedAt = createdAt.Truncate(time.Millisecond)
	return true, nil
}

// GetByID retrieves a user by their store ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by their natural key.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFoundBy("user", "email", email)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user by email %s: %w", email, err)
	}
	return user, nil
}

// List returns every user, oldest first.
func (u *UserDB) List(ctx context.Context) ([]model.User, error) {
	rows, err := u.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

// UpdateProfile writes the set fields of patch to the user with this email.
func (u *UserDB) UpdateProfile(ctx context.Context, email string, patch model.UserProfilePatch) error {
	var (
		sets []string
		args []any
	)
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Photo != nil {
		sets = append(sets, "photo = ?")
		args = append(args, *patch.Photo)
	}
	if len(sets) == 0 {
		// Nothing to write; still report a missing user.
		_, err := u.GetByEmail(ctx, email)
		return err
	}

	args = append(args, email)
	result, err := u.conn.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE email = ?`, args...)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", email, err)
	}
	return checkAffected(result, apperror.NotFoundBy("user", "email", email))
}

// UpdateRole sets the role of the user with this ID.
func (u *UserDB) UpdateRole(ctx context.Context, id string, role model.Role) error {
	result, err := u.conn.ExecContext(ctx,
		`UPDATE users SET role = ? WHERE id = ?`, string(role), id)
	if err != nil {
		return fmt.Errorf("sqlite: updating role of user %s: %w", id, err)
	}
	return checkAffected(result, apperror.NotFound("user", id))
}

// Delete removes the user with this ID.
func (u *UserDB) Delete(ctx context.Context, id string) error {
	result, err := u.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	return checkAffected(result, apperror.NotFound("user", id))
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var (
		user      model.User
		role      string
		createdAt int64
	)
	if err := s.Scan(&user.ID, &user.Name, &user.Email, &user.Photo, &role, &createdAt); err != nil {
		return nil, err
	}
	user.Role = model.Role(role)
	user.CreatedAt = fromMillis(createdAt)
	return &user, nil
}
