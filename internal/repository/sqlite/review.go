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

var _ repository.ReviewRepository = (*ReviewDB)(nil)

// ReviewDB is the reviews table.
type ReviewDB struct {
	conn *sql.DB
}

const reviewColumns = `id, scholarship_id, scholarship_name, university_name, reviewer_name,
	reviewer_email, reviewer_image, rating, comment, created_at, updated_at`

func (d *ReviewDB) Create(ctx context.Context, r *model.Review) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	r.ID = xid.New().String()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO reviews (`+reviewColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ScholarshipID, r.ScholarshipName, r.UniversityName, r.ReviewerName,
		r.ReviewerEmail, r.ReviewerImage, r.Rating, r.Comment, toMillis(now), toMillis(now),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating review: %w", err)
	}
	return nil
}

func (d *ReviewDB) GetByID(ctx context.Context, id string) (*model.Review, error) {
	row := d.conn.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id)
	r, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("review", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting review %s: %w", id, err)
	}
	return r, nil
}

func (d *ReviewDB) ListByScholarship(ctx context.Context, scholarshipID string) ([]model.Review, error) {
	return d.list(ctx, ` WHERE scholarship_id = ?`, scholarshipID)
}

func (d *ReviewDB) ListByReviewer(ctx context.Context, email string) ([]model.Review, error) {
	return d.list(ctx, ` WHERE reviewer_email = ?`, email)
}

func (d *ReviewDB) ListAll(ctx context.Context) ([]model.Review, error) {
	return d.list(ctx, "")
}

// list returns matching reviews, newest first.
func (d *ReviewDB) list(ctx context.Context, where string, args ...any) ([]model.Review, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews`+where+` ORDER BY created_at DESC, id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]model.Review, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning review row: %w", err)
		}
		reviews = append(reviews, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reviews: %w", err)
	}
	return reviews, nil
}

// Update writes the set fields of patch and bumps updated_at.
func (d *ReviewDB) Update(ctx context.Context, id string, patch model.ReviewPatch) error {
	sets := []string{"updated_at = ?"}
	args := []any{toMillis(time.Now().UTC())}
	if patch.Rating != nil {
		sets = append(sets, "rating = ?")
		args = append(args, *patch.Rating)
	}
	if patch.Comment != nil {
		sets = append(sets, "comment = ?")
		args = append(args, *patch.Comment)
	}
	args = append(args, id)

	result, err := d.conn.ExecContext(ctx,
		`UPDATE reviews SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("sqlite: updating review %s: %w", id, err)
	}
	return checkAffected(result, apperror.NotFound("review", id))
}

func (d *ReviewDB) Delete(ctx context.Context, id string) error {
	result, err := d.conn.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting review %s: %w", id, err)
	}
	return checkAffected(result, apperror.NotFound("review", id))
}

func scanReview(s scanner) (*model.Review, error) {
	var (
		r                    model.Review
		createdAt, updatedAt int64
	)
	if err := s.Scan(
		&r.ID, &r.ScholarshipID, &r.ScholarshipName, &r.UniversityName, &r.ReviewerName,
		&r.ReviewerEmail, &r.ReviewerImage, &r.Rating, &r.Comment, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	r.CreatedAt = fromMillis(createdAt)
	r.UpdatedAt = fromMillis(updatedAt)
	return &r, nil
}
