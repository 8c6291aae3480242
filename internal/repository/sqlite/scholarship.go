package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/listing"
	"github.com/sakif/scholar-stream/internal/model"
	"github.com/sakif/scholar-stream/internal/repository"
)

var _ repository.ScholarshipRepository = (*ScholarshipDB)(nil)

// ScholarshipDB is the scholarships table.
type ScholarshipDB struct {
	conn *sql.DB
}

const scholarshipColumns = `id, scholarship_name, university_name, university_image,
	university_country, university_city, university_world_rank, subject_category,
	scholarship_category, degree, tuition_fees, application_fees, service_charge,
	application_deadline, posted_user_email, created_at`

// scholarshipFieldColumns maps document field names (as used by
// model.ScholarshipPatch and listing) to columns. It doubles as the
// whitelist for dynamically built UPDATE statements.
var scholarshipFieldColumns = map[string]string{
	"scholarshipName":     "scholarship_name",
	"universityName":      "university_name",
	"universityImage":     "university_image",
	"universityCountry":   "university_country",
	"universityCity":      "university_city",
	"universityWorldRank": "university_world_rank",
	"subjectCategory":     "subject_category",
	"scholarshipCategory": "scholarship_category",
	"degree":              "degree",
	"tuitionFees":         "tuition_fees",
	"applicationFees":     "application_fees",
	"serviceCharge":       "service_charge",
	"applicationDeadline": "application_deadline",
	"createdAt":           "created_at",
}

// Create inserts s and fills in its ID and CreatedAt.
func (d *ScholarshipDB) Create(ctx context.Context, s *model.Scholarship) error {
	s.ID = xid.New().String()
	s.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO scholarships (`+scholarshipColumns+`, search_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.ScholarshipName, s.UniversityName, s.UniversityImage,
		s.UniversityCountry, s.UniversityCity, s.UniversityWorldRank, s.SubjectCategory,
		s.ScholarshipCategory, s.Degree, s.TuitionFees, s.ApplicationFees, s.ServiceCharge,
		s.ApplicationDeadline, s.PostedUserEmail, toMillis(s.CreatedAt),
		searchText(s.ScholarshipName, s.UniversityName, s.Degree),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating scholarship: %w", err)
	}
	return nil
}

// GetByID retrieves one scholarship.
func (d *ScholarshipDB) GetByID(ctx context.Context, id string) (*model.Scholarship, error) {
	row := d.conn.QueryRowContext(ctx,
		`SELECT `+scholarshipColumns+` FROM scholarships WHERE id = ?`, id)
	s, err := scanScholarship(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("scholarship", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting scholarship %s: %w", id, err)
	}
	return s, nil
}

// List runs the listing query: a COUNT with the filter, then the page with
// the filter, the two-key ORDER BY and LIMIT/OFFSET.
func (d *ScholarshipDB) List(ctx context.Context, q listing.Query) ([]model.Scholarship, int64, error) {
	where, args := listingWhere(q)

	var total int64
	if err := d.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scholarships`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting scholarships: %w", err)
	}

	pageArgs := append(append([]any{}, args...), q.Limit, q.Offset())
	rows, err := d.conn.QueryContext(ctx,
		`SELECT `+scholarshipColumns+` FROM scholarships`+where+listingOrderBy(q)+` LIMIT ? OFFSET ?`,
		pageArgs...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing scholarships: %w", err)
	}
	defer rows.Close()

	scholarships := make([]model.Scholarship, 0, q.Limit)
	for rows.Next() {
		s, err := scanScholarship(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning scholarship row: %w", err)
		}
		scholarships = append(scholarships, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating scholarships: %w", err)
	}

	return scholarships, total, nil
}

// listingWhere builds the WHERE clause (with leading space) and its args.
// Search is a case-insensitive substring match on name, university or
// degree, run against the pre-lowercased search_text column; the other
// filters are exact and AND-ed.
func listingWhere(q listing.Query) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if q.Search != "" {
		pattern := containsPattern(q.Search)
		conds = append(conds, `search_text LIKE ? ESCAPE '\'`)
		args = append(args, pattern)
	}
	if q.Category != "" {
		conds = append(conds, "scholarship_category = ?")
		args = append(args, q.Category)
	}
	if q.Subject != "" {
		conds = append(conds, "subject_category = ?")
		args = append(args, q.Subject)
	}
	if q.Country != "" {
		conds = append(conds, "university_country = ?")
		args = append(args, q.Country)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// listingOrderBy is the primary key in the requested direction, then id
// ascending as the tiebreaker.
func listingOrderBy(q listing.Query) string {
	dir := "DESC"
	if q.Ascending() {
		dir = "ASC"
	}
	return " ORDER BY " + scholarshipFieldColumns[q.SortField()] + " " + dir + ", id ASC"
}

// searchFields are the patch fields that feed search_text.
var searchFields = []string{"scholarshipName", "universityName", "degree"}

// Update writes the set fields of patch, and rewrites search_text in the
// same transaction when a searchable field changed.
func (d *ScholarshipDB) Update(ctx context.Context, id string, patch model.ScholarshipPatch) error {
	fields := patch.Fields()
	if len(fields) == 0 {
		_, err := d.GetByID(ctx, id)
		return err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		col, ok := scholarshipFieldColumns[k]
		if !ok {
			return fmt.Errorf("sqlite: unknown scholarship field %q", k)
		}
		sets = append(sets, col+" = ?")
		args = append(args, fields[k])
	}
	args = append(args, id)

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning scholarship update: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE scholarships SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("sqlite: updating scholarship %s: %w", id, err)
	}
	if err := checkAffected(result, apperror.NotFound("scholarship", id)); err != nil {
		return err
	}

	if touchesSearch(fields) {
		var name, university, degree string
		if err := tx.QueryRowContext(ctx,
			`SELECT scholarship_name, university_name, degree FROM scholarships WHERE id = ?`, id,
		).Scan(&name, &university, &degree); err != nil {
			return fmt.Errorf("sqlite: reading scholarship %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE scholarships SET search_text = ? WHERE id = ?`,
			searchText(name, university, degree), id); err != nil {
			return fmt.Errorf("sqlite: indexing scholarship %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing scholarship update: %w", err)
	}
	return nil
}

func touchesSearch(fields map[string]any) bool {
	for _, f := range searchFields {
		if _, ok := fields[f]; ok {
			return true
		}
	}
	return false
}

// Delete removes one scholarship.
func (d *ScholarshipDB) Delete(ctx context.Context, id string) error {
	result, err := d.conn.ExecContext(ctx, `DELETE FROM scholarships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting scholarship %s: %w", id, err)
	}
	return checkAffected(result, apperror.NotFound("scholarship", id))
}

func scanScholarship(s scanner) (*model.Scholarship, error) {
	var (
		sch       model.Scholarship
		createdAt int64
	)
	if err := s.Scan(
		&sch.ID, &sch.ScholarshipName, &sch.UniversityName, &sch.UniversityImage,
		&sch.UniversityCountry, &sch.UniversityCity, &sch.UniversityWorldRank, &sch.SubjectCategory,
		&sch.ScholarshipCategory, &sch.Degree, &sch.TuitionFees, &sch.ApplicationFees, &sch.ServiceCharge,
		&sch.ApplicationDeadline, &sch.PostedUserEmail, &createdAt,
	); err != nil {
		return nil, err
	}
	sch.CreatedAt = fromMillis(createdAt)
	return &sch, nil
}
