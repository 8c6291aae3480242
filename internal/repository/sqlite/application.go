package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/model"
	"github.com/sakif/scholar-stream/internal/repository"
)

var _ repository.ApplicationRepository = (*ApplicationDB)(nil)

// ApplicationDB is the applications table.
type ApplicationDB struct {
	conn *sql.DB
}

const applicationColumns = `id, scholarship_id, scholarship_name, university_name,
	scholarship_category, subject_category, degree, application_fees, service_charge,
	user_id, user_name, user_email, phone, address, application_status, payment_status,
	feedback, application_date`

// Create inserts a as a new pending, unpaid application.
func (d *ApplicationDB) Create(ctx context.Context, a *model.Application) error {
	a.ID = xid.New().String()
	a.ApplicationDate = time.Now().UTC().Truncate(time.Millisecond)
	if a.ApplicationStatus == "" {
		a.ApplicationStatus = model.StatusPending
	}
	if a.PaymentStatus == "" {
		a.PaymentStatus = model.PaymentUnpaid
	}

	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO applications (`+applicationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ScholarshipID, a.ScholarshipName, a.UniversityName,
		a.ScholarshipCategory, a.SubjectCategory, a.Degree, a.ApplicationFees, a.ServiceCharge,
		a.UserID, a.UserName, a.UserEmail, a.Phone, a.Address,
		string(a.ApplicationStatus), string(a.PaymentStatus), a.Feedback, toMillis(a.ApplicationDate),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating application: %w", err)
	}
	return nil
}

func (d *ApplicationDB) GetByID(ctx context.Context, id string) (*model.Application, error) {
	row := d.conn.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("application", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting application %s: %w", id, err)
	}
	return a, nil
}

func (d *ApplicationDB) ListByApplicant(ctx context.Context, email string) ([]model.Application, error) {
	return d.list(ctx, ` WHERE user_email = ?`, email)
}

func (d *ApplicationDB) ListAll(ctx context.Context, filter repository.ApplicationFilter) ([]model.Application, error) {
	if filter.Status != "" {
		return d.list(ctx, ` WHERE application_status = ?`, string(filter.Status))
	}
	return d.list(ctx, "")
}

// list returns matching applications, newest first.
func (d *ApplicationDB) list(ctx context.Context, where string, args ...any) ([]model.Application, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM applications`+where+` ORDER BY application_date DESC, id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing applications: %w", err)
	}
	defer rows.Close()

	apps := make([]model.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning application row: %w", err)
		}
		apps = append(apps, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating applications: %w", err)
	}
	return apps, nil
}

func (d *ApplicationDB) SetPaymentStatus(ctx context.Context, id string, status model.PaymentStatus) error {
	return d.set(ctx, id, `payment_status = ?`, string(status))
}

func (d *ApplicationDB) SetStatus(ctx context.Context, id string, status model.ApplicationStatus) error {
	return d.set(ctx, id, `application_status = ?`, string(status))
}

func (d *ApplicationDB) SetFeedback(ctx context.Context, id, feedback string) error {
	return d.set(ctx, id, `feedback = ?`, feedback)
}

func (d *ApplicationDB) Reject(ctx context.Context, id, feedback string) error {
	if feedback == "" {
		return d.set(ctx, id, `application_status = ?`, string(model.StatusRejected))
	}
	return d.set(ctx, id, `application_status = ?, feedback = ?`, string(model.StatusRejected), feedback)
}

func (d *ApplicationDB) set(ctx context.Context, id, assignments string, args ...any) error {
	args = append(args, id)
	result, err := d.conn.ExecContext(ctx,
		`UPDATE applications SET `+assignments+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("sqlite: updating application %s: %w", id, err)
	}
	return checkAffected(result, apperror.NotFound("application", id))
}

// DeletePending deletes the application in one conditional statement. When
// nothing was deleted it tells a missing row (NotFound) apart from a row that
// is no longer pending (deleted=false, nil error).
func (d *ApplicationDB) DeletePending(ctx context.Context, id string) (bool, error) {
	result, err := d.conn.ExecContext(ctx,
		`DELETE FROM applications WHERE id = ? AND application_status = ?`,
		id, string(model.StatusPending))
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting application %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	if _, err := d.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func scanApplication(s scanner) (*model.Application, error) {
	var (
		a                     model.Application
		status, paymentStatus string
		applicationDate       int64
	)
	if err := s.Scan(
		&a.ID, &a.ScholarshipID, &a.ScholarshipName, &a.UniversityName,
		&a.ScholarshipCategory, &a.SubjectCategory, &a.Degree, &a.ApplicationFees, &a.ServiceCharge,
		&a.UserID, &a.UserName, &a.UserEmail, &a.Phone, &a.Address, &status, &paymentStatus,
		&a.Feedback, &applicationDate,
	); err != nil {
		return nil, err
	}
	a.ApplicationStatus = model.ApplicationStatus(status)
	a.PaymentStatus = model.PaymentStatus(paymentStatus)
	a.ApplicationDate = fromMillis(applicationDate)
	return &a, nil
}
