package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/payroll"
	"repairshop-backend/internal/timeutil"
)

type PayrollRepository struct {
	DB *pgxpool.Pool
}

func NewPayrollRepository(db *pgxpool.Pool) *PayrollRepository {
	return &PayrollRepository{DB: db}
}

// day renders t as a DATE literal in the shop zone, so a Monday 00:00 week
// start never shifts to Sunday under a UTC session.
func day(t time.Time) string {
	return t.In(timeutil.Shop).Format(timeutil.DateLayout)
}

// lockTechnician takes the technician's user row lock. Every payroll write
// holds it, so a confirmation cannot interleave with an adjustment change.
func lockTechnician(ctx context.Context, tx pgx.Tx, techID uuid.UUID) error {
	var id uuid.UUID
	return notFound(tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, techID).Scan(&id))
}

func weekLocked(ctx context.Context, tx pgx.Tx, techID uuid.UUID, weekStart string) (bool, error) {
	var locked bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payroll_records WHERE technician_id = $1 AND week_start = $2::date)`,
		techID, weekStart).Scan(&locked)
	return locked, err
}

// AddAdjustment stores a bonus or deduction. Paid weeks are locked.
func (r *PayrollRepository) AddAdjustment(ctx context.Context, a *models.PayrollAdjustment) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockTechnician(ctx, tx, a.TechnicianID); err != nil {
		return err
	}
	locked, err := weekLocked(ctx, tx, a.TechnicianID, day(a.WeekStart))
	if err != nil {
		return err
	}
	if locked {
		return payroll.ErrLocked
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO payroll_adjustments (id, technician_id, week_start, reason, amount, date, created_by)
		 VALUES ($1, $2, $3::date, $4, $5, $6::date, $7)
		 RETURNING created_at`,
		a.ID, a.TechnicianID, day(a.WeekStart), a.Reason, a.Amount, day(a.Date), a.CreatedBy,
	).Scan(&a.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// DeleteAdjustment removes an adjustment unless its week is paid.
func (r *PayrollRepository) DeleteAdjustment(ctx context.Context, id uuid.UUID) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var techID uuid.UUID
	var weekStart string
	err = tx.QueryRow(ctx, `SELECT technician_id, week_start::text FROM payroll_adjustments WHERE id = $1`, id).
		Scan(&techID, &weekStart)
	if err != nil {
		return notFound(err)
	}
	if err := lockTechnician(ctx, tx, techID); err != nil {
		return err
	}
	locked, err := weekLocked(ctx, tx, techID, weekStart)
	if err != nil {
		return err
	}
	if locked {
		return payroll.ErrLocked
	}
	if _, err := tx.Exec(ctx, `DELETE FROM payroll_adjustments WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Adjustments lists a technician's adjustments for the week starting at weekStart.
func (r *PayrollRepository) Adjustments(ctx context.Context, techID uuid.UUID, weekStart time.Time) ([]models.PayrollAdjustment, error) {
	rows, err := r.DB.Query(ctx, adjustmentsQuery, techID, day(weekStart))
	if err != nil {
		return nil, err
	}
	return scanAdjustments(rows)
}

const adjustmentsQuery = `SELECT id, technician_id, week_start, reason, amount, date, created_by, created_at
	FROM payroll_adjustments WHERE technician_id = $1 AND week_start = $2::date
	ORDER BY date, created_at`

func scanAdjustments(rows pgx.Rows) ([]models.PayrollAdjustment, error) {
	defer rows.Close()

	adjustments := []models.PayrollAdjustment{}
	for rows.Next() {
		var a models.PayrollAdjustment
		if err := rows.Scan(&a.ID, &a.TechnicianID, &a.WeekStart, &a.Reason, &a.Amount, &a.Date, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		adjustments = append(adjustments, a)
	}
	return adjustments, rows.Err()
}

func scanRecord(row pgx.Row) (*models.PayrollRecord, error) {
	var rec models.PayrollRecord
	var snapshot []byte
	if err := row.Scan(&rec.ID, &rec.TechnicianID, &rec.WeekStart, &rec.Total, &snapshot, &rec.PaidBy, &rec.PaidAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(snapshot, &rec.Snapshot); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Record returns the frozen payout for the week, or nil when unpaid.
func (r *PayrollRepository) Record(ctx context.Context, techID uuid.UUID, weekStart time.Time) (*models.PayrollRecord, error) {
	rec, err := scanRecord(r.DB.QueryRow(ctx,
		`SELECT id, technician_id, week_start, total, snapshot, paid_by, paid_at
		 FROM payroll_records WHERE technician_id = $1 AND week_start = $2::date`, techID, day(weekStart)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// Records lists paid weeks in [from, to), newest first.
func (r *PayrollRepository) Records(ctx context.Context, from, to time.Time) ([]*models.PayrollRecord, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, technician_id, week_start, total, snapshot, paid_by, paid_at
		 FROM payroll_records WHERE week_start >= $1::date AND week_start < $2::date
		 ORDER BY week_start DESC, technician_id`, day(from), day(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*models.PayrollRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FreezeFunc builds the payout record from the week's current record (nil
// when unpaid) and its adjustments.
type FreezeFunc func(existing *models.PayrollRecord, adjustments []models.PayrollAdjustment) (*models.PayrollRecord, error)

// Confirm freezes a payout in one transaction under the technician lock, so
// the adjustments in the snapshot are exactly those stored for the week. A
// second confirmation of the same week fails with payroll.ErrAlreadyPaid.
func (r *PayrollRepository) Confirm(ctx context.Context, techID uuid.UUID, weekStart time.Time, freeze FreezeFunc) (*models.PayrollRecord, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := lockTechnician(ctx, tx, techID); err != nil {
		return nil, err
	}
	existing, err := scanRecord(tx.QueryRow(ctx,
		`SELECT id, technician_id, week_start, total, snapshot, paid_by, paid_at
		 FROM payroll_records WHERE technician_id = $1 AND week_start = $2::date`, techID, day(weekStart)))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		existing = nil
	case err != nil:
		return nil, err
	}
	rows, err := tx.Query(ctx, adjustmentsQuery, techID, day(weekStart))
	if err != nil {
		return nil, err
	}
	adjustments, err := scanAdjustments(rows)
	if err != nil {
		return nil, err
	}

	rec, err := freeze(existing, adjustments)
	if err != nil {
		return nil, err
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	snapshot, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO payroll_records (id, technician_id, week_start, total, snapshot, paid_by, paid_at)
		 VALUES ($1, $2, $3::date, $4, $5, $6, $7)`,
		rec.ID, rec.TechnicianID, day(rec.WeekStart), rec.Total, snapshot, rec.PaidBy, rec.PaidAt)
	if isUniqueViolation(err) {
		return nil, payroll.ErrAlreadyPaid
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteRecord revokes a payout, unlocking the week.
func (r *PayrollRepository) DeleteRecord(ctx context.Context, techID uuid.UUID, weekStart time.Time) error {
	tag, err := r.DB.Exec(ctx,
		`DELETE FROM payroll_records WHERE technician_id = $1 AND week_start = $2::date`, techID, day(weekStart))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrNotPaid
	}
	return nil
}
