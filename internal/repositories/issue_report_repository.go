package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"repairshop-backend/internal/models"
)

const issueColumns = `id, title, description, order_id, status, reported_by, reporter_name, resolution,
	resolved_by, resolved_at, created_at`

type IssueReportRepository struct {
	DB *pgxpool.Pool
}

func NewIssueReportRepository(db *pgxpool.Pool) *IssueReportRepository {
	return &IssueReportRepository{DB: db}
}

func scanIssue(row pgx.Row) (*models.IssueReport, error) {
	var i models.IssueReport
	err := row.Scan(&i.ID, &i.Title, &i.Description, &i.OrderID, &i.Status, &i.ReportedBy, &i.ReporterName,
		&i.Resolution, &i.ResolvedBy, &i.ResolvedAt, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *IssueReportRepository) Create(ctx context.Context, i *models.IssueReport) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Status == "" {
		i.Status = models.IssueStatusOpen
	}
	return r.DB.QueryRow(ctx,
		`INSERT INTO issue_reports (id, title, description, order_id, status, reported_by, reporter_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		i.ID, i.Title, i.Description, i.OrderID, i.Status, i.ReportedBy, i.ReporterName,
	).Scan(&i.CreatedAt)
}

func (r *IssueReportRepository) Get(ctx context.Context, id uuid.UUID) (*models.IssueReport, error) {
	i, err := scanIssue(r.DB.QueryRow(ctx, `SELECT `+issueColumns+` FROM issue_reports WHERE id = $1`, id))
	return i, notFound(err)
}

// List returns reports, optionally filtered by status, newest first.
func (r *IssueReportRepository) List(ctx context.Context, status models.IssueStatus) ([]*models.IssueReport, error) {
	query := `SELECT ` + issueColumns + ` FROM issue_reports`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	issues := []*models.IssueReport{}
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, i)
	}
	return issues, rows.Err()
}

func (r *IssueReportRepository) Resolve(ctx context.Context, id uuid.UUID, resolution string, by *uuid.UUID, at time.Time) (*models.IssueReport, error) {
	i, err := scanIssue(r.DB.QueryRow(ctx,
		`UPDATE issue_reports SET status = 'resolved', resolution = $1, resolved_by = $2, resolved_at = $3
		 WHERE id = $4
		 RETURNING `+issueColumns, resolution, by, at, id))
	return i, notFound(err)
}
