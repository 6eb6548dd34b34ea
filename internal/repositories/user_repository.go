package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"repairshop-backend/internal/models"
)

const userColumns = `id, name, email, password_hash, role, status, email_verified, is_technician, is_admin_access,
	base_salary, fixed_per_job, version, created_at, updated_at`

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.EmailVerified,
		&u.IsTechnician, &u.IsAdminAccess, &u.BaseSalary, &u.FixedPerJob, &u.Version, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func collectUsers(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()
	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func insertUser(ctx context.Context, q interface {
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = models.RolePending
	}
	if u.Status == "" {
		u.Status = models.UserStatusActive
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	err := q.QueryRow(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, status, email_verified, is_technician,
		   is_admin_access, base_salary, fixed_per_job)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING version, created_at, updated_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Status, u.EmailVerified, u.IsTechnician,
		u.IsAdminAccess, u.BaseSalary, u.FixedPerJob,
	).Scan(&u.Version, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicate, u.Email)
	}
	return err
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return insertUser(ctx, r.DB, u)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, notFound(err)
}

// GetByEmail matches case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, strings.TrimSpace(email)))
	return u, notFound(err)
}

// List returns all users
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

// ListTechnicians returns active staff flagged as technicians.
func (r *UserRepository) ListTechnicians(ctx context.Context) ([]*models.User, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_technician AND status = 'active' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

// Update writes the editable profile and staff fields with a version check.
func (r *UserRepository) Update(ctx context.Context, u *models.User, expected *int) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var stored int
	if err := tx.QueryRow(ctx, `SELECT version FROM users WHERE id = $1 FOR UPDATE`, u.ID).Scan(&stored); err != nil {
		return notFound(err)
	}
	if err := checkVersion(stored, expected); err != nil {
		return err
	}
	err = tx.QueryRow(ctx,
		`UPDATE users SET name=$1, role=$2, is_technician=$3, is_admin_access=$4, base_salary=$5, fixed_per_job=$6,
		   version = version + 1, updated_at = NOW()
		 WHERE id = $7
		 RETURNING version, updated_at`,
		u.Name, u.Role, u.IsTechnician, u.IsAdminAccess, u.BaseSalary, u.FixedPerJob, u.ID,
	).Scan(&u.Version, &u.UpdatedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	tag, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) error {
	return r.exec(ctx, `UPDATE users SET status=$1, version = version + 1, updated_at = NOW() WHERE id = $2`, status, id)
}

func (r *UserRepository) SetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash=$1, updated_at = NOW() WHERE id = $2`, hash, id)
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `DELETE FROM users WHERE id = $1`, id)
}

// CreateFromInvite creates the invited account and marks the invite accepted
// in one transaction so an invite cannot be used twice.
func (r *UserRepository) CreateFromInvite(ctx context.Context, inviteID uuid.UUID, u *models.User, at time.Time) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE pending_invites SET accepted_at = $1 WHERE id = $2 AND accepted_at IS NULL AND expires_at > $1`,
		at, inviteID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if err := insertUser(ctx, tx, u); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Upsert writes a user keyed by email, used by the legacy importer.
func (r *UserRepository) Upsert(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	_, err := r.DB.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, status, email_verified, is_technician,
		   is_admin_access, base_salary, fixed_per_job, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, status = EXCLUDED.status,
		   is_technician = EXCLUDED.is_technician, is_admin_access = EXCLUDED.is_admin_access,
		   base_salary = EXCLUDED.base_salary, fixed_per_job = EXCLUDED.fixed_per_job, updated_at = NOW()`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Status, u.EmailVerified, u.IsTechnician,
		u.IsAdminAccess, u.BaseSalary, u.FixedPerJob, u.CreatedAt)
	return err
}
