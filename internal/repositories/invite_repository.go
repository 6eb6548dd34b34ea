package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"repairshop-backend/internal/models"
)

const inviteColumns = `id, email, role, invited_by, expires_at, accepted_at, created_at`

type InviteRepository struct {
	DB *pgxpool.Pool
}

func NewInviteRepository(db *pgxpool.Pool) *InviteRepository {
	return &InviteRepository{DB: db}
}

func scanInvite(row pgx.Row) (*models.PendingInvite, error) {
	var inv models.PendingInvite
	if err := row.Scan(&inv.ID, &inv.Email, &inv.Role, &inv.InvitedBy, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InviteRepository) Create(ctx context.Context, inv *models.PendingInvite) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	inv.Email = strings.ToLower(strings.TrimSpace(inv.Email))
	return r.DB.QueryRow(ctx,
		`INSERT INTO pending_invites (id, email, role, invited_by, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		inv.ID, inv.Email, inv.Role, inv.InvitedBy, inv.ExpiresAt,
	).Scan(&inv.CreatedAt)
}

func (r *InviteRepository) Get(ctx context.Context, id uuid.UUID) (*models.PendingInvite, error) {
	inv, err := scanInvite(r.DB.QueryRow(ctx, `SELECT `+inviteColumns+` FROM pending_invites WHERE id = $1`, id))
	return inv, notFound(err)
}

// ListOpen returns invites that are neither accepted nor expired.
func (r *InviteRepository) ListOpen(ctx context.Context, now time.Time) ([]*models.PendingInvite, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+inviteColumns+` FROM pending_invites
		 WHERE accepted_at IS NULL AND expires_at > $1
		 ORDER BY created_at DESC`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := []*models.PendingInvite{}
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

// RevokeOpen drops any open invite for the email before a new one is sent.
func (r *InviteRepository) RevokeOpen(ctx context.Context, email string) error {
	_, err := r.DB.Exec(ctx,
		`DELETE FROM pending_invites WHERE LOWER(email) = LOWER($1) AND accepted_at IS NULL`, strings.TrimSpace(email))
	return err
}

func (r *InviteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM pending_invites WHERE id = $1 AND accepted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
