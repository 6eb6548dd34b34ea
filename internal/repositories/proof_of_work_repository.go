package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"repairshop-backend/internal/models"
)

const proofColumns = `id, order_id, item_id, service_id, object_key, thumbnail_key, content_type, caption, uploaded_by, created_at`

type ProofOfWorkRepository struct {
	DB *pgxpool.Pool
}

func NewProofOfWorkRepository(db *pgxpool.Pool) *ProofOfWorkRepository {
	return &ProofOfWorkRepository{DB: db}
}

func scanProof(row pgx.Row) (*models.ProofOfWork, error) {
	var p models.ProofOfWork
	err := row.Scan(&p.ID, &p.OrderID, &p.ItemID, &p.ServiceID, &p.ObjectKey, &p.ThumbnailKey,
		&p.ContentType, &p.Caption, &p.UploadedBy, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProofOfWorkRepository) Create(ctx context.Context, p *models.ProofOfWork) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.DB.QueryRow(ctx,
		`INSERT INTO proof_of_work (id, order_id, item_id, service_id, object_key, thumbnail_key, content_type, caption, uploaded_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		p.ID, p.OrderID, p.ItemID, p.ServiceID, p.ObjectKey, p.ThumbnailKey, p.ContentType, p.Caption, p.UploadedBy,
	).Scan(&p.CreatedAt)
}

func (r *ProofOfWorkRepository) Get(ctx context.Context, id uuid.UUID) (*models.ProofOfWork, error) {
	p, err := scanProof(r.DB.QueryRow(ctx, `SELECT `+proofColumns+` FROM proof_of_work WHERE id = $1`, id))
	return p, notFound(err)
}

func (r *ProofOfWorkRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*models.ProofOfWork, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+proofColumns+` FROM proof_of_work WHERE order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos := []*models.ProofOfWork{}
	for rows.Next() {
		p, err := scanProof(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (r *ProofOfWorkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM proof_of_work WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
