package repositories

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"repairshop-backend/internal/catalog"
	"repairshop-backend/internal/models"
)

type ServicePriceRepository struct {
	DB *pgxpool.Pool
}

func NewServicePriceRepository(db *pgxpool.Pool) *ServicePriceRepository {
	return &ServicePriceRepository{DB: db}
}

const upsertPriceSQL = `INSERT INTO service_prices (id, model, service, price)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (LOWER(model), LOWER(service)) DO UPDATE SET price = EXCLUDED.price, updated_at = NOW()
	RETURNING id, updated_at`

// Upsert sets the price for a model and service, matched case-insensitively.
func (r *ServicePriceRepository) Upsert(ctx context.Context, p *models.ServicePrice) error {
	p.Model = strings.TrimSpace(p.Model)
	p.Service = strings.TrimSpace(p.Service)
	return r.DB.QueryRow(ctx, upsertPriceSQL, uuid.New(), p.Model, p.Service, p.Price).Scan(&p.ID, &p.UpdatedAt)
}

// BulkUpsert writes prices in batches, each in its own transaction.
func (r *ServicePriceRepository) BulkUpsert(ctx context.Context, prices []models.ServicePrice) (int, error) {
	written := 0
	for _, span := range catalog.Chunks(len(prices), catalog.BatchSize) {
		batch := &pgx.Batch{}
		for _, p := range prices[span[0]:span[1]] {
			batch.Queue(upsertPriceSQL, uuid.New(), strings.TrimSpace(p.Model), strings.TrimSpace(p.Service), p.Price)
		}
		tx, err := r.DB.Begin(ctx)
		if err != nil {
			return written, err
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			tx.Rollback(ctx)
			return written, err
		}
		if err := tx.Commit(ctx); err != nil {
			return written, err
		}
		written += span[1] - span[0]
	}
	return written, nil
}

// List returns every price, or only those for one model.
func (r *ServicePriceRepository) List(ctx context.Context, model string) ([]models.ServicePrice, error) {
	query := `SELECT id, model, service, price, updated_at FROM service_prices`
	var args []interface{}
	if model = strings.TrimSpace(model); model != "" {
		query += ` WHERE LOWER(model) = LOWER($1)`
		args = append(args, model)
	}
	query += ` ORDER BY model, service`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prices := []models.ServicePrice{}
	for rows.Next() {
		var p models.ServicePrice
		if err := rows.Scan(&p.ID, &p.Model, &p.Service, &p.Price, &p.UpdatedAt); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

func (r *ServicePriceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM service_prices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
