package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"repairshop-backend/internal/catalog"
	"repairshop-backend/internal/models"
	"repairshop-backend/internal/ticket"
)

const productColumns = `id, name, category, model, color, price, stock, type, version, created_at, updated_at`

type ProductRepository struct {
	DB *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{DB: db}
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Model, &p.Color, &p.Price, &p.Stock, &p.Type,
		&p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.DB.QueryRow(ctx,
		`INSERT INTO products (id, name, category, model, color, price, stock, type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING version, created_at, updated_at`,
		p.ID, p.Name, p.Category, p.Model, p.Color, p.Price, p.Stock, p.Type,
	).Scan(&p.Version, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProductRepository) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	return p, notFound(err)
}

// GetMany returns the products with the given ids keyed by id.
func (r *ProductRepository) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = *p
	}
	return out, rows.Err()
}

// List returns products matching the filter ordered by type, model and name.
// threshold is used when the filter asks for low stock only.
func (r *ProductRepository) List(ctx context.Context, f models.ProductFilter, threshold int) ([]models.Product, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.Category != "" {
		add("LOWER(category) = LOWER($%d)", f.Category)
	}
	if f.Model != "" {
		add("LOWER(model) = LOWER($%d)", f.Model)
	}
	if f.Search != "" {
		add("(name ILIKE '%%' || $%[1]d || '%%' OR model ILIKE '%%' || $%[1]d || '%%')", f.Search)
	}
	if f.LowStock {
		add("stock <= $%d", threshold)
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY type, model, name"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// Update writes the editable fields. Stock is only written when the caller
// passes the version it read; otherwise the locked row keeps its stock so
// sales that landed since the caller's read survive. p.Stock is refreshed
// from the row.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product, expected *int) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var stored int
	if err := tx.QueryRow(ctx, `SELECT version FROM products WHERE id = $1 FOR UPDATE`, p.ID).Scan(&stored); err != nil {
		return notFound(err)
	}
	if err := checkVersion(stored, expected); err != nil {
		return err
	}
	err = tx.QueryRow(ctx,
		`UPDATE products SET name=$1, category=$2, model=$3, color=$4, price=$5,
		   stock = CASE WHEN $9 THEN $6 ELSE stock END, type=$7,
		 version = version + 1, updated_at = NOW()
		 WHERE id = $8
		 RETURNING stock, version, created_at, updated_at`,
		p.Name, p.Category, p.Model, p.Color, p.Price, p.Stock, p.Type, p.ID, expected != nil,
	).Scan(&p.Stock, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkCreate inserts products in batches of catalog.BatchSize, one
// transaction per batch. It returns how many rows were written before any
// failure.
func (r *ProductRepository) BulkCreate(ctx context.Context, products []models.Product) (int, error) {
	written := 0
	for _, win := range catalog.Chunks(len(products), catalog.BatchSize) {
		chunk := products[win[0]:win[1]]
		batch := &pgx.Batch{}
		for i := range chunk {
			p := &chunk[i]
			if p.ID == uuid.Nil {
				p.ID = uuid.New()
			}
			batch.Queue(`INSERT INTO products (id, name, category, model, color, price, stock, type)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				p.ID, p.Name, p.Category, p.Model, p.Color, p.Price, p.Stock, p.Type)
		}

		tx, err := r.DB.Begin(ctx)
		if err != nil {
			return written, err
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			tx.Rollback(ctx)
			return written, fmt.Errorf("batch at %d: %w", win[0], err)
		}
		if err := tx.Commit(ctx); err != nil {
			return written, err
		}
		written += len(chunk)
	}
	return written, nil
}

// AdjustStock changes one product's stock. Stock never goes below zero.
func (r *ProductRepository) AdjustStock(ctx context.Context, adj models.StockAdjustRequest, by *uuid.UUID) (*models.Product, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	reason := adj.Reason
	if reason == "" {
		reason = "manual adjustment"
	}
	if err := applyStock(ctx, tx, []ticket.StockDelta{{ProductID: adj.ProductID, Delta: adj.Delta}}, nil, reason, by); err != nil {
		return nil, err
	}
	p, err := scanProduct(tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, adj.ProductID))
	if err != nil {
		return nil, notFound(err)
	}
	return p, tx.Commit(ctx)
}

// BulkAdjustStock pushes many stock changes, one transaction per batch.
// A batch that would take any product below zero is rejected whole.
func (r *ProductRepository) BulkAdjustStock(ctx context.Context, adjustments []models.StockAdjustRequest, by *uuid.UUID) (int, error) {
	applied := 0
	for _, win := range catalog.Chunks(len(adjustments), catalog.BatchSize) {
		chunk := adjustments[win[0]:win[1]]
		deltas := make([]ticket.StockDelta, len(chunk))
		for i, a := range chunk {
			deltas[i] = ticket.StockDelta{ProductID: a.ProductID, Delta: a.Delta}
		}

		tx, err := r.DB.Begin(ctx)
		if err != nil {
			return applied, err
		}
		if err := applyStock(ctx, tx, deltas, nil, "stock push", by); err != nil {
			tx.Rollback(ctx)
			return applied, fmt.Errorf("batch at %d: %w", win[0], err)
		}
		if err := tx.Commit(ctx); err != nil {
			return applied, err
		}
		applied += len(chunk)
	}
	return applied, nil
}

// Upsert inserts or replaces a product by id, used by the legacy importer.
func (r *ProductRepository) Upsert(ctx context.Context, p *models.Product) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO products (id, name, category, model, color, price, stock, type, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, category=EXCLUDED.category, model=EXCLUDED.model,
		   color=EXCLUDED.color, price=EXCLUDED.price, stock=EXCLUDED.stock, type=EXCLUDED.type,
		   version = products.version + 1, updated_at = NOW()`,
		p.ID, p.Name, p.Category, p.Model, p.Color, p.Price, p.Stock, p.Type, p.CreatedAt)
	return err
}
