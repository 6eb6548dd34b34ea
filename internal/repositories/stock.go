package repositories

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/ticket"
)

// lockProducts reads products with FOR UPDATE so concurrent checkouts
// serialise on the rows they share.
func lockProducts(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := tx.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
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

// applyStock checks and writes stock deltas inside tx. Nothing is written
// when any product would go below zero. Restores for deleted products are
// logged and dropped.
func applyStock(ctx context.Context, tx pgx.Tx, deltas []ticket.StockDelta, orderID *uuid.UUID, reason string, by *uuid.UUID) error {
	deltas = ticket.MergeDeltas(deltas)
	if len(deltas) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(deltas))
	for i, d := range deltas {
		ids[i] = d.ProductID
	}
	products, err := lockProducts(ctx, tx, ids)
	if err != nil {
		return err
	}
	stock := make(map[uuid.UUID]int, len(products))
	for id, p := range products {
		stock[id] = p.Stock
	}
	apply, skipped, err := ticket.PlanStock(stock, deltas)
	if err != nil {
		return err
	}
	for _, d := range skipped {
		log.Printf("[Stock] %s: product %s was deleted, %d unit(s) not restored", reason, d.ProductID, d.Delta)
	}
	if len(apply) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, d := range apply {
		batch.Queue(`UPDATE products SET stock = stock + $1, version = version + 1, updated_at = NOW() WHERE id = $2`,
			d.Delta, d.ProductID)
		batch.Queue(`INSERT INTO stock_movements (product_id, delta, reason, order_id, created_by) VALUES ($1, $2, $3, $4, $5)`,
			d.ProductID, d.Delta, reason, orderID, by)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("apply stock: %w", err)
	}
	return nil
}
