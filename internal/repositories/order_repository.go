package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/ticket"
)

const orderColumns = `id, ticket_id, customer, order_type, items, payments, total_cost, amount_paid, balance,
	refunded_amount, payment_status, status, warranty_of, notes, created_by, created_by_name, collected_at,
	version, created_at, updated_at`

type OrderRepository struct {
	DB *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{DB: db}
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		o                         models.Order
		customer, items, payments []byte
	)
	err := row.Scan(&o.ID, &o.TicketID, &customer, &o.OrderType, &items, &payments,
		&o.TotalCost, &o.AmountPaid, &o.Balance, &o.RefundedAmount, &o.PaymentStatus, &o.Status,
		&o.WarrantyOf, &o.Notes, &o.CreatedBy, &o.CreatedByName, &o.CollectedAt,
		&o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return nil, fmt.Errorf("order %s customer: %w", o.TicketID, err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("order %s items: %w", o.TicketID, err)
	}
	if err := json.Unmarshal(payments, &o.Payments); err != nil {
		return nil, fmt.Errorf("order %s payments: %w", o.TicketID, err)
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]*models.Order, error) {
	defer rows.Close()
	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type orderDocs struct {
	customer, items, payments []byte
}

func encodeOrder(o *models.Order) (orderDocs, error) {
	var d orderDocs
	var err error
	if d.customer, err = json.Marshal(o.Customer); err != nil {
		return d, err
	}
	if o.Items == nil {
		o.Items = []models.OrderItem{}
	}
	if d.items, err = json.Marshal(o.Items); err != nil {
		return d, err
	}
	if o.Payments == nil {
		o.Payments = []models.Payment{}
	}
	d.payments, err = json.Marshal(o.Payments)
	return d, err
}

// uniqueTicketID re-rolls the suffix until the id is free.
func uniqueTicketID(ctx context.Context, tx pgx.Tx, o *models.Order) error {
	for i := 0; i < 10; i++ {
		var taken bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE ticket_id = $1)`, o.TicketID).Scan(&taken); err != nil {
			return err
		}
		if !taken {
			return nil
		}
		o.TicketID = ticket.NewTicketID(o.CreatedAt)
	}
	return fmt.Errorf("could not allocate a ticket id for %s", o.CreatedAt.Format("2006-01-02"))
}

func insertOrder(ctx context.Context, tx pgx.Tx, o *models.Order) error {
	docs, err := encodeOrder(o)
	if err != nil {
		return err
	}
	o.Version = 1
	_, err = tx.Exec(ctx,
		`INSERT INTO orders (id, ticket_id, customer, customer_phone, order_type, items, payments, total_cost,
		   amount_paid, balance, refunded_amount, payment_status, status, warranty_of, notes, created_by,
		   created_by_name, collected_at, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		o.ID, o.TicketID, docs.customer, o.Customer.Phone, o.OrderType, docs.items, docs.payments, o.TotalCost,
		o.AmountPaid, o.Balance, o.RefundedAmount, o.PaymentStatus, o.Status, o.WarrantyOf, o.Notes, o.CreatedBy,
		o.CreatedByName, o.CollectedAt, o.Version, o.CreatedAt, o.UpdatedAt)
	return err
}

// BuildFunc assembles an order from the locked products it sells.
type BuildFunc func(products map[uuid.UUID]models.Product) (*models.Order, []ticket.StockDelta, error)

// Checkout locks the products, builds the order, takes the stock and
// inserts the order in one transaction. Any stock shortfall aborts the
// whole checkout with no stock change.
func (r *OrderRepository) Checkout(ctx context.Context, productIDs []uuid.UUID, build BuildFunc) (*models.Order, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	products, err := lockProducts(ctx, tx, productIDs)
	if err != nil {
		return nil, err
	}
	o, deltas, err := build(products)
	if err != nil {
		return nil, err
	}
	if err := uniqueTicketID(ctx, tx, o); err != nil {
		return nil, err
	}
	if err := applyStock(ctx, tx, deltas, &o.ID, "sale "+o.TicketID, o.CreatedBy); err != nil {
		return nil, err
	}
	if err := insertOrder(ctx, tx, o); err != nil {
		return nil, err
	}
	if err := claimReferences(ctx, tx, o.ID, ticket.OnlineReferences(o)); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// claimReferences records online payment references in online_payments,
// whose primary key rejects a reference already used by any order.
func claimReferences(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, refs []string) error {
	for _, ref := range refs {
		_, err := tx.Exec(ctx, `INSERT INTO online_payments (reference, order_id) VALUES ($1, $2)`, ref, orderID)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrReferenceUsed, ref)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	return o, notFound(err)
}

func (r *OrderRepository) GetByTicketID(ctx context.Context, ticketID string) (*models.Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE ticket_id = $1`, ticketID))
	return o, notFound(err)
}

// List applies the column filters in SQL. Worker and free-text search look
// inside the items document and are applied by the caller.
func (r *OrderRepository) List(ctx context.Context, f models.OrderFilter) ([]*models.Order, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.OrderType != "" {
		add("order_type = $%d", f.OrderType)
	}
	if f.Phone != "" {
		add("customer_phone = $%d", f.Phone)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at < $%d", *f.To)
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// ListBetween returns every order created in [from, to). Zero bounds are open.
func (r *OrderRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*models.Order, error) {
	f := models.OrderFilter{}
	if !from.IsZero() {
		f.From = &from
	}
	if !to.IsZero() {
		f.To = &to
	}
	return r.List(ctx, f)
}

// ListOpen returns orders that are not finished, plus anything with money
// outstanding or owed back.
func (r *OrderRepository) ListOpen(ctx context.Context) ([]*models.Order, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE status IN ('Pending', 'In Progress', 'Ready for Pickup') OR (status <> 'Void' AND balance <> 0)
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// MutateFunc changes an order in memory and returns the stock it moves.
type MutateFunc func(o *models.Order) ([]ticket.StockDelta, error)

// Mutate is the read-modify-write used by every order operation: lock the
// row, check the version the client saw, apply fn, move stock, and write
// the order back with the version bumped. Any error leaves nothing changed.
func (r *OrderRepository) Mutate(ctx context.Context, id uuid.UUID, expected *int, reason string, by *uuid.UUID, fn MutateFunc) (*models.Order, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	o, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err)
	}
	if err := checkVersion(o.Version, expected); err != nil {
		return nil, err
	}

	refs := ticket.OnlineReferences(o)
	deltas, err := fn(o)
	if err != nil {
		return nil, err
	}
	if err := claimReferences(ctx, tx, o.ID, ticket.NewReferences(refs, o)); err != nil {
		return nil, err
	}
	if err := applyStock(ctx, tx, deltas, &o.ID, reason+" "+o.TicketID, by); err != nil {
		return nil, err
	}

	docs, err := encodeOrder(o)
	if err != nil {
		return nil, err
	}
	err = tx.QueryRow(ctx,
		`UPDATE orders SET customer=$1, customer_phone=$2, items=$3, payments=$4, total_cost=$5, amount_paid=$6,
		   balance=$7, refunded_amount=$8, payment_status=$9, status=$10, notes=$11, collected_at=$12,
		   version = version + 1, updated_at = $13
		 WHERE id = $14
		 RETURNING version`,
		docs.customer, o.Customer.Phone, docs.items, docs.payments, o.TotalCost, o.AmountPaid,
		o.Balance, o.RefundedAmount, o.PaymentStatus, o.Status, o.Notes, o.CollectedAt,
		o.UpdatedAt, o.ID,
	).Scan(&o.Version)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// Upsert writes an order as-is, used by the legacy importer.
func (r *OrderRepository) Upsert(ctx context.Context, o *models.Order) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, o.ID); err != nil {
		return err
	}
	if err := insertOrder(ctx, tx, o); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ticket %s", ErrDuplicate, o.TicketID)
		}
		return err
	}
	return tx.Commit(ctx)
}
