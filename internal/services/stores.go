package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/repositories"
)

// The services depend on these narrow views of the repositories so they can
// be exercised against in-memory stores in tests.

type OrderStore interface {
	Checkout(ctx context.Context, productIDs []uuid.UUID, build repositories.BuildFunc) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByTicketID(ctx context.Context, ticketID string) (*models.Order, error)
	List(ctx context.Context, f models.OrderFilter) ([]*models.Order, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]*models.Order, error)
	Mutate(ctx context.Context, id uuid.UUID, expected *int, reason string, by *uuid.UUID, fn repositories.MutateFunc) (*models.Order, error)
}

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, f models.ProductFilter, threshold int) ([]models.Product, error)
	Update(ctx context.Context, p *models.Product, expected *int) error
	Delete(ctx context.Context, id uuid.UUID) error
	BulkCreate(ctx context.Context, products []models.Product) (int, error)
	AdjustStock(ctx context.Context, adj models.StockAdjustRequest, by *uuid.UUID) (*models.Product, error)
	BulkAdjustStock(ctx context.Context, adjustments []models.StockAdjustRequest, by *uuid.UUID) (int, error)
}

type PriceStore interface {
	Upsert(ctx context.Context, p *models.ServicePrice) error
	BulkUpsert(ctx context.Context, prices []models.ServicePrice) (int, error)
	List(ctx context.Context, model string) ([]models.ServicePrice, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	ListTechnicians(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, u *models.User, expected *int) error
	SetStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) error
	SetPassword(ctx context.Context, id uuid.UUID, hash string) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateFromInvite(ctx context.Context, inviteID uuid.UUID, u *models.User, at time.Time) error
}

type InviteStore interface {
	Create(ctx context.Context, inv *models.PendingInvite) error
	Get(ctx context.Context, id uuid.UUID) (*models.PendingInvite, error)
	ListOpen(ctx context.Context, now time.Time) ([]*models.PendingInvite, error)
	RevokeOpen(ctx context.Context, email string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type PayrollStore interface {
	AddAdjustment(ctx context.Context, a *models.PayrollAdjustment) error
	DeleteAdjustment(ctx context.Context, id uuid.UUID) error
	Adjustments(ctx context.Context, techID uuid.UUID, weekStart time.Time) ([]models.PayrollAdjustment, error)
	Record(ctx context.Context, techID uuid.UUID, weekStart time.Time) (*models.PayrollRecord, error)
	Confirm(ctx context.Context, techID uuid.UUID, weekStart time.Time, freeze repositories.FreezeFunc) (*models.PayrollRecord, error)
	DeleteRecord(ctx context.Context, techID uuid.UUID, weekStart time.Time) error
}

type ProofStore interface {
	Create(ctx context.Context, p *models.ProofOfWork) error
	Get(ctx context.Context, id uuid.UUID) (*models.ProofOfWork, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*models.ProofOfWork, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type IssueStore interface {
	Create(ctx context.Context, i *models.IssueReport) error
	Get(ctx context.Context, id uuid.UUID) (*models.IssueReport, error)
	List(ctx context.Context, status models.IssueStatus) ([]*models.IssueReport, error)
	Resolve(ctx context.Context, id uuid.UUID, resolution string, by *uuid.UUID, at time.Time) (*models.IssueReport, error)
}
