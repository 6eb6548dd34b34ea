package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"repairshop-backend/internal/cache"
	"repairshop-backend/internal/metrics"
	"repairshop-backend/internal/models"
	"repairshop-backend/internal/realtime"
	"repairshop-backend/internal/reports"
	"repairshop-backend/internal/repositories"
	"repairshop-backend/internal/ticket"
	"repairshop-backend/internal/timeutil"
)

type OrderService struct {
	Orders   OrderStore
	Products ProductStore
	Prices   PriceStore
	Payments PaymentVerifier
	Events   realtime.Publisher
	Shop     reports.ShopInfo

	now func() time.Time
}

func NewOrderService(orders OrderStore, products ProductStore, prices PriceStore, payments PaymentVerifier, events realtime.Publisher, shop reports.ShopInfo) *OrderService {
	return &OrderService{
		Orders:   orders,
		Products: products,
		Prices:   prices,
		Payments: payments,
		Events:   events,
		Shop:     shop,
		now:      timeutil.Now,
	}
}

func actorID(u *models.User) *uuid.UUID {
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}

func actorName(u *models.User) string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// priceBook loads the whole price list into memory.
func (s *OrderService) priceBook(ctx context.Context) (ticket.PriceMap, error) {
	list, err := s.Prices.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load price list: %w", err)
	}
	m := make(ticket.PriceMap, len(list))
	for _, p := range list {
		m[ticket.PriceKey(p.Model, p.Service)] = p.Price
	}
	return m, nil
}

func (s *OrderService) verifyOnline(ctx context.Context, req *models.PaymentRequest) error {
	if req == nil || req.Method != models.PaymentMethodRazorpay {
		return nil
	}
	if s.Payments == nil {
		return fmt.Errorf("%w: online payments are not configured", ErrPaymentUnverified)
	}
	return s.Payments.Verify(ctx, req.Reference, req.Amount)
}

// published tells clients and caches that an order changed.
func (s *OrderService) published(ctx context.Context, o *models.Order, event string, stockMoved bool) {
	cache.InvalidateOrderCaches(ctx)
	if stockMoved {
		cache.InvalidateInventoryCaches(ctx)
	}
	if s.Events == nil {
		return
	}
	at := s.now()
	s.Events.Publish(ctx, realtime.Event{Topic: realtime.TopicOrders, Type: event, ID: o.ID.String(), Data: o, At: at})
	if stockMoved {
		s.Events.Publish(ctx, realtime.Event{Topic: realtime.TopicInventory, Type: "stock_changed", ID: o.ID.String(), At: at})
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ticket.ErrInsufficientStock):
		return "stock"
	case errors.Is(err, ErrPaymentUnverified), errors.Is(err, repositories.ErrReferenceUsed):
		return "payment"
	case errors.Is(err, ticket.ErrInvalidOrder), errors.Is(err, ticket.ErrEmptyOrder),
		errors.Is(err, ticket.ErrUnknownProduct), errors.Is(err, ticket.ErrUnpricedService),
		errors.Is(err, ticket.ErrInvalidQuantity), errors.Is(err, ticket.ErrInvalidAmount):
		return "validation"
	}
	return "error"
}

// Checkout creates a ticket. Stock for every product line is taken in the
// same transaction; a shortfall on any line aborts the whole checkout.
func (s *OrderService) Checkout(ctx context.Context, req models.CheckoutRequest, actor *models.User) (*models.Order, error) {
	if req.OrderType == models.OrderTypeWarranty {
		return nil, fmt.Errorf("%w: warranty tickets are created from their parent", ErrInvalidInput)
	}
	if err := s.verifyOnline(ctx, req.Deposit); err != nil {
		metrics.CheckoutFailures.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}
	prices, err := s.priceBook(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(req.Products))
	for _, pl := range req.Products {
		ids = append(ids, pl.ProductID)
	}
	at := s.now()
	o, err := s.Orders.Checkout(ctx, ids, func(products map[uuid.UUID]models.Product) (*models.Order, []ticket.StockDelta, error) {
		o, deltas, err := ticket.Build(req, prices, products, at)
		if err != nil {
			return nil, nil, err
		}
		o.CreatedBy = actorID(actor)
		o.CreatedByName = actorName(actor)
		for i := range o.Payments {
			o.Payments[i].RecordedBy = o.CreatedByName
		}
		return o, deltas, nil
	})
	if err != nil {
		metrics.CheckoutFailures.WithLabelValues(failureReason(err)).Inc()
		log.Printf("[Orders] Checkout failed: %v", err)
		return nil, err
	}

	metrics.CheckoutsTotal.WithLabelValues(string(o.OrderType)).Inc()
	if req.Deposit != nil && req.Deposit.Amount.IsPositive() {
		metrics.PaymentsTotal.WithLabelValues(string(o.Payments[0].Method)).Inc()
	}
	log.Printf("[Orders] Ticket %s created by %s (%s, total %s)", o.TicketID, o.CreatedByName, o.OrderType, o.TotalCost.StringFixed(2))
	s.published(ctx, o, "created", len(req.Products) > 0)
	return o, nil
}

// CreateWarranty opens a zero-cost warranty ticket against a finished parent.
func (s *OrderService) CreateWarranty(ctx context.Context, parentID uuid.UUID, req models.WarrantyRequest, actor *models.User) (*models.Order, error) {
	parent, err := s.Orders.Get(ctx, parentID)
	if err != nil {
		return nil, err
	}
	at := s.now()
	o, err := s.Orders.Checkout(ctx, nil, func(map[uuid.UUID]models.Product) (*models.Order, []ticket.StockDelta, error) {
		o, err := ticket.BuildWarranty(parent, req, at)
		if err != nil {
			return nil, nil, err
		}
		o.CreatedBy = actorID(actor)
		o.CreatedByName = actorName(actor)
		return o, nil, nil
	})
	if err != nil {
		log.Printf("[Orders] Warranty for %s failed: %v", parent.TicketID, err)
		return nil, err
	}
	metrics.CheckoutsTotal.WithLabelValues(string(o.OrderType)).Inc()
	s.published(ctx, o, "created", false)
	return o, nil
}

// mutate runs one read-modify-write against an order and publishes the result.
func (s *OrderService) mutate(ctx context.Context, action string, id uuid.UUID, version *int, actor *models.User, fn repositories.MutateFunc) (*models.Order, error) {
	var moved bool
	o, err := s.Orders.Mutate(ctx, id, version, action, actorID(actor), func(o *models.Order) ([]ticket.StockDelta, error) {
		deltas, err := fn(o)
		if err != nil {
			return nil, err
		}
		o.UpdatedAt = s.now()
		moved = len(deltas) > 0
		return deltas, nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrVersionConflict) {
			metrics.VersionConflicts.WithLabelValues("order").Inc()
		}
		log.Printf("[Orders] %s on %s failed: %v", action, id, err)
		return nil, err
	}
	s.published(ctx, o, action, moved)
	return o, nil
}

func (s *OrderService) RecordPayment(ctx context.Context, id uuid.UUID, req models.PaymentRequest, actor *models.User) (*models.Order, error) {
	if err := s.verifyOnline(ctx, &req); err != nil {
		return nil, err
	}
	o, err := s.mutate(ctx, "payment", id, req.Version, actor, func(o *models.Order) ([]ticket.StockDelta, error) {
		return nil, ticket.ApplyPayment(o, req, actorName(actor), s.now())
	})
	if err != nil {
		return nil, err
	}
	method := req.Method
	if method == "" {
		method = models.PaymentMethodCash
	}
	metrics.PaymentsTotal.WithLabelValues(string(method)).Inc()
	return o, nil
}

func (s *OrderService) VoidService(ctx context.Context, id uuid.UUID, itemID, serviceID string, version *int, actor *models.User) (*models.Order, error) {
	o, err := s.mutate(ctx, "void_service", id, version, actor, func(o *models.Order) ([]ticket.StockDelta, error) {
		return nil, ticket.VoidService(o, itemID, serviceID, actorName(actor), s.now())
	})
	if err == nil {
		metrics.VoidsTotal.WithLabelValues("service").Inc()
	}
	return o, err
}

func (s *OrderService) ReturnProduct(ctx context.Context, id uuid.UUID, itemID string, req models.ReturnRequest, actor *models.User) (*models.Order, error) {
	o, err := s.mutate(ctx, "return_product", id, req.Version, actor, func(o *models.Order) ([]ticket.StockDelta, error) {
		return ticket.ReturnProduct(o, itemID, req.Qty, actorName(actor), s.now())
	})
	if err == nil {
		metrics.VoidsTotal.WithLabelValues("product").Inc()
	}
	return o, err
}

func (s *OrderService) Refund(ctx context.Context, id uuid.UUID, req models.RefundRequest, actor *models.User) (*models.Order, error) {
	var refunded decimal.Decimal
	o, err := s.mutate(ctx, "refund", id, req.Version, actor, func(o *models.Order) ([]ticket.StockDelta, error) {
		amt, err := ticket.Refund(o, req.Amount, req.Method, req.Note, actorName(actor), s.now())
		refunded = amt
		return nil, err
	})
	if err == nil {
		metrics.RefundedAmount.Add(refunded.InexactFloat64())
	}
	return o, err
}

func (s *OrderService) VoidOrder(ctx context.Context, id uuid.UUID, version *int, actor *models.User) (*models.Order, error) {
	o, err := s.mutate(ctx, "void", id, version, actor, func(o *models.Order) ([]ticket.StockDelta, error) {
		return ticket.VoidOrder(o, actorName(actor), s.now())
	})
	if err == nil {
		metrics.VoidsTotal.WithLabelValues("order").Inc()
		log.Printf("[Orders] Ticket %s voided by %s", o.TicketID, actorName(actor))
	}
	return o, err
}

func (s *OrderService) SetStatus(ctx context.Context, id uuid.UUID, req models.StatusRequest, actor *models.User) (*models.Order, error) {
	if req.Status == models.OrderStatusVoid {
		return nil, fmt.Errorf("%w: use the void action", ticket.ErrInvalidTransition)
	}
	return s.mutate(ctx, "status", id, req.Version, actor, func(o *models.Order) ([]ticket.StockDelta, error) {
		return nil, ticket.SetStatus(o, req.Status, s.now())
	})
}

func (s *OrderService) MarkCollected(ctx context.Context, id uuid.UUID, version *int, actor *models.User) (*models.Order, error) {
	return s.SetStatus(ctx, id, models.StatusRequest{Status: models.OrderStatusCollected, Version: version}, actor)
}

func (s *OrderService) UndoCollected(ctx context.Context, id uuid.UUID, version *int, actor *models.User) (*models.Order, error) {
	return s.mutate(ctx, "undo_collected", id, version, actor, func(o *models.Order) ([]ticket.StockDelta, error) {
		return nil, ticket.UndoCollected(o, s.now())
	})
}

func (s *OrderService) SetServiceStatus(ctx context.Context, id uuid.UUID, itemID, serviceID string, req models.ServiceStatusRequest, actor *models.User) (*models.Order, error) {
	return s.mutate(ctx, "service_status", id, req.Version, actor, func(o *models.Order) ([]ticket.StockDelta, error) {
		return nil, ticket.SetServiceStatus(o, itemID, serviceID, req.Status, s.now())
	})
}

func (s *OrderService) AssignService(ctx context.Context, id uuid.UUID, itemID, serviceID string, req models.AssignRequest, actor *models.User) (*models.Order, error) {
	return s.mutate(ctx, "assign", id, req.Version, actor, func(o *models.Order) ([]ticket.StockDelta, error) {
		return nil, ticket.AssignService(o, itemID, serviceID, strings.TrimSpace(req.Worker))
	})
}

// AddService appends a service to a device, priced from the request or the
// price list for the device model.
func (s *OrderService) AddService(ctx context.Context, id uuid.UUID, itemID string, req models.AddServiceRequest, actor *models.User) (*models.Order, error) {
	prices, err := s.priceBook(ctx)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, "add_service", id, req.Version, actor, func(o *models.Order) ([]ticket.StockDelta, error) {
		item := o.FindItem(itemID)
		if item == nil {
			return nil, ticket.ErrItemNotFound
		}
		cost := decimal.Zero
		if o.OrderType != models.OrderTypeWarranty {
			priced, err := ticket.PriceService(item.Model, req.ServiceRequest, prices)
			if err != nil {
				return nil, err
			}
			cost = priced
		}
		_, err := ticket.AddService(o, itemID, req.Service, cost, strings.TrimSpace(req.Worker), s.now())
		return nil, err
	})
}

// AddPartUsage records a part consumed during a repair and takes one from stock.
func (s *OrderService) AddPartUsage(ctx context.Context, id uuid.UUID, req models.PartUsageRequest, actor *models.User) (*models.Order, error) {
	part, err := s.Products.Get(ctx, req.PartID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ticket.ErrUnknownProduct, req.PartID)
		}
		return nil, err
	}
	worker := strings.TrimSpace(req.Worker)
	if worker == "" {
		worker = actorName(actor)
	}
	return s.mutate(ctx, "part_usage", id, req.Version, actor, func(o *models.Order) ([]ticket.StockDelta, error) {
		_, deltas, err := ticket.AddPartUsage(o, *part, worker, s.now())
		return deltas, err
	})
}

func (s *OrderService) UndoPartUsage(ctx context.Context, id uuid.UUID, itemID string, version *int, actor *models.User) (*models.Order, error) {
	return s.mutate(ctx, "undo_part_usage", id, version, actor, func(o *models.Order) ([]ticket.StockDelta, error) {
		return ticket.UndoPartUsage(o, itemID, s.now())
	})
}

func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.Orders.Get(ctx, id)
}

func (s *OrderService) GetByTicketID(ctx context.Context, ticketID string) (*models.Order, error) {
	return s.Orders.GetByTicketID(ctx, strings.TrimSpace(ticketID))
}

// List filters in SQL where it can, then by worker and free text in memory,
// and pages the result.
func (s *OrderService) List(ctx context.Context, f models.OrderFilter) (*models.OrderPage, error) {
	orders, err := s.Orders.List(ctx, f)
	if err != nil {
		return nil, err
	}
	filtered := orders[:0]
	for _, o := range orders {
		if f.Worker != "" && !hasWorker(o, f.Worker) {
			continue
		}
		if f.Search != "" && !matchesSearch(o, f.Search) {
			continue
		}
		filtered = append(filtered, o)
	}

	page, size := reports.NormalizePage(f.Page, f.PageSize)
	start, end := reports.Bounds(len(filtered), page, size)
	return &models.OrderPage{
		Orders:   append([]*models.Order{}, filtered[start:end]...),
		Total:    len(filtered),
		Page:     page,
		PageSize: size,
	}, nil
}

func hasWorker(o *models.Order, worker string) bool {
	worker = strings.TrimSpace(worker)
	for _, it := range o.Items {
		if strings.EqualFold(it.Worker, worker) {
			return true
		}
		for _, s := range it.Services {
			if strings.EqualFold(strings.TrimSpace(s.Worker), worker) {
				return true
			}
		}
	}
	return false
}

func matchesSearch(o *models.Order, q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	fields := []string{o.TicketID, o.Customer.Name, o.Customer.Phone, o.Customer.Email, o.Notes}
	for _, it := range o.Items {
		fields = append(fields, it.Model, it.Name, it.IMEI)
		for _, s := range it.Services {
			fields = append(fields, s.Service)
		}
	}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Receipt renders the printable receipt for a ticket.
func (s *OrderService) Receipt(ctx context.Context, id uuid.UUID) (*models.Order, []byte, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := reports.ReceiptPDF(o, s.Shop)
	if err != nil {
		return nil, nil, fmt.Errorf("render receipt %s: %w", o.TicketID, err)
	}
	return o, pdf, nil
}
