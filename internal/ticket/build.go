package ticket

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"repairshop-backend/internal/models"
)

// PriceBook prices a service for a device model.
type PriceBook interface {
	Lookup(model, service string) (decimal.Decimal, bool)
}

// PriceMap is an in-memory PriceBook keyed by model and service.
type PriceMap map[string]decimal.Decimal

func PriceKey(model, service string) string {
	return strings.ToLower(strings.TrimSpace(model)) + "|" + strings.ToLower(strings.TrimSpace(service))
}

func (m PriceMap) Lookup(model, service string) (decimal.Decimal, bool) {
	p, ok := m[PriceKey(model, service)]
	return p, ok
}

// NewTicketID returns a human-readable id: the intake date plus a random
// four-digit suffix, e.g. 20261016-4821.
func NewTicketID(at time.Time) string {
	return fmt.Sprintf("%s-%04d", at.Format("20060102"), rand.Intn(10000))
}

// Build assembles a new order from a checkout request. Product prices come
// from the catalogue; service prices come from the request or the price
// book. It returns the stock the order will consume.
func Build(req models.CheckoutRequest, prices PriceBook, products map[uuid.UUID]models.Product, at time.Time) (*models.Order, []StockDelta, error) {
	if strings.TrimSpace(req.Customer.Name) == "" && strings.TrimSpace(req.Customer.Phone) == "" {
		return nil, nil, fmt.Errorf("%w: customer name or phone required", ErrInvalidOrder)
	}
	if len(req.Devices) == 0 && len(req.Products) == 0 {
		return nil, nil, ErrEmptyOrder
	}
	orderType := req.OrderType
	if orderType == "" {
		if len(req.Devices) > 0 {
			orderType = models.OrderTypeRepair
		} else {
			orderType = models.OrderTypeStoreSale
		}
	}
	if !orderType.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown order type %q", ErrInvalidOrder, orderType)
	}

	o := &models.Order{
		ID:             uuid.New(),
		TicketID:       NewTicketID(at),
		Customer:       req.Customer,
		OrderType:      orderType,
		Notes:          req.Notes,
		TotalCost:      decimal.Zero,
		AmountPaid:     decimal.Zero,
		RefundedAmount: decimal.Zero,
		Payments:       []models.Payment{},
		CreatedAt:      at,
		UpdatedAt:      at,
	}

	for _, d := range req.Devices {
		item, err := buildDevice(d, prices, orderType == models.OrderTypeWarranty, at)
		if err != nil {
			return nil, nil, err
		}
		o.Items = append(o.Items, item)
		for _, s := range item.Services {
			o.TotalCost = o.TotalCost.Add(s.Cost)
		}
	}

	var deltas []StockDelta
	for _, pl := range req.Products {
		if pl.Qty <= 0 {
			return nil, nil, fmt.Errorf("%w: qty %d", ErrInvalidQuantity, pl.Qty)
		}
		p, ok := products[pl.ProductID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownProduct, pl.ProductID)
		}
		id := p.ID
		total := p.Price.Mul(decimal.NewFromInt(int64(pl.Qty)))
		o.Items = append(o.Items, models.OrderItem{
			ID:        uuid.NewString(),
			Type:      models.ItemTypeProduct,
			ProductID: &id,
			Name:      p.Name,
			Model:     p.Model,
			Qty:       pl.Qty,
			Price:     p.Price,
			Total:     total,
			CreatedAt: at,
		})
		o.TotalCost = o.TotalCost.Add(total)
		deltas = append(deltas, StockDelta{ProductID: id, Delta: -pl.Qty})
	}

	// Counter sales leave with the customer; anything with a device waits
	// for the bench.
	if len(req.Devices) == 0 {
		o.Status = models.OrderStatusCompleted
	} else {
		o.Status = models.OrderStatusPending
	}
	Recalculate(o)

	if req.Deposit != nil && !req.Deposit.Amount.IsZero() {
		if err := ApplyPayment(o, *req.Deposit, "", at); err != nil {
			return nil, nil, err
		}
	}
	return o, MergeDeltas(deltas), nil
}

func buildDevice(d models.DeviceRequest, prices PriceBook, warranty bool, at time.Time) (models.OrderItem, error) {
	if strings.TrimSpace(d.Model) == "" {
		return models.OrderItem{}, fmt.Errorf("%w: device model required", ErrInvalidOrder)
	}
	item := models.OrderItem{
		ID:        uuid.NewString(),
		Type:      models.ItemTypeRepair,
		Model:     d.Model,
		IMEI:      d.IMEI,
		Passcode:  d.Passcode,
		Condition: d.Condition,
		Price:     decimal.Zero,
		Total:     decimal.Zero,
		CreatedAt: at,
	}
	for _, sr := range d.Services {
		if strings.TrimSpace(sr.Service) == "" {
			return models.OrderItem{}, fmt.Errorf("%w: service name required", ErrInvalidOrder)
		}
		cost, err := priceService(d.Model, sr, prices, warranty)
		if err != nil {
			return models.OrderItem{}, err
		}
		item.Services = append(item.Services, models.ServiceLine{
			ID:      uuid.NewString(),
			Service: sr.Service,
			Cost:    cost,
			Worker:  sr.Worker,
			Status:  models.ServiceStatusPending,
		})
	}
	return item, nil
}

// PriceService resolves the cost for one requested service.
func PriceService(model string, sr models.ServiceRequest, prices PriceBook) (decimal.Decimal, error) {
	return priceService(model, sr, prices, false)
}

func priceService(model string, sr models.ServiceRequest, prices PriceBook, warranty bool) (decimal.Decimal, error) {
	if warranty {
		return decimal.Zero, nil
	}
	if sr.Cost != nil {
		if sr.Cost.IsNegative() {
			return decimal.Zero, ErrInvalidAmount
		}
		return *sr.Cost, nil
	}
	if prices != nil {
		if p, ok := prices.Lookup(model, sr.Service); ok {
			return p, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: %s / %s", ErrUnpricedService, model, sr.Service)
}

// BuildWarranty opens a free follow-up ticket against a finished repair.
func BuildWarranty(parent *models.Order, req models.WarrantyRequest, at time.Time) (*models.Order, error) {
	if parent.Status != models.OrderStatusCompleted && parent.Status != models.OrderStatusCollected {
		return nil, ErrWarrantyParent
	}
	devices := req.Devices
	if len(devices) == 0 {
		// Default to redoing every service that was actually delivered.
		for _, it := range parent.Items {
			if it.Type != models.ItemTypeRepair {
				continue
			}
			d := models.DeviceRequest{Model: it.Model, IMEI: it.IMEI, Passcode: it.Passcode, Condition: it.Condition}
			for _, s := range it.Services {
				if s.Status == models.ServiceStatusCompleted {
					d.Services = append(d.Services, models.ServiceRequest{Service: s.Service, Worker: s.Worker})
				}
			}
			if len(d.Services) > 0 {
				devices = append(devices, d)
			}
		}
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: nothing to cover under warranty", ErrEmptyOrder)
	}
	o, _, err := Build(models.CheckoutRequest{
		Customer:  parent.Customer,
		OrderType: models.OrderTypeWarranty,
		Devices:   devices,
		Notes:     req.Notes,
	}, nil, nil, at)
	if err != nil {
		return nil, err
	}
	parentID := parent.ID
	o.WarrantyOf = &parentID
	return o, nil
}

// PlanStock checks that applying deltas leaves no product below zero and
// returns the merged deltas to write. A restore for a product that no longer
// exists is returned in skipped instead, so a deleted product never blocks a
// void or return; taking stock from a missing product is an error.
func PlanStock(stock map[uuid.UUID]int, deltas []StockDelta) (apply, skipped []StockDelta, err error) {
	for _, d := range MergeDeltas(deltas) {
		have, ok := stock[d.ProductID]
		if !ok {
			if d.Delta > 0 {
				skipped = append(skipped, d)
				continue
			}
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownProduct, d.ProductID)
		}
		if have+d.Delta < 0 {
			return nil, nil, fmt.Errorf("%w: product %s has %d, needs %d", ErrInsufficientStock, d.ProductID, have, -d.Delta)
		}
		apply = append(apply, d)
	}
	return apply, skipped, nil
}
