package ticket

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"repairshop-backend/internal/models"
)

// StockDelta is a pending change to one product's stock. Negative takes
// stock, positive puts it back.
type StockDelta struct {
	ProductID uuid.UUID `json:"product_id"`
	Delta     int       `json:"delta"`
}

func lookupService(o *models.Order, itemID, serviceID string) (*models.OrderItem, *models.ServiceLine, error) {
	it := o.FindItem(itemID)
	if it == nil {
		return nil, nil, ErrItemNotFound
	}
	if it.Type != models.ItemTypeRepair {
		return nil, nil, ErrWrongItemType
	}
	s := it.FindService(serviceID)
	if s == nil {
		return nil, nil, ErrServiceNotFound
	}
	return it, s, nil
}

// VoidService cancels one service line and removes its cost from the order.
func VoidService(o *models.Order, itemID, serviceID, by string, at time.Time) error {
	if o.Status == models.OrderStatusVoid {
		return ErrOrderVoid
	}
	_, s, err := lookupService(o, itemID, serviceID)
	if err != nil {
		return err
	}
	if s.Status == models.ServiceStatusVoid {
		return ErrAlreadyVoid
	}
	s.Status = models.ServiceStatusVoid
	s.VoidedAt = &at
	o.TotalCost = o.TotalCost.Sub(s.Cost)
	settleOverpayment(o, fmt.Sprintf("void %s", s.Service), by, at)
	advanceOrder(o)
	Recalculate(o)
	return nil
}

// ReturnProduct returns qty units of a product line to stock. A partial
// return splits the line: the original keeps the retained units and a new
// returned line carries the rest.
func ReturnProduct(o *models.Order, itemID string, qty int, by string, at time.Time) ([]StockDelta, error) {
	if o.Status == models.OrderStatusVoid {
		return nil, ErrOrderVoid
	}
	idx := -1
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	it := &o.Items[idx]
	if it.Type != models.ItemTypeProduct {
		return nil, ErrWrongItemType
	}
	if it.Returned {
		return nil, ErrAlreadyReturned
	}
	if qty <= 0 || qty > it.Qty {
		return nil, fmt.Errorf("%w: return %d of %d", ErrInvalidQuantity, qty, it.Qty)
	}

	refund := it.Price.Mul(decimal.NewFromInt(int64(qty)))
	productID := it.ProductID

	if qty == it.Qty {
		it.Returned = true
		it.ReturnedAt = &at
	} else {
		returned := *it
		returned.ID = uuid.NewString()
		returned.Qty = qty
		returned.Total = refund
		returned.Returned = true
		returned.ReturnedAt = &at
		returned.CreatedAt = at

		it.Qty -= qty
		it.Total = it.Price.Mul(decimal.NewFromInt(int64(it.Qty)))

		o.Items = append(o.Items, models.OrderItem{})
		copy(o.Items[idx+2:], o.Items[idx+1:])
		o.Items[idx+1] = returned
	}

	o.TotalCost = o.TotalCost.Sub(refund)
	settleOverpayment(o, "product return", by, at)
	Recalculate(o)

	if productID == nil {
		return nil, nil
	}
	return []StockDelta{{ProductID: *productID, Delta: qty}}, nil
}

// AddService appends a service to an existing device item.
func AddService(o *models.Order, itemID string, service string, cost decimal.Decimal, worker string, at time.Time) (*models.ServiceLine, error) {
	if o.Status == models.OrderStatusVoid {
		return nil, ErrOrderVoid
	}
	it := o.FindItem(itemID)
	if it == nil {
		return nil, ErrItemNotFound
	}
	if it.Type != models.ItemTypeRepair {
		return nil, ErrWrongItemType
	}
	if service == "" {
		return nil, fmt.Errorf("%w: service name required", ErrInvalidOrder)
	}
	if cost.IsNegative() {
		return nil, ErrInvalidAmount
	}
	it.Services = append(it.Services, models.ServiceLine{
		ID:      uuid.NewString(),
		Service: service,
		Cost:    cost,
		Worker:  worker,
		Status:  models.ServiceStatusPending,
	})
	o.TotalCost = o.TotalCost.Add(cost)

	reopen(o)
	Recalculate(o)
	return &it.Services[len(it.Services)-1], nil
}

// reopen moves a ticket that was waiting at the counter back to In Progress,
// taking only steps the transition table allows.
func reopen(o *models.Order) {
	if o.Status != models.OrderStatusReadyForPickup && o.Status != models.OrderStatusCompleted {
		return
	}
	for _, step := range []models.OrderStatus{models.OrderStatusReadyForPickup, models.OrderStatusInProgress} {
		if CanTransition(o.Status, step) {
			o.Status = step
		}
	}
}

// AssignService sets the technician on a service line.
func AssignService(o *models.Order, itemID, serviceID, worker string) error {
	if o.Status == models.OrderStatusVoid {
		return ErrOrderVoid
	}
	_, s, err := lookupService(o, itemID, serviceID)
	if err != nil {
		return err
	}
	if s.Status == models.ServiceStatusVoid {
		return ErrAlreadyVoid
	}
	s.Worker = worker
	return nil
}

// SetServiceStatus moves a service line and advances the order with it: the
// first task started puts the ticket In Progress, and once every live task
// is completed the ticket is Ready for Pickup.
func SetServiceStatus(o *models.Order, itemID, serviceID string, to models.ServiceStatus, at time.Time) error {
	if o.Status == models.OrderStatusVoid {
		return ErrOrderVoid
	}
	if to == models.ServiceStatusVoid {
		return fmt.Errorf("%w: use void to cancel a service", ErrInvalidTransition)
	}
	_, s, err := lookupService(o, itemID, serviceID)
	if err != nil {
		return err
	}
	if err := checkServiceTransition(s.Status, to); err != nil {
		return err
	}
	s.Status = to
	switch to {
	case models.ServiceStatusInProgress:
		s.StartedAt = &at
		s.CompletedAt = nil
	case models.ServiceStatusCompleted:
		s.CompletedAt = &at
		if s.StartedAt == nil {
			s.StartedAt = &at
		}
	case models.ServiceStatusPending:
		s.StartedAt = nil
		s.CompletedAt = nil
	}
	advanceOrder(o)
	return nil
}

func advanceOrder(o *models.Order) {
	live, done, started := 0, 0, 0
	for _, it := range o.Items {
		if it.Type != models.ItemTypeRepair {
			continue
		}
		for _, s := range it.Services {
			switch s.Status {
			case models.ServiceStatusVoid:
				continue
			case models.ServiceStatusCompleted:
				done++
				started++
			case models.ServiceStatusInProgress:
				started++
			}
			live++
		}
	}
	if live == 0 {
		return
	}
	var target models.OrderStatus
	switch {
	case done == live:
		target = models.OrderStatusReadyForPickup
	case started > 0:
		target = models.OrderStatusInProgress
	default:
		return
	}
	if o.Status == models.OrderStatusCompleted || o.Status == models.OrderStatusCollected {
		return
	}
	if o.Status != target && CanTransition(o.Status, target) {
		o.Status = target
	}
}

// AddPartUsage records a stock part consumed by a repair. It costs the
// customer nothing and takes one unit from stock.
func AddPartUsage(o *models.Order, part models.Product, worker string, at time.Time) (*models.OrderItem, []StockDelta, error) {
	if o.Status == models.OrderStatusVoid {
		return nil, nil, ErrOrderVoid
	}
	id := part.ID
	o.Items = append(o.Items, models.OrderItem{
		ID:        uuid.NewString(),
		Type:      models.ItemTypePartUsage,
		PartID:    &id,
		Name:      part.Name,
		Model:     part.Model,
		Qty:       1,
		Price:     decimal.Zero,
		Total:     decimal.Zero,
		Worker:    worker,
		CreatedAt: at,
	})
	return &o.Items[len(o.Items)-1], []StockDelta{{ProductID: id, Delta: -1}}, nil
}

// UndoPartUsage voids a part usage line and puts the part back in stock.
func UndoPartUsage(o *models.Order, itemID string, at time.Time) ([]StockDelta, error) {
	if o.Status == models.OrderStatusVoid {
		return nil, ErrOrderVoid
	}
	it := o.FindItem(itemID)
	if it == nil {
		return nil, ErrItemNotFound
	}
	if it.Type != models.ItemTypePartUsage {
		return nil, ErrWrongItemType
	}
	if it.Voided {
		return nil, ErrAlreadyVoid
	}
	it.Voided = true
	it.VoidedAt = &at
	if it.PartID == nil {
		return nil, nil
	}
	return []StockDelta{{ProductID: *it.PartID, Delta: 1}}, nil
}
