package ticket

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"repairshop-backend/internal/models"
)

// SetStatus moves the order along the transition table. Void is rejected
// here because it has side effects; use VoidOrder.
func SetStatus(o *models.Order, to models.OrderStatus, at time.Time) error {
	if o.Status == models.OrderStatusVoid {
		return ErrOrderVoid
	}
	if to == models.OrderStatusVoid {
		return fmt.Errorf("%w: use void to cancel an order", ErrInvalidTransition)
	}
	if err := checkOrderTransition(o.Status, to); err != nil {
		return err
	}
	from := o.Status
	o.Status = to
	switch {
	case to == models.OrderStatusCollected:
		o.CollectedAt = &at
	case from == models.OrderStatusCollected:
		o.CollectedAt = nil
	}
	Recalculate(o)
	return nil
}

// UndoCollected reverts a pickup, returning the ticket to Ready for Pickup.
func UndoCollected(o *models.Order, at time.Time) error {
	if o.Status != models.OrderStatusCollected {
		return fmt.Errorf("%w: order is %s, not %s", ErrInvalidTransition, o.Status, models.OrderStatusCollected)
	}
	return SetStatus(o, models.OrderStatusReadyForPickup, at)
}

// VoidOrder cancels the whole ticket. Live services are voided, sold
// products and consumed parts go back to stock, and everything paid is
// moved to RefundedAmount.
func VoidOrder(o *models.Order, by string, at time.Time) ([]StockDelta, error) {
	if o.Status == models.OrderStatusVoid {
		return nil, ErrOrderVoid
	}

	var deltas []StockDelta
	for i := range o.Items {
		it := &o.Items[i]
		switch it.Type {
		case models.ItemTypeRepair:
			for j := range it.Services {
				s := &it.Services[j]
				if s.Status != models.ServiceStatusVoid {
					s.Status = models.ServiceStatusVoid
					s.VoidedAt = &at
				}
			}
		case models.ItemTypeProduct:
			if !it.Returned {
				it.Returned = true
				it.ReturnedAt = &at
				if it.ProductID != nil {
					deltas = append(deltas, StockDelta{ProductID: *it.ProductID, Delta: it.Qty})
				}
			}
		case models.ItemTypePartUsage:
			if !it.Voided {
				it.Voided = true
				it.VoidedAt = &at
				if it.PartID != nil {
					deltas = append(deltas, StockDelta{ProductID: *it.PartID, Delta: 1})
				}
			}
		}
	}

	if o.AmountPaid.IsPositive() {
		moveToRefunded(o, o.AmountPaid, models.PaymentMethodCash, "order void", by, at)
	}
	o.TotalCost = decimal.Zero
	o.Status = models.OrderStatusVoid
	Recalculate(o)
	return MergeDeltas(deltas), nil
}

// MergeDeltas folds deltas for the same product together, keeping first-seen
// order and dropping zero entries.
func MergeDeltas(deltas []StockDelta) []StockDelta {
	if len(deltas) == 0 {
		return nil
	}
	idx := make(map[string]int, len(deltas))
	out := make([]StockDelta, 0, len(deltas))
	for _, d := range deltas {
		key := d.ProductID.String()
		if i, ok := idx[key]; ok {
			out[i].Delta += d.Delta
			continue
		}
		idx[key] = len(out)
		out = append(out, d)
	}
	kept := out[:0]
	for _, d := range out {
		if d.Delta != 0 {
			kept = append(kept, d)
		}
	}
	return kept
}
