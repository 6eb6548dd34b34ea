package ticket

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"repairshop-backend/internal/models"
)

// Recalculate refreshes Balance and PaymentStatus from the other money fields.
// Every mutation in this package ends with it.
func Recalculate(o *models.Order) {
	o.Balance = o.TotalCost.Sub(o.AmountPaid)
	o.PaymentStatus = DerivePaymentStatus(o)
}

// DerivePaymentStatus computes the payment label for an order.
func DerivePaymentStatus(o *models.Order) models.PaymentStatus {
	switch {
	case o.Status == models.OrderStatusVoid:
		return models.PaymentStatusVoided
	case o.AmountPaid.IsZero() && o.RefundedAmount.IsPositive():
		return models.PaymentStatusRefunded
	case o.AmountPaid.GreaterThanOrEqual(o.TotalCost):
		return models.PaymentStatusPaid
	case o.AmountPaid.IsPositive():
		return models.PaymentStatusPartPayment
	default:
		return models.PaymentStatusUnpaid
	}
}

// ApplyPayment records a customer payment. Overpayment is allowed and shows
// up as a negative balance.
func ApplyPayment(o *models.Order, req models.PaymentRequest, by string, at time.Time) error {
	if o.Status == models.OrderStatusVoid {
		return ErrOrderVoid
	}
	if !req.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	method := req.Method
	if method == "" {
		method = models.PaymentMethodCash
	}
	o.AmountPaid = o.AmountPaid.Add(req.Amount)
	o.Payments = append(o.Payments, models.Payment{
		ID:         uuid.NewString(),
		Kind:       models.PaymentKindPayment,
		Amount:     req.Amount,
		Method:     method,
		Reference:  strings.TrimSpace(req.Reference),
		Note:       req.Note,
		RecordedBy: by,
		RecordedAt: at,
	})
	Recalculate(o)
	return nil
}

// OnlineReferences lists the gateway references of the online payments on
// o. Each one may be recorded once across all orders.
func OnlineReferences(o *models.Order) []string {
	var refs []string
	for _, p := range o.Payments {
		if p.Kind == models.PaymentKindPayment && p.Method == models.PaymentMethodRazorpay && p.Reference != "" {
			refs = append(refs, p.Reference)
		}
	}
	return refs
}

// NewReferences returns the online references of o that are not in before.
func NewReferences(before []string, o *models.Order) []string {
	seen := make(map[string]bool, len(before))
	for _, r := range before {
		seen[r] = true
	}
	var fresh []string
	for _, r := range OnlineReferences(o) {
		if !seen[r] {
			seen[r] = true
			fresh = append(fresh, r)
		}
	}
	return fresh
}

// Refund moves money from AmountPaid to RefundedAmount. A nil amount refunds
// the current overpayment.
func Refund(o *models.Order, amount *decimal.Decimal, method models.PaymentMethod, note, by string, at time.Time) (decimal.Decimal, error) {
	if o.Status == models.OrderStatusVoid {
		return decimal.Zero, ErrOrderVoid
	}
	var amt decimal.Decimal
	if amount == nil {
		over := o.AmountPaid.Sub(o.TotalCost)
		if !over.IsPositive() {
			return decimal.Zero, ErrNothingToRefund
		}
		amt = over
	} else {
		amt = *amount
	}
	if !amt.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	if amt.GreaterThan(o.AmountPaid) {
		return decimal.Zero, ErrRefundExceedsPaid
	}
	if method == "" {
		method = models.PaymentMethodCash
	}
	moveToRefunded(o, amt, method, note, by, at)
	Recalculate(o)
	return amt, nil
}

// settleOverpayment clamps AmountPaid to TotalCost after the total shrank,
// moving the excess to RefundedAmount.
func settleOverpayment(o *models.Order, note, by string, at time.Time) decimal.Decimal {
	excess := o.AmountPaid.Sub(o.TotalCost)
	if !excess.IsPositive() {
		return decimal.Zero
	}
	moveToRefunded(o, excess, models.PaymentMethodCash, note, by, at)
	return excess
}

func moveToRefunded(o *models.Order, amt decimal.Decimal, method models.PaymentMethod, note, by string, at time.Time) {
	o.AmountPaid = o.AmountPaid.Sub(amt)
	o.RefundedAmount = o.RefundedAmount.Add(amt)
	o.Payments = append(o.Payments, models.Payment{
		ID:         uuid.NewString(),
		Kind:       models.PaymentKindRefund,
		Amount:     amt,
		Method:     method,
		Note:       note,
		RecordedBy: by,
		RecordedAt: at,
	})
}

// LiveTotal sums the cost of every non-void service and non-returned product
// line. Part usage is free.
func LiveTotal(o *models.Order) decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		switch it.Type {
		case models.ItemTypeRepair:
			for _, s := range it.Services {
				if s.Status != models.ServiceStatusVoid {
					total = total.Add(s.Cost)
				}
			}
		case models.ItemTypeProduct:
			if !it.Returned {
				total = total.Add(it.Total)
			}
		}
	}
	return total
}
