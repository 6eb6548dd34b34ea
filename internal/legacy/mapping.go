package legacy

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/ticket"
)

var ErrInvalidDocument = errors.New("invalid legacy document")

var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("repairshop/legacy"))

// DocID derives a stable id for a legacy document so repeated imports
// overwrite instead of duplicating.
func DocID(collection, id string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(collection+"/"+id))
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func key(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

var orderStatuses = lookup(
	models.OrderStatusPending, models.OrderStatusInProgress, models.OrderStatusReadyForPickup,
	models.OrderStatusCompleted, models.OrderStatusCollected, models.OrderStatusVoid,
)

var serviceStatuses = lookup(
	models.ServiceStatusPending, models.ServiceStatusInProgress,
	models.ServiceStatusCompleted, models.ServiceStatusVoid,
)

func lookup[T ~string](values ...T) map[string]T {
	m := make(map[string]T, len(values))
	for _, v := range values {
		m[key(string(v))] = v
	}
	return m
}

func orderType(raw string, items []Item) (models.OrderType, error) {
	if strings.TrimSpace(raw) == "" {
		for _, it := range items {
			if key(it.Type) == "repair" {
				return models.OrderTypeRepair, nil
			}
		}
		return models.OrderTypeStoreSale, nil
	}
	t := models.OrderType(strings.ReplaceAll(key(raw), " ", "_"))
	if !t.Valid() {
		return "", fmt.Errorf("%w: order type %q", ErrInvalidDocument, raw)
	}
	return t, nil
}

// MapOrder converts a legacy order. Items and services without ids get ids
// derived from their position. Legacy orders carry no payment history, so
// the paid and refunded totals become one payment and one refund entry.
func MapOrder(docID string, doc Order, fallback time.Time) (*models.Order, error) {
	status, ok := orderStatuses[key(doc.Status)]
	if !ok {
		if strings.TrimSpace(doc.Status) != "" {
			return nil, fmt.Errorf("%w: order %s status %q", ErrInvalidDocument, docID, doc.Status)
		}
		status = models.OrderStatusPending
	}
	typ, err := orderType(doc.OrderType, doc.Items)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", docID, err)
	}

	created := doc.CreatedAt
	if created.IsZero() {
		created = fallback
	}
	ticketID := strings.TrimSpace(doc.TicketID)
	if ticketID == "" {
		ticketID = docID
	}

	o := &models.Order{
		ID:             DocID(CollectionOrders, docID),
		TicketID:       ticketID,
		Customer:       models.Customer{Name: strings.TrimSpace(doc.Customer.Name), Phone: strings.TrimSpace(doc.Customer.Phone), Email: strings.TrimSpace(doc.Customer.Email)},
		OrderType:      typ,
		Status:         status,
		TotalCost:      money(doc.TotalCost),
		AmountPaid:     money(doc.AmountPaid),
		RefundedAmount: money(doc.RefundedAmount),
		Notes:          doc.Notes,
		Version:        1,
		CreatedAt:      created,
		UpdatedAt:      created,
		Items:          make([]models.OrderItem, 0, len(doc.Items)),
		Payments:       []models.Payment{},
	}
	if w := strings.TrimSpace(doc.WarrantyOf); w != "" {
		parent := DocID(CollectionOrders, w)
		o.WarrantyOf = &parent
	}

	for i, it := range doc.Items {
		item, err := mapItem(docID, i, it, created)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, item)
	}

	if o.AmountPaid.IsPositive() || o.RefundedAmount.IsPositive() {
		o.Payments = append(o.Payments, models.Payment{
			ID:         docID + "-paid",
			Kind:       models.PaymentKindPayment,
			Amount:     o.AmountPaid.Add(o.RefundedAmount),
			Note:       "imported",
			RecordedAt: created,
		})
	}
	if o.RefundedAmount.IsPositive() {
		o.Payments = append(o.Payments, models.Payment{
			ID:         docID + "-refund",
			Kind:       models.PaymentKindRefund,
			Amount:     o.RefundedAmount,
			Note:       "imported",
			RecordedAt: created,
		})
	}

	// Stored balance and payment status are derived again from the totals;
	// the old system let them drift.
	ticket.Recalculate(o)
	if doc.Balance != nil && !o.Balance.Equal(money(*doc.Balance)) {
		log.Printf("[Legacy] order %s: stored balance %.2f replaced by %s", docID, *doc.Balance, o.Balance.StringFixed(2))
	}
	if o.Status == models.OrderStatusCollected {
		o.CollectedAt = &created
	}
	return o, nil
}

func mapItem(docID string, idx int, it Item, created time.Time) (models.OrderItem, error) {
	id := strings.TrimSpace(it.ID)
	if id == "" {
		id = fmt.Sprintf("%s-%d", docID, idx)
	}
	item := models.OrderItem{ID: id, CreatedAt: created}

	switch key(it.Type) {
	case "repair":
		item.Type = models.ItemTypeRepair
		item.Model = strings.TrimSpace(it.Model)
		item.IMEI = it.IMEI
		item.Passcode = it.Passcode
		item.Condition = it.Condition
		item.Services = make([]models.ServiceLine, 0, len(it.Services))
		for j, s := range it.Services {
			status, ok := serviceStatuses[key(s.Status)]
			if !ok {
				status = models.ServiceStatusPending
			}
			sid := strings.TrimSpace(s.ID)
			if sid == "" {
				sid = fmt.Sprintf("%s-%d", id, j)
			}
			line := models.ServiceLine{
				ID:      sid,
				Service: strings.TrimSpace(s.Service),
				Cost:    money(s.Cost),
				Worker:  strings.TrimSpace(s.Worker),
				Status:  status,
			}
			if status == models.ServiceStatusCompleted {
				done := created
				if s.CompletedAt != nil {
					done = *s.CompletedAt
				}
				line.CompletedAt = &done
			}
			item.Services = append(item.Services, line)
		}
	case "product":
		item.Type = models.ItemTypeProduct
		if p := strings.TrimSpace(it.ProductID); p != "" {
			pid := DocID(CollectionInventory, p)
			item.ProductID = &pid
		}
		item.Name = it.Name
		item.Qty = it.Qty
		item.Price = money(it.Price)
		item.Total = money(it.Total)
		if item.Total.IsZero() && item.Qty > 0 {
			item.Total = item.Price.Mul(decimal.NewFromInt(int64(item.Qty)))
		}
		item.Returned = it.Returned
	case "part usage":
		item.Type = models.ItemTypePartUsage
		if p := strings.TrimSpace(it.PartID); p != "" {
			pid := DocID(CollectionInventory, p)
			item.PartID = &pid
		}
		item.Name = it.Name
		item.Worker = strings.TrimSpace(it.Worker)
		item.Voided = it.Voided
	default:
		return item, fmt.Errorf("%w: order %s item %d type %q", ErrInvalidDocument, docID, idx, it.Type)
	}
	return item, nil
}

var productTypes = lookup(models.ProductTypeIPhone, models.ProductTypeIPad, models.ProductTypeWatch)

func MapProduct(docID string, doc InventoryItem, now time.Time) (*models.Product, error) {
	typ, ok := productTypes[key(doc.Type)]
	if !ok {
		return nil, fmt.Errorf("%w: inventory %s type %q", ErrInvalidDocument, docID, doc.Type)
	}
	if strings.TrimSpace(doc.Name) == "" {
		return nil, fmt.Errorf("%w: inventory %s has no name", ErrInvalidDocument, docID)
	}
	stock := doc.Stock
	if stock < 0 {
		stock = 0
	}
	return &models.Product{
		ID:        DocID(CollectionInventory, docID),
		Name:      strings.TrimSpace(doc.Name),
		Category:  strings.TrimSpace(doc.Category),
		Model:     strings.TrimSpace(doc.Model),
		Color:     strings.TrimSpace(doc.Color),
		Price:     money(doc.Price),
		Stock:     stock,
		Type:      typ,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MapUser converts a staff record. Imported accounts have no password and
// sign in by email link until they set one.
func MapUser(docID string, doc User, now time.Time) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(doc.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: user %s email %q", ErrInvalidDocument, docID, doc.Email)
	}
	role := models.Role(key(doc.Role))
	if !role.Valid() {
		role = models.RolePending
	}
	status := models.UserStatusActive
	if key(doc.Status) == string(models.UserStatusSuspended) {
		status = models.UserStatusSuspended
	}
	return &models.User{
		ID:            DocID(CollectionUsers, docID),
		Name:          strings.TrimSpace(doc.Name),
		Email:         email,
		Role:          role,
		Status:        status,
		EmailVerified: doc.EmailVerified,
		IsTechnician:  doc.IsTechnician,
		IsAdminAccess: doc.IsAdminAccess,
		BaseSalary:    money(doc.BaseSalary),
		FixedPerJob:   money(doc.FixedPerJob),
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func MapServicePrice(docID string, doc ServicePrice, now time.Time) (*models.ServicePrice, error) {
	model, service := strings.TrimSpace(doc.Model), strings.TrimSpace(doc.Service)
	if model == "" || service == "" {
		return nil, fmt.Errorf("%w: price %s needs model and service", ErrInvalidDocument, docID)
	}
	return &models.ServicePrice{
		ID:        DocID(CollectionServices, docID),
		Model:     model,
		Service:   service,
		Price:     money(doc.Price),
		UpdatedAt: now,
	}, nil
}
