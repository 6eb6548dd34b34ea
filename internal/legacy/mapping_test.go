package legacy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairshop-backend/internal/models"
)

var importTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestDocIDIsStable(t *testing.T) {
	assert.Equal(t, DocID(CollectionOrders, "abc"), DocID(CollectionOrders, "abc"))
	assert.NotEqual(t, DocID(CollectionOrders, "abc"), DocID(CollectionInventory, "abc"))
}

func TestMapOrderRecomputesMissingBalance(t *testing.T) {
	doc := Order{
		TicketID:   "T-1001",
		Customer:   Customer{Name: " Ada ", Phone: "0800"},
		OrderType:  "Repair",
		TotalCost:  150.5,
		AmountPaid: 50,
		Status:     "in progress",
		Items: []Item{{
			Type:  "repair",
			Model: "iPhone 12",
			Services: []Service{
				{Service: "Screen", Cost: 120.5, Worker: "Bola", Status: "Completed"},
				{Service: "Battery", Cost: 30, Status: "weird"},
			},
		}},
	}

	o, err := MapOrder("doc1", doc, importTime)
	require.NoError(t, err)

	assert.Equal(t, DocID(CollectionOrders, "doc1"), o.ID)
	assert.Equal(t, "Ada", o.Customer.Name)
	assert.Equal(t, models.OrderTypeRepair, o.OrderType)
	assert.Equal(t, models.OrderStatusInProgress, o.Status)
	assert.True(t, o.Balance.Equal(decimal.RequireFromString("100.5")), o.Balance.String())
	assert.Equal(t, models.PaymentStatusPartPayment, o.PaymentStatus)
	assert.Equal(t, importTime, o.CreatedAt)

	require.Len(t, o.Items, 1)
	services := o.Items[0].Services
	require.Len(t, services, 2)
	assert.Equal(t, "doc1-0-0", services[0].ID)
	assert.Equal(t, models.ServiceStatusCompleted, services[0].Status)
	require.NotNil(t, services[0].CompletedAt)
	assert.Equal(t, models.ServiceStatusPending, services[1].Status)

	require.Len(t, o.Payments, 1)
	assert.True(t, o.Payments[0].Amount.Equal(decimal.NewFromInt(50)))
}

func TestMapOrderDerivesBalance(t *testing.T) {
	balance := 7.0
	doc := Order{
		TicketID:       "T-1002",
		TotalCost:      20,
		AmountPaid:     20,
		RefundedAmount: 5,
		Balance:        &balance,
		PaymentStatus:  "part payment",
		Status:         "Collected",
		Items: []Item{{
			Type:      "product",
			ProductID: "inv-9",
			Name:      "Case",
			Qty:       2,
			Price:     10,
		}},
	}

	o, err := MapOrder("doc2", doc, importTime)
	require.NoError(t, err)

	assert.Equal(t, models.OrderTypeStoreSale, o.OrderType)
	assert.True(t, o.Balance.IsZero(), o.Balance.String())
	assert.True(t, o.Balance.Equal(o.TotalCost.Sub(o.AmountPaid)))
	assert.Equal(t, models.PaymentStatusPaid, o.PaymentStatus)
	require.NotNil(t, o.CollectedAt)

	item := o.Items[0]
	require.NotNil(t, item.ProductID)
	assert.Equal(t, DocID(CollectionInventory, "inv-9"), *item.ProductID)
	assert.True(t, item.Total.Equal(decimal.NewFromInt(20)))

	require.Len(t, o.Payments, 2)
	assert.Equal(t, models.PaymentKindPayment, o.Payments[0].Kind)
	assert.True(t, o.Payments[0].Amount.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, models.PaymentKindRefund, o.Payments[1].Kind)
}

func TestMapOrderRejectsUnknownValues(t *testing.T) {
	_, err := MapOrder("x", Order{Status: "Shipped"}, importTime)
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = MapOrder("y", Order{Items: []Item{{Type: "gift card"}}}, importTime)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestMapOrderWarrantyParent(t *testing.T) {
	o, err := MapOrder("w1", Order{OrderType: "warranty", WarrantyOf: "doc1"}, importTime)
	require.NoError(t, err)
	require.NotNil(t, o.WarrantyOf)
	assert.Equal(t, DocID(CollectionOrders, "doc1"), *o.WarrantyOf)
}

func TestMapProduct(t *testing.T) {
	p, err := MapProduct("inv-1", InventoryItem{Name: "Screen", Type: "iphone", Price: 19.999, Stock: -3}, importTime)
	require.NoError(t, err)
	assert.Equal(t, models.ProductTypeIPhone, p.Type)
	assert.Equal(t, 0, p.Stock)
	assert.Equal(t, "20", p.Price.String())

	_, err = MapProduct("inv-2", InventoryItem{Name: "Band", Type: "android"}, importTime)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestMapUserHasNoPassword(t *testing.T) {
	u, err := MapUser("uid1", User{Name: "Bola", Email: " Bola@Shop.com ", Role: "Worker", BaseSalary: 300}, importTime)
	require.NoError(t, err)
	assert.Equal(t, "bola@shop.com", u.Email)
	assert.Equal(t, models.RoleWorker, u.Role)
	assert.Equal(t, models.UserStatusActive, u.Status)
	assert.Empty(t, u.PasswordHash)

	u, err = MapUser("uid2", User{Email: "x@y.z", Role: "manager", Status: "Suspended"}, importTime)
	require.NoError(t, err)
	assert.Equal(t, models.RolePending, u.Role)
	assert.False(t, u.IsActive())

	_, err = MapUser("uid3", User{Email: "nobody"}, importTime)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestMapServicePrice(t *testing.T) {
	p, err := MapServicePrice("s1", ServicePrice{Model: " iPhone 12 ", Service: "Screen", Price: 99}, importTime)
	require.NoError(t, err)
	assert.Equal(t, "iPhone 12", p.Model)

	_, err = MapServicePrice("s2", ServicePrice{Model: "iPhone 12"}, importTime)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}
