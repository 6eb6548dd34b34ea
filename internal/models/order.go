package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderTypeRepair    OrderType = "repair"
	OrderTypeStoreSale OrderType = "store_sale"
	OrderTypeWarranty  OrderType = "warranty"
	OrderTypeReturn    OrderType = "return"
)

func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeRepair, OrderTypeStoreSale, OrderTypeWarranty, OrderTypeReturn:
		return true
	}
	return false
}

// OrderStatus is the lifecycle state of a ticket.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "Pending"
	OrderStatusInProgress     OrderStatus = "In Progress"
	OrderStatusReadyForPickup OrderStatus = "Ready for Pickup"
	OrderStatusCompleted      OrderStatus = "Completed"
	OrderStatusCollected      OrderStatus = "Collected"
	OrderStatusVoid           OrderStatus = "Void"
)

// ServiceStatus is the lifecycle state of one repair task.
type ServiceStatus string

const (
	ServiceStatusPending    ServiceStatus = "Pending"
	ServiceStatusInProgress ServiceStatus = "In Progress"
	ServiceStatusCompleted  ServiceStatus = "Completed"
	ServiceStatusVoid       ServiceStatus = "Void"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid      PaymentStatus = "Unpaid"
	PaymentStatusPartPayment PaymentStatus = "Part Payment"
	PaymentStatusPaid        PaymentStatus = "Paid"
	PaymentStatusRefunded    PaymentStatus = "Refunded"
	PaymentStatusVoided      PaymentStatus = "Voided"
)

type ItemType string

const (
	ItemTypeRepair    ItemType = "repair"
	ItemTypeProduct   ItemType = "product"
	ItemTypePartUsage ItemType = "part_usage"
)

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodPOS      PaymentMethod = "pos"
	PaymentMethodRazorpay PaymentMethod = "razorpay"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodPOS, PaymentMethodRazorpay:
		return true
	}
	return false
}

type PaymentKind string

const (
	PaymentKindPayment PaymentKind = "payment"
	PaymentKindRefund  PaymentKind = "refund"
)

type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// Order is a repair or sale ticket. Items are stored as a JSONB document.
type Order struct {
	ID             uuid.UUID       `json:"id"`
	TicketID       string          `json:"ticket_id"`
	Customer       Customer        `json:"customer"`
	OrderType      OrderType       `json:"order_type"`
	Items          []OrderItem     `json:"items"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	Balance        decimal.Decimal `json:"balance"` // negative means overpaid
	RefundedAmount decimal.Decimal `json:"refunded_amount"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	Status         OrderStatus     `json:"status"`
	Payments       []Payment       `json:"payments"`
	WarrantyOf     *uuid.UUID      `json:"warranty_of,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	CreatedBy      *uuid.UUID      `json:"created_by,omitempty"`
	CreatedByName  string          `json:"created_by_name,omitempty"`
	CollectedAt    *time.Time      `json:"collected_at,omitempty"`
	Version        int             `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// OrderItem is one line of a ticket. Type selects which group of fields is used.
type OrderItem struct {
	ID   string   `json:"id"`
	Type ItemType `json:"type"`

	// repair
	Model     string        `json:"model,omitempty"`
	IMEI      string        `json:"imei,omitempty"`
	Passcode  string        `json:"passcode,omitempty"`
	Condition string        `json:"condition,omitempty"`
	Services  []ServiceLine `json:"services,omitempty"`

	// product
	ProductID  *uuid.UUID      `json:"product_id,omitempty"`
	Name       string          `json:"name,omitempty"`
	Qty        int             `json:"qty,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Total      decimal.Decimal `json:"total"`
	Returned   bool            `json:"returned,omitempty"`
	ReturnedAt *time.Time      `json:"returned_at,omitempty"`

	// part_usage
	PartID   *uuid.UUID `json:"part_id,omitempty"`
	Worker   string     `json:"worker,omitempty"`
	Voided   bool       `json:"voided,omitempty"`
	VoidedAt *time.Time `json:"voided_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ServiceLine is a technician-assignable repair task inside a device item.
type ServiceLine struct {
	ID          string          `json:"id"`
	Service     string          `json:"service"`
	Cost        decimal.Decimal `json:"cost"`
	Worker      string          `json:"worker,omitempty"`
	Status      ServiceStatus   `json:"status"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	VoidedAt    *time.Time      `json:"voided_at,omitempty"`
}

type Payment struct {
	ID         string          `json:"id"`
	Kind       PaymentKind     `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	Method     PaymentMethod   `json:"method,omitempty"`
	Reference  string          `json:"reference,omitempty"`
	Note       string          `json:"note,omitempty"`
	RecordedBy string          `json:"recorded_by,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// FindItem returns a pointer into o.Items, or nil.
func (o *Order) FindItem(id string) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i]
		}
	}
	return nil
}

// FindService returns a pointer into the item's services, or nil.
func (it *OrderItem) FindService(id string) *ServiceLine {
	for i := range it.Services {
		if it.Services[i].ID == id {
			return &it.Services[i]
		}
	}
	return nil
}

// ============================================
// Requests
// ============================================

type ServiceRequest struct {
	Service string           `json:"service"`
	Cost    *decimal.Decimal `json:"cost,omitempty"` // looked up in the price list when nil
	Worker  string           `json:"worker,omitempty"`
}

type DeviceRequest struct {
	Model     string           `json:"model"`
	IMEI      string           `json:"imei"`
	Passcode  string           `json:"passcode"`
	Condition string           `json:"condition"`
	Services  []ServiceRequest `json:"services"`
}

type ProductLineRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Qty       int       `json:"qty"`
}

type PaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Reference string          `json:"reference,omitempty"`
	Note      string          `json:"note,omitempty"`
	Version   *int            `json:"version,omitempty"`
}

// CheckoutRequest creates a ticket at the counter.
type CheckoutRequest struct {
	Customer  Customer             `json:"customer"`
	OrderType OrderType            `json:"order_type"`
	Devices   []DeviceRequest      `json:"devices"`
	Products  []ProductLineRequest `json:"products"`
	Deposit   *PaymentRequest      `json:"deposit,omitempty"`
	Notes     string               `json:"notes,omitempty"`
}

type WarrantyRequest struct {
	Devices []DeviceRequest `json:"devices"`
	Notes   string          `json:"notes,omitempty"`
}

type StatusRequest struct {
	Status  OrderStatus `json:"status"`
	Version *int        `json:"version,omitempty"`
}

type ServiceStatusRequest struct {
	Status  ServiceStatus `json:"status"`
	Version *int          `json:"version,omitempty"`
}

type AssignRequest struct {
	Worker  string `json:"worker"`
	Version *int   `json:"version,omitempty"`
}

type AddServiceRequest struct {
	ServiceRequest
	Version *int `json:"version,omitempty"`
}

type ReturnRequest struct {
	Qty     int  `json:"qty"`
	Version *int `json:"version,omitempty"`
}

type RefundRequest struct {
	Amount  *decimal.Decimal `json:"amount,omitempty"` // defaults to the overpayment
	Method  PaymentMethod    `json:"method,omitempty"`
	Note    string           `json:"note,omitempty"`
	Version *int             `json:"version,omitempty"`
}

type PartUsageRequest struct {
	PartID  uuid.UUID `json:"part_id"`
	Worker  string    `json:"worker"`
	Version *int      `json:"version,omitempty"`
}

type VersionRequest struct {
	Version *int `json:"version,omitempty"`
}

// OrderFilter narrows order listings. Zero values match everything.
type OrderFilter struct {
	Status    OrderStatus
	OrderType OrderType
	Worker    string
	Phone     string
	Search    string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

type OrderPage struct {
	Orders   []*Order `json:"orders"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}
