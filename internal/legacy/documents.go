// Package legacy maps documents exported from the old Firestore collections
// onto the relational models.
package legacy

import "time"

// Collection names in the legacy project.
const (
	CollectionOrders    = "Orders"
	CollectionInventory = "Inventory"
	CollectionUsers     = "Users"
	CollectionServices  = "Services"
)

type Customer struct {
	Name  string `firestore:"name"`
	Phone string `firestore:"phone"`
	Email string `firestore:"email"`
}

type Service struct {
	ID          string     `firestore:"id"`
	Service     string     `firestore:"service"`
	Cost        float64    `firestore:"cost"`
	Worker      string     `firestore:"worker"`
	Status      string     `firestore:"status"`
	CompletedAt *time.Time `firestore:"completedAt"`
}

// Item is a repair device, a product line or a part usage depending on Type.
type Item struct {
	ID        string    `firestore:"id"`
	Type      string    `firestore:"type"`
	Model     string    `firestore:"model"`
	IMEI      string    `firestore:"imei"`
	Passcode  string    `firestore:"passcode"`
	Condition string    `firestore:"condition"`
	Services  []Service `firestore:"services"`
	ProductID string    `firestore:"productId"`
	Name      string    `firestore:"name"`
	Qty       int       `firestore:"qty"`
	Price     float64   `firestore:"price"`
	Total     float64   `firestore:"total"`
	Returned  bool      `firestore:"returned"`
	PartID    string    `firestore:"partId"`
	Worker    string    `firestore:"worker"`
	Voided    bool      `firestore:"voided"`
}

type Order struct {
	TicketID       string    `firestore:"ticketId"`
	Customer       Customer  `firestore:"customer"`
	OrderType      string    `firestore:"orderType"`
	Items          []Item    `firestore:"items"`
	TotalCost      float64   `firestore:"totalCost"`
	AmountPaid     float64   `firestore:"amountPaid"`
	Balance        *float64  `firestore:"balance"`
	RefundedAmount float64   `firestore:"refundedAmount"`
	PaymentStatus  string    `firestore:"paymentStatus"`
	Status         string    `firestore:"status"`
	WarrantyOf     string    `firestore:"warrantyOf"`
	Notes          string    `firestore:"notes"`
	CreatedAt      time.Time `firestore:"createdAt"`
}

type InventoryItem struct {
	Name     string  `firestore:"name"`
	Category string  `firestore:"category"`
	Model    string  `firestore:"model"`
	Color    string  `firestore:"color"`
	Price    float64 `firestore:"price"`
	Stock    int     `firestore:"stock"`
	Type     string  `firestore:"type"`
}

type User struct {
	Name          string  `firestore:"name"`
	Email         string  `firestore:"email"`
	Role          string  `firestore:"role"`
	Status        string  `firestore:"status"`
	IsTechnician  bool    `firestore:"isTechnician"`
	IsAdminAccess bool    `firestore:"isAdminAccess"`
	BaseSalary    float64 `firestore:"baseSalary"`
	FixedPerJob   float64 `firestore:"fixedPerJob"`
	EmailVerified bool    `firestore:"emailVerified"`
}

type ServicePrice struct {
	Model   string  `firestore:"model"`
	Service string  `firestore:"service"`
	Price   float64 `firestore:"price"`
}
