package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayrollAdjustment is a signed bonus or deduction for one technician week.
type PayrollAdjustment struct {
	ID           uuid.UUID       `json:"id"`
	TechnicianID uuid.UUID       `json:"technician_id"`
	WeekStart    time.Time       `json:"week_start"`
	Reason       string          `json:"reason"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	CreatedBy    *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type AdjustmentRequest struct {
	TechnicianID uuid.UUID       `json:"technician_id"`
	Week         string          `json:"week"` // any date inside the week, YYYY-MM-DD
	Reason       string          `json:"reason"`
	Amount       decimal.Decimal `json:"amount"`
	Date         string          `json:"date,omitempty"`
}

// PayrollJob is one completed service credited to a technician.
type PayrollJob struct {
	OrderID     uuid.UUID       `json:"order_id"`
	TicketID    string          `json:"ticket_id"`
	Model       string          `json:"model"`
	Service     string          `json:"service"`
	Cost        decimal.Decimal `json:"cost"`
	CompletedAt time.Time       `json:"completed_at"`
}

type PayrollStatus string

const (
	PayrollStatusOpen PayrollStatus = "open"
	PayrollStatusPaid PayrollStatus = "paid"
)

// PayrollStatement is a computed weekly payout.
type PayrollStatement struct {
	TechnicianID     uuid.UUID           `json:"technician_id"`
	TechnicianName   string              `json:"technician_name"`
	WeekStart        time.Time           `json:"week_start"`
	WeekEnd          time.Time           `json:"week_end"`
	BaseSalary       decimal.Decimal     `json:"base_salary"`
	FixedPerJob      decimal.Decimal     `json:"fixed_per_job"`
	JobCount         int                 `json:"job_count"`
	JobsTotal        decimal.Decimal     `json:"jobs_total"`
	AdjustmentsTotal decimal.Decimal     `json:"adjustments_total"`
	Total            decimal.Decimal     `json:"total"`
	Jobs             []PayrollJob        `json:"jobs"`
	Adjustments      []PayrollAdjustment `json:"adjustments"`
	Status           PayrollStatus       `json:"status"`
	PaidAt           *time.Time          `json:"paid_at,omitempty"`
	PaidBy           *uuid.UUID          `json:"paid_by,omitempty"`
}

// PayrollRecord freezes a statement once the week is paid.
type PayrollRecord struct {
	ID           uuid.UUID        `json:"id"`
	TechnicianID uuid.UUID        `json:"technician_id"`
	WeekStart    time.Time        `json:"week_start"`
	Total        decimal.Decimal  `json:"total"`
	Snapshot     PayrollStatement `json:"snapshot"`
	PaidBy       *uuid.UUID       `json:"paid_by,omitempty"`
	PaidAt       time.Time        `json:"paid_at"`
}
