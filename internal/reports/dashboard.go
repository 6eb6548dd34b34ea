package reports

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"repairshop-backend/internal/models"
	"repairshop-backend/internal/timeutil"
)

type TicketSummary struct {
	ID            uuid.UUID            `json:"id"`
	TicketID      string               `json:"ticket_id"`
	Customer      models.Customer      `json:"customer"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	TotalCost     decimal.Decimal      `json:"total_cost"`
	Balance       decimal.Decimal      `json:"balance"`
	CreatedAt     time.Time            `json:"created_at"`
}

func summarize(o *models.Order) TicketSummary {
	return TicketSummary{
		ID:            o.ID,
		TicketID:      o.TicketID,
		Customer:      o.Customer,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalCost:     o.TotalCost,
		Balance:       o.Balance,
		CreatedAt:     o.CreatedAt,
	}
}

type AdminDashboard struct {
	TodayOrders    int                        `json:"today_orders"`
	TodaySales     decimal.Decimal            `json:"today_sales"`
	TodayCollected decimal.Decimal            `json:"today_collected"`
	WeekCollected  decimal.Decimal            `json:"week_collected"`
	OpenTickets    int                        `json:"open_tickets"`
	StatusCounts   map[models.OrderStatus]int `json:"status_counts"`
	Outstanding    decimal.Decimal            `json:"outstanding"`
	LowStock       []models.Product           `json:"low_stock"`
	Workers        []WorkerStat               `json:"workers"`
}

// BuildAdminDashboard summarises the shop as of now.
func BuildAdminDashboard(orders []*models.Order, lowStock []models.Product, now time.Time) AdminDashboard {
	today := Range{From: timeutil.StartOfDay(now), To: timeutil.StartOfDay(now).AddDate(0, 0, 1)}
	week := Range{From: timeutil.WeekStart(now), To: timeutil.WeekStart(now).AddDate(0, 0, 7)}

	perfToday := BuildPerformance(orders, today)
	perfWeek := BuildPerformance(orders, week)
	debt := BuildDebt(orders, now)

	d := AdminDashboard{
		TodayOrders:    perfToday.OrderCount,
		TodaySales:     perfToday.SalesValue,
		TodayCollected: perfToday.Collected,
		WeekCollected:  perfWeek.Collected,
		StatusCounts:   map[models.OrderStatus]int{},
		Outstanding:    debt.TotalOutstanding,
		LowStock:       lowStock,
		Workers:        BuildWorkerStats(orders, week, nil),
	}
	if d.LowStock == nil {
		d.LowStock = []models.Product{}
	}
	for _, o := range orders {
		d.StatusCounts[o.Status]++
		if isOpen(o.Status) {
			d.OpenTickets++
		}
	}
	return d
}

func isOpen(s models.OrderStatus) bool {
	switch s {
	case models.OrderStatusPending, models.OrderStatusInProgress, models.OrderStatusReadyForPickup:
		return true
	}
	return false
}

type SecretaryDashboard struct {
	TodayOrders    int             `json:"today_orders"`
	TodayCollected decimal.Decimal `json:"today_collected"`
	ReadyForPickup []TicketSummary `json:"ready_for_pickup"`
	AwaitingBench  []TicketSummary `json:"awaiting_bench"`
	Unpaid         []TicketSummary `json:"unpaid"`
}

// BuildSecretaryDashboard is the front-desk view: what is waiting for the
// customer and what still owes money.
func BuildSecretaryDashboard(orders []*models.Order, now time.Time) SecretaryDashboard {
	today := Range{From: timeutil.StartOfDay(now), To: timeutil.StartOfDay(now).AddDate(0, 0, 1)}
	perf := BuildPerformance(orders, today)
	d := SecretaryDashboard{
		TodayOrders:    perf.OrderCount,
		TodayCollected: perf.Collected,
		ReadyForPickup: []TicketSummary{},
		AwaitingBench:  []TicketSummary{},
		Unpaid:         []TicketSummary{},
	}
	for _, o := range orders {
		switch o.Status {
		case models.OrderStatusReadyForPickup:
			d.ReadyForPickup = append(d.ReadyForPickup, summarize(o))
		case models.OrderStatusPending, models.OrderStatusInProgress:
			d.AwaitingBench = append(d.AwaitingBench, summarize(o))
		}
		if o.Status != models.OrderStatusVoid && o.Balance.IsPositive() {
			d.Unpaid = append(d.Unpaid, summarize(o))
		}
	}
	oldestFirst := func(l []TicketSummary) {
		sort.SliceStable(l, func(i, j int) bool { return l[i].CreatedAt.Before(l[j].CreatedAt) })
	}
	oldestFirst(d.ReadyForPickup)
	oldestFirst(d.AwaitingBench)
	oldestFirst(d.Unpaid)
	return d
}

type WorkerDashboard struct {
	Worker            string          `json:"worker"`
	Pending           []JobEntry      `json:"pending"`
	InProgress        []JobEntry      `json:"in_progress"`
	CompletedThisWeek int             `json:"completed_this_week"`
	WeekValue         decimal.Decimal `json:"week_value"`
}

// BuildWorkerDashboard shows a technician their own queue.
func BuildWorkerDashboard(orders []*models.Order, worker string, now time.Time) WorkerDashboard {
	week := Range{From: timeutil.WeekStart(now), To: timeutil.WeekStart(now).AddDate(0, 0, 7)}
	d := WorkerDashboard{
		Worker:     worker,
		Pending:    []JobEntry{},
		InProgress: []JobEntry{},
		WeekValue:  decimal.Zero,
	}
	for _, j := range FlattenJobs(orders) {
		if !strings.EqualFold(strings.TrimSpace(j.Worker), strings.TrimSpace(worker)) {
			continue
		}
		if j.OrderStatus == models.OrderStatusVoid {
			continue
		}
		switch j.Status {
		case models.ServiceStatusPending:
			d.Pending = append(d.Pending, j)
		case models.ServiceStatusInProgress:
			d.InProgress = append(d.InProgress, j)
		case models.ServiceStatusCompleted:
			done := j.CreatedAt
			if j.CompletedAt != nil {
				done = *j.CompletedAt
			}
			if week.Contains(done) {
				d.CompletedThisWeek++
				d.WeekValue = d.WeekValue.Add(j.Cost)
			}
		}
	}
	return d
}
