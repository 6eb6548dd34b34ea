// Package reports aggregates orders into the performance, debt, worker and
// job-history views, plus the per-role dashboards.
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

// Range is a half-open time interval. Zero bounds are open.
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r Range) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To) {
		return false
	}
	return true
}

type NamedTotal struct {
	Name  string          `json:"name"`
	Count int             `json:"count"`
	Value decimal.Decimal `json:"value"`
}

type DailyPoint struct {
	Date      string          `json:"date"`
	Orders    int             `json:"orders"`
	Sales     decimal.Decimal `json:"sales"`
	Collected decimal.Decimal `json:"collected"`
}

type Performance struct {
	Range          Range                      `json:"range"`
	OrderCount     int                        `json:"order_count"`
	ByStatus       map[models.OrderStatus]int `json:"by_status"`
	ByType         map[models.OrderType]int   `json:"by_type"`
	SalesValue     decimal.Decimal            `json:"sales_value"`
	ServiceRevenue decimal.Decimal            `json:"service_revenue"`
	ProductRevenue decimal.Decimal            `json:"product_revenue"`
	Collected      decimal.Decimal            `json:"collected"`
	Refunded       decimal.Decimal            `json:"refunded"`
	NetRevenue     decimal.Decimal            `json:"net_revenue"`
	Outstanding    decimal.Decimal            `json:"outstanding"`
	UnitsSold      int                        `json:"units_sold"`
	TopServices    []NamedTotal               `json:"top_services"`
	TopProducts    []NamedTotal               `json:"top_products"`
	Daily          []DailyPoint               `json:"daily"`
}

// BuildPerformance summarises orders created in r. Cash movement is counted
// by when the payment was recorded, so a payment taken today on last week's
// ticket shows up today.
func BuildPerformance(orders []*models.Order, r Range) Performance {
	p := Performance{
		Range:          r,
		ByStatus:       map[models.OrderStatus]int{},
		ByType:         map[models.OrderType]int{},
		SalesValue:     decimal.Zero,
		ServiceRevenue: decimal.Zero,
		ProductRevenue: decimal.Zero,
		Collected:      decimal.Zero,
		Refunded:       decimal.Zero,
		Outstanding:    decimal.Zero,
	}
	services := map[string]*NamedTotal{}
	products := map[string]*NamedTotal{}
	daily := map[string]*DailyPoint{}
	day := func(t time.Time) *DailyPoint {
		key := timeutil.StartOfDay(t).Format(timeutil.DateLayout)
		d, ok := daily[key]
		if !ok {
			d = &DailyPoint{Date: key, Sales: decimal.Zero, Collected: decimal.Zero}
			daily[key] = d
		}
		return d
	}

	for _, o := range orders {
		for _, pay := range o.Payments {
			if !r.Contains(pay.RecordedAt) {
				continue
			}
			switch pay.Kind {
			case models.PaymentKindPayment:
				p.Collected = p.Collected.Add(pay.Amount)
				d := day(pay.RecordedAt)
				d.Collected = d.Collected.Add(pay.Amount)
			case models.PaymentKindRefund:
				p.Refunded = p.Refunded.Add(pay.Amount)
			}
		}

		if !r.Contains(o.CreatedAt) {
			continue
		}
		p.OrderCount++
		p.ByStatus[o.Status]++
		p.ByType[o.OrderType]++
		d := day(o.CreatedAt)
		d.Orders++
		if o.Status == models.OrderStatusVoid {
			continue
		}
		p.SalesValue = p.SalesValue.Add(o.TotalCost)
		d.Sales = d.Sales.Add(o.TotalCost)
		if o.Balance.IsPositive() {
			p.Outstanding = p.Outstanding.Add(o.Balance)
		}
		for _, it := range o.Items {
			switch it.Type {
			case models.ItemTypeRepair:
				for _, s := range it.Services {
					if s.Status == models.ServiceStatusVoid {
						continue
					}
					p.ServiceRevenue = p.ServiceRevenue.Add(s.Cost)
					addNamed(services, s.Service, 1, s.Cost)
				}
			case models.ItemTypeProduct:
				if it.Returned {
					continue
				}
				p.ProductRevenue = p.ProductRevenue.Add(it.Total)
				p.UnitsSold += it.Qty
				addNamed(products, it.Name, it.Qty, it.Total)
			}
		}
	}

	p.NetRevenue = p.Collected.Sub(p.Refunded)
	p.TopServices = topN(services, 10)
	p.TopProducts = topN(products, 10)
	p.Daily = make([]DailyPoint, 0, len(daily))
	for _, d := range daily {
		p.Daily = append(p.Daily, *d)
	}
	sort.Slice(p.Daily, func(i, j int) bool { return p.Daily[i].Date < p.Daily[j].Date })
	return p
}

func addNamed(m map[string]*NamedTotal, name string, count int, value decimal.Decimal) {
	if name == "" {
		name = "(unnamed)"
	}
	n, ok := m[name]
	if !ok {
		n = &NamedTotal{Name: name, Value: decimal.Zero}
		m[name] = n
	}
	n.Count += count
	n.Value = n.Value.Add(value)
}

func topN(m map[string]*NamedTotal, n int) []NamedTotal {
	out := make([]NamedTotal, 0, len(m))
	for _, v := range m {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Value.Equal(out[j].Value) {
			return out[i].Value.GreaterThan(out[j].Value)
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// ============================================
// Debt
// ============================================

type DebtLine struct {
	OrderID    uuid.UUID          `json:"order_id"`
	TicketID   string             `json:"ticket_id"`
	Customer   models.Customer    `json:"customer"`
	Status     models.OrderStatus `json:"status"`
	TotalCost  decimal.Decimal    `json:"total_cost"`
	AmountPaid decimal.Decimal    `json:"amount_paid"`
	Balance    decimal.Decimal    `json:"balance"`
	CreatedAt  time.Time          `json:"created_at"`
	AgeDays    int                `json:"age_days"`
}

type DebtReport struct {
	Debtors          []DebtLine      `json:"debtors"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	Creditors        []DebtLine      `json:"creditors"` // overpaid tickets awaiting refund
	TotalCredit      decimal.Decimal `json:"total_credit"`
}

// BuildDebt lists tickets that owe money or are owed money, oldest first.
func BuildDebt(orders []*models.Order, now time.Time) DebtReport {
	rep := DebtReport{
		Debtors:          []DebtLine{},
		Creditors:        []DebtLine{},
		TotalOutstanding: decimal.Zero,
		TotalCredit:      decimal.Zero,
	}
	for _, o := range orders {
		if o.Status == models.OrderStatusVoid || o.Balance.IsZero() {
			continue
		}
		line := DebtLine{
			OrderID:    o.ID,
			TicketID:   o.TicketID,
			Customer:   o.Customer,
			Status:     o.Status,
			TotalCost:  o.TotalCost,
			AmountPaid: o.AmountPaid,
			Balance:    o.Balance,
			CreatedAt:  o.CreatedAt,
			AgeDays:    int(now.Sub(o.CreatedAt).Hours() / 24),
		}
		if o.Balance.IsPositive() {
			rep.Debtors = append(rep.Debtors, line)
			rep.TotalOutstanding = rep.TotalOutstanding.Add(o.Balance)
		} else {
			rep.Creditors = append(rep.Creditors, line)
			rep.TotalCredit = rep.TotalCredit.Add(o.Balance.Neg())
		}
	}
	byAge := func(l []DebtLine) {
		sort.SliceStable(l, func(i, j int) bool { return l[i].CreatedAt.Before(l[j].CreatedAt) })
	}
	byAge(rep.Debtors)
	byAge(rep.Creditors)
	return rep
}

// ============================================
// Worker stats
// ============================================

type WorkerStat struct {
	Worker         string          `json:"worker"`
	Pending        int             `json:"pending"`
	InProgress     int             `json:"in_progress"`
	Completed      int             `json:"completed"`
	Voided         int             `json:"voided"`
	CompletedValue decimal.Decimal `json:"completed_value"`
}

// BuildWorkerStats counts service lines per assigned technician. Completed
// work is bucketed by completion time; open work is always counted. Names in
// roster get a row even with no work.
func BuildWorkerStats(orders []*models.Order, r Range, roster []string) []WorkerStat {
	stats := map[string]*WorkerStat{}
	get := func(name string) *WorkerStat {
		key := strings.ToLower(strings.TrimSpace(name))
		s, ok := stats[key]
		if !ok {
			s = &WorkerStat{Worker: strings.TrimSpace(name), CompletedValue: decimal.Zero}
			stats[key] = s
		}
		return s
	}
	for _, name := range roster {
		get(name)
	}
	for _, o := range orders {
		for _, it := range o.Items {
			if it.Type != models.ItemTypeRepair {
				continue
			}
			for _, s := range it.Services {
				if strings.TrimSpace(s.Worker) == "" {
					continue
				}
				switch s.Status {
				case models.ServiceStatusPending:
					if o.Status != models.OrderStatusVoid {
						get(s.Worker).Pending++
					}
				case models.ServiceStatusInProgress:
					if o.Status != models.OrderStatusVoid {
						get(s.Worker).InProgress++
					}
				case models.ServiceStatusCompleted:
					done := o.CreatedAt
					if s.CompletedAt != nil {
						done = *s.CompletedAt
					}
					if o.Status != models.OrderStatusVoid && r.Contains(done) {
						w := get(s.Worker)
						w.Completed++
						w.CompletedValue = w.CompletedValue.Add(s.Cost)
					}
				case models.ServiceStatusVoid:
					if s.VoidedAt == nil || r.Contains(*s.VoidedAt) {
						get(s.Worker).Voided++
					}
				}
			}
		}
	}
	out := make([]WorkerStat, 0, len(stats))
	for _, s := range stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Completed != out[j].Completed {
			return out[i].Completed > out[j].Completed
		}
		return out[i].Worker < out[j].Worker
	})
	return out
}

// ============================================
// Job history
// ============================================

type JobFilter struct {
	Worker   string
	Status   models.ServiceStatus
	Search   string
	Range    Range
	Page     int
	PageSize int
}

type JobEntry struct {
	OrderID     uuid.UUID            `json:"order_id"`
	TicketID    string               `json:"ticket_id"`
	Customer    string               `json:"customer"`
	OrderStatus models.OrderStatus   `json:"order_status"`
	ItemID      string               `json:"item_id"`
	Model       string               `json:"model"`
	ServiceID   string               `json:"service_id"`
	Service     string               `json:"service"`
	Cost        decimal.Decimal      `json:"cost"`
	Worker      string               `json:"worker"`
	Status      models.ServiceStatus `json:"status"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

type JobPage struct {
	Jobs     []JobEntry `json:"jobs"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// FlattenJobs turns every service line into a job entry, newest ticket first.
func FlattenJobs(orders []*models.Order) []JobEntry {
	var jobs []JobEntry
	for _, o := range orders {
		for _, it := range o.Items {
			if it.Type != models.ItemTypeRepair {
				continue
			}
			for _, s := range it.Services {
				jobs = append(jobs, JobEntry{
					OrderID:     o.ID,
					TicketID:    o.TicketID,
					Customer:    o.Customer.Name,
					OrderStatus: o.Status,
					ItemID:      it.ID,
					Model:       it.Model,
					ServiceID:   s.ID,
					Service:     s.Service,
					Cost:        s.Cost,
					Worker:      s.Worker,
					Status:      s.Status,
					CompletedAt: s.CompletedAt,
					CreatedAt:   o.CreatedAt,
				})
			}
		}
	}
	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	return jobs
}

// JobHistory filters all service lines, then paginates the result.
func JobHistory(orders []*models.Order, f JobFilter) JobPage {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var matched []JobEntry
	for _, j := range FlattenJobs(orders) {
		if f.Worker != "" && !strings.EqualFold(strings.TrimSpace(j.Worker), strings.TrimSpace(f.Worker)) {
			continue
		}
		if f.Status != "" && j.Status != f.Status {
			continue
		}
		if !f.Range.Contains(j.CreatedAt) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(j.TicketID), search) &&
			!strings.Contains(strings.ToLower(j.Customer), search) &&
			!strings.Contains(strings.ToLower(j.Model), search) &&
			!strings.Contains(strings.ToLower(j.Service), search) {
			continue
		}
		matched = append(matched, j)
	}
	page, size := NormalizePage(f.Page, f.PageSize)
	start, end := Bounds(len(matched), page, size)
	out := JobPage{Jobs: []JobEntry{}, Total: len(matched), Page: page, PageSize: size}
	if start < end {
		out.Jobs = matched[start:end]
	}
	return out
}

// NormalizePage clamps page (1-based) and size (1..200, default 25).
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 25
	}
	if size > 200 {
		size = 200
	}
	return page, size
}

// Bounds returns the slice bounds of a page within total items.
func Bounds(total, page, size int) (int, int) {
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return start, end
}
