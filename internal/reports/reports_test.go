package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairshop-backend/internal/models"
)

var (
	day1 = time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC) // Monday
	day2 = day1.AddDate(0, 0, 1)
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func tp(t time.Time) *time.Time { return &t }

func repairOrder(ticket string, created time.Time, status models.OrderStatus, total, paid int64, services ...models.ServiceLine) *models.Order {
	o := &models.Order{
		ID:         uuid.New(),
		TicketID:   ticket,
		Customer:   models.Customer{Name: "Cust " + ticket, Phone: "080" + ticket},
		OrderType:  models.OrderTypeRepair,
		Status:     status,
		TotalCost:  d(total),
		AmountPaid: d(paid),
		Balance:    d(total - paid),
		CreatedAt:  created,
		Items: []models.OrderItem{{
			ID:       uuid.NewString(),
			Type:     models.ItemTypeRepair,
			Model:    "iPhone 13",
			Services: services,
		}},
	}
	if paid > 0 {
		o.Payments = []models.Payment{{Kind: models.PaymentKindPayment, Amount: d(paid), RecordedAt: created}}
	}
	return o
}

func svc(name, worker string, cost int64, status models.ServiceStatus, done *time.Time) models.ServiceLine {
	return models.ServiceLine{ID: uuid.NewString(), Service: name, Worker: worker, Cost: d(cost), Status: status, CompletedAt: done}
}

func fixtureOrders() []*models.Order {
	sale := &models.Order{
		ID:         uuid.New(),
		TicketID:   "S1",
		OrderType:  models.OrderTypeStoreSale,
		Status:     models.OrderStatusCompleted,
		TotalCost:  d(300),
		AmountPaid: d(500),
		Balance:    d(-200),
		CreatedAt:  day2,
		Items: []models.OrderItem{
			{ID: "p1", Type: models.ItemTypeProduct, Name: "Case", Qty: 3, Price: d(100), Total: d(300)},
			{ID: "p2", Type: models.ItemTypeProduct, Name: "Case", Qty: 1, Price: d(100), Total: d(100), Returned: true},
		},
		Payments: []models.Payment{
			{Kind: models.PaymentKindPayment, Amount: d(600), RecordedAt: day2},
			{Kind: models.PaymentKindRefund, Amount: d(100), RecordedAt: day2},
		},
	}
	return []*models.Order{
		repairOrder("R1", day1, models.OrderStatusInProgress, 1500, 500,
			svc("Screen", "Tunde", 1000, models.ServiceStatusCompleted, tp(day1.Add(2*time.Hour))),
			svc("Battery", "Tunde", 500, models.ServiceStatusInProgress, nil),
			svc("Camera", "Bola", 700, models.ServiceStatusVoid, nil),
		),
		repairOrder("R2", day2, models.OrderStatusReadyForPickup, 800, 0,
			svc("Screen", "Bola", 800, models.ServiceStatusCompleted, tp(day2.Add(time.Hour))),
		),
		repairOrder("V1", day2, models.OrderStatusVoid, 0, 0,
			svc("Screen", "Tunde", 900, models.ServiceStatusVoid, nil),
		),
		sale,
	}
}

func TestBuildPerformance(t *testing.T) {
	p := BuildPerformance(fixtureOrders(), Range{From: day1.Add(-time.Hour), To: day2.Add(24 * time.Hour)})

	assert.Equal(t, 4, p.OrderCount)
	assert.Equal(t, 1, p.ByStatus[models.OrderStatusVoid])
	assert.Equal(t, 1, p.ByType[models.OrderTypeStoreSale])
	assert.True(t, p.SalesValue.Equal(d(2600)), p.SalesValue.String())
	assert.True(t, p.ServiceRevenue.Equal(d(2300)), p.ServiceRevenue.String())
	assert.True(t, p.ProductRevenue.Equal(d(300)))
	assert.Equal(t, 3, p.UnitsSold)
	assert.True(t, p.Collected.Equal(d(1100)))
	assert.True(t, p.Refunded.Equal(d(100)))
	assert.True(t, p.NetRevenue.Equal(d(1000)))
	assert.True(t, p.Outstanding.Equal(d(1800)))

	require.NotEmpty(t, p.TopServices)
	assert.Equal(t, "Screen", p.TopServices[0].Name)
	assert.Equal(t, 2, p.TopServices[0].Count)
	require.Len(t, p.Daily, 2)
	assert.Equal(t, "2026-10-12", p.Daily[0].Date)
}

func TestBuildPerformanceRange(t *testing.T) {
	p := BuildPerformance(fixtureOrders(), Range{From: day2.Add(-time.Hour), To: day2.Add(time.Hour)})
	assert.Equal(t, 3, p.OrderCount)
	assert.True(t, p.Collected.Equal(d(600)))
}

func TestBuildDebt(t *testing.T) {
	rep := BuildDebt(fixtureOrders(), day2.AddDate(0, 0, 3))

	require.Len(t, rep.Debtors, 2)
	assert.Equal(t, "R1", rep.Debtors[0].TicketID)
	assert.Equal(t, 4, rep.Debtors[0].AgeDays)
	assert.True(t, rep.TotalOutstanding.Equal(d(1800)))

	require.Len(t, rep.Creditors, 1)
	assert.Equal(t, "S1", rep.Creditors[0].TicketID)
	assert.True(t, rep.TotalCredit.Equal(d(200)))
}

func TestBuildWorkerStats(t *testing.T) {
	stats := BuildWorkerStats(fixtureOrders(), Range{}, []string{"Kemi"})
	byName := map[string]WorkerStat{}
	for _, s := range stats {
		byName[s.Worker] = s
	}

	require.Contains(t, byName, "Kemi")
	assert.Zero(t, byName["Kemi"].Completed)

	tunde := byName["Tunde"]
	assert.Equal(t, 1, tunde.Completed)
	assert.Equal(t, 1, tunde.InProgress)
	assert.Equal(t, 1, tunde.Voided)
	assert.True(t, tunde.CompletedValue.Equal(d(1000)))

	bola := byName["Bola"]
	assert.Equal(t, 1, bola.Completed)
	assert.Equal(t, 1, bola.Voided)
}

func TestJobHistory(t *testing.T) {
	orders := fixtureOrders()

	all := JobHistory(orders, JobFilter{})
	assert.Equal(t, 5, all.Total)
	assert.Equal(t, 1, all.Page)

	tunde := JobHistory(orders, JobFilter{Worker: "tunde", Status: models.ServiceStatusCompleted})
	require.Equal(t, 1, tunde.Total)
	assert.Equal(t, "R1", tunde.Jobs[0].TicketID)

	paged := JobHistory(orders, JobFilter{Page: 2, PageSize: 4})
	assert.Equal(t, 5, paged.Total)
	assert.Len(t, paged.Jobs, 1)

	beyond := JobHistory(orders, JobFilter{Page: 9, PageSize: 4})
	assert.Empty(t, beyond.Jobs)
	assert.NotNil(t, beyond.Jobs)

	search := JobHistory(orders, JobFilter{Search: "camera"})
	assert.Equal(t, 1, search.Total)
}

func TestBounds(t *testing.T) {
	s, e := Bounds(10, 1, 4)
	assert.Equal(t, [2]int{0, 4}, [2]int{s, e})
	s, e = Bounds(10, 3, 4)
	assert.Equal(t, [2]int{8, 10}, [2]int{s, e})
	s, e = Bounds(10, 4, 4)
	assert.Equal(t, s, e)

	p, size := NormalizePage(0, 1000)
	assert.Equal(t, 1, p)
	assert.Equal(t, 200, size)
}

func TestDashboards(t *testing.T) {
	orders := fixtureOrders()
	now := day2.Add(3 * time.Hour)

	admin := BuildAdminDashboard(orders, nil, now)
	assert.Equal(t, 3, admin.TodayOrders)
	assert.Equal(t, 2, admin.OpenTickets)
	assert.True(t, admin.Outstanding.Equal(d(1800)))
	assert.NotNil(t, admin.LowStock)

	sec := BuildSecretaryDashboard(orders, now)
	require.Len(t, sec.ReadyForPickup, 1)
	assert.Equal(t, "R2", sec.ReadyForPickup[0].TicketID)
	assert.Len(t, sec.AwaitingBench, 1)
	assert.Len(t, sec.Unpaid, 2)

	w := BuildWorkerDashboard(orders, "Tunde", now)
	assert.Len(t, w.InProgress, 1)
	assert.Empty(t, w.Pending)
	assert.Equal(t, 1, w.CompletedThisWeek)
}

func TestOrdersXLSXRoundTrip(t *testing.T) {
	data, err := OrdersXLSX(fixtureOrders())
	require.NoError(t, err)

	rows, err := ReadSheet(data)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	idx := HeaderIndex(rows[0])
	assert.Equal(t, "R1", Cell(rows[1], idx["ticket"]))
	assert.Equal(t, "In Progress", Cell(rows[1], idx["status"]))
	assert.Equal(t, "1000", Cell(rows[1], idx["balance"]))
}

func TestInventoryAndPerformanceXLSX(t *testing.T) {
	data, err := InventoryXLSX([]models.Product{{Name: "Case", Type: models.ProductTypeIPhone, Price: d(100), Stock: 4}})
	require.NoError(t, err)
	rows, err := ReadSheet(data)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	n, err := CellInt(rows[1], HeaderIndex(rows[0])["stock"])
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	perf := BuildPerformance(fixtureOrders(), Range{})
	data, err = PerformanceXLSX(perf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}

func TestPDFs(t *testing.T) {
	shop := ShopInfo{Name: "Fix Shop", Phone: "0800", Currency: "NGN"}
	orders := fixtureOrders()

	receipt, err := ReceiptPDF(orders[0], shop)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(receipt, []byte("%PDF")))

	slip, err := PayslipPDF(models.PayrollStatement{
		TechnicianName: "Tunde",
		WeekStart:      day1,
		WeekEnd:        day1.AddDate(0, 0, 7),
		Jobs:           []models.PayrollJob{{TicketID: "R1", Model: "iPhone 13", Service: "Screen", CompletedAt: day1}},
		Adjustments:    []models.PayrollAdjustment{{Reason: "bonus", Amount: d(50)}},
		Total:          d(1050),
	}, shop)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(slip, []byte("%PDF")))
}
