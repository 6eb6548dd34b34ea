package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairshop-backend/internal/cache"
	"repairshop-backend/internal/models"
	"repairshop-backend/internal/reports"
	"repairshop-backend/internal/storage"
)

func newReportFixture(t *testing.T, store storage.Store) (*ReportService, *memOrders) {
	t.Helper()
	ctx := context.Background()
	cache.InvalidateOrderCaches(ctx)
	cache.InvalidateUserCaches(ctx)

	products := newMemProducts(models.Product{ID: uuid.New(), Name: "Case", Type: models.ProductTypeIPhone, Price: dec(100), Stock: 1})
	orders := newMemOrders(products)
	users := newMemUsers(newMemInvites())
	require.NoError(t, users.Create(ctx, &models.User{Name: "Kemi", Email: "kemi@shop.test", IsTechnician: true}))

	now := time.Now()
	o := completedRepair("Tunde", now.Add(-time.Hour), now.Add(-30*time.Minute))
	o.TotalCost, o.AmountPaid, o.Balance = dec(1500), dec(500), dec(1000)
	o.Customer = models.Customer{Name: "Jide", Phone: "0801"}
	orders.put(o)
	return NewReportService(orders, products, users, store, 3), orders
}

func TestReportsAreCachedUntilInvalidated(t *testing.T) {
	svc, orders := newReportFixture(t, nil)
	ctx := context.Background()

	debt, err := svc.Debt(ctx)
	require.NoError(t, err)
	require.Len(t, debt.Debtors, 1)

	extra := completedRepair("Bola", time.Now(), time.Now())
	extra.TotalCost, extra.Balance = dec(800), dec(800)
	orders.put(extra)

	debt, err = svc.Debt(ctx)
	require.NoError(t, err)
	assert.Len(t, debt.Debtors, 1, "served from cache")

	cache.InvalidateOrderCaches(ctx)
	debt, err = svc.Debt(ctx)
	require.NoError(t, err)
	assert.Len(t, debt.Debtors, 2)
}

func TestWorkerStatsIncludeRoster(t *testing.T) {
	svc, _ := newReportFixture(t, nil)
	stats, err := svc.WorkerStats(context.Background(), reports.Range{})
	require.NoError(t, err)

	names := map[string]bool{}
	for _, s := range stats {
		names[s.Worker] = true
	}
	assert.True(t, names["Kemi"])
	assert.True(t, names["Tunde"])
}

func TestDashboards(t *testing.T) {
	svc, _ := newReportFixture(t, nil)
	ctx := context.Background()

	admin, err := svc.AdminDashboard(ctx)
	require.NoError(t, err)
	assert.Len(t, admin.LowStock, 1)
	assert.True(t, admin.Outstanding.Equal(dec(1000)))

	w, err := svc.WorkerDashboard(ctx, "tunde")
	require.NoError(t, err)
	assert.Equal(t, 2, w.CompletedThisWeek)

	sec, err := svc.SecretaryDashboard(ctx)
	require.NoError(t, err)
	assert.Len(t, sec.Unpaid, 1)
}

func TestExportKinds(t *testing.T) {
	svc, _ := newReportFixture(t, nil)
	ctx := context.Background()

	for _, kind := range []string{ExportOrders, ExportInventory, ExportPerformance} {
		data, err := svc.Export(ctx, kind, reports.Range{})
		require.NoError(t, err, kind)
		assert.Equal(t, "PK", string(data[:2]), kind)
	}
	_, err := svc.Export(ctx, "ledger", reports.Range{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestArchive(t *testing.T) {
	svc, _ := newReportFixture(t, nil)
	_, err := svc.Archive(context.Background(), ExportOrders, reports.Range{})
	assert.ErrorIs(t, err, storage.ErrDisabled)

	store := newMemStore()
	svc.Storage = store
	arch, err := svc.Archive(context.Background(), ExportOrders, reports.Range{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.count())
	assert.Contains(t, arch.URL, arch.Key)
	assert.True(t, arch.ExpiresAt.After(time.Now()))
}
