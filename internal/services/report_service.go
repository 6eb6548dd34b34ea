package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"repairshop-backend/internal/cache"
	"repairshop-backend/internal/models"
	"repairshop-backend/internal/reports"
	"repairshop-backend/internal/storage"
	"repairshop-backend/internal/timeutil"
)

const (
	reportTTL    = 5 * time.Minute
	dashboardTTL = time.Minute
	exportURLTTL = 24 * time.Hour
)

// Export kinds.
const (
	ExportOrders      = "orders"
	ExportInventory   = "inventory"
	ExportPerformance = "performance"
)

// ExportArchive points at an export stored in object storage.
type ExportArchive struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ReportService serves the aggregate views. Results are cached and dropped
// on every order or inventory write.
type ReportService struct {
	Orders            OrderStore
	Products          ProductStore
	Users             UserStore
	Storage           storage.Store
	LowStockThreshold int
}

func NewReportService(orders OrderStore, products ProductStore, users UserStore, store storage.Store, lowStockThreshold int) *ReportService {
	return &ReportService{Orders: orders, Products: products, Users: users, Storage: store, LowStockThreshold: lowStockThreshold}
}

func rangeKey(r reports.Range) string {
	key := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format(time.RFC3339)
	}
	return key(r.From) + ":" + key(r.To)
}

// cached returns the value stored under key, or builds and stores it.
func cached[T any](ctx context.Context, key string, ttl time.Duration, build func() (T, error)) (T, error) {
	var v T
	if cache.GetJSON(ctx, key, &v) {
		return v, nil
	}
	v, err := build()
	if err != nil {
		return v, err
	}
	cache.SetJSON(ctx, key, v, ttl)
	return v, nil
}

func (s *ReportService) allOrders(ctx context.Context) ([]*models.Order, error) {
	return s.Orders.ListBetween(ctx, time.Time{}, time.Time{})
}

func (s *ReportService) Performance(ctx context.Context, r reports.Range) (reports.Performance, error) {
	return cached(ctx, cache.ReportsPrefix+"performance:"+rangeKey(r), reportTTL, func() (reports.Performance, error) {
		orders, err := s.allOrders(ctx)
		if err != nil {
			return reports.Performance{}, err
		}
		return reports.BuildPerformance(orders, r), nil
	})
}

func (s *ReportService) Debt(ctx context.Context) (reports.DebtReport, error) {
	return cached(ctx, cache.ReportsPrefix+"debt", reportTTL, func() (reports.DebtReport, error) {
		orders, err := s.allOrders(ctx)
		if err != nil {
			return reports.DebtReport{}, err
		}
		return reports.BuildDebt(orders, timeutil.Now()), nil
	})
}

func (s *ReportService) roster(ctx context.Context) ([]string, error) {
	techs, err := s.Users.ListTechnicians(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(techs))
	for _, t := range techs {
		names = append(names, t.Name)
	}
	return names, nil
}

func (s *ReportService) WorkerStats(ctx context.Context, r reports.Range) ([]reports.WorkerStat, error) {
	return cached(ctx, cache.ReportsPrefix+"workers:"+rangeKey(r), reportTTL, func() ([]reports.WorkerStat, error) {
		orders, err := s.allOrders(ctx)
		if err != nil {
			return nil, err
		}
		names, err := s.roster(ctx)
		if err != nil {
			return nil, err
		}
		return reports.BuildWorkerStats(orders, r, names), nil
	})
}

func (s *ReportService) JobHistory(ctx context.Context, f reports.JobFilter) (reports.JobPage, error) {
	orders, err := s.allOrders(ctx)
	if err != nil {
		return reports.JobPage{}, err
	}
	return reports.JobHistory(orders, f), nil
}

func (s *ReportService) AdminDashboard(ctx context.Context) (reports.AdminDashboard, error) {
	return cached(ctx, cache.DashboardPrefix+"admin", dashboardTTL, func() (reports.AdminDashboard, error) {
		orders, err := s.allOrders(ctx)
		if err != nil {
			return reports.AdminDashboard{}, err
		}
		low, err := s.Products.List(ctx, models.ProductFilter{LowStock: true}, s.LowStockThreshold)
		if err != nil {
			return reports.AdminDashboard{}, err
		}
		return reports.BuildAdminDashboard(orders, low, timeutil.Now()), nil
	})
}

func (s *ReportService) SecretaryDashboard(ctx context.Context) (reports.SecretaryDashboard, error) {
	return cached(ctx, cache.DashboardPrefix+"secretary", dashboardTTL, func() (reports.SecretaryDashboard, error) {
		orders, err := s.allOrders(ctx)
		if err != nil {
			return reports.SecretaryDashboard{}, err
		}
		return reports.BuildSecretaryDashboard(orders, timeutil.Now()), nil
	})
}

func (s *ReportService) WorkerDashboard(ctx context.Context, worker string) (reports.WorkerDashboard, error) {
	key := cache.DashboardPrefix + "worker:" + strings.ToLower(strings.TrimSpace(worker))
	return cached(ctx, key, dashboardTTL, func() (reports.WorkerDashboard, error) {
		orders, err := s.allOrders(ctx)
		if err != nil {
			return reports.WorkerDashboard{}, err
		}
		return reports.BuildWorkerDashboard(orders, worker, timeutil.Now()), nil
	})
}

// Export renders one of the spreadsheet exports. The order export covers
// tickets created in r.
func (s *ReportService) Export(ctx context.Context, kind string, r reports.Range) ([]byte, error) {
	switch kind {
	case ExportOrders:
		orders, err := s.Orders.ListBetween(ctx, r.From, r.To)
		if err != nil {
			return nil, err
		}
		return reports.OrdersXLSX(orders)
	case ExportInventory:
		products, err := s.Products.List(ctx, models.ProductFilter{}, s.LowStockThreshold)
		if err != nil {
			return nil, err
		}
		return reports.InventoryXLSX(products)
	case ExportPerformance:
		perf, err := s.Performance(ctx, r)
		if err != nil {
			return nil, err
		}
		return reports.PerformanceXLSX(perf)
	}
	return nil, fmt.Errorf("%w: unknown export %q", ErrInvalidInput, kind)
}

// Archive stores an export in object storage and returns a presigned link.
func (s *ReportService) Archive(ctx context.Context, kind string, r reports.Range) (*ExportArchive, error) {
	if s.Storage == nil {
		return nil, storage.ErrDisabled
	}
	data, err := s.Export(ctx, kind, r)
	if err != nil {
		return nil, err
	}
	now := timeutil.Now()
	key := storage.ExportKey(kind, now)
	if err := s.Storage.Put(ctx, key, data, reports.XLSXContentType); err != nil {
		log.Printf("[Reports] Archive %s failed: %v", key, err)
		return nil, err
	}
	url, err := s.Storage.PresignGet(ctx, key, exportURLTTL)
	if err != nil {
		return nil, err
	}
	log.Printf("[Reports] Archived %s (%d bytes)", key, len(data))
	return &ExportArchive{Key: key, URL: url, ExpiresAt: now.Add(exportURLTTL)}, nil
}
