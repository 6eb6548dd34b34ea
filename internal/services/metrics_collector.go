package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"repairshop-backend/internal/metrics"
	"repairshop-backend/internal/reports"
)

// PoolStatter is satisfied by *pgxpool.Pool.
type PoolStatter interface {
	Stat() *pgxpool.Stat
}

// ShopSummary provides the business gauges.
type ShopSummary interface {
	AdminDashboard(ctx context.Context) (reports.AdminDashboard, error)
}

// MetricsCollector samples pool, host and shop gauges on an interval.
type MetricsCollector struct {
	pool            PoolStatter
	shop            ShopSummary
	collectInterval time.Duration
	stopChan        chan struct{}
	wg              sync.WaitGroup
}

func NewMetricsCollector(pool PoolStatter, shop ShopSummary) *MetricsCollector {
	return &MetricsCollector{
		pool:            pool,
		shop:            shop,
		collectInterval: 30 * time.Second,
		stopChan:        make(chan struct{}),
	}
}

func (c *MetricsCollector) Start() {
	log.Println("[MetricsCollector] Starting metrics collector...")

	c.collectAll()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.collectInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.collectAll()
			case <-c.stopChan:
				log.Println("[MetricsCollector] Stopping metrics collector...")
				return
			}
		}
	}()
}

func (c *MetricsCollector) Stop() {
	close(c.stopChan)
	c.wg.Wait()
}

func (c *MetricsCollector) collectAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c.collectPool()
	c.collectHost(ctx)
	c.collectShop(ctx)
}

func (c *MetricsCollector) collectPool() {
	if c.pool == nil {
		return
	}
	st := c.pool.Stat()
	metrics.DBConnections.WithLabelValues("total").Set(float64(st.TotalConns()))
	metrics.DBConnections.WithLabelValues("idle").Set(float64(st.IdleConns()))
	metrics.DBConnections.WithLabelValues("acquired").Set(float64(st.AcquiredConns()))
}

func (c *MetricsCollector) collectHost(ctx context.Context) {
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		metrics.HostCPUPercent.Set(pct[0])
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		metrics.HostMemoryPercent.Set(vm.UsedPercent)
	}
}

func (c *MetricsCollector) collectShop(ctx context.Context) {
	if c.shop == nil {
		return
	}
	d, err := c.shop.AdminDashboard(ctx)
	if err != nil {
		log.Printf("[MetricsCollector] Shop summary failed: %v", err)
		return
	}
	metrics.OpenTickets.Set(float64(d.OpenTickets))
	metrics.OutstandingDebt.Set(d.Outstanding.InexactFloat64())
	metrics.LowStockProducts.Set(float64(len(d.LowStock)))
}
