package health

import (
	"context"
	"runtime"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"repairshop-backend/internal/cache"
)

type HealthChecker struct {
	db      *pgxpool.Pool
	started time.Time
	clients func() int
}

type HealthStatus struct {
	Status   string          `json:"status"`
	Database ComponentHealth `json:"database"`
	Redis    ComponentHealth `json:"redis"`
}

type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms,omitempty"`
}

type DetailedStatus struct {
	HealthStatus
	Uptime           string  `json:"uptime"`
	Goroutines       int     `json:"goroutines"`
	WebsocketClients int     `json:"websocket_clients"`
	DBConnections    int32   `json:"db_connections"`
	CPUPercent       float64 `json:"cpu_percent"`
	MemoryPercent    float64 `json:"memory_percent"`
	MemoryUsed       uint64  `json:"memory_used_bytes"`
	MemoryTotal      uint64  `json:"memory_total_bytes"`
	DiskPercent      float64 `json:"disk_percent"`
	DiskUsed         uint64  `json:"disk_used_bytes"`
	DiskTotal        uint64  `json:"disk_total_bytes"`
}

// NewHealthChecker builds a checker. clients may be nil.
func NewHealthChecker(db *pgxpool.Pool, clients func() int) *HealthChecker {
	return &HealthChecker{db: db, started: time.Now(), clients: clients}
}

// CheckReady reports the database and Redis. Redis being down only degrades
// the service since the cache falls back to memory.
func (h *HealthChecker) CheckReady(ctx context.Context) HealthStatus {
	dbHealth := h.checkDatabase(ctx)

	redisHealth := ComponentHealth{Status: "disabled"}
	if cache.GetClient() != nil {
		start := time.Now()
		redisHealth.Status = "unhealthy"
		if cache.IsHealthy() {
			redisHealth.Status = "healthy"
		}
		redisHealth.ResponseTime = time.Since(start).Milliseconds()
	}

	status := "healthy"
	switch {
	case dbHealth.Status != "healthy":
		status = "unhealthy"
	case redisHealth.Status == "unhealthy":
		status = "degraded"
	}

	return HealthStatus{
		Status:   status,
		Database: dbHealth,
		Redis:    redisHealth,
	}
}

// CheckDetailed adds host resource usage.
func (h *HealthChecker) CheckDetailed(ctx context.Context) DetailedStatus {
	d := DetailedStatus{
		HealthStatus: h.CheckReady(ctx),
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		Goroutines:   runtime.NumGoroutine(),
	}
	if h.clients != nil {
		d.WebsocketClients = h.clients()
	}
	if h.db != nil {
		d.DBConnections = h.db.Stat().TotalConns()
	}

	if cpuPercents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(cpuPercents) > 0 {
		d.CPUPercent = cpuPercents[0]
	}
	if memStats, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		d.MemoryPercent = memStats.UsedPercent
		d.MemoryUsed = memStats.Used
		d.MemoryTotal = memStats.Total
	}
	if diskStats, err := disk.UsageWithContext(ctx, "/"); err == nil {
		d.DiskPercent = diskStats.UsedPercent
		d.DiskUsed = diskStats.Used
		d.DiskTotal = diskStats.Total
	}
	return d
}

func (h *HealthChecker) checkDatabase(ctx context.Context) ComponentHealth {
	if h.db == nil {
		return ComponentHealth{Status: "unhealthy"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
		}
	}

	return ComponentHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}
