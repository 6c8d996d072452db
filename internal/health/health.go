package health

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheProbe is satisfied by *cache.Client.
type CacheProbe interface {
	Enabled() bool
	IsHealthy(ctx context.Context) bool
}

type HealthChecker struct {
	db    Pinger
	cache CacheProbe
}

type HealthStatus struct {
	Status   string          `json:"status"`
	Database ComponentHealth `json:"database"`
	Redis    ComponentHealth `json:"redis"`
}

type ComponentHealth struct {
	Status       string `json:"status"` // healthy, unhealthy or disabled
	ResponseTime int64  `json:"response_time_ms"`
}

type DetailedStatus struct {
	HealthStatus
	System SystemStats `json:"system"`
}

type SystemStats struct {
	Goroutines    int     `json:"goroutines"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsed    string  `json:"memory_used"`
	MemoryTotal   string  `json:"memory_total"`
	DiskPercent   float64 `json:"disk_percent"`
	DiskUsed      string  `json:"disk_used"`
	DiskTotal     string  `json:"disk_total"`
	Load1         float64 `json:"load_1"`
	Load5         float64 `json:"load_5"`
}

func NewHealthChecker(db Pinger, cache CacheProbe) *HealthChecker {
	return &HealthChecker{db: db, cache: cache}
}

// CheckBasic reports unhealthy only when the database is down. Redis is
// optional and a failure there degrades caching and locking.
func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	dbHealth := h.checkDatabase(ctx)

	status := "healthy"
	if dbHealth.Status != "healthy" {
		status = "unhealthy"
	}

	return HealthStatus{
		Status:   status,
		Database: dbHealth,
		Redis:    h.checkRedis(ctx),
	}
}

// CheckDetailed adds host memory, disk and load figures.
func (h *HealthChecker) CheckDetailed(ctx context.Context) DetailedStatus {
	d := DetailedStatus{HealthStatus: h.CheckBasic(ctx)}
	d.System.Goroutines = runtime.NumGoroutine()

	if m, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		d.System.MemoryPercent = m.UsedPercent
		d.System.MemoryUsed = formatBytes(m.Used)
		d.System.MemoryTotal = formatBytes(m.Total)
	}
	if u, err := disk.UsageWithContext(ctx, "/"); err == nil {
		d.System.DiskPercent = u.UsedPercent
		d.System.DiskUsed = formatBytes(u.Used)
		d.System.DiskTotal = formatBytes(u.Total)
	}
	if l, err := load.AvgWithContext(ctx); err == nil {
		d.System.Load1 = l.Load1
		d.System.Load5 = l.Load5
	}
	return d
}

func (h *HealthChecker) checkDatabase(ctx context.Context) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: responseTime}
}

func (h *HealthChecker) checkRedis(ctx context.Context) ComponentHealth {
	if h.cache == nil || !h.cache.Enabled() {
		return ComponentHealth{Status: "disabled"}
	}

	start := time.Now()
	ok := h.cache.IsHealthy(ctx)
	responseTime := time.Since(start).Milliseconds()

	if !ok {
		return ComponentHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: responseTime}
}

func formatBytes(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		mb := float64(bytes) / (1024 * 1024)
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.1f GB", gb)
}
