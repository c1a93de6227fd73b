package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Store is the slice of the storage layer the checker needs.
type Store interface {
	Ping(ctx context.Context) error
	LoadCheckpoint(ctx context.Context, name string) (uint64, bool, error)
}

// Chain is the slice of the blockchain client the checker needs.
type Chain interface {
	LatestBlock(ctx context.Context) (uint64, error)
	EndpointsHealth() map[string]bool
}

// maxCheckpointLag is how many blocks the feed may trail the head before the
// feed check degrades.
const maxCheckpointLag = 10_000

// Checker performs health checks on application dependencies
type Checker struct {
	store          Store
	chain          Chain
	checkpointName string
	interval       time.Duration

	mu             sync.RWMutex
	lastRunTime    time.Time
	lastRunSuccess bool
}

// NewChecker creates a new health checker. interval is the expected scan
// interval; zero means one-shot mode and disables the daemon check.
func NewChecker(store Store, chain Chain, checkpointName string, interval time.Duration) *Checker {
	return &Checker{
		store:          store,
		chain:          chain,
		checkpointName: checkpointName,
		interval:       interval,
	}
}

// UpdateLastRun updates the timestamp and status of the last execution
func (c *Checker) UpdateLastRun(success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastRunTime = time.Now()
	c.lastRunSuccess = success
}

// CheckStatus represents the health status of a component
type CheckStatus string

const (
	StatusOK       CheckStatus = "ok"
	StatusDegraded CheckStatus = "degraded"
	StatusError    CheckStatus = "error"
)

// HealthResponse is the JSON response structure
type HealthResponse struct {
	Status    CheckStatus            `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckDetail `json:"checks"`
	Uptime    string                 `json:"uptime,omitempty"`
}

// CheckDetail contains details about a specific health check
type CheckDetail struct {
	Status  CheckStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

var startTime = time.Now()

// Check performs all health checks and returns the aggregated status
func (c *Checker) Check(ctx context.Context) HealthResponse {
	checks := make(map[string]CheckDetail)
	overallStatus := StatusOK

	dbCheck := c.checkDatabase(ctx)
	checks["database"] = dbCheck
	if dbCheck.Status != StatusOK {
		overallStatus = StatusError
	}

	rpcCheck := c.checkRPC(ctx)
	checks["rpc_endpoints"] = rpcCheck
	if rpcCheck.Status == StatusError {
		overallStatus = StatusError
	} else if rpcCheck.Status == StatusDegraded && overallStatus == StatusOK {
		overallStatus = StatusDegraded
	}

	feedCheck := c.checkFeed(ctx)
	checks["feed"] = feedCheck
	if feedCheck.Status != StatusOK && overallStatus == StatusOK {
		overallStatus = StatusDegraded
	}

	// Daemon execution check only applies in daemon mode
	if c.interval > 0 {
		daemonCheck := c.checkDaemon()
		checks["daemon"] = daemonCheck
		if daemonCheck.Status != StatusOK && overallStatus == StatusOK {
			overallStatus = StatusDegraded
		}
	}

	return HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    checks,
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	}
}

// checkDatabase verifies PostgreSQL connectivity
func (c *Checker) checkDatabase(ctx context.Context) CheckDetail {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.store.Ping(ctx); err != nil {
		slog.Error("Health check: database ping failed", "error", err)
		return CheckDetail{
			Status:  StatusError,
			Message: "database unreachable: " + err.Error(),
		}
	}

	return CheckDetail{
		Status:  StatusOK,
		Message: "database connection healthy",
	}
}

// checkRPC verifies that at least one RPC endpoint is available
func (c *Checker) checkRPC(ctx context.Context) CheckDetail {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := c.chain.LatestBlock(ctx); err != nil {
		slog.Error("Health check: RPC head lookup failed", "error", err)
		return CheckDetail{
			Status:  StatusError,
			Message: "no responding RPC endpoint: " + err.Error(),
		}
	}

	healthStatus := c.chain.EndpointsHealth()
	healthyCount := 0
	totalCount := len(healthStatus)

	for _, healthy := range healthStatus {
		if healthy {
			healthyCount++
		}
	}

	if healthyCount == totalCount {
		return CheckDetail{
			Status:  StatusOK,
			Message: "all RPC endpoints healthy",
		}
	}

	return CheckDetail{
		Status:  StatusDegraded,
		Message: fmt.Sprintf("%d/%d RPC endpoints healthy", healthyCount, totalCount),
	}
}

// checkFeed compares the feed checkpoint against the chain head.
func (c *Checker) checkFeed(ctx context.Context) CheckDetail {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	last, found, err := c.store.LoadCheckpoint(ctx, c.checkpointName)
	if err != nil {
		return CheckDetail{
			Status:  StatusDegraded,
			Message: "checkpoint unreadable: " + err.Error(),
		}
	}
	if !found {
		return CheckDetail{
			Status:  StatusOK,
			Message: "no checkpoint yet (startup)",
		}
	}

	head, err := c.chain.LatestBlock(ctx)
	if err != nil || head <= last {
		return CheckDetail{
			Status:  StatusOK,
			Message: fmt.Sprintf("checkpoint at block %d", last),
		}
	}

	lag := head - last
	if lag > maxCheckpointLag {
		return CheckDetail{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("feed lags head by %d blocks", lag),
		}
	}

	return CheckDetail{
		Status:  StatusOK,
		Message: fmt.Sprintf("feed %d blocks behind head", lag),
	}
}

// checkDaemon verifies the daemon is executing at expected intervals
func (c *Checker) checkDaemon() CheckDetail {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Never having run is fine during startup
	if c.lastRunTime.IsZero() {
		return CheckDetail{
			Status:  StatusOK,
			Message: "daemon not yet executed (startup)",
		}
	}

	if !c.lastRunSuccess {
		return CheckDetail{
			Status:  StatusDegraded,
			Message: "last execution failed",
		}
	}

	// Allow a 2x interval grace period
	timeSinceLastRun := time.Since(c.lastRunTime)
	graceThreshold := c.interval * 2

	if timeSinceLastRun > graceThreshold {
		return CheckDetail{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("no execution in %s (expected every %s)", timeSinceLastRun.Round(time.Second), c.interval),
		}
	}

	return CheckDetail{
		Status:  StatusOK,
		Message: fmt.Sprintf("last executed %s ago", timeSinceLastRun.Round(time.Second)),
	}
}

// Router returns the HTTP routes for the health server.
func (c *Checker) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", c.healthHandler)
	r.Get("/ready", c.readyHandler)
	return r
}

func (c *Checker) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := c.Check(r.Context())

	statusCode := http.StatusOK
	if status.Status == StatusError {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(status); err != nil {
		slog.Error("Failed to encode health response", "error", err)
	}
}

// readyHandler reports readiness: the process is ready once the database
// answers.
func (c *Checker) readyHandler(w http.ResponseWriter, r *http.Request) {
	detail := c.checkDatabase(r.Context())

	statusCode := http.StatusOK
	if detail.Status != StatusOK {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(detail); err != nil {
		slog.Error("Failed to encode readiness response", "error", err)
	}
}
