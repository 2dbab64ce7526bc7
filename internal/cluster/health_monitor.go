package cluster

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReplicaHealth tracks the health status of a single replica node.
// Thread-safe: protected by HealthMonitor's mutex when accessed.
type ReplicaHealth struct {
	LastCheck        time.Time // Timestamp of the last health check attempt
	LastHealthy      time.Time // Timestamp of the last successful health check
	ReplicaID        string    // Unique identifier of the replica
	Status           string    // Current status: "healthy", "unhealthy", "unknown"
	ConsecutiveFails int       // Number of consecutive failed health checks
}

// HealthMonitor performs periodic health checks on registered replica
// nodes. A replica that keeps failing its checks is reported through the
// onUnhealthy callback so the master can stop pushing notifications to it.
// Thread-safe: all methods are safe for concurrent access.
type HealthMonitor struct {
	replicas    map[string]*ReplicaHealth
	httpClient  *http.Client
	checkFunc   func(addr string) error // Function to perform health check
	onUnhealthy func(replicaID string)  // Callback when a replica becomes unhealthy
	logger      *zap.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	interval    time.Duration // How often to check replica health
	timeout     time.Duration // HTTP timeout for health checks
	mu          sync.RWMutex  // Protects replicas map
	wg          sync.WaitGroup
	maxFailures int // Failures before marking unhealthy
}

// NewHealthMonitor creates a monitor that polls each replica's /health
// endpoint every interval. Replicas are marked unhealthy after 3
// consecutive failures.
func NewHealthMonitor(interval time.Duration, logger *zap.Logger) *HealthMonitor {
	ctx, cancel := context.WithCancel(context.Background())
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HealthMonitor{
		interval:    interval,
		timeout:     2 * time.Second,
		maxFailures: 3,
		replicas:    make(map[string]*ReplicaHealth),
		httpClient: &http.Client{
			Timeout: 2 * time.Second,
		},
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetOnUnhealthy sets the callback invoked when a replica becomes
// unhealthy, typically used to deregister it from the push set.
func (h *HealthMonitor) SetOnUnhealthy(callback func(replicaID string)) {
	h.onUnhealthy = callback
}

// Start begins the monitoring loop in the current goroutine, checking all
// replicas returned by provider on every tick. Blocks until the context
// is canceled or Stop is called.
func (h *HealthMonitor) Start(ctx context.Context, provider func() []ReplicaInfo) {
	h.wg.Add(1)
	defer h.wg.Done()

	if ctx == nil {
		ctx = h.ctx
	}
	if h.checkFunc == nil {
		h.checkFunc = h.defaultHealthCheck
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.Info("health monitor started", zap.Duration("interval", h.interval))

	// Initial check immediately, then on every tick
	h.checkAll(provider())

	for {
		select {
		case <-ticker.C:
			h.checkAll(provider())
		case <-ctx.Done():
			h.logger.Info("health monitor stopping")
			return
		case <-h.ctx.Done():
			h.logger.Info("health monitor stopping")
			return
		}
	}
}

// Stop cancels the monitoring loop and waits for it to finish
func (h *HealthMonitor) Stop() {
	h.cancel()
	h.wg.Wait()
}

// checkAll checks every provided replica and drops tracking state for
// replicas no longer registered
func (h *HealthMonitor) checkAll(replicas []ReplicaInfo) {
	current := make(map[string]bool)

	for _, r := range replicas {
		current[r.ID] = true
		h.check(r)
	}

	h.mu.Lock()
	for id := range h.replicas {
		if !current[id] {
			delete(h.replicas, id)
			h.logger.Info("replica removed from health monitoring", zap.String("replica", id))
		}
	}
	h.mu.Unlock()
}

// check performs a health check on a single replica and updates its
// tracked status, firing the unhealthy callback on the state change that
// crosses the failure threshold
func (h *HealthMonitor) check(replica ReplicaInfo) {
	h.mu.Lock()
	health, exists := h.replicas[replica.ID]
	if !exists {
		health = &ReplicaHealth{
			ReplicaID:   replica.ID,
			Status:      "unknown",
			LastCheck:   time.Now(),
			LastHealthy: time.Now(),
		}
		h.replicas[replica.ID] = health
	}
	h.mu.Unlock()

	err := h.checkFunc(replica.Addr)

	h.mu.Lock()
	defer h.mu.Unlock()

	health.LastCheck = time.Now()

	if err != nil {
		health.ConsecutiveFails++
		h.logger.Warn("replica health check failed",
			zap.String("replica", replica.ID),
			zap.Int("attempt", health.ConsecutiveFails),
			zap.Int("max_failures", h.maxFailures),
			zap.Error(err))

		if health.ConsecutiveFails >= h.maxFailures {
			previousStatus := health.Status
			health.Status = "unhealthy"

			if previousStatus != "unhealthy" && h.onUnhealthy != nil {
				h.logger.Warn("replica marked unhealthy",
					zap.String("replica", replica.ID),
					zap.Int("failures", health.ConsecutiveFails))
				// Call callback without holding the lock
				go h.onUnhealthy(replica.ID)
			}
		}
	} else {
		if health.Status == "unhealthy" {
			h.logger.Info("replica recovered", zap.String("replica", replica.ID))
		}
		health.Status = "healthy"
		health.ConsecutiveFails = 0
		health.LastHealthy = time.Now()
	}
}

// defaultHealthCheck performs an HTTP GET against the replica's /health
// endpoint, accepting both full URLs and host:port addresses
func (h *HealthMonitor) defaultHealthCheck(addr string) error {
	url := addr
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		url = fmt.Sprintf("http://%s", addr)
	}
	if !strings.HasSuffix(url, "/health") {
		url = strings.TrimRight(url, "/") + "/health"
	}

	resp, err := h.httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// GetReplicaHealth returns a copy of the current health record for a
// replica, or nil if it isn't being monitored
func (h *HealthMonitor) GetReplicaHealth(replicaID string) *ReplicaHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()

	health, exists := h.replicas[replicaID]
	if !exists {
		return nil
	}

	cp := *health
	return &cp
}

// IsHealthy reports whether a replica is currently healthy.
// Returns false for replicas that aren't being monitored.
func (h *HealthMonitor) IsHealthy(replicaID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	health, exists := h.replicas[replicaID]
	if !exists {
		return false
	}
	return health.Status == "healthy"
}

// SetCheckFunction overrides the default health check, mainly for tests
func (h *HealthMonitor) SetCheckFunction(checkFunc func(addr string) error) {
	h.checkFunc = checkFunc
}
