package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthMonitor periodically samples the pool and publishes its gauges
type HealthMonitor struct {
	pool     *Pool
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	stopCh chan struct{} // nil while not running
}

// HealthStatus is a point-in-time view of the pool
type HealthStatus struct {
	TotalWorkers   int       `json:"total_workers"`
	IdleWorkers    int       `json:"idle_workers"`
	BusyWorkers    int       `json:"busy_workers"`
	StoppedWorkers int       `json:"stopped_workers"`
	QueuedJobs     int       `json:"queued_jobs"`
	QueueCapacity  int       `json:"queue_capacity"`
	Healthy        bool      `json:"healthy"`
	Reason         string    `json:"reason,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewHealthMonitor creates a monitor sampling pool every interval
func NewHealthMonitor(pool *Pool, interval time.Duration, logger *zap.Logger) *HealthMonitor {
	return &HealthMonitor{
		pool:     pool,
		interval: interval,
		logger:   logger,
	}
}

// Start begins sampling. A non-positive interval leaves the monitor idle;
// GetStatus still works on demand.
func (h *HealthMonitor) Start() {
	if h.interval <= 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopCh != nil {
		return
	}
	h.stopCh = make(chan struct{})
	go h.run(h.stopCh)
}

// Stop ends sampling; the monitor can be started again
func (h *HealthMonitor) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopCh == nil {
		return
	}
	close(h.stopCh)
	h.stopCh = nil
}

func (h *HealthMonitor) run(stopCh <-chan struct{}) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			h.sample()
		}
	}
}

// sample records gauges and logs only when the pool is in trouble
func (h *HealthMonitor) sample() {
	status := h.GetStatus()

	h.pool.metrics.RecordWorkerPoolStatus(
		status.IdleWorkers,
		status.BusyWorkers,
		status.StoppedWorkers,
	)

	if !status.Healthy {
		h.logger.Warn("worker pool is unhealthy",
			zap.String("reason", status.Reason),
			zap.Int("total", status.TotalWorkers),
			zap.Int("stopped", status.StoppedWorkers),
			zap.Int("queued", status.QueuedJobs))
		return
	}

	h.logger.Debug("worker pool health check",
		zap.Int("idle", status.IdleWorkers),
		zap.Int("busy", status.BusyWorkers),
		zap.Int("queued", status.QueuedJobs))
}

// GetStatus computes the pool's current health. The pool is unhealthy when
// it has no workers, any worker has stopped, or the queue is full so new
// submissions would be refused.
func (h *HealthMonitor) GetStatus() *HealthStatus {
	status := &HealthStatus{
		QueuedJobs:    len(h.pool.jobs),
		QueueCapacity: cap(h.pool.jobs),
		Timestamp:     time.Now(),
	}

	for _, ws := range h.pool.GetStatus() {
		status.TotalWorkers++
		switch ws {
		case WorkerStatusIdle:
			status.IdleWorkers++
		case WorkerStatusBusy:
			status.BusyWorkers++
		case WorkerStatusStopped:
			status.StoppedWorkers++
		}
	}

	switch {
	case status.TotalWorkers == 0:
		status.Reason = "pool not started"
	case status.StoppedWorkers > 0:
		status.Reason = "workers stopped"
	case status.QueueCapacity > 0 && status.QueuedJobs >= status.QueueCapacity:
		status.Reason = "job queue full"
	default:
		status.Healthy = true
	}

	return status
}

// IsHealthy reports whether the pool can take new submissions
func (h *HealthMonitor) IsHealthy() bool {
	return h.GetStatus().Healthy
}
