package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/dosreb/planlibrary/internal/pkg/env"
	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// ManagerConfig holds the background job settings
type ManagerConfig struct {
	Workers       int
	StatsInterval time.Duration
}

func LoadManagerConfig() ManagerConfig {
	return ManagerConfig{
		Workers:       env.GetEnvInt("JOB_QUEUE_WORKERS", 3),
		StatsInterval: env.GetEnvDuration("JOB_QUEUE_STATS_INTERVAL", 5*time.Minute),
	}
}

// Manager owns the job queue and its periodic background tasks
type Manager struct {
	queue       *Queue
	cfg         ManagerConfig
	statsTicker *time.Ticker
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	running     bool
}

func NewManager(client *redis.Client, cfg ManagerConfig) *Manager {
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = 5 * time.Minute
	}
	return &Manager{
		queue: NewQueue(client, cfg.Workers),
		cfg:   cfg,
	}
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	m.queue.Start()

	m.statsTicker = time.NewTicker(m.cfg.StatsInterval)
	m.wg.Add(1)
	go m.statsWorker(m.stopCh, m.statsTicker.C)

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.statsTicker != nil {
		m.statsTicker.Stop()
	}
	close(m.stopCh)
	m.running = false

	m.wg.Wait()
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

func (m *Manager) statsWorker(stopCh <-chan struct{}, tick <-chan time.Time) {
	defer m.wg.Done()
	for {
		select {
		case <-stopCh:
			log.Info("[JobQueue Manager] Stats worker stopping")
			return
		case <-tick:
			m.logStats(context.Background())
		}
	}
}

// Snapshot is a point-in-time view of the queue
type Snapshot struct {
	Pending    int64
	Processing int64
	Stats      map[JobStatus]int64
}

func (m *Manager) Snapshot(ctx context.Context) (*Snapshot, error) {
	pending, err := m.queue.GetQueueSize(ctx)
	if err != nil {
		return nil, err
	}
	processing, err := m.queue.GetProcessingSize(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := m.queue.GetJobStats(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Pending: pending, Processing: processing, Stats: stats}, nil
}

func (m *Manager) logStats(ctx context.Context) {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		log.Errorf("[JobQueue Manager] Could not read queue stats: %v", err)
		return
	}
	log.Infof("[JobQueue Manager] pending=%d processing=%d completed=%d failed=%d",
		snap.Pending, snap.Processing, snap.Stats[JobStatusCompleted], snap.Stats[JobStatusFailed])
}
