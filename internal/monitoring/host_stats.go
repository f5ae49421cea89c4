package monitoring

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats is a point-in-time sample of the machine running the API.
type HostStats struct {
	CPUPercent    float64   `json:"cpuPercent"`
	MemoryPercent float64   `json:"memoryPercent"`
	UptimeSeconds uint64    `json:"uptimeSeconds"`
	SampledAt     time.Time `json:"sampledAt"`
}

// StatUpdater periodically samples host statistics for the health endpoint.
type StatUpdater struct {
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once

	mu    sync.RWMutex
	stats HostStats
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(interval time.Duration) *StatUpdater {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &StatUpdater{
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Run starts the periodic updates.
func (su *StatUpdater) Run() {
	log.Info().Msg("Starting background stat updater...")
	su.ticker = time.NewTicker(su.interval)
	defer su.ticker.Stop()

	// Run once immediately on start
	su.sample()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-su.ticker.C:
			su.sample()
		}
	}
}

// Stop halts the periodic updates.
func (su *StatUpdater) Stop() {
	su.stopOnce.Do(func() { close(su.done) })
}

// Snapshot returns the latest sample. It is zero until the first sample.
func (su *StatUpdater) Snapshot() HostStats {
	su.mu.RLock()
	defer su.mu.RUnlock()
	return su.stats
}

func (su *StatUpdater) sample() {
	stats := HostStats{SampledAt: time.Now().UTC()}

	if percents, err := cpu.Percent(0, false); err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Could not read CPU usage")
	} else if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Could not read memory usage")
	} else {
		stats.MemoryPercent = vm.UsedPercent
	}

	if uptime, err := host.Uptime(); err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Could not read host uptime")
	} else {
		stats.UptimeSeconds = uptime
	}

	su.mu.Lock()
	su.stats = stats
	su.mu.Unlock()
}
