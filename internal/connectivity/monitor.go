package connectivity

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/rerack/internal/telemetry/metrics"
)

// Probe reports whether the remote store is reachable.
type Probe func(ctx context.Context) error

// Monitor tracks the online/offline state. It starts offline, so the first
// successful probe counts as a transition to online.
type Monitor struct {
	probe          Probe
	interval       time.Duration
	probeTimeout   time.Duration
	metricsManager *metrics.Manager

	mutex     sync.Mutex
	online    bool
	callbacks []func()
}

func NewMonitor(probe Probe, interval time.Duration, metricsManager *metrics.Manager) *Monitor {
	return &Monitor{
		probe:          probe,
		interval:       interval,
		probeTimeout:   5 * time.Second,
		metricsManager: metricsManager,
	}
}

func (m *Monitor) Online() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.online
}

// OnOnline registers fn to be called on every offline to online transition.
// Callbacks run synchronously on the goroutine that observed the transition.
func (m *Monitor) OnOnline(fn func()) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Set records an externally observed connectivity state.
func (m *Monitor) Set(online bool) {
	m.mutex.Lock()
	wasOnline := m.online
	m.online = online
	callbacks := append([]func(){}, m.callbacks...)
	m.mutex.Unlock()

	if m.metricsManager != nil {
		if online {
			m.metricsManager.GaugeConnectivity.Set(1)
		} else {
			m.metricsManager.GaugeConnectivity.Set(0)
		}
	}

	if wasOnline == online {
		return
	}

	if !online {
		log.Warnln("connectivity: went offline")
		return
	}

	log.Infoln("connectivity: back online")
	for _, fn := range callbacks {
		fn()
	}
}

// Check probes once and records the result.
func (m *Monitor) Check(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	err := m.probe(probeCtx)
	if err != nil {
		log.Debugf("connectivity probe failed: %s", err)
	}
	m.Set(err == nil)
	return err == nil
}

// Run probes immediately and then on every interval tick until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
