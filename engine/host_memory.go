package engine

import (
	"sync"
	"time"
)

type hostEntry struct {
	engine    string
	expiresAt time.Time
}

// HostMemory remembers which engine last worked for a host. Entries expire
// after ttl and are pruned by a background sweep.
type HostMemory struct {
	entries sync.Map // host -> hostEntry
	ttl     time.Duration
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// NewHostMemory creates a HostMemory and starts its hourly sweep.
func NewHostMemory(ttl time.Duration) *HostMemory {
	m := &HostMemory{ttl: ttl, now: time.Now, done: make(chan struct{})}
	go m.sweepLoop(time.Hour)
	return m
}

// Get returns the engine remembered for host, or "" when none is live.
func (m *HostMemory) Get(host string) string {
	v, ok := m.entries.Load(host)
	if !ok {
		return ""
	}
	e := v.(hostEntry)
	if m.now().After(e.expiresAt) {
		m.entries.Delete(host)
		return ""
	}
	return e.engine
}

// Set records that engine worked for host.
func (m *HostMemory) Set(host, engine string) {
	m.entries.Store(host, hostEntry{engine: engine, expiresAt: m.now().Add(m.ttl)})
}

// Delete forgets host.
func (m *HostMemory) Delete(host string) {
	m.entries.Delete(host)
}

// Stop ends the background sweep. It is safe to call more than once.
func (m *HostMemory) Stop() {
	m.once.Do(func() { close(m.done) })
}

func (m *HostMemory) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			now := m.now()
			m.entries.Range(func(k, v any) bool {
				if now.After(v.(hostEntry).expiresAt) {
					m.entries.Delete(k)
				}
				return true
			})
		}
	}
}
