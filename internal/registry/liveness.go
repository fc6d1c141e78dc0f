package registry

import (
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Liveness status values reported per agent. Probing never removes a
// card from the store, it only annotates it.
const (
	StatusUp      = "up"
	StatusDown    = "down"
	StatusUnknown = "unknown"
)

const defaultProbeSchedule = "@every 1m"

// Prober periodically checks that registered endpoints are reachable
// and keeps a per-agent status map.
type Prober struct {
	store       *Store
	cron        *cron.Cron
	dialTimeout time.Duration
	logger      *slog.Logger

	mu     sync.RWMutex
	status map[string]string
}

// NewProber creates a prober running on the given cron schedule.
func NewProber(store *Store, schedule string, logger *slog.Logger) (*Prober, error) {
	if schedule == "" {
		schedule = defaultProbeSchedule
	}
	p := &Prober{
		store:       store,
		cron:        cron.New(),
		dialTimeout: 2 * time.Second,
		logger:      logger,
		status:      make(map[string]string),
	}
	if _, err := p.cron.AddFunc(schedule, p.ProbeAll); err != nil {
		return nil, err
	}
	return p, nil
}

// Start begins scheduled probing.
func (p *Prober) Start() {
	p.cron.Start()
}

// Stop halts probing and waits for an in-flight run to finish.
func (p *Prober) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}

// ProbeAll checks every registered endpoint once.
func (p *Prober) ProbeAll() {
	for _, card := range p.store.List() {
		status := p.probe(card.Endpoint)
		p.mu.Lock()
		p.status[card.Name] = status
		p.mu.Unlock()
		if status == StatusDown {
			p.logger.Warn("Agent endpoint unreachable", "agent", card.Name, "endpoint", card.Endpoint)
		}
	}
}

// probe dials the endpoint's host. A TCP connect is enough to tell a
// live process from a dead one without assuming any HTTP route.
func (p *Prober) probe(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return StatusUnknown
	}
	host := u.Host
	if u.Port() == "" {
		switch u.Scheme {
		case "https":
			host = net.JoinHostPort(u.Hostname(), "443")
		default:
			host = net.JoinHostPort(u.Hostname(), "80")
		}
	}
	conn, err := net.DialTimeout("tcp", host, p.dialTimeout)
	if err != nil {
		return StatusDown
	}
	conn.Close()
	return StatusUp
}

// Status returns the last observed status for name. Agents that have
// not been probed yet report unknown.
func (p *Prober) Status(name string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if s, ok := p.status[name]; ok {
		return s
	}
	return StatusUnknown
}

// Snapshot returns the status of every currently registered agent.
func (p *Prober) Snapshot() map[string]string {
	out := make(map[string]string)
	for _, card := range p.store.List() {
		out[card.Name] = p.Status(card.Name)
	}
	return out
}
