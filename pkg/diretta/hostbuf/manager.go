package hostbuf

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Config selects and sizes the buffering policy for one session.
type Config struct {
	// Policy selects the buffering variant.
	Policy Kind `json:"policy" yaml:"policy"`
	// PreallocBytes is the capacity reserved by KindPreallocated. The
	// other variants ignore it.
	PreallocBytes int `json:"prealloc_bytes,omitempty" yaml:"prealloc_bytes,omitempty"`
	// Logger receives growth diagnostics. Defaults to slog.Default().
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// Validate reports whether the config can build a manager.
func (c Config) Validate() error {
	if !c.Policy.IsValid() {
		return fmt.Errorf("hostbuf: unknown policy %q", c.Policy)
	}
	if c.Policy == KindPreallocated && c.PreallocBytes <= 0 {
		return fmt.Errorf("hostbuf: preallocated policy needs prealloc_bytes > 0, got %d", c.PreallocBytes)
	}
	return nil
}

// Manager owns the buffers granted to the target link for one session.
//
// The contract it upholds: the view returned by Acquire for block i
// stays valid and untouched until the next Acquire or until Release,
// whichever comes first. Policies grow or swap backing memory only
// inside Acquire, never while a view is on loan.
//
// Acquire runs on the link's cycle goroutine; Release and SetOnline may
// arrive from the control goroutine. The manager serializes Acquire and
// Release internally and holds its lock only across grant bookkeeping,
// never while the caller fills the view.
type Manager struct {
	logger *slog.Logger
	online atomic.Bool
	kind   Kind

	mu       sync.Mutex
	policy   Policy
	state    State
	stats    Stats
	lastBase *byte
}

// New builds a Manager for one streaming session. KindPreallocated
// performs its single allocation here.
func New(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var policy Policy
	switch cfg.Policy {
	case KindGrowOnly:
		policy = &growOnly{}
	case KindDoubleBuffer:
		policy = &doubleBuffer{}
	case KindPreallocated:
		p, err := newPreallocated(cfg.PreallocBytes)
		if err != nil {
			return nil, err
		}
		policy = p
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger, kind: cfg.Policy, policy: policy, state: StateReady}, nil
}

// Policy returns the configured policy kind.
func (m *Manager) Policy() Kind { return m.kind }

// Acquire grants the buffer for the next block: exactly size bytes,
// valid until the next Acquire or until Release. Acquiring block i+1
// ends the grant for block i. On error nothing changes: no policy
// state moves and an outstanding view stays valid.
func (m *Manager) Acquire(size int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if size <= 0 {
		m.stats.Errors++
		return nil, fmt.Errorf("%w: block size %d", ErrInvalidSize, size)
	}
	if m.policy == nil {
		return nil, ErrUnconfigured
	}
	online := m.online.Load()
	genBefore := m.policy.Generation()
	view, err := m.policy.NextBuffer(size, online)
	if err != nil {
		m.stats.Errors++
		return nil, err
	}
	m.state = StateReady
	m.stats.Acquires++
	if gen := m.policy.Generation(); gen != genBefore {
		m.stats.Grows++
		if online {
			m.stats.OnlineGrows++
			m.logger.Debug("hostbuf: grew while streaming", "size", size, "generation", gen)
		}
	}
	base := &view[0]
	if m.lastBase != nil && base != m.lastBase {
		m.stats.BaseMoves++
	}
	m.lastBase = base
	return view, nil
}

// Release ends the current grant: the target's disconnect sequence has
// completed and the view on loan will not be read again. Storage stays
// allocated for the next session. Calling Release again before the
// next Acquire is a no-op.
func (m *Manager) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.policy == nil {
		return ErrUnconfigured
	}
	if m.state == StateReleased {
		return nil
	}
	m.state = StateReleased
	m.lastBase = nil
	m.stats.Releases++
	return nil
}

// SetOnline records whether the stream clock is running. The flag is a
// hint passed to the policy on each grant.
func (m *Manager) SetOnline(online bool) { m.online.Store(online) }

// Online reports the current streaming hint.
func (m *Manager) Online() bool { return m.online.Load() }

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.policy == nil {
		return StateUnconfigured
	}
	return m.state
}

// Generation returns the policy's total reallocation count.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.policy == nil {
		return 0
	}
	return m.policy.Generation()
}

// Stats returns a snapshot of the manager's counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
