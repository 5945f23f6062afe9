package sessionkit

import (
	"errors"
	"time"

	"github.com/tallyware/sessionkit/password"
	"github.com/tallyware/sessionkit/session"
)

// Builder assembles a Manager. Configure it with the With* methods and call
// Build once; a Builder must not be reused.
type Builder struct {
	config   Config
	accounts AccountStore
	backends []session.Backend
	sink     AuditSink
	clock    func() time.Time

	built bool
}

// New returns a Builder loaded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
		clock:  time.Now,
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithAccountStore sets the external account collaborator. Required.
func (b *Builder) WithAccountStore(store AccountStore) *Builder {
	b.accounts = store
	return b
}

// WithBackends sets the persistence tier chain in priority order: the first
// backend is the primary durable tier, the last is the last resort. At least
// one backend is required.
func (b *Builder) WithBackends(backends ...session.Backend) *Builder {
	b.backends = backends
	return b
}

// WithAuditSink sets the sink receiving audit events when auditing is
// enabled in the config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithClock replaces the time source. Intended for tests.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	if clock != nil {
		b.clock = clock
	}
	return b
}

// WithMetricsEnabled toggles the in-process metrics system.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the hasher, tier store, audit
// dispatcher, and metrics, and returns the Manager.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	if err := validateConfig(b.config); err != nil {
		return nil, err
	}
	if b.accounts == nil {
		return nil, errors.New("builder requires an account store")
	}
	if len(b.backends) == 0 {
		return nil, errors.New("builder requires at least one session backend")
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      b.config.Credential.Memory,
		Time:        b.config.Credential.Time,
		Parallelism: b.config.Credential.Parallelism,
		SaltLength:  b.config.Credential.SaltLength,
		KeyLength:   b.config.Credential.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	store, err := session.NewStore(b.config.Session.MaxAge, b.backends...)
	if err != nil {
		return nil, err
	}
	store.SetClock(b.clock)

	m := &Manager{
		config:   b.config,
		accounts: b.accounts,
		hasher:   hasher,
		store:    store,
		audit:    newAuditDispatcher(b.config.Audit, b.sink),
		metrics:  NewMetrics(b.config.Metrics),
		clock:    b.clock,
	}
	store.SetTierErrorFunc(m.onTierError)

	return m, nil
}
