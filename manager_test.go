package sessionkit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tallyware/sessionkit/session"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// mockAccountStore is an in-memory AccountStore with call counters and
// injectable failures.
type mockAccountStore struct {
	mu       sync.Mutex
	accounts []Account

	listCalls   int
	createCalls int
	updateCalls int
	deleteCalls int

	listErr   error
	createErr error
	updateErr error
	deleteErr error
}

func (s *mockAccountStore) ListAccounts(context.Context) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Account, len(s.accounts))
	copy(out, s.accounts)
	return out, nil
}

func (s *mockAccountStore) CreateAccount(_ context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if s.createErr != nil {
		return s.createErr
	}
	s.accounts = append(s.accounts, account)
	return nil
}

func (s *mockAccountStore) UpdateAccount(_ context.Context, id string, fields AccountUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	if s.updateErr != nil {
		return s.updateErr
	}
	for i := range s.accounts {
		if s.accounts[i].ID != id {
			continue
		}
		a := &s.accounts[i]
		if fields.Email != nil {
			a.Email = *fields.Email
		}
		if fields.Username != nil {
			a.Username = *fields.Username
		}
		if fields.Role != nil {
			a.Role = *fields.Role
		}
		if fields.Active != nil {
			a.Active = *fields.Active
		}
		if fields.PasswordHash != nil {
			a.PasswordHash = *fields.PasswordHash
		}
		if fields.UpdatedAt != nil {
			a.UpdatedAt = *fields.UpdatedAt
		}
		return nil
	}
	return fmt.Errorf("account %s not found", id)
}

func (s *mockAccountStore) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("account %s not found", id)
}

func (s *mockAccountStore) get(t *testing.T, id string) Account {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.ID == id {
			return a
		}
	}
	t.Fatalf("account %s not in store", id)
	return Account{}
}

func (s *mockAccountStore) seed(acct Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append(s.accounts, acct)
}

func (s *mockAccountStore) lists() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

// testConfig keeps hashing at the parameter floor so login-heavy tests stay
// fast, disables the keeper, and shortens restore pauses.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Credential.Memory = 8 * 1024
	cfg.Credential.Time = 1
	cfg.Credential.Parallelism = 1
	cfg.Credential.KeyLength = 16
	cfg.Keeper.Enabled = false
	cfg.Restore.RetryPause = time.Millisecond
	return cfg
}

type testEnv struct {
	manager  *Manager
	accounts *mockAccountStore
	clock    *testClock
	primary  *session.MemoryBackend
	backup   *session.MemoryBackend
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	env := &testEnv{
		accounts: &mockAccountStore{},
		clock:    newTestClock(),
		primary:  session.NewMemoryBackend("primary"),
		backup:   session.NewMemoryBackend("backup"),
	}
	env.manager = buildManager(t, cfg, env)
	t.Cleanup(env.manager.Close)
	return env
}

// restart builds a second Manager over the same account store, backends, and
// clock, simulating a fresh process.
func (e *testEnv) restart(t *testing.T, cfg Config) *Manager {
	t.Helper()
	m := buildManager(t, cfg, e)
	t.Cleanup(m.Close)
	return m
}

func buildManager(t *testing.T, cfg Config, env *testEnv) *Manager {
	t.Helper()
	m, err := New().
		WithConfig(cfg).
		WithAccountStore(env.accounts).
		WithBackends(env.primary, env.backup).
		WithClock(env.clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func register(t *testing.T, m *Manager, email, username, secret string) *Account {
	t.Helper()
	acct, err := m.Register(context.Background(), RegisterInput{
		Email:    email,
		Username: username,
		Secret:   secret,
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return acct
}

func login(t *testing.T, m *Manager, identifier, secret string) (*Account, string) {
	t.Helper()
	acct, tok, err := m.Authenticate(context.Background(), identifier, secret)
	if err != nil {
		t.Fatalf("Authenticate(%s): %v", identifier, err)
	}
	return acct, tok
}

func TestIssueAndVerifyToken(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	register(t, env.manager, "alice@example.com", "alice", "secret1")
	acct, tok := login(t, env.manager, "alice@example.com", "secret1")

	if tok == "" {
		t.Fatal("expected a token")
	}
	if !env.manager.VerifyToken(ctx, tok) {
		t.Error("freshly issued token must verify against the active session")
	}
	if env.manager.VerifyToken(ctx, "garbage") {
		t.Error("garbage token must not verify")
	}

	other := *acct
	other.ID = "someone-else"
	foreign, err := env.manager.IssueToken(&other)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if env.manager.VerifyToken(ctx, foreign) {
		t.Error("token for a different account must not verify")
	}
}

func TestHashAndVerifyCredential(t *testing.T) {
	env := newTestEnv(t, testConfig())

	digest, err := env.manager.HashCredential("secret1")
	if err != nil {
		t.Fatalf("HashCredential: %v", err)
	}
	if !env.manager.VerifyCredential("secret1", digest) {
		t.Error("expected matching secret to verify")
	}
	if env.manager.VerifyCredential("secret2", digest) {
		t.Error("expected wrong secret to fail")
	}
	if env.manager.VerifyCredential("secret1", "") {
		t.Error("empty digest must never verify")
	}
}

func TestCloseIsNotLogout(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	register(t, env.manager, "alice@example.com", "alice", "secret1")
	login(t, env.manager, "alice@example.com", "secret1")

	env.manager.Close()

	if _, err := env.primary.Get(ctx); err != nil {
		t.Errorf("primary tier cleared by Close: %v", err)
	}
}

func TestMetricsSnapshotOnDisabledMetrics(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	env := newTestEnv(t, cfg)

	register(t, env.manager, "alice@example.com", "alice", "secret1")

	snap := env.manager.MetricsSnapshot()
	if len(snap.Counters) != 0 {
		t.Errorf("disabled metrics recorded counters: %v", snap.Counters)
	}
}
