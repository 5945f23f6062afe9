package sessionkit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tallyware/sessionkit/session"
)

func TestRoundTripWithoutStoreQueries(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	register(t, env.manager, "a@x.com", "alice", "secret1")
	acct, tok := login(t, env.manager, "a@x.com", "secret1")

	before := env.accounts.lists()

	current := env.manager.CurrentAccount(ctx)
	if current == nil || current.ID != acct.ID {
		t.Fatalf("CurrentAccount: got %+v", current)
	}
	if got := env.manager.CurrentToken(ctx); got != tok {
		t.Errorf("CurrentToken: got %q, want %q", got, tok)
	}
	if !env.manager.IsAuthenticated(ctx) {
		t.Error("expected IsAuthenticated")
	}

	if after := env.accounts.lists(); after != before {
		t.Errorf("session reads queried the account store: %d extra calls", after-before)
	}
}

func TestRestartRestoresWithoutReauthentication(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	register(t, env.manager, "a@x.com", "alice", "secret1")
	acct, tok := login(t, env.manager, "a@x.com", "secret1")

	restarted := env.restart(t, testConfig())
	before := env.accounts.lists()

	current := restarted.CurrentAccount(ctx)
	if current == nil || current.ID != acct.ID {
		t.Fatalf("restored account: got %+v", current)
	}
	if got := restarted.CurrentToken(ctx); got != tok {
		t.Errorf("restored token: got %q, want %q", got, tok)
	}
	if env.accounts.lists() != before {
		t.Error("restore queried the account store")
	}
	if got := restarted.MetricsSnapshot().Counters[MetricSessionRestored]; got != 1 {
		t.Errorf("restored counter: got %d", got)
	}
}

func TestRestartFallsBackAndHealsPrimary(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	register(t, env.manager, "a@x.com", "alice", "secret1")
	login(t, env.manager, "a@x.com", "secret1")

	// Primary tier lost its bundle; the backup still holds one.
	if err := env.primary.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	restarted := env.restart(t, testConfig())
	if restarted.CurrentAccount(ctx) == nil {
		t.Fatal("session not restored from backup tier")
	}
	if _, err := env.primary.Get(ctx); err != nil {
		t.Errorf("primary tier not healed: %v", err)
	}
}

func TestExpiredSessionIsClearedOnRestore(t *testing.T) {
	cfg := testConfig()
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	register(t, env.manager, "a@x.com", "alice", "secret1")
	login(t, env.manager, "a@x.com", "secret1")

	env.clock.Advance(cfg.Session.MaxAge + time.Minute)

	restarted := env.restart(t, cfg)
	if restarted.CurrentAccount(ctx) != nil {
		t.Fatal("expired session restored")
	}
	if _, err := env.primary.Get(ctx); err == nil {
		t.Error("primary tier not cleared after expiry")
	}
	if _, err := env.backup.Get(ctx); err == nil {
		t.Error("backup tier not cleared after expiry")
	}
	if got := restarted.MetricsSnapshot().Counters[MetricSessionExpired]; got != 1 {
		t.Errorf("expired counter: got %d", got)
	}
}

func TestForceRestore(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	register(t, env.manager, "a@x.com", "alice", "secret1")
	login(t, env.manager, "a@x.com", "secret1")

	restarted := env.restart(t, testConfig())
	if !restarted.ForceRestore(ctx) {
		t.Fatal("ForceRestore with intact tiers must succeed")
	}

	env.manager.Logout(ctx)
	bare := env.restart(t, testConfig())
	if bare.ForceRestore(ctx) {
		t.Fatal("ForceRestore with empty tiers must fail")
	}
	if got := bare.MetricsSnapshot().Counters[MetricForceRestoreFailure]; got != 1 {
		t.Errorf("force restore failure counter: got %d", got)
	}
}

func TestHealthReportsIssues(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	register(t, env.manager, "a@x.com", "alice", "secret1")
	login(t, env.manager, "a@x.com", "secret1")

	report := env.manager.Health(ctx)
	if !report.Healthy || len(report.Issues) != 0 {
		t.Fatalf("healthy session reported: %+v", report)
	}

	// Primary tier loses its bundle while memory still holds the session.
	if err := env.primary.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	report = env.manager.Health(ctx)
	if report.Healthy {
		t.Fatal("expected unhealthy report")
	}
	if !hasIssue(report, HealthNoSessionPersisted) {
		t.Errorf("issues: got %v, want %v", report.Issues, HealthNoSessionPersisted)
	}

	// Fresh manager over empty tiers: nothing in memory, nothing persisted.
	env.manager.Logout(ctx)
	report = env.manager.Health(ctx)
	for _, want := range []HealthIssue{HealthNoAccountInMemory, HealthNoTokenInMemory, HealthNoSessionPersisted} {
		if !hasIssue(report, want) {
			t.Errorf("issues: got %v, want %v", report.Issues, want)
		}
	}
}

func hasIssue(report HealthReport, issue HealthIssue) bool {
	for _, i := range report.Issues {
		if i == issue {
			return true
		}
	}
	return false
}

func TestHealthDetectsIncompleteBundle(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	partial := &session.Session{AccountID: "acct-1", IssuedAt: env.clock.Now().UnixMilli()}
	data, err := session.Encode(partial)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := env.primary.Set(ctx, data); err != nil {
		t.Fatalf("Set: %v", err)
	}

	report := env.manager.Health(ctx)
	if !hasIssue(report, HealthSessionIncomplete) {
		t.Errorf("issues: got %v, want %v", report.Issues, HealthSessionIncomplete)
	}
}

func TestSignalRepersistsSession(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	// No session: signals are ignored.
	env.manager.Signal(ctx, SignalHidden)

	register(t, env.manager, "a@x.com", "alice", "secret1")
	login(t, env.manager, "a@x.com", "secret1")

	if err := env.primary.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	env.manager.Signal(ctx, SignalFocusLost)

	if _, err := env.primary.Get(ctx); err != nil {
		t.Errorf("primary tier not re-persisted by signal: %v", err)
	}
	if got := env.manager.MetricsSnapshot().Counters[MetricSignalSave]; got != 1 {
		t.Errorf("signal save counter: got %d", got)
	}
}

func TestKeeperRepersistsLostPrimary(t *testing.T) {
	cfg := testConfig()
	cfg.Keeper.Enabled = true
	cfg.Keeper.Interval = 10 * time.Millisecond
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	register(t, env.manager, "a@x.com", "alice", "secret1")
	login(t, env.manager, "a@x.com", "secret1")

	if err := env.primary.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := env.primary.Get(ctx); err == nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("keeper never re-persisted the primary tier")
}

func TestKeeperExpiresSessionInPlace(t *testing.T) {
	cfg := testConfig()
	cfg.Keeper.Enabled = true
	cfg.Keeper.Interval = 10 * time.Millisecond
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	register(t, env.manager, "a@x.com", "alice", "secret1")
	login(t, env.manager, "a@x.com", "secret1")

	env.clock.Advance(cfg.Session.MaxAge + time.Minute)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if env.manager.CurrentAccount(ctx) == nil {
			if _, err := env.primary.Get(ctx); err == nil {
				t.Error("primary tier not cleared by keeper expiry")
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("keeper never expired the session")
}

func TestWatcherAdoptsExternalClear(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	shared, err := session.NewRedisBackend(client, "test:session")
	if err != nil {
		t.Fatalf("NewRedisBackend: %v", err)
	}

	cfg := testConfig()
	cfg.Keeper.Enabled = true
	cfg.Keeper.Interval = time.Hour // only the watcher acts

	accounts := &mockAccountStore{}
	clock := newTestClock()
	ctx := context.Background()

	build := func() *Manager {
		m, err := New().
			WithConfig(cfg).
			WithAccountStore(accounts).
			WithBackends(shared).
			WithClock(clock.Now).
			Build()
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		t.Cleanup(m.Close)
		return m
	}

	first := build()
	second := build()

	register(t, first, "a@x.com", "alice", "secret1")
	login(t, first, "a@x.com", "secret1")

	// The second context adopts the shared session and starts watching.
	if second.CurrentAccount(ctx) == nil {
		t.Fatal("second context did not adopt the shared session")
	}
	// Give the watcher subscription a moment to establish.
	time.Sleep(100 * time.Millisecond)

	first.Logout(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if second.CurrentAccount(ctx) == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("second context never observed the external logout")
}
