package sessionkit

import (
	"context"
	"log"
	"time"

	"github.com/tallyware/sessionkit/session"
)

// startKeeper launches the background protection task: a ticker that
// re-validates and re-persists the active session, plus a watcher on the
// primary tier's change channel when the backend supports one. Idempotent;
// a second call while the keeper runs is a no-op.
func (m *Manager) startKeeper() {
	if m == nil || !m.config.Keeper.Enabled {
		return
	}

	m.keeperMu.Lock()
	defer m.keeperMu.Unlock()
	if m.keeperCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.keeperCancel = cancel

	m.keeperWG.Add(1)
	go m.runKeeper(ctx)

	if notifier, ok := m.store.Primary().(session.Notifier); ok {
		m.keeperWG.Add(1)
		go m.runWatcher(ctx, notifier)
	}
}

// stopKeeper cancels the keeper without waiting for goroutine exit; Close
// waits.
func (m *Manager) stopKeeper() {
	if m == nil {
		return
	}
	m.keeperMu.Lock()
	defer m.keeperMu.Unlock()
	if m.keeperCancel != nil {
		m.keeperCancel()
		m.keeperCancel = nil
	}
}

func (m *Manager) runKeeper(ctx context.Context) {
	defer m.keeperWG.Done()

	ticker := time.NewTicker(m.config.Keeper.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.keeperTick(ctx)
		}
	}
}

// keeperTick re-validates the in-memory session. Within the age window the
// session is re-saved to every tier; past the window it is expired in place.
func (m *Manager) keeperTick(ctx context.Context) {
	m.mu.Lock()
	cur := m.current
	var snapshot session.Session
	if cur != nil {
		snapshot = *cur
	}
	m.mu.Unlock()

	if cur == nil {
		return
	}

	age := m.clock().Sub(time.UnixMilli(snapshot.IssuedAt))
	if age >= m.config.Session.MaxAge {
		m.mu.Lock()
		m.current = nil
		m.restored = false
		m.mu.Unlock()

		m.store.Clear(ctx)
		m.stopKeeper()

		m.metricInc(MetricSessionExpired)
		m.emitAudit(ctx, auditEventSessionExpired, true, snapshot.AccountID, "", nil, nil)
		return
	}

	_ = m.store.Save(ctx, &snapshot)
	m.metricInc(MetricSessionSaved)
}

// runWatcher adopts writes made by other contexts (another process or tab
// sharing the primary tier). Each change tick drops the restored flag and
// re-runs the load protocol; last writer wins.
func (m *Manager) runWatcher(ctx context.Context, notifier session.Notifier) {
	defer m.keeperWG.Done()

	changes, err := notifier.Watch(ctx)
	if err != nil {
		log.Printf("sessionkit: primary tier watch unavailable: %v", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			m.mu.Lock()
			m.restored = false
			m.mu.Unlock()
			m.loadSession(ctx)
		}
	}
}
