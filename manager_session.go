package sessionkit

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/tallyware/sessionkit/session"
)

// loadSession returns the active session, restoring from the tier chain when
// memory is empty. Once a session has been restored (or adopted by login)
// the restored flag short-circuits every later call; concurrent restore
// attempts collapse into a single chain walk.
func (m *Manager) loadSession(ctx context.Context) *session.Session {
	if m == nil || m.store == nil {
		return nil
	}

	m.mu.Lock()
	if m.restored && m.current != nil {
		cur := m.current
		m.mu.Unlock()
		return cur
	}
	m.mu.Unlock()

	v, _, _ := m.restoreGroup.Do("load", func() (interface{}, error) {
		return m.loadSessionOnce(ctx), nil
	})
	sess, _ := v.(*session.Session)
	return sess
}

func (m *Manager) loadSessionOnce(ctx context.Context) *session.Session {
	// Another caller in the same flight may have finished the restore.
	m.mu.Lock()
	if m.restored && m.current != nil {
		cur := m.current
		m.mu.Unlock()
		return cur
	}
	m.mu.Unlock()

	var start time.Time
	if m.metrics != nil && m.metrics.LatencyEnabled() {
		start = time.Now()
		defer func() {
			m.metrics.Observe(MetricLoadLatency, time.Since(start))
		}()
	}

	sess, tier, err := m.store.Load(ctx)
	if err != nil {
		if errors.Is(err, session.ErrExpired) {
			// Expiry is a normal outcome: the chain is already cleared, the
			// caller simply has no session.
			m.mu.Lock()
			m.current = nil
			m.restored = false
			m.mu.Unlock()

			m.metricInc(MetricSessionExpired)
			m.emitAudit(ctx, auditEventSessionExpired, true, "", tier, nil, nil)
		}
		return nil
	}
	if sess == nil {
		return nil
	}

	m.adopt(sess)
	m.startKeeper()

	m.metricInc(MetricSessionRestored)
	m.emitAudit(ctx, auditEventSessionRestored, true, sess.AccountID, tier, nil, nil)

	return sess
}

// adopt installs sess as the in-memory session and sets the restored flag.
func (m *Manager) adopt(sess *session.Session) {
	m.mu.Lock()
	m.current = sess
	m.restored = true
	m.mu.Unlock()
}

// ForceRestore is for callers that suspect memory is stale while persistence
// may still be valid. It resets the restored flag and retries the load
// protocol up to the configured attempt count with a short pause between
// attempts, returning true on the first success.
func (m *Manager) ForceRestore(ctx context.Context) bool {
	if m == nil || m.store == nil {
		return false
	}

	attempts := m.config.Restore.Attempts
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				m.metricInc(MetricForceRestoreFailure)
				return false
			case <-time.After(m.config.Restore.RetryPause):
			}
		}

		m.mu.Lock()
		m.restored = false
		m.mu.Unlock()

		if sess := m.loadSession(ctx); sess != nil {
			m.metricInc(MetricForceRestoreSuccess)
			m.emitAudit(ctx, auditEventForceRestore, true, sess.AccountID, "", nil, func() map[string]string {
				return map[string]string{
					"attempt": strconv.Itoa(i + 1),
				}
			})
			return true
		}
	}

	m.metricInc(MetricForceRestoreFailure)
	m.emitAudit(ctx, auditEventForceRestore, false, "", "", ErrRestoreExhausted, nil)
	return false
}

// Health inspects the in-memory session and the primary tier independently
// and reports every issue found. Fallback tiers are deliberately not
// consulted: a healthy primary is the steady state, and the load protocol
// already knows how to use the rest of the chain.
func (m *Manager) Health(ctx context.Context) HealthReport {
	var issues []HealthIssue

	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()

	if cur == nil || cur.AccountID == "" {
		issues = append(issues, HealthNoAccountInMemory)
	}
	if cur == nil || cur.Token == "" {
		issues = append(issues, HealthNoTokenInMemory)
	}

	primary := m.store.Primary()
	data, err := primary.Get(ctx)
	switch {
	case errors.Is(err, session.ErrNotFound):
		issues = append(issues, HealthNoSessionPersisted)
	case err != nil:
		issues = append(issues, HealthStorageInaccessible)
	default:
		sess, decodeErr := session.Decode(data)
		if decodeErr != nil || !sess.Complete() {
			issues = append(issues, HealthSessionIncomplete)
		} else if m.clock().Sub(time.UnixMilli(sess.IssuedAt)) >= m.config.Session.MaxAge {
			issues = append(issues, HealthSessionExpired)
		}
	}

	report := HealthReport{
		Healthy: len(issues) == 0,
		Issues:  issues,
	}
	if !report.Healthy {
		m.metricInc(MetricHealthUnhealthy)
	}
	return report
}

// Signal is the hook for environment lifecycle events (tab hidden, focus
// lost, unload). An active session is re-persisted best-effort; with no
// session the signal is ignored. Correctness never depends on signals
// firing.
func (m *Manager) Signal(ctx context.Context, sig Signal) {
	if m == nil || m.store == nil {
		return
	}

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

	_ = m.store.Save(ctx, &snapshot)
	m.metricInc(MetricSignalSave)
	m.emitAudit(ctx, auditEventSignalSave, true, snapshot.AccountID, "", nil, func() map[string]string {
		return map[string]string{
			"signal": string(sig),
		}
	})
}
