package sessionkit

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tallyware/sessionkit/session"
	"github.com/tallyware/sessionkit/token"
)

// Manager owns credential verification, token lifecycle, and the multi-tier
// session persistence protocol. Build instances through [Builder.Build];
// a zero Manager is not usable.
//
// Exactly one session is tracked per Manager. The in-memory session is the
// working copy; the tier chain exists so that copy can be rebuilt after
// restarts and partial storage failures for up to the configured maximum
// session age.
type Manager struct {
	config   Config
	accounts AccountStore
	hasher   credentialHasher
	store    *session.Store
	audit    *auditDispatcher
	metrics  *Metrics
	clock    func() time.Time

	mu       sync.Mutex
	current  *session.Session
	restored bool

	restoreGroup singleflight.Group

	keeperMu     sync.Mutex
	keeperCancel context.CancelFunc
	keeperWG     sync.WaitGroup
}

// credentialHasher is satisfied by password.Argon2; factored out so tests
// can substitute a cheap hasher.
type credentialHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, encodedDigest string) (bool, error)
	NeedsUpgrade(encodedDigest string) (bool, error)
}

// Close stops the background keeper and flushes the audit dispatcher. The
// session itself is left persisted; closing a Manager is not a logout.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.stopKeeper()
	m.keeperWG.Wait()
	if m.audit != nil {
		m.audit.Close()
	}
}

// CurrentAccount returns the authenticated account snapshot, or nil when no
// session exists. An empty in-memory session triggers one pass of the load
// protocol before answering; the account store is never queried.
func (m *Manager) CurrentAccount(ctx context.Context) *Account {
	sess := m.loadSession(ctx)
	if sess == nil {
		return nil
	}
	acct := accountFromSession(sess)
	return &acct
}

// CurrentToken returns the bearer token of the active session, or the empty
// string when no session exists. Like CurrentAccount, it restores from the
// tier chain when memory is empty.
func (m *Manager) CurrentToken(ctx context.Context) string {
	sess := m.loadSession(ctx)
	if sess == nil {
		return ""
	}
	return sess.Token
}

// IsAuthenticated reports whether both a current account and a current token
// exist.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	sess := m.loadSession(ctx)
	return sess != nil && sess.Complete()
}

// IssueToken builds and encodes a fresh token for account. The token is
// decodable but unsigned; holding one proves nothing to a server.
func (m *Manager) IssueToken(account *Account) (string, error) {
	if account == nil {
		return "", ErrAccountNotFound
	}
	return token.Encode(token.Payload{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      string(account.Role),
		IssuedAt:  m.clock().UnixMilli(),
	})
}

// VerifyToken decodes tok and checks that its embedded account ID matches
// the currently loaded session's account. The token's own timestamp is not
// consulted; only the persisted issue timestamp governs expiry.
func (m *Manager) VerifyToken(ctx context.Context, tok string) bool {
	payload, err := token.Decode(tok)
	if err != nil {
		return false
	}
	sess := m.loadSession(ctx)
	return sess != nil && sess.AccountID == payload.AccountID
}

// HashCredential derives a salted one-way digest from secret.
func (m *Manager) HashCredential(secret string) (string, error) {
	if m == nil || m.hasher == nil {
		return "", ErrManagerNotReady
	}
	return m.hasher.Hash(secret)
}

// VerifyCredential reports whether secret matches digest. Both current
// argon2id digests and legacy statically peppered digests are recognized.
func (m *Manager) VerifyCredential(secret, digest string) bool {
	return m.verifyStoredCredential(secret, digest)
}

// MetricsSnapshot returns a deep copy of all counters and histograms.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return m.metrics.Snapshot()
}

// AuditDropped returns how many audit events were discarded because the
// dispatcher buffer was full.
func (m *Manager) AuditDropped() uint64 {
	if m == nil || m.audit == nil {
		return 0
	}
	return m.audit.Dropped()
}

func (m *Manager) metricInc(id MetricID) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Inc(id)
}

// onTierError is installed as the Store's tier failure observer. Tier
// failures are swallowed by contract; this is where they become logs,
// metrics, and audit events instead of caller-visible errors.
func (m *Manager) onTierError(op, backend string, err error) {
	log.Printf("sessionkit: tier %s %s failed: %v", backend, op, err)
	switch op {
	case "load", "decode":
		m.metricInc(MetricTierReadFailure)
	default:
		m.metricInc(MetricTierWriteFailure)
	}
	m.emitAudit(context.Background(), auditEventTierDegraded, false, "", backend, err, func() map[string]string {
		return map[string]string{
			"op": op,
		}
	})
}

func accountFromSession(sess *session.Session) Account {
	return Account{
		ID:       sess.AccountID,
		Email:    sess.Email,
		Username: sess.Username,
		Role:     Role(sess.Role),
		Active:   true,
	}
}
