package sessionkit

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/tallyware/sessionkit/password"
	"github.com/tallyware/sessionkit/session"
)

// Authenticate verifies identifier and secret against the account store and,
// on success, issues a fresh token, adopts the session in memory, persists
// it across every tier, and starts the background keeper. The returned
// account is a copy; mutating it does not affect the session.
//
// Identifier matching is case-insensitive over active accounts only. When
// the identifier equals the configured bootstrap email, the matching account
// must additionally carry the exact bootstrap username.
func (m *Manager) Authenticate(ctx context.Context, identifier, secret string) (*Account, string, error) {
	if m == nil || m.hasher == nil || m.accounts == nil {
		return nil, "", ErrManagerNotReady
	}

	if len(secret) < m.config.Credential.MinLength {
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrWeakCredential, func() map[string]string {
			return map[string]string{
				"identifier": identifier,
				"reason":     "weak_credential",
			}
		})
		return nil, "", ErrWeakCredential
	}

	accounts, err := m.accounts.ListAccounts(ctx)
	if err != nil {
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, "", "", err, func() map[string]string {
			return map[string]string{
				"identifier": identifier,
				"reason":     "store_unavailable",
			}
		})
		return nil, "", errors.Join(ErrAccountStoreUnavailable, err)
	}

	acct, ok := m.matchAccount(accounts, identifier)
	if !ok {
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrAccountNotFound, func() map[string]string {
			return map[string]string{
				"identifier": identifier,
				"reason":     "account_not_found",
			}
		})
		return nil, "", ErrAccountNotFound
	}

	if !m.verifyStoredCredential(secret, acct.PasswordHash) {
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, acct.ID, "", ErrInvalidCredential, func() map[string]string {
			return map[string]string{
				"identifier": identifier,
				"reason":     "credential_mismatch",
			}
		})
		return nil, "", ErrInvalidCredential
	}

	m.maybeUpgradeHash(ctx, &acct, secret)
	secret = ""

	tok, err := m.IssueToken(&acct)
	if err != nil {
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, acct.ID, "", err, func() map[string]string {
			return map[string]string{
				"reason": "token_issue_failed",
			}
		})
		return nil, "", err
	}

	sess := &session.Session{
		AccountID: acct.ID,
		Email:     acct.Email,
		Username:  acct.Username,
		Role:      string(acct.Role),
		Token:     tok,
		IssuedAt:  m.clock().UnixMilli(),
	}

	m.adopt(sess)
	// Tier write failures are swallowed inside the store; login already
	// succeeded and memory holds the session.
	_ = m.store.Save(ctx, sess)
	m.metricInc(MetricSessionSaved)
	m.startKeeper()

	m.metricInc(MetricLoginSuccess)
	m.emitAudit(ctx, auditEventLoginSuccess, true, acct.ID, "", nil, func() map[string]string {
		return map[string]string{
			"identifier": identifier,
		}
	})

	out := acct
	return &out, tok, nil
}

// Logout clears the in-memory session and erases every persistence tier.
// Calling it without an active session is a no-op; calling it twice is safe.
func (m *Manager) Logout(ctx context.Context) {
	if m == nil || m.store == nil {
		return
	}

	m.stopKeeper()

	m.mu.Lock()
	cur := m.current
	m.current = nil
	m.restored = false
	m.mu.Unlock()

	m.store.Clear(ctx)

	accountID := ""
	if cur != nil {
		accountID = cur.AccountID
	}
	m.metricInc(MetricLogout)
	m.emitAudit(ctx, auditEventLogout, true, accountID, "", nil, nil)
}

func (m *Manager) matchAccount(accounts []Account, identifier string) (Account, bool) {
	bootstrap := m.config.Account.BootstrapEmail != "" &&
		strings.EqualFold(identifier, m.config.Account.BootstrapEmail)

	for _, a := range accounts {
		if !a.Active {
			continue
		}
		if !strings.EqualFold(a.Email, identifier) {
			continue
		}
		if bootstrap && a.Username != m.config.Account.BootstrapUsername {
			// Reserved identifier: an email match alone is not enough.
			continue
		}
		return a, true
	}
	return Account{}, false
}

func (m *Manager) verifyStoredCredential(secret, digest string) bool {
	if m == nil || m.hasher == nil || digest == "" {
		return false
	}
	if password.IsLegacy(digest) {
		return password.VerifyLegacy(secret, m.config.Credential.LegacyPepper, digest)
	}
	ok, err := m.hasher.Verify(secret, digest)
	return err == nil && ok
}

// maybeUpgradeHash re-hashes legacy or under-parameterized digests after a
// successful verification. Best-effort: a failed update never blocks login.
func (m *Manager) maybeUpgradeHash(ctx context.Context, acct *Account, secret string) {
	if !m.config.Credential.UpgradeOnLogin {
		return
	}

	needs := password.IsLegacy(acct.PasswordHash)
	if !needs {
		if n, err := m.hasher.NeedsUpgrade(acct.PasswordHash); err == nil && n {
			needs = true
		}
	}
	if !needs {
		return
	}

	newHash, err := m.hasher.Hash(secret)
	if err != nil {
		log.Print("sessionkit: credential hash upgrade generation failed")
		return
	}

	now := m.clock()
	update := AccountUpdate{
		PasswordHash: &newHash,
		UpdatedAt:    &now,
	}
	if err := m.accounts.UpdateAccount(ctx, acct.ID, update); err != nil {
		log.Print("sessionkit: credential hash upgrade update failed")
		return
	}
	acct.PasswordHash = newHash
	acct.UpdatedAt = now
}
