package sessionkit

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Register creates a new account: fresh opaque ID, salted credential hash,
// active flag set, both timestamps stamped now. It never logs the account
// in; callers wanting auto-login call Authenticate afterwards.
func (m *Manager) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	if m == nil || m.hasher == nil || m.accounts == nil {
		return nil, ErrManagerNotReady
	}

	if input.Email == "" || input.Username == "" {
		m.emitAudit(ctx, auditEventRegisterFailure, false, "", "", ErrRegistrationInvalid, nil)
		return nil, ErrRegistrationInvalid
	}
	if len(input.Secret) < m.config.Credential.MinLength {
		m.emitAudit(ctx, auditEventRegisterFailure, false, "", "", ErrWeakCredential, func() map[string]string {
			return map[string]string{
				"email": input.Email,
			}
		})
		return nil, ErrWeakCredential
	}

	role := input.Role
	if role == "" {
		role = m.config.Account.DefaultRole
	}
	if !role.valid() {
		m.emitAudit(ctx, auditEventRegisterFailure, false, "", "", ErrRoleInvalid, func() map[string]string {
			return map[string]string{
				"email": input.Email,
				"role":  string(role),
			}
		})
		return nil, ErrRoleInvalid
	}

	accounts, err := m.accounts.ListAccounts(ctx)
	if err != nil {
		m.emitAudit(ctx, auditEventRegisterFailure, false, "", "", err, nil)
		return nil, errors.Join(ErrAccountStoreUnavailable, err)
	}
	for _, a := range accounts {
		if strings.EqualFold(a.Email, input.Email) {
			m.metricInc(MetricRegisterConflict)
			m.emitAudit(ctx, auditEventRegisterConflict, false, a.ID, "", ErrDuplicateEmail, func() map[string]string {
				return map[string]string{
					"email": input.Email,
				}
			})
			return nil, ErrDuplicateEmail
		}
		if a.Username == input.Username {
			m.metricInc(MetricRegisterConflict)
			m.emitAudit(ctx, auditEventRegisterConflict, false, a.ID, "", ErrDuplicateUsername, func() map[string]string {
				return map[string]string{
					"username": input.Username,
				}
			})
			return nil, ErrDuplicateUsername
		}
	}

	hash, err := m.hasher.Hash(input.Secret)
	if err != nil {
		m.emitAudit(ctx, auditEventRegisterFailure, false, "", "", err, nil)
		return nil, err
	}

	now := m.clock()
	acct := Account{
		ID:           uuid.NewString(),
		Email:        input.Email,
		Username:     input.Username,
		Role:         role,
		Active:       true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := m.accounts.CreateAccount(ctx, acct); err != nil {
		m.emitAudit(ctx, auditEventRegisterFailure, false, acct.ID, "", err, nil)
		return nil, errors.Join(ErrAccountStoreUnavailable, err)
	}

	m.metricInc(MetricRegisterSuccess)
	m.emitAudit(ctx, auditEventRegisterSuccess, true, acct.ID, "", nil, func() map[string]string {
		return map[string]string{
			"email": acct.Email,
			"role":  string(acct.Role),
		}
	})

	return &acct, nil
}

// ChangeCredential verifies oldSecret against the stored digest and replaces
// it with a fresh hash of newSecret. The account's UpdatedAt is stamped by
// the Manager.
func (m *Manager) ChangeCredential(ctx context.Context, accountID, oldSecret, newSecret string) error {
	if m == nil || m.hasher == nil || m.accounts == nil {
		return ErrManagerNotReady
	}
	if len(newSecret) < m.config.Credential.MinLength {
		m.emitAudit(ctx, auditEventPasswordChangeFailure, false, accountID, "", ErrWeakCredential, nil)
		return ErrWeakCredential
	}

	acct, err := m.findByID(ctx, accountID)
	if err != nil {
		m.emitAudit(ctx, auditEventPasswordChangeFailure, false, accountID, "", err, nil)
		return err
	}

	if !m.verifyStoredCredential(oldSecret, acct.PasswordHash) {
		m.metricInc(MetricPasswordChangeInvalidOld)
		m.emitAudit(ctx, auditEventPasswordChangeInvalidOld, false, accountID, "", ErrInvalidCredential, nil)
		return ErrInvalidCredential
	}

	newHash, err := m.hasher.Hash(newSecret)
	if err != nil {
		m.emitAudit(ctx, auditEventPasswordChangeFailure, false, accountID, "", err, nil)
		return err
	}

	now := m.clock()
	update := AccountUpdate{
		PasswordHash: &newHash,
		UpdatedAt:    &now,
	}
	if err := m.accounts.UpdateAccount(ctx, accountID, update); err != nil {
		m.emitAudit(ctx, auditEventPasswordChangeFailure, false, accountID, "", err, nil)
		return errors.Join(ErrAccountStoreUnavailable, err)
	}

	m.metricInc(MetricPasswordChangeSuccess)
	m.emitAudit(ctx, auditEventPasswordChangeSuccess, true, accountID, "", nil, nil)
	return nil
}

// UpdateAccount applies partial fields through the account store, always
// stamping UpdatedAt, and returns the updated record. When the updated
// account is the one in the active session, the in-memory snapshot and the
// tiers are refreshed best-effort.
func (m *Manager) UpdateAccount(ctx context.Context, accountID string, fields AccountUpdate) (*Account, error) {
	if m == nil || m.accounts == nil {
		return nil, ErrManagerNotReady
	}
	if fields.Role != nil && !fields.Role.valid() {
		return nil, ErrRoleInvalid
	}

	now := m.clock()
	fields.UpdatedAt = &now

	if err := m.accounts.UpdateAccount(ctx, accountID, fields); err != nil {
		m.emitAudit(ctx, auditEventAccountUpdated, false, accountID, "", err, nil)
		return nil, errors.Join(ErrAccountStoreUnavailable, err)
	}

	acct, err := m.findByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	m.refreshSnapshot(ctx, &acct)

	m.emitAudit(ctx, auditEventAccountUpdated, true, accountID, "", nil, nil)
	return &acct, nil
}

// DeleteAccount removes the account record. Deleting the account's owned
// records (products, expenses) is the application layer's cascade, not
// handled here.
func (m *Manager) DeleteAccount(ctx context.Context, accountID string) error {
	if m == nil || m.accounts == nil {
		return ErrManagerNotReady
	}
	if err := m.accounts.DeleteAccount(ctx, accountID); err != nil {
		m.emitAudit(ctx, auditEventAccountDeleted, false, accountID, "", err, nil)
		return errors.Join(ErrAccountStoreUnavailable, err)
	}
	m.emitAudit(ctx, auditEventAccountDeleted, true, accountID, "", nil, nil)
	return nil
}

// ListAccounts is a pass-through to the account store.
func (m *Manager) ListAccounts(ctx context.Context) ([]Account, error) {
	if m == nil || m.accounts == nil {
		return nil, ErrManagerNotReady
	}
	return m.accounts.ListAccounts(ctx)
}

// DeactivateAccount soft-disables the account via the active flag. The
// account stops matching Authenticate lookups immediately.
func (m *Manager) DeactivateAccount(ctx context.Context, accountID string) (*Account, error) {
	inactive := false
	return m.UpdateAccount(ctx, accountID, AccountUpdate{Active: &inactive})
}

// ReactivateAccount re-enables a soft-disabled account.
func (m *Manager) ReactivateAccount(ctx context.Context, accountID string) (*Account, error) {
	active := true
	return m.UpdateAccount(ctx, accountID, AccountUpdate{Active: &active})
}

func (m *Manager) findByID(ctx context.Context, accountID string) (Account, error) {
	accounts, err := m.accounts.ListAccounts(ctx)
	if err != nil {
		return Account{}, errors.Join(ErrAccountStoreUnavailable, err)
	}
	for _, a := range accounts {
		if a.ID == accountID {
			return a, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

// refreshSnapshot propagates identity changes of the logged-in account into
// the in-memory session and the tiers.
func (m *Manager) refreshSnapshot(ctx context.Context, acct *Account) {
	m.mu.Lock()
	if m.current == nil || m.current.AccountID != acct.ID {
		m.mu.Unlock()
		return
	}
	m.current.Email = acct.Email
	m.current.Username = acct.Username
	m.current.Role = string(acct.Role)
	cur := *m.current
	m.mu.Unlock()

	_ = m.store.Save(ctx, &cur)
}
