package sessionkit

import (
	"context"
)

const (
	auditEventLoginSuccess             = "login_success"
	auditEventLoginFailure             = "login_failure"
	auditEventRegisterSuccess          = "register_success"
	auditEventRegisterConflict         = "register_conflict"
	auditEventRegisterFailure          = "register_failure"
	auditEventLogout                   = "logout"
	auditEventPasswordChangeSuccess    = "password_change_success"
	auditEventPasswordChangeInvalidOld = "password_change_invalid_old"
	auditEventPasswordChangeFailure    = "password_change_failure"
	auditEventAccountUpdated           = "account_updated"
	auditEventAccountDeleted           = "account_deleted"
	auditEventSessionRestored          = "session_restored"
	auditEventSessionExpired           = "session_expired"
	auditEventForceRestore             = "force_restore"
	auditEventSignalSave               = "signal_save"
	auditEventTierDegraded             = "tier_degraded"
)

// emitAudit builds the event lazily: metaFn runs only when a dispatcher is
// attached, keeping the disabled path allocation-free.
func (m *Manager) emitAudit(ctx context.Context, eventType string, success bool, accountID, tier string, opErr error, metaFn func() map[string]string) {
	if m == nil || m.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: m.clock(),
		EventType: eventType,
		AccountID: accountID,
		Tier:      tier,
		Success:   success,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	if metaFn != nil {
		event.Metadata = metaFn()
	}

	m.audit.Emit(ctx, event)
}
