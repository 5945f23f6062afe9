package sessionkit

import (
	"context"
	"time"
)

// Role is the authorization role carried by an account and mirrored into the
// session token.
type Role string

const (
	// RoleAdmin grants administrative operations in the consuming application.
	RoleAdmin Role = "admin"
	// RoleUser is the default role assigned by Register.
	RoleUser Role = "user"
)

func (r Role) valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Account is a registered identity. The credential is stored only as a salted
// one-way hash; plaintext secrets never appear on this struct.
type Account struct {
	ID           string
	Email        string
	Username     string
	Role         Role
	Active       bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountUpdate carries the partial fields accepted by UpdateAccount. Nil
// pointers leave the stored value untouched. UpdatedAt is always stamped by
// the Manager, never by the store.
type AccountUpdate struct {
	Email        *string
	Username     *string
	Role         *Role
	Active       *bool
	PasswordHash *string
	UpdatedAt    *time.Time
}

// AccountStore is the external collaborator holding account records. It is
// the integration point for whatever backs the application (document
// database, SQL, in-memory fixture). Implementations must not stamp
// timestamps; the Manager owns UpdatedAt.
//
// Cascading deletion of an account's owned records is the application
// layer's responsibility, not the store's and not the Manager's.
type AccountStore interface {
	ListAccounts(ctx context.Context) ([]Account, error)
	CreateAccount(ctx context.Context, account Account) error
	UpdateAccount(ctx context.Context, id string, fields AccountUpdate) error
	DeleteAccount(ctx context.Context, id string) error
}

// RegisterInput is the input for [Manager.Register]. Role defaults to
// [RoleUser] when empty.
type RegisterInput struct {
	Email    string
	Username string
	Secret   string
	Role     Role
}

// Signal is an environment lifecycle hint forwarded by the embedding
// application. Signals trigger best-effort re-persistence only; the load
// protocol is self-healing whether or not they ever fire.
type Signal string

const (
	// SignalHidden corresponds to the surface being hidden (tab switched away).
	SignalHidden Signal = "hidden"
	// SignalVisible corresponds to the surface becoming visible again.
	SignalVisible Signal = "visible"
	// SignalFocusLost corresponds to the window losing focus.
	SignalFocusLost Signal = "focus_lost"
	// SignalUnload corresponds to the surface being torn down.
	SignalUnload Signal = "unload"
)

// HealthIssue identifies one problem detected by [Manager.Health].
type HealthIssue string

const (
	// HealthNoAccountInMemory means the in-memory session holds no account.
	HealthNoAccountInMemory HealthIssue = "no_account_in_memory"
	// HealthNoTokenInMemory means the in-memory session holds no token.
	HealthNoTokenInMemory HealthIssue = "no_token_in_memory"
	// HealthNoSessionPersisted means the primary tier holds no bundle.
	HealthNoSessionPersisted HealthIssue = "no_session_in_primary_tier"
	// HealthSessionIncomplete means the primary tier bundle is missing the
	// account, the token, or the issue timestamp.
	HealthSessionIncomplete HealthIssue = "primary_tier_bundle_incomplete"
	// HealthSessionExpired means the persisted issue timestamp is outside
	// the maximum session age.
	HealthSessionExpired HealthIssue = "session_expired"
	// HealthStorageInaccessible means the primary tier read failed outright.
	HealthStorageInaccessible HealthIssue = "primary_tier_inaccessible"
)

// HealthReport is returned by [Manager.Health]. Callers typically invoke
// [Manager.ForceRestore] when Healthy is false but the issues suggest the
// persisted state may still be recoverable.
type HealthReport struct {
	Healthy bool
	Issues  []HealthIssue
}
