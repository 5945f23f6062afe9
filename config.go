package sessionkit

import (
	"errors"
	"time"
)

// Config carries every tunable of the Manager. Instances are intended to be
// configured during initialization and then treated as immutable.
type Config struct {
	Credential CredentialConfig
	Session    SessionConfig
	Restore    RestoreConfig
	Keeper     KeeperConfig
	Account    AccountConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
CREDENTIAL CONFIG
====================================
*/

// CredentialConfig controls secret validation and hashing. Memory, Time,
// Parallelism, SaltLength, and KeyLength are argon2id parameters.
type CredentialConfig struct {
	MinLength   int
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// LegacyPepper is the static application-wide pepper of digests imported
	// from deployments that hashed secrets as unsalted SHA-256. Digests in
	// that format stay verifiable and are re-hashed on successful login when
	// UpgradeOnLogin is set.
	LegacyPepper   string
	UpgradeOnLogin bool
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig bounds session lifetime and names the tier keyspace.
type SessionConfig struct {
	// MaxAge is the fixed window after which a persisted session is
	// considered expired regardless of tier. Measured from the persisted
	// issue timestamp, not from the token payload's own timestamp.
	MaxAge time.Duration

	// KeyPrefix namespaces tier storage keys for backends that share a
	// keyspace with other data.
	KeyPrefix string
}

/*
====================================
RESTORE CONFIG
====================================
*/

// RestoreConfig controls ForceRestore retry behavior.
type RestoreConfig struct {
	Attempts   int
	RetryPause time.Duration
}

/*
====================================
KEEPER CONFIG
====================================
*/

// KeeperConfig controls the background re-persistence task that runs while a
// session is active. The keeper starts on login or restore and stops on
// logout or Close.
type KeeperConfig struct {
	Enabled  bool
	Interval time.Duration
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

// AccountConfig controls registration defaults and the reserved bootstrap
// identifier rule.
type AccountConfig struct {
	DefaultRole Role

	// BootstrapEmail, when non-empty, names one reserved identifier whose
	// authentication additionally requires an exact username match against
	// BootstrapUsername. This reproduces a historical admin-disambiguation
	// rule from the original deployment; leave both empty to disable it.
	BootstrapEmail    string
	BootstrapUsername string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the buffered audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled                bool
	EnableLatencyHistogram bool
}

// DefaultConfig returns the baseline configuration: 6-character minimum
// secrets, 30-day session age, 3 restore attempts, and a 5-minute keeper.
func DefaultConfig() Config {
	return Config{
		Credential: CredentialConfig{
			MinLength:      6,
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Session: SessionConfig{
			MaxAge:    30 * 24 * time.Hour,
			KeyPrefix: "sessionkit",
		},
		Restore: RestoreConfig{
			Attempts:   3,
			RetryPause: 150 * time.Millisecond,
		},
		Keeper: KeeperConfig{
			Enabled:  true,
			Interval: 5 * time.Minute,
		},
		Account: AccountConfig{
			DefaultRole: RoleUser,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// PresetInternalTool relaxes hashing cost for small internal deployments
// where login latency on modest hardware matters more than brute-force
// resistance.
func PresetInternalTool() Config {
	cfg := DefaultConfig()
	cfg.Credential.Memory = 32 * 1024
	cfg.Credential.Time = 2
	return cfg
}

// PresetHardened raises hashing cost and shortens the session window.
func PresetHardened() Config {
	cfg := DefaultConfig()
	cfg.Credential.MinLength = 10
	cfg.Credential.Memory = 128 * 1024
	cfg.Credential.Time = 4
	cfg.Session.MaxAge = 7 * 24 * time.Hour
	return cfg
}

func validateConfig(cfg Config) error {
	if cfg.Credential.MinLength < 1 {
		return errors.New("credential min length must be positive")
	}
	if cfg.Credential.Memory < 8*1024 {
		return errors.New("argon2 memory below 8MB floor")
	}
	if cfg.Credential.Time < 1 {
		return errors.New("argon2 time cost must be at least 1")
	}
	if cfg.Credential.Parallelism < 1 {
		return errors.New("argon2 parallelism must be at least 1")
	}
	if cfg.Credential.SaltLength < 16 {
		return errors.New("salt length below 16-byte floor")
	}
	if cfg.Credential.KeyLength < 16 {
		return errors.New("key length below 16-byte floor")
	}
	if cfg.Session.MaxAge <= 0 {
		return errors.New("session max age must be positive")
	}
	if cfg.Restore.Attempts < 1 {
		return errors.New("restore attempts must be at least 1")
	}
	if cfg.Restore.RetryPause < 0 {
		return errors.New("restore retry pause must not be negative")
	}
	if cfg.Keeper.Enabled && cfg.Keeper.Interval <= 0 {
		return errors.New("keeper interval must be positive when enabled")
	}
	if cfg.Account.BootstrapEmail != "" && cfg.Account.BootstrapUsername == "" {
		return errors.New("bootstrap email requires bootstrap username")
	}
	return nil
}
