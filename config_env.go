package sessionkit

import (
	"time"

	env "github.com/caarlos0/env/v11"
)

type envOverrides struct {
	MinLength         int           `env:"SESSIONKIT_CREDENTIAL_MIN_LENGTH"`
	LegacyPepper      string        `env:"SESSIONKIT_CREDENTIAL_LEGACY_PEPPER"`
	UpgradeOnLogin    *bool         `env:"SESSIONKIT_CREDENTIAL_UPGRADE_ON_LOGIN"`
	MaxAge            time.Duration `env:"SESSIONKIT_SESSION_MAX_AGE"`
	KeyPrefix         string        `env:"SESSIONKIT_SESSION_KEY_PREFIX"`
	RestoreAttempts   int           `env:"SESSIONKIT_RESTORE_ATTEMPTS"`
	RestoreRetryPause time.Duration `env:"SESSIONKIT_RESTORE_RETRY_PAUSE"`
	KeeperEnabled     *bool         `env:"SESSIONKIT_KEEPER_ENABLED"`
	KeeperInterval    time.Duration `env:"SESSIONKIT_KEEPER_INTERVAL"`
	DefaultRole       string        `env:"SESSIONKIT_ACCOUNT_DEFAULT_ROLE"`
	BootstrapEmail    string        `env:"SESSIONKIT_ACCOUNT_BOOTSTRAP_EMAIL"`
	BootstrapUsername string        `env:"SESSIONKIT_ACCOUNT_BOOTSTRAP_USERNAME"`
	AuditEnabled      *bool         `env:"SESSIONKIT_AUDIT_ENABLED"`
	MetricsEnabled    *bool         `env:"SESSIONKIT_METRICS_ENABLED"`
}

// ConfigFromEnv returns DefaultConfig overridden by any SESSIONKIT_*
// environment variables that are set. Unset variables leave the default in
// place.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return Config{}, err
	}

	if o.MinLength > 0 {
		cfg.Credential.MinLength = o.MinLength
	}
	if o.LegacyPepper != "" {
		cfg.Credential.LegacyPepper = o.LegacyPepper
	}
	if o.UpgradeOnLogin != nil {
		cfg.Credential.UpgradeOnLogin = *o.UpgradeOnLogin
	}
	if o.MaxAge > 0 {
		cfg.Session.MaxAge = o.MaxAge
	}
	if o.KeyPrefix != "" {
		cfg.Session.KeyPrefix = o.KeyPrefix
	}
	if o.RestoreAttempts > 0 {
		cfg.Restore.Attempts = o.RestoreAttempts
	}
	if o.RestoreRetryPause > 0 {
		cfg.Restore.RetryPause = o.RestoreRetryPause
	}
	if o.KeeperEnabled != nil {
		cfg.Keeper.Enabled = *o.KeeperEnabled
	}
	if o.KeeperInterval > 0 {
		cfg.Keeper.Interval = o.KeeperInterval
	}
	if o.DefaultRole != "" {
		cfg.Account.DefaultRole = Role(o.DefaultRole)
	}
	if o.BootstrapEmail != "" {
		cfg.Account.BootstrapEmail = o.BootstrapEmail
	}
	if o.BootstrapUsername != "" {
		cfg.Account.BootstrapUsername = o.BootstrapUsername
	}
	if o.AuditEnabled != nil {
		cfg.Audit.Enabled = *o.AuditEnabled
	}
	if o.MetricsEnabled != nil {
		cfg.Metrics.Enabled = *o.MetricsEnabled
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
