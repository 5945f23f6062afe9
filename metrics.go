package sessionkit

import (
	internalmetrics "github.com/tallyware/sessionkit/internal/metrics"
)

// MetricID identifies a specific counter or histogram slot in the in-process
// metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricLoginSuccess counts successful Authenticate calls.
	MetricLoginSuccess = internalmetrics.MetricLoginSuccess
	// MetricLoginFailure counts Authenticate rejections of every kind.
	MetricLoginFailure = internalmetrics.MetricLoginFailure
	// MetricRegisterSuccess counts successful Register calls.
	MetricRegisterSuccess = internalmetrics.MetricRegisterSuccess
	// MetricRegisterConflict counts duplicate email/username rejections.
	MetricRegisterConflict = internalmetrics.MetricRegisterConflict
	// MetricPasswordChangeSuccess counts successful ChangeCredential calls.
	MetricPasswordChangeSuccess = internalmetrics.MetricPasswordChangeSuccess
	// MetricPasswordChangeInvalidOld counts ChangeCredential rejections on
	// the current credential.
	MetricPasswordChangeInvalidOld = internalmetrics.MetricPasswordChangeInvalidOld
	// MetricLogout counts Logout calls.
	MetricLogout = internalmetrics.MetricLogout
	// MetricSessionSaved counts full-chain session saves.
	MetricSessionSaved = internalmetrics.MetricSessionSaved
	// MetricSessionRestored counts sessions adopted from any tier.
	MetricSessionRestored = internalmetrics.MetricSessionRestored
	// MetricSessionExpired counts expired sessions discovered during load.
	MetricSessionExpired = internalmetrics.MetricSessionExpired
	// MetricTierReadFailure counts swallowed tier read/decode failures.
	MetricTierReadFailure = internalmetrics.MetricTierReadFailure
	// MetricTierWriteFailure counts swallowed tier write/clear failures.
	MetricTierWriteFailure = internalmetrics.MetricTierWriteFailure
	// MetricForceRestoreSuccess counts ForceRestore calls that adopted a session.
	MetricForceRestoreSuccess = internalmetrics.MetricForceRestoreSuccess
	// MetricForceRestoreFailure counts ForceRestore calls that exhausted retries.
	MetricForceRestoreFailure = internalmetrics.MetricForceRestoreFailure
	// MetricHealthUnhealthy counts Health reports with at least one issue.
	MetricHealthUnhealthy = internalmetrics.MetricHealthUnhealthy
	// MetricSignalSave counts lifecycle-signal-triggered saves.
	MetricSignalSave = internalmetrics.MetricSignalSave
	// MetricLoadLatency is the session-load latency histogram.
	MetricLoadLatency = internalmetrics.MetricLoadLatency
)

// Metrics holds atomic counters and the optional load-latency histogram.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a Metrics instance configured by cfg. When Enabled is
// false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistogram,
	})
}
