package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Backend.Get when the tier holds no bundle.
var ErrNotFound = errors.New("no session bundle stored")

// ErrBundleTooLarge is returned by capacity-limited backends when the
// encoded bundle exceeds what the tier can hold.
var ErrBundleTooLarge = errors.New("session bundle exceeds tier capacity")

// Backend is one persistence tier. Each instance stores at most one bundle;
// the key or scope it writes under is fixed at construction.
//
// Implementations must be safe for concurrent use.
type Backend interface {
	// Name identifies the tier in logs, metrics, and health reports.
	Name() string
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, data []byte) error
	Delete(ctx context.Context) error
}

// Notifier is optionally implemented by backends that can observe writes
// from other contexts (other processes, other tabs). Watch delivers a tick
// per observed change until ctx is done. Listeners re-run the load protocol
// on each tick; delivery is best-effort and correctness never depends on it.
type Notifier interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}
