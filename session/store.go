package session

import (
	"context"
	"errors"
	"time"
)

// ErrExpired is returned by Load when a tier held a bundle whose issue
// timestamp is outside the maximum age. The chain is cleared before the
// error is returned; callers treat it as "no session" plus a cleanup signal,
// not as a failure.
var ErrExpired = errors.New("session expired")

// TierErrorFunc observes a swallowed per-tier failure. op is one of "load",
// "decode", "save", "heal", or "clear".
type TierErrorFunc func(op, backend string, err error)

// Store owns the ordered tier chain. The first backend is the primary
// durable tier and the default source of truth; later backends are fallbacks
// in decreasing priority.
type Store struct {
	backends    []Backend
	maxAge      time.Duration
	clock       func() time.Time
	onTierError TierErrorFunc
}

// NewStore builds a Store over backends in priority order. maxAge bounds
// session lifetime measured from the persisted issue timestamp.
func NewStore(maxAge time.Duration, backends ...Backend) (*Store, error) {
	if len(backends) == 0 {
		return nil, errors.New("store requires at least one backend")
	}
	if maxAge <= 0 {
		return nil, errors.New("store requires a positive max age")
	}
	for _, b := range backends {
		if b == nil {
			return nil, errors.New("store backends must not be nil")
		}
	}
	return &Store{
		backends: backends,
		maxAge:   maxAge,
		clock:    time.Now,
	}, nil
}

// SetClock replaces the time source. Intended for tests.
func (s *Store) SetClock(clock func() time.Time) {
	if clock != nil {
		s.clock = clock
	}
}

// SetTierErrorFunc installs the observer for swallowed tier failures.
func (s *Store) SetTierErrorFunc(fn TierErrorFunc) {
	s.onTierError = fn
}

// Primary returns the first backend in the chain.
func (s *Store) Primary() Backend {
	return s.backends[0]
}

// Load walks the chain in priority order and returns the first complete,
// unexpired session together with the name of the tier that supplied it.
// A session adopted from a fallback tier is re-persisted to the primary
// tier before returning. An expired bundle anywhere in the chain clears
// every tier and returns ErrExpired. An empty chain returns (nil, "", nil):
// no session is a normal outcome, not an error.
func (s *Store) Load(ctx context.Context) (*Session, string, error) {
	now := s.clock()

	for i, b := range s.backends {
		data, err := b.Get(ctx)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				s.tierError("load", b.Name(), err)
			}
			continue
		}

		sess, err := Decode(data)
		if err != nil {
			s.tierError("decode", b.Name(), err)
			continue
		}
		if !sess.Complete() {
			// Partially written bundle. A lower tier may still hold a full copy.
			continue
		}

		age := now.Sub(time.UnixMilli(sess.IssuedAt))
		if age >= s.maxAge {
			s.Clear(ctx)
			return nil, b.Name(), ErrExpired
		}

		if i > 0 {
			s.heal(ctx, data)
		}
		return sess, b.Name(), nil
	}

	return nil, "", nil
}

// Save writes the session to every tier independently. A failed tier write
// is reported through the tier error observer and never aborts the
// remaining tiers.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}
	for _, b := range s.backends {
		if err := b.Set(ctx, data); err != nil {
			s.tierError("save", b.Name(), err)
		}
	}
	return nil
}

// Clear erases every tier independently with the same isolation guarantee
// as Save.
func (s *Store) Clear(ctx context.Context) {
	for _, b := range s.backends {
		if err := b.Delete(ctx); err != nil {
			s.tierError("clear", b.Name(), err)
		}
	}
}

func (s *Store) heal(ctx context.Context, data []byte) {
	primary := s.backends[0]
	if err := primary.Set(ctx, data); err != nil {
		s.tierError("heal", primary.Name(), err)
	}
}

func (s *Store) tierError(op, backend string, err error) {
	if s.onTierError != nil {
		s.onTierError(op, backend, err)
	}
}
