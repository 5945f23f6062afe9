package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

const defaultSignedCapacity = 4096

// SignedBackend is the low-capacity last-resort tier. The bundle is wrapped
// in an HMAC-SHA256 compact token before being handed to the inner backend,
// so a carrier the application cannot fully trust (typically a cookie jar)
// cannot feed back a bundle it fabricated or altered. A bundle that would
// not fit the carrier is refused with ErrBundleTooLarge rather than
// truncated.
type SignedBackend struct {
	inner    Backend
	key      []byte
	capacity int
}

// NewSignedBackend wraps inner with signing under key. key must not be
// empty; capacity defaults to 4KB, the conventional cookie ceiling.
func NewSignedBackend(inner Backend, key []byte) (*SignedBackend, error) {
	if inner == nil {
		return nil, errors.New("signed backend requires an inner backend")
	}
	if len(key) == 0 {
		return nil, errors.New("signed backend requires a signing key")
	}
	return &SignedBackend{
		inner:    inner,
		key:      key,
		capacity: defaultSignedCapacity,
	}, nil
}

// WithCapacity overrides the carrier size limit in bytes.
func (b *SignedBackend) WithCapacity(capacity int) *SignedBackend {
	if capacity > 0 {
		b.capacity = capacity
	}
	return b
}

func (b *SignedBackend) Name() string {
	return "signed:" + b.inner.Name()
}

func (b *SignedBackend) Get(ctx context.Context) ([]byte, error) {
	wrapped, err := b.inner.Get(ctx)
	if err != nil {
		return nil, err
	}

	parsed, err := jwt.Parse(string(wrapped), func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return b.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrBundleCorrupt
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrBundleCorrupt
	}
	encoded, ok := claims["bundle"].(string)
	if !ok {
		return nil, ErrBundleCorrupt
	}

	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrBundleCorrupt
	}
	return data, nil
}

func (b *SignedBackend) Set(ctx context.Context, data []byte) error {
	claims := jwt.MapClaims{
		"bundle": base64.RawURLEncoding.EncodeToString(data),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.key)
	if err != nil {
		return err
	}
	if len(signed) > b.capacity {
		return ErrBundleTooLarge
	}
	return b.inner.Set(ctx, []byte(signed))
}

func (b *SignedBackend) Delete(ctx context.Context) error {
	return b.inner.Delete(ctx)
}
