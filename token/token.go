// Package token implements the opaque session token codec: a base64url
// wrapping of a small JSON payload identifying who last authenticated and
// when.
//
// The encoding is reversible, not verifiable. Anyone holding a token can
// decode its contents, and anyone can mint one. It is documented for
// interoperability only and is not a substitute for server-side
// authorization checks.
package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// ErrMalformed is returned by Decode for anything that is not a
// well-formed token.
var ErrMalformed = errors.New("malformed session token")

// Payload is the decodable content of a session token.
type Payload struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IssuedAt  int64  `json:"issued_at"` // unix milliseconds
}

// Encode serializes the payload as base64url(JSON).
func Encode(p Payload) (string, error) {
	if p.AccountID == "" {
		return "", errors.New("token payload requires an account id")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode reverses Encode. Decoding success says nothing about authenticity.
func Decode(s string) (Payload, error) {
	var p Payload

	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return p, ErrMalformed
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, ErrMalformed
	}
	if p.AccountID == "" {
		return p, ErrMalformed
	}
	return p, nil
}
