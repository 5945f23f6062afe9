package session

import (
	"encoding/json"
	"errors"
)

const bundleFormatVersionCurrent = 1

// ErrBundleCorrupt is returned by Decode when the stored bytes are not a
// bundle this codec understands.
var ErrBundleCorrupt = errors.New("session bundle corrupt")

type bundleEnvelope struct {
	Version int     `json:"v"`
	Session Session `json:"session"`
}

// Encode serializes a session into the versioned bundle format written to
// every tier.
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, ErrBundleCorrupt
	}
	return json.Marshal(bundleEnvelope{
		Version: bundleFormatVersionCurrent,
		Session: *s,
	})
}

// Decode parses a bundle. It validates the envelope only; completeness of
// the decoded session is the Store's concern, so a partially written bundle
// decodes successfully and is rejected during chain evaluation.
func Decode(data []byte) (*Session, error) {
	var env bundleEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrBundleCorrupt
	}
	if env.Version != bundleFormatVersionCurrent {
		return nil, ErrBundleCorrupt
	}
	s := env.Session
	return &s, nil
}
