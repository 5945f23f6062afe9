package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

const legacyPrefix = "sha256$"

// IsLegacy reports whether digest is in the pre-argon2 format: an unsalted,
// statically peppered SHA-256 hex string, with or without the "sha256$"
// marker older exports carried.
func IsLegacy(digest string) bool {
	hexPart := strings.TrimPrefix(digest, legacyPrefix)
	if len(hexPart) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hexPart)
	return err == nil
}

// LegacyDigest reproduces the original deployment's digest: hex SHA-256 of
// secret concatenated with the static application pepper. There is no
// per-account salt, so equal secrets yield equal digests. Kept only for
// verifying imported accounts; new digests always come from [Argon2.Hash].
func LegacyDigest(secret, pepper string) string {
	sum := sha256.Sum256([]byte(secret + pepper))
	return legacyPrefix + hex.EncodeToString(sum[:])
}

// VerifyLegacy recomputes the legacy digest and compares in constant time.
func VerifyLegacy(secret, pepper, digest string) bool {
	if !IsLegacy(digest) {
		return false
	}
	computed := strings.TrimPrefix(LegacyDigest(secret, pepper), legacyPrefix)
	stored := strings.TrimPrefix(digest, legacyPrefix)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(stored)) == 1
}
