// Package password hashes credentials with argon2id in PHC string format
// and verifies digests in constant time.
//
// It also recognizes the legacy digest format of earlier deployments,
// unsalted SHA-256 over secret plus a static application pepper, so
// imported accounts keep working. Legacy digests are meant to be re-hashed
// to argon2id on the first successful login; see IsLegacy.
package password
