// Package sessionkit provides the authentication and session-persistence core
// for small client-heavy applications: salted argon2id credential hashing,
// opaque decodable session tokens, and a multi-tier persistence chain that
// keeps a legitimately issued session alive across restarts and partial
// storage failures.
//
// The package is the public surface. It exposes [Manager], [Builder],
// [Config], and value types (Account, HealthReport, MetricsSnapshot). Tier
// backends live in the session sub-package, the token codec in token, and
// credential hashing in password.
//
// # Architecture boundaries
//
//   - sessionkit never owns account storage. Callers supply an [AccountStore]
//     collaborator; account reads and writes are pass-throughs.
//   - Persistence-tier failures never propagate to callers. A broken tier
//     degrades the chain; it must not take down login.
//   - The session token is decodable but unsigned. It proves only that this
//     client remembers logging in and must never be treated as a server-side
//     authorization credential.
//
// # What this package must NOT do
//
//   - Expose tier backends, codecs, or hashing internals in Manager methods.
//   - Keep module-level mutable session state. All state hangs off the
//     Manager built by [Builder.Build].
//   - Block login on audit or metrics delivery.
package sessionkit
