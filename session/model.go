package session

// Session is the client-held proof of a successful authentication: a flat
// snapshot of the authenticated account, the opaque bearer token, and the
// issue timestamp that governs expiry. The persisted IssuedAt is
// authoritative; the timestamp embedded in the token payload is not
// consulted for expiry.
type Session struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Token     string `json:"token"`
	IssuedAt  int64  `json:"issued_at"` // unix milliseconds
}

// Complete reports whether the session carries everything the validity
// invariant requires: an account, a token, and an issue timestamp.
func (s *Session) Complete() bool {
	return s != nil && s.AccountID != "" && s.Token != "" && s.IssuedAt > 0
}
