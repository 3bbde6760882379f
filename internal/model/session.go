package model

import "time"

// SessionToken models a row of `session_tokens`.  The raw token only
// exists in the client's cookie; the table keeps its SHA-256 digest, the
// owning user and the issue time used for server-side expiry.
type SessionToken struct {
	TokenHash string `db:"token_hash"` // session_tokens.token_hash
	UserEmail string `db:"user_email"` // session_tokens.user_email
	IssuedAt  int64  `db:"issued_at"`  // session_tokens.issued_at (unix seconds)
}

// Expired reports whether the session is older than maxAge at now.
func (s SessionToken) Expired(now time.Time, maxAge time.Duration) bool {
	return !now.Before(time.Unix(s.IssuedAt, 0).Add(maxAge))
}
