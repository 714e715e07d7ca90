package domain

import "time"

// PendingAuthnTTL is how long a pending authentication stays valid after
// the AuthnRequest is accepted.
const PendingAuthnTTL = 5 * time.Minute

// PendingAuthentication tracks one accepted AuthnRequest while the
// principal authenticates. At most one live record exists per browser
// session; it is consumed exactly once, either by response emission or
// by expiry. Records are never reused across sessions.
type PendingAuthentication struct {
	RequestID  string
	SPEntityID string
	ACSURL     string
	RelayState string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the record is past its expiry at the given time.
func (p *PendingAuthentication) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
