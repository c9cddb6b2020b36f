package adminguard

import (
	"time"

	"github.com/farm2go/adminguard/permission"
)

// Reason explains why a [Verdict] denies access. It exists for diagnostics only:
// every non-zero reason leads to the same redirect to the login view.
type Reason uint8

const (
	// ReasonNone marks an authenticated verdict.
	ReasonNone Reason = iota
	// ReasonMissingCredentials means one or more of the session entries is absent or empty.
	ReasonMissingCredentials
	// ReasonInvalidToken means the token payload could not be split, decoded or parsed.
	ReasonInvalidToken
	// ReasonExpired means the token's exp claim is not after the current instant.
	ReasonExpired
	// ReasonMalformedCredentials means the stored role or permission set could not be decoded.
	ReasonMalformedCredentials
	// ReasonStoreUnavailable means the session store could not be read.
	ReasonStoreUnavailable
)

var reasonNames = [...]string{
	ReasonNone:                 "none",
	ReasonMissingCredentials:   "missing_credentials",
	ReasonInvalidToken:         "invalid_token",
	ReasonExpired:              "expired",
	ReasonMalformedCredentials: "malformed_credentials",
	ReasonStoreUnavailable:     "store_unavailable",
}

func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return "unknown"
}

// Identity is what an authenticated session claims to be. Nothing in it has been
// verified cryptographically.
type Identity struct {
	Username    string
	Subject     string
	Roles       permission.Roles
	Permissions permission.Set
	ExpiresAt   time.Time
}

// Verdict is the outcome of one session evaluation. It is never persisted.
type Verdict struct {
	Authenticated bool
	Reason        Reason
	// Identity is set only when Authenticated is true.
	Identity *Identity
}

func deny(reason Reason) Verdict {
	return Verdict{Reason: reason}
}
