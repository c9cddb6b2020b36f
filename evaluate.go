package adminguard

import (
	"time"

	"github.com/farm2go/adminguard/permission"
	"github.com/farm2go/adminguard/store"
	"github.com/farm2go/adminguard/token"
)

// KeyValueReader is the read side of the session store as seen by the evaluator.
// [store.Snapshot] implements it.
type KeyValueReader interface {
	Get(key string) (string, bool)
}

// EvaluateSession decides whether the stored session is authenticated at now.
//
// All four session entries must be present and non-empty, the token payload must
// decode, now must be strictly before exp, and the stored role and permission sets
// must decode. Every failure becomes a denying verdict; EvaluateSession never panics
// on stored content and never writes.
func EvaluateSession(r KeyValueReader, now time.Time) Verdict {
	return EvaluateSessionWithSkew(r, now, 0)
}

// EvaluateSessionWithSkew is [EvaluateSession] with a grace window: a token stays
// valid until exp plus skew. A zero skew is the strict comparison.
func EvaluateSessionWithSkew(r KeyValueReader, now time.Time, skew time.Duration) Verdict {
	if r == nil {
		return deny(ReasonMissingCredentials)
	}

	var values [4]string
	for i, key := range store.SessionKeys() {
		v, ok := r.Get(key)
		if !ok || v == "" {
			return deny(ReasonMissingCredentials)
		}
		values[i] = v
	}
	rawToken, username, rawRoles, rawPerms := values[0], values[1], values[2], values[3]

	payload, err := token.DecodePayload(rawToken)
	if err != nil {
		return deny(ReasonInvalidToken)
	}

	nowMillis := float64(now.UnixMilli())
	if !(nowMillis < payload.ExpiresAtMillis()+float64(skew.Milliseconds())) {
		return deny(ReasonExpired)
	}

	roles, err := permission.DecodeRoles(rawRoles)
	if err != nil {
		return deny(ReasonMalformedCredentials)
	}
	perms, err := permission.DecodeSet(rawPerms)
	if err != nil {
		return deny(ReasonMalformedCredentials)
	}

	return Verdict{
		Authenticated: true,
		Identity: &Identity{
			Username:    username,
			Subject:     payload.Subject(),
			Roles:       roles,
			Permissions: perms,
			ExpiresAt:   time.UnixMilli(int64(payload.ExpiresAtMillis())),
		},
	}
}
