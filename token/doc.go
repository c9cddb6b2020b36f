// Package token reads and mints the compact signed tokens (JWTs) that mark an
// admin session as logged in.
//
// # Decoding is not verification
//
// [DecodePayload] only base64-decodes and parses the payload segment. It never
// checks the signature and must not be treated as a security boundary: the
// management API re-verifies every token it receives. The client-side decode
// exists so the console does not present protected views to a session whose
// token has obviously expired.
//
// [Issuer] and [Verifier] sign and verify tokens with a locally held key. They
// back the development login flow and token inspection, not production auth.
//
// # What this package must NOT do
//
//   - Read or write session storage.
//   - Compare token expiry against the clock (the session evaluator owns that).
package token
