// Package adminguard is the session guard of the Farm2Go admin console: it decides
// whether the current session is authenticated, which parts of the console it may
// see, and keeps that decision in step with changes made by other console processes.
//
// The package is designed for interactive use: Engine methods are safe to call from
// multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// adminguard is the public surface. It exposes [Engine], [Builder], [Config], the pure
// [EvaluateSession] function and value types ([Verdict], [Identity], MetricsSnapshot).
// Storage backends live in store, the menu model in navigation, audit dispatch under
// internal/.
//
// # Not a security boundary
//
// Evaluation decodes the stored token without checking its signature. It keeps an
// obviously expired or incomplete session away from protected views; every API the
// console calls must still verify the token server side.
//
// # What this package must NOT do
//
//   - Write to the session store while evaluating.
//   - Log or audit raw tokens or passwords.
//   - Import router or watcher (they depend on this package).
package adminguard
