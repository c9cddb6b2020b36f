// Package router maps console paths to views and guards protected ones.
//
// Every navigation to a protected path evaluates the session first: the
// cross-process watcher only notices a removed token, so an expired token is
// caught here. Unknown paths render the not-found view for authenticated
// sessions and the login view otherwise.
package router
