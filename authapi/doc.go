// Package authapi is the client for the Farm2Go Auth API: login, logout, token
// refresh and token validation against the public base URL.
//
// The session guard never calls these endpoints while evaluating. Login and
// logout orchestration in adminguard uses [Client] to populate and clear the
// session store.
//
// [BearerTransport] attaches the stored token to requests against protected APIs
// and logs each exchange without the token.
package authapi
