package adminguard

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called on a nil or partially built engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrStoreRequired is returned by Build when no session store was supplied.
	ErrStoreRequired = errors.New("session store required")
	// ErrAuthClientRequired is returned by Login when no Auth API client was supplied.
	ErrAuthClientRequired = errors.New("auth api client required")
	// ErrBuilderUsed is returned when Build is called twice on one Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrUnknownMenuPermission is returned by Build when the menu references a code the registry does not know.
	ErrUnknownMenuPermission = errors.New("menu references unknown permission")
	// ErrLoginFailed is returned when the Auth API rejects a login or cannot be reached.
	ErrLoginFailed = errors.New("login failed")
	// ErrIncompleteLogin is returned when a successful login response lacks token, username, roles or permissions.
	ErrIncompleteLogin = errors.New("login response incomplete")
	// ErrNoToken is returned by Logout when no token is stored.
	ErrNoToken = errors.New("no token available to logout")
	// ErrSessionWrite is returned when the session store rejects the login write or logout clear.
	ErrSessionWrite = errors.New("session store write failed")
)
