package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/farm2go/adminguard/internal/httpjson"
	"go.uber.org/zap"
)

// Messages reported when the Auth API gives none.
const (
	MsgLoginFailed     = "Login failed"
	MsgLoginError      = "An error occurred. Please try again."
	MsgLogoutFailed    = "Logout failed"
	MsgLogoutError     = "Logout request failed. Please try again."
	MsgRefreshError    = "Failed to refresh the token. Please log in again."
	MsgValidationError = "Token validation failed."
)

var (
	// ErrBaseURL is returned by New for an unusable base URL.
	ErrBaseURL = errors.New("invalid auth api base url")
	// ErrRequest wraps transport failures and non-2xx responses.
	ErrRequest = errors.New("auth api request failed")
)

const defaultTimeout = 15 * time.Second

// SessionData is the data object of a successful login or refresh.
//
// Roles and Permissions are nil when the field is absent or null, and empty
// when the API sent an empty array.
type SessionData struct {
	Token       string   `json:"token"`
	Username    string   `json:"username"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// Complete reports whether every field the session store needs is present.
func (d *SessionData) Complete() bool {
	return d != nil && d.Token != "" && d.Username != "" && d.Roles != nil && d.Permissions != nil
}

// Response is the {success, message, data} envelope used by the Auth API.
type Response[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// LoginResult is the outcome of [Client.Login].
type LoginResult = Response[*SessionData]

// Result is the outcome of calls that carry no data.
type Result = Response[json.RawMessage]

// Validation is the response of the token-validation endpoint.
type Validation struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client calls the public Auth API endpoints.
type Client struct {
	base   string
	http   *http.Client
	logger *zap.Logger
}

// New returns a client for the Auth API rooted at publicURL.
func New(publicURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(publicURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURL, publicURL)
	}

	c := &Client{
		base:   strings.TrimSuffix(u.String(), "/"),
		http:   &http.Client{Timeout: defaultTimeout},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the public base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.base
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login posts the credentials to /login.
//
// A rejected login is a result with Success false and a nil error. Transport
// failures and non-2xx responses return an error wrapping [ErrRequest] together
// with a result carrying a displayable message.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var res LoginResult
	err := httpjson.Do(ctx, c.http, http.MethodPost, c.base+"/login", nil, credentials{
		Username: username,
		Password: password,
	}, &res)
	if err != nil {
		c.logger.Warn("login request failed", zap.String("username", username), zap.Error(err))
		return LoginResult{Message: messageFrom(err, MsgLoginError)}, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	if !res.Success {
		if res.Message == "" {
			res.Message = MsgLoginFailed
		}
		res.Data = nil
	}
	return res, nil
}

// Logout posts to /logout with token as bearer credential.
func (c *Client) Logout(ctx context.Context, token string) (Result, error) {
	var res Result
	err := httpjson.Do(ctx, c.http, http.MethodPost, c.base+"/logout", bearer(token), struct{}{}, &res)
	if err != nil {
		c.logger.Warn("logout request failed", zap.Error(err))
		return Result{Message: MsgLogoutError}, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	if !res.Success && res.Message == "" {
		res.Message = MsgLogoutFailed
	}
	return res, nil
}

// Refresh posts to /refresh with token as bearer credential.
func (c *Client) Refresh(ctx context.Context, token string) (LoginResult, error) {
	var res LoginResult
	err := httpjson.Do(ctx, c.http, http.MethodPost, c.base+"/refresh", bearer(token), struct{}{}, &res)
	if err != nil {
		c.logger.Warn("refresh request failed", zap.Error(err))
		return LoginResult{Message: MsgRefreshError}, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	return res, nil
}

// Validate asks /validate whether token is still accepted by the server.
func (c *Client) Validate(ctx context.Context, token string) (Validation, error) {
	var res Validation
	err := httpjson.Do(ctx, c.http, http.MethodGet, c.base+"/validate", bearer(token), nil, &res)
	if err != nil {
		c.logger.Warn("validate request failed", zap.Error(err))
		return Validation{Message: MsgValidationError}, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	return res, nil
}

func bearer(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// messageFrom extracts the message of an error envelope sent with a non-2xx status.
func messageFrom(err error, fallback string) string {
	var se *httpjson.StatusError
	if !errors.As(err, &se) || se.Body == "" {
		return fallback
	}
	var env Result
	if json.Unmarshal([]byte(se.Body), &env) != nil || env.Message == "" {
		return fallback
	}
	return env.Message
}
