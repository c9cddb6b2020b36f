// Package management is the client for the Farm2Go admin resource APIs.
//
// Users, roles and permissions live under the protected API root. The
// remaining resources live under the management API root. Both are called
// through a bearer transport that reads the session token at request time, so
// a logout elsewhere takes effect on the next call.
package management

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/farm2go/adminguard/authapi"
	"github.com/farm2go/adminguard/internal/httpjson"
	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// ErrBaseURL is returned by New for an unusable API root.
var ErrBaseURL = errors.New("invalid management base URL")

// OpError reports a failed resource operation.
type OpError struct {
	// Op is a verb and resource, such as "fetch users".
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Message is the text shown next to the form or table that triggered Op.
func (e *OpError) Message() string {
	if e.Op == "" {
		return "Request failed. Please try again."
	}
	return "Failed to " + e.Op + ". Please try again."
}

// StatusCode returns the HTTP status of a rejected request, or 0.
func (e *OpError) StatusCode() int {
	var se *httpjson.StatusError
	if errors.As(e.Err, &se) {
		return se.StatusCode
	}
	return 0
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the bearer HTTP client. The caller is then
// responsible for authorization headers.
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

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Client calls the admin resource APIs.
type Client struct {
	protected  string
	management string
	http       *http.Client
	logger     *zap.Logger
	timeout    time.Duration

	Users              *UsersService
	Roles              *RolesService
	Permissions        *PermissionsService
	ProductTypes       *ProductTypesService
	Products           *ProductsService
	AggregationCenters *AggregationCentersService
	Farmers            *FarmersService
	GeoLocations       *GeoLocationsService
	SmartContracts     *SmartContractsService
}

// New returns a client for the two API roots. tokens supplies the bearer
// token for every request.
func New(protectedURL, managementURL string, tokens authapi.TokenSource, opts ...Option) (*Client, error) {
	protected, err := baseURL(protectedURL)
	if err != nil {
		return nil, err
	}
	management, err := baseURL(managementURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		protected:  protected,
		management: management,
		logger:     zap.NewNop(),
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = authapi.NewBearerClient(tokens, c.logger.Named("http"), c.timeout)
	}

	c.Users = &UsersService{c}
	c.Roles = &RolesService{c}
	c.Permissions = &PermissionsService{c}
	c.ProductTypes = &ProductTypesService{c}
	c.Products = &ProductsService{c}
	c.AggregationCenters = &AggregationCentersService{c}
	c.Farmers = &FarmersService{c}
	c.GeoLocations = &GeoLocationsService{c}
	c.SmartContracts = &SmartContractsService{c}
	return c, nil
}

func baseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrBaseURL, raw)
	}
	return strings.TrimSuffix(u.String(), "/"), nil
}

// do sends one request and wraps any failure as an OpError for op.
func (c *Client) do(ctx context.Context, op, method, rawURL string, in any) (json.RawMessage, error) {
	var out json.RawMessage
	if err := httpjson.Do(ctx, c.http, method, rawURL, nil, in, &out); err != nil {
		c.logger.Warn("management request failed",
			zap.String("op", op),
			zap.String("method", method),
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return nil, &OpError{Op: op, Err: err}
	}
	return out, nil
}

func (c *Client) protectedURL(path string, query url.Values) string {
	return join(c.protected, path, query)
}

func (c *Client) managementURL(path string, query url.Values) string {
	return join(c.management, path, query)
}

func join(base, path string, query url.Values) string {
	if len(query) == 0 {
		return base + path
	}
	return base + path + "?" + query.Encode()
}
