package authapi

import (
	"context"
	"net/http"
	"time"

	"github.com/farm2go/adminguard/store"
	"go.uber.org/zap"
)

// TokenSource yields the bearer token for an outgoing request.
type TokenSource interface {
	Token(ctx context.Context) (string, bool, error)
}

// StoreTokens reads the token from a session store at request time.
type StoreTokens struct {
	Store store.Store
}

// Token returns the stored token.
func (s StoreTokens) Token(ctx context.Context) (string, bool, error) {
	if s.Store == nil {
		return "", false, nil
	}
	return s.Store.Get(ctx, store.KeyToken)
}

// StaticToken always yields the same token. Empty means none.
type StaticToken string

// Token returns the static token.
func (t StaticToken) Token(context.Context) (string, bool, error) {
	return string(t), t != "", nil
}

// BearerTransport sets Authorization: Bearer on each request from Tokens, and
// logs method, URL, status and duration. The token itself is never logged.
type BearerTransport struct {
	Base   http.RoundTripper
	Tokens TokenSource
	Logger *zap.Logger
}

// NewBearerClient returns an HTTP client that authenticates with tokens.
func NewBearerClient(tokens TokenSource, logger *zap.Logger, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &BearerTransport{Tokens: tokens, Logger: logger},
	}
}

// RoundTrip implements http.RoundTripper.
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	out := req.Clone(req.Context())
	if t.Tokens != nil {
		tok, ok, err := t.Tokens.Token(req.Context())
		if err != nil {
			logger.Warn("bearer token unavailable", zap.String("url", req.URL.Redacted()), zap.Error(err))
		} else if ok && tok != "" {
			out.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	logger.Debug("outgoing request",
		zap.String("method", out.Method),
		zap.String("url", out.URL.Redacted()),
		zap.Bool("authorized", out.Header.Get("Authorization") != ""),
	)

	resp, err := base.RoundTrip(out)
	if err != nil {
		logger.Warn("request error",
			zap.String("method", out.Method),
			zap.String("url", out.URL.Redacted()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	fields := []zap.Field{
		zap.String("method", out.Method),
		zap.String("url", out.URL.Redacted()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	}
	if resp.StatusCode >= 400 {
		logger.Warn("response error", fields...)
	} else {
		logger.Debug("incoming response", fields...)
	}
	return resp, nil
}
