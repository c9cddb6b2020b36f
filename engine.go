package adminguard

import (
	"context"
	"fmt"
	"time"

	"github.com/farm2go/adminguard/authapi"
	"github.com/farm2go/adminguard/internal/audit"
	"github.com/farm2go/adminguard/navigation"
	"github.com/farm2go/adminguard/permission"
	"github.com/farm2go/adminguard/store"
	"go.uber.org/zap"
)

// Messages shown by the console for login and logout outcomes.
const (
	MsgIncompleteLogin = "Incomplete data received. Please try again."
	MsgNoToken         = "No token available to logout."
	MsgLoggedOut       = "Logged out."
)

// AuthClient is the part of the Auth API the engine calls. [authapi.Client]
// implements it.
type AuthClient interface {
	Login(ctx context.Context, username, password string) (authapi.LoginResult, error)
	Logout(ctx context.Context, token string) (authapi.Result, error)
}

// Engine is the session guard. Methods are safe for concurrent use.
type Engine struct {
	config   Config
	store    store.Store
	registry *permission.Registry
	menu     []navigation.Entry
	auth     AuthClient
	logger   *zap.Logger
	audit    *audit.Dispatcher
	metrics  *Metrics
	now      func() time.Time
}

// LoginResult is the outcome of [Engine.Login].
type LoginResult struct {
	// Message is displayable text for the login view.
	Message string
	// Verdict is the evaluation of the freshly stored session.
	Verdict Verdict
}

// LogoutResult is the outcome of [Engine.Logout]. The session is cleared even
// when Success is false.
type LogoutResult struct {
	Success bool
	Message string
}

// Close stops the audit dispatcher after draining queued events. It does not
// close the store.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// Store returns the session store.
func (e *Engine) Store() store.Store {
	return e.store
}

// Registry returns the frozen permission catalog.
func (e *Engine) Registry() *permission.Registry {
	return e.registry
}

// Logger returns the engine logger.
func (e *Engine) Logger() *zap.Logger {
	return e.logger
}

// LoginPath returns the view denied sessions are sent to.
func (e *Engine) LoginPath() string {
	return e.config.LoginPath
}

// HomePath returns the view shown after login.
func (e *Engine) HomePath() string {
	return e.config.HomePath
}

// AuditDropped returns how many audit events were dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns the current counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Evaluate reads the store and evaluates the session at the current instant.
// It never writes and never returns an error: a store failure is the verdict
// [ReasonStoreUnavailable].
//
// Performance: one store snapshot per call.
func (e *Engine) Evaluate(ctx context.Context) Verdict {
	if e == nil || e.store == nil {
		return deny(ReasonStoreUnavailable)
	}
	start := time.Now()

	var v Verdict
	snap, err := e.store.Snapshot(ctx)
	if err != nil {
		e.logger.Warn("session store read failed", zap.Error(err))
		v = deny(ReasonStoreUnavailable)
	} else {
		v = EvaluateSessionWithSkew(snap, e.now(), e.config.ClockSkew)
	}

	e.metricInc(reasonMetric(v.Reason))
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricEvaluateLatency, time.Since(start))
	}

	if v.Authenticated {
		if unknown := e.registry.Unknown(v.Identity.Permissions); len(unknown) > 0 {
			e.logger.Debug("session holds permissions outside the catalog",
				zap.String("username", v.Identity.Username),
				zap.Strings("unknown", unknown),
			)
		}
		return v
	}

	e.logger.Debug("session denied", zap.Stringer("reason", v.Reason))
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventSessionEvaluated,
		Success:   false,
		Reason:    v.Reason.String(),
	})
	return v
}

// FilterMenu applies the navigation filter to the engine's menu.
func (e *Engine) FilterMenu(perms permission.Set) []navigation.Entry {
	e.metricInc(MetricMenuFiltered)
	return navigation.Filter(e.menu, perms)
}

// Menu evaluates the session and returns the menu it may see. A denied
// session gets no menu.
func (e *Engine) Menu(ctx context.Context) ([]navigation.Entry, Verdict) {
	v := e.Evaluate(ctx)
	if !v.Authenticated {
		return nil, v
	}
	return e.FilterMenu(v.Identity.Permissions), v
}

// MenuDefinition returns a copy of the unfiltered menu.
func (e *Engine) MenuDefinition() []navigation.Entry {
	out := make([]navigation.Entry, len(e.menu))
	for i, m := range e.menu {
		out[i] = m.Clone()
	}
	return out
}

// Login authenticates against the Auth API and, on success, writes token,
// username, roles and permissions to the store in one operation.
//
// A response lacking any of the four fields stores nothing and returns
// [ErrIncompleteLogin]. Rejections and transport failures return
// [ErrLoginFailed]; the result message is displayable either way.
func (e *Engine) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if e == nil || e.store == nil {
		return LoginResult{}, ErrEngineNotReady
	}
	if e.auth == nil {
		return LoginResult{}, ErrAuthClientRequired
	}

	res, err := e.auth.Login(ctx, username, password)
	if err != nil {
		e.loginFailed(ctx, username, "request_failed")
		return LoginResult{Message: orDefault(res.Message, authapi.MsgLoginError)}, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	if !res.Success {
		e.loginFailed(ctx, username, "rejected")
		msg := orDefault(res.Message, authapi.MsgLoginFailed)
		return LoginResult{Message: msg}, fmt.Errorf("%w: %s", ErrLoginFailed, msg)
	}
	if !res.Data.Complete() {
		e.metricInc(MetricLoginIncomplete)
		e.logger.Warn("login response incomplete", zap.String("username", username))
		e.emitAudit(ctx, AuditEvent{
			EventType: auditEventLoginFailure,
			Username:  username,
			Reason:    "incomplete_response",
		})
		return LoginResult{Message: MsgIncompleteLogin}, ErrIncompleteLogin
	}

	roles, err := permission.EncodeRoles(permission.Roles(res.Data.Roles))
	if err != nil {
		return LoginResult{Message: MsgIncompleteLogin}, fmt.Errorf("%w: %v", ErrIncompleteLogin, err)
	}
	perms, err := permission.EncodeSet(permission.NewSet(res.Data.Permissions...))
	if err != nil {
		return LoginResult{Message: MsgIncompleteLogin}, fmt.Errorf("%w: %v", ErrIncompleteLogin, err)
	}

	if err := store.SaveSession(ctx, e.store, store.Credentials{
		Token:       res.Data.Token,
		Username:    res.Data.Username,
		Roles:       roles,
		Permissions: perms,
	}); err != nil {
		e.logger.Error("session write failed", zap.String("username", res.Data.Username), zap.Error(err))
		return LoginResult{Message: authapi.MsgLoginError}, fmt.Errorf("%w: %v", ErrSessionWrite, err)
	}

	e.metricInc(MetricLoginSuccess)
	e.logger.Info("login succeeded",
		zap.String("username", res.Data.Username),
		zap.Int("roles", len(res.Data.Roles)),
		zap.Int("permissions", len(res.Data.Permissions)),
	)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventLoginSuccess,
		Username:  res.Data.Username,
		Success:   true,
	})

	return LoginResult{Message: res.Message, Verdict: e.Evaluate(ctx)}, nil
}

func (e *Engine) loginFailed(ctx context.Context, username, reason string) {
	e.metricInc(MetricLoginFailure)
	e.logger.Info("login failed", zap.String("username", username), zap.String("reason", reason))
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventLoginFailure,
		Username:  username,
		Reason:    reason,
	})
}

// Logout ends the stored session.
//
// With no token stored it returns [ErrNoToken] without calling the Auth API.
// Otherwise it calls the Auth API when one is configured and clears all four
// entries whatever the API answered. The returned error is non-nil only for
// store failures and ErrNoToken.
func (e *Engine) Logout(ctx context.Context) (LogoutResult, error) {
	if e == nil || e.store == nil {
		return LogoutResult{}, ErrEngineNotReady
	}

	tok, ok, err := e.store.Get(ctx, store.KeyToken)
	if err != nil {
		return LogoutResult{Message: authapi.MsgLogoutError}, err
	}
	if !ok || tok == "" {
		e.metricInc(MetricLogoutNoToken)
		e.logger.Warn("no token stored, skipping logout call")
		return LogoutResult{Message: MsgNoToken}, ErrNoToken
	}
	username, _, _ := e.store.Get(ctx, store.KeyUsername)

	result := LogoutResult{Success: true, Message: MsgLoggedOut}
	if e.auth != nil {
		res, apiErr := e.auth.Logout(ctx, tok)
		result = LogoutResult{Success: apiErr == nil && res.Success, Message: res.Message}
		if result.Message == "" {
			result.Message = MsgLoggedOut
			if !result.Success {
				result.Message = authapi.MsgLogoutFailed
			}
		}
		if apiErr != nil {
			e.logger.Warn("logout call failed, clearing session anyway", zap.Error(apiErr))
		}
	}

	if err := store.ClearSession(ctx, e.store); err != nil {
		e.logger.Error("session clear failed", zap.Error(err))
		return LogoutResult{Message: authapi.MsgLogoutError}, fmt.Errorf("%w: %v", ErrSessionWrite, err)
	}

	e.metricInc(MetricLogout)
	e.logger.Info("logged out", zap.String("username", username), zap.Bool("api_success", result.Success))
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventLogout,
		Username:  username,
		Success:   result.Success,
	})
	return result, nil
}

// RecordGuardRedirect notes that a protected navigation to path was sent to
// the login view.
func (e *Engine) RecordGuardRedirect(ctx context.Context, path string, v Verdict) {
	if e == nil {
		return
	}
	e.metricInc(MetricGuardRedirect)
	e.logger.Info("protected navigation redirected to login",
		zap.String("path", path),
		zap.Stringer("reason", v.Reason),
	)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventGuardRedirect,
		Path:      path,
		Reason:    v.Reason.String(),
	})
}

// RecordWatcherRedirect notes that an external logout forced the view at
// from to the login view.
func (e *Engine) RecordWatcherRedirect(ctx context.Context, from string) {
	if e == nil {
		return
	}
	e.metricInc(MetricWatcherRedirect)
	e.logger.Info("session removed elsewhere, redirected to login", zap.String("from", from))
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventWatcherRedirect,
		Path:      from,
		Reason:    ReasonMissingCredentials.String(),
	})
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
