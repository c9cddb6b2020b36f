package adminguard

import (
	"fmt"
	"time"

	"github.com/farm2go/adminguard/navigation"
	"github.com/farm2go/adminguard/permission"
	"github.com/farm2go/adminguard/store"
	"go.uber.org/zap"
)

// Builder assembles an [Engine]. A Builder is single use.
type Builder struct {
	config Config
	store  store.Store

	menu     []navigation.Entry
	registry *permission.Registry

	auth      AuthClient
	auditSink AuditSink
	logger    *zap.Logger
	now       func() time.Time

	built bool
}

// New returns a Builder with default configuration, the Farm2Go menu and the
// Farm2Go permission catalog.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the session store. Required.
func (b *Builder) WithStore(s store.Store) *Builder {
	b.store = s
	return b
}

// WithMenu replaces the built-in menu.
func (b *Builder) WithMenu(menu []navigation.Entry) *Builder {
	b.menu = menu
	return b
}

// WithRegistry replaces the built-in permission catalog. The registry is
// frozen by Build.
func (b *Builder) WithRegistry(r *permission.Registry) *Builder {
	b.registry = r
	return b
}

// WithAuthClient sets the Auth API client used by Login and Logout.
func (b *Builder) WithAuthClient(c AuthClient) *Builder {
	b.auth = c
	return b
}

// WithAuditSink sets the sink behind the audit dispatcher.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger. The default discards.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock replaces time.Now for evaluation.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithClockSkew sets the grace window past exp.
func (b *Builder) WithClockSkew(skew time.Duration) *Builder {
	b.config.ClockSkew = skew
	return b
}

// WithMetricsEnabled toggles counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the evaluate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns the Engine.
//
// Build fails when no store was supplied, when the configuration is invalid,
// when the menu is structurally invalid, or when the menu references a
// permission code the registry does not know.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}
	if b.store == nil {
		return nil, ErrStoreRequired
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- PERMISSION CATALOG --------
	registry := b.registry
	if registry == nil {
		var err error
		registry, err = permission.NewFarm2GoRegistry()
		if err != nil {
			return nil, err
		}
	}
	registry.Freeze()

	// -------- MENU --------
	menu := b.menu
	if menu == nil {
		menu = navigation.Farm2GoMenu()
	}
	if err := navigation.Validate(menu); err != nil {
		return nil, err
	}
	for _, code := range navigation.RequiredPermissions(menu) {
		if !registry.Known(code) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMenuPermission, code)
		}
	}
	owned := make([]navigation.Entry, len(menu))
	for i, e := range menu {
		owned[i] = e.Clone()
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	engine := &Engine{
		config:   cfg,
		store:    b.store,
		registry: registry,
		menu:     owned,
		auth:     b.auth,
		logger:   logger.Named("guard"),
		now:      now,
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink, engine.logger.Named("audit"))
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
