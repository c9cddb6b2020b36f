package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/farm2go/adminguard"
	"github.com/farm2go/adminguard/authapi"
	"github.com/farm2go/adminguard/navigation"
	"github.com/farm2go/adminguard/store"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const appName = "farm2go-admin"

// settings is the console configuration after file, env and flags are merged.
type settings struct {
	PublicURL     string        `mapstructure:"public_url"`
	ProtectedURL  string        `mapstructure:"protected_url"`
	ManagementURL string        `mapstructure:"management_url"`
	LoginPath     string        `mapstructure:"login_path"`
	HomePath      string        `mapstructure:"home_path"`
	ClockSkew     time.Duration `mapstructure:"clock_skew"`
	MenuFile      string        `mapstructure:"menu_file"`
	Audit         bool          `mapstructure:"audit"`
	Output        string        `mapstructure:"output"`
	Store         storeSettings `mapstructure:"store"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type storeSettings struct {
	Backend     string `mapstructure:"backend"`
	Path        string `mapstructure:"path"`
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

// app carries per-invocation state. Commands reach the engine and store
// through it so tests can swap the store.
type app struct {
	out    io.Writer
	errOut io.Writer

	v       *viper.Viper
	cfgFile string
	verbose bool

	cfg    settings
	logger *zap.Logger

	// openStore is replaced in tests.
	openStore func(cfg adminguard.StoreConfig, logger *zap.Logger) (store.Store, func() error, error)

	st        store.Store
	closeSt   func() error
	engine    *adminguard.Engine
	auditSink adminguard.AuditSink
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:       out,
		errOut:    errOut,
		v:         viper.New(),
		openStore: openStore,
	}
}

func defaultStorePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appName, "session.json")
	}
	return filepath.Join(os.TempDir(), appName, "session.json")
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Farm2Go admin console",
		Long: `farm2go-admin signs in to the Farm2Go Auth API and browses the admin
console from the terminal.

The session lives in a shared store (a JSON file by default). Every console
process using the same store sees the same session, and "watch" follows the
current view back to the login screen when another process logs out.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default $HOME/.farm2go-admin/farm2go-admin.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	flags.StringP("output", "o", "table", "output format: table, json, yaml")
	flags.String("public-url", "", "Auth API public base URL")
	flags.String("protected-url", "", "protected API base URL (users, roles, permissions)")
	flags.String("management-url", "", "management API base URL")
	flags.String("store", "", "session store backend: file, redis, memory")
	flags.String("store-path", "", "session file for the file backend")
	flags.String("redis-addr", "", "Redis address for the redis backend")
	flags.String("menu-file", "", "YAML menu definition replacing the built-in menu")
	flags.Bool("audit", false, "write audit events to stderr as JSON lines")

	a.bindFlags(root)

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newStatusCmd(a),
		newDevLoginCmd(a),
		newInspectCmd(a),
		newMenuCmd(a),
		newOpenCmd(a),
		newListCmd(a),
		newWatchCmd(a),
		newMetricsCmd(a),
	)
	return root
}

// execute runs the console with args, then releases the engine and store
// whether or not the command failed.
func (a *app) execute(ctx context.Context, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	defer a.teardown()
	return root.ExecuteContext(ctx)
}

func (a *app) bindFlags(root *cobra.Command) {
	v := a.v
	flags := root.PersistentFlags()
	bind := map[string]string{
		"output":           "output",
		"public_url":       "public-url",
		"protected_url":    "protected-url",
		"management_url":   "management-url",
		"store.backend":    "store",
		"store.path":       "store-path",
		"store.redis_addr": "redis-addr",
		"menu_file":        "menu-file",
		"audit":            "audit",
	}
	for key, flag := range bind {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	def := adminguard.DefaultConfig()
	v.SetDefault("public_url", "")
	v.SetDefault("protected_url", "")
	v.SetDefault("management_url", "")
	v.SetDefault("login_path", def.LoginPath)
	v.SetDefault("home_path", def.HomePath)
	v.SetDefault("clock_skew", def.ClockSkew)
	v.SetDefault("menu_file", "")
	v.SetDefault("audit", false)
	v.SetDefault("output", "table")
	v.SetDefault("timeout", 15*time.Second)
	v.SetDefault("store.backend", string(adminguard.StoreFile))
	v.SetDefault("store.path", defaultStorePath())
	v.SetDefault("store.redis_addr", "")
	v.SetDefault("store.redis_prefix", def.Store.RedisPrefix)

	v.SetEnvPrefix("FARM2GO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func (a *app) readConfig() error {
	v := a.v
	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, "."+appName))
		}
		v.AddConfigPath(".")
		v.SetConfigName(appName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	if err := v.Unmarshal(&a.cfg); err != nil {
		return fmt.Errorf("unable to decode config: %w", err)
	}
	return nil
}

func newLogger(verbose bool, errOut io.Writer) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(errOut), level)
	return zap.New(core).Named(appName)
}

func (a *app) guardConfig() adminguard.Config {
	cfg := adminguard.DefaultConfig()
	cfg.LoginPath = a.cfg.LoginPath
	cfg.HomePath = a.cfg.HomePath
	cfg.ClockSkew = a.cfg.ClockSkew
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	cfg.Audit.Enabled = a.cfg.Audit
	cfg.Store = adminguard.StoreConfig{
		Backend:     adminguard.StoreBackend(strings.ToLower(a.cfg.Store.Backend)),
		Path:        a.cfg.Store.Path,
		RedisAddr:   a.cfg.Store.RedisAddr,
		RedisPrefix: a.cfg.Store.RedisPrefix,
	}
	return cfg
}

func (a *app) setup() error {
	if err := a.readConfig(); err != nil {
		return err
	}
	a.logger = newLogger(a.verbose, a.errOut)

	cfg := a.guardConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	st, closeSt, err := a.openStore(cfg.Store, a.logger)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	a.st, a.closeSt = st, closeSt

	b := adminguard.New().
		WithConfig(cfg).
		WithStore(st).
		WithLogger(a.logger)

	if a.cfg.MenuFile != "" {
		menu, err := navigation.LoadFile(a.cfg.MenuFile)
		if err != nil {
			return err
		}
		b = b.WithMenu(menu)
	}
	if a.cfg.Audit {
		sink := a.auditSink
		if sink == nil {
			sink = adminguard.NewJSONWriterSink(a.errOut)
		}
		b = b.WithAuditSink(sink)
	}
	if a.cfg.PublicURL != "" {
		auth, err := authapi.New(a.cfg.PublicURL,
			authapi.WithLogger(a.logger.Named("authapi")),
		)
		if err != nil {
			return err
		}
		b = b.WithAuthClient(auth)
	}

	engine, err := b.Build()
	if err != nil {
		return err
	}
	a.engine = engine
	return nil
}

func (a *app) teardown() {
	if a.engine != nil {
		a.engine.Close()
		a.engine = nil
	}
	if a.closeSt != nil {
		if err := a.closeSt(); err != nil && a.logger != nil {
			a.logger.Warn("closing session store", zap.Error(err))
		}
		a.closeSt = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// openStore opens the configured backend. The returned func releases it and
// any client it owns.
func openStore(cfg adminguard.StoreConfig, logger *zap.Logger) (store.Store, func() error, error) {
	switch cfg.Backend {
	case adminguard.StoreMemory:
		s := store.NewMemoryStore()
		return s, s.Close, nil

	case adminguard.StoreFile:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return nil, nil, err
		}
		s, err := store.NewFileStore(cfg.Path, logger.Named("store"))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case adminguard.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		s := store.NewRedisStore(client, cfg.RedisPrefix, logger.Named("store"))
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if _, err := s.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return s, func() error {
			_ = s.Close()
			return client.Close()
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
	}
}

// render writes data in the configured output format. table calls the
// command's own printer.
func (a *app) render(data any, table func(io.Writer)) error {
	switch a.cfg.Output {
	case "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		out, err := yaml.Marshal(data)
		if err != nil {
			return err
		}
		_, err = a.out.Write(out)
		return err
	case "", "table":
		table(a.out)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", a.cfg.Output)
	}
}
