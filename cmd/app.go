package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/teemow/mydos/internal/cache"
	"github.com/teemow/mydos/internal/config"
	"github.com/teemow/mydos/internal/handler"
	"github.com/teemow/mydos/internal/instrumentation"
	"github.com/teemow/mydos/internal/logging"
	"github.com/teemow/mydos/internal/notion"
	"github.com/teemow/mydos/internal/server"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configFile string
	envFile    string
	secretID   string
	logLevel   string
	logFormat  string
}

var flags globalFlags

func addGlobalFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "YAML configuration file. Can also use MYDOS_CONFIG env var.")
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before reading the environment (ignored when missing or on Lambda)")
	pf.StringVar(&flags.secretID, "secret-id", "", "AWS Secrets Manager secret holding configuration values as JSON. Can also use MYDOS_SECRET_ID env var.")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error. Overrides LOG_LEVEL.")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json. Overrides LOG_FORMAT.")
}

// loadConfig reads configuration from all sources and builds the logger.
// Logs always go to w so stdout stays free for command output.
func loadConfig(ctx context.Context, w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(ctx, config.Options{
		ConfigFile: flags.configFile,
		DotEnvFile: flags.envFile,
		SecretID:   flags.secretID,
	})
	if err != nil {
		return nil, nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}

	logger, err := logging.NewLogger(w, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// app holds the wired request handler and everything it depends on.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider
	handler  *handler.Handler
	checks   map[string]server.CheckFunc
	closers  []func()
}

// newApp validates cfg and wires the task store, cache and handler.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, instrConfig instrumentation.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return nil, err
	}
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	metrics := provider.Metrics()

	a := &app{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		checks:   map[string]server.CheckFunc{},
	}

	httpClient := instrumentation.NewHTTPClient(cfg.Timeout())

	tasks, err := notion.NewClient(notion.Config{
		APIKey:     cfg.Notion.APIKey,
		DatabaseID: cfg.Notion.DatabaseID,
		BaseURL:    cfg.Notion.APIURL,
		Location:   loc,
		HTTPClient: httpClient,
		Metrics:    metrics,
		Logger:     logger,
	})
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	store, err := a.buildCache(httpClient, metrics)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.handler, err = handler.New(handler.Config{
		Tasks:    tasks,
		Cache:    store,
		Location: loc,
		Metrics:  metrics,
		Logger:   logger,
	})
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	logger.Debug("application configured",
		"cache_backend", cfg.Cache.Backend,
		"timezone", loc.String(),
		"notion_api_key", logging.SanitizeToken(cfg.Notion.APIKey),
	)
	return a, nil
}

func (a *app) buildCache(httpClient *http.Client, metrics *instrumentation.Metrics) (cache.Store, error) {
	switch a.cfg.Cache.Backend {
	case cache.BackendValkey:
		client, err := cache.DialValkey(a.cfg.Cache.Valkey.URL, a.cfg.Cache.Valkey.Password)
		if err != nil {
			return nil, err
		}
		store := cache.NewValkeyStore(client, cache.ValkeyConfig{
			KeyPrefix: a.cfg.Cache.Valkey.KeyPrefix,
			Metrics:   metrics,
			Logger:    a.logger,
		})
		a.checks["valkey"] = store.Ping
		a.closers = append(a.closers, store.Close)
		return store, nil

	default:
		store, err := cache.NewSupabaseStore(cache.SupabaseConfig{
			URL:        a.cfg.Cache.Supabase.URL,
			Token:      a.cfg.Cache.Supabase.Token,
			Table:      a.cfg.Cache.Supabase.Table,
			HTTPClient: httpClient,
			Metrics:    metrics,
			Logger:     a.logger,
		})
		if err != nil {
			return nil, err
		}
		a.checks["supabase"] = func(ctx context.Context) error {
			_, _, err := store.Lookup(ctx)
			return err
		}
		return store, nil
	}
}

// Close releases the cache connection and flushes telemetry.
func (a *app) Close(ctx context.Context) {
	for _, c := range a.closers {
		c()
	}
	if a.provider != nil {
		if err := a.provider.Shutdown(ctx); err != nil {
			a.logger.Warn("failed to shut down instrumentation", logging.Err(err))
		}
	}
}
