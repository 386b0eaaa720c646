package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/teemow/mydos/internal/cache"
)

// Environment variable names.
const (
	EnvNotionAPIKey       = "NOTION_API_KEY"
	EnvNotionDatabaseID   = "NOTION_DATABASE_ID"
	EnvNotionAPIURL       = "NOTION_API_URL"
	EnvSupabaseURL        = "SUPABASE_URL"
	EnvSupabaseToken      = "SUPABASE_TOKEN"
	EnvSupabaseTable      = "SUPABASE_TABLE"
	EnvCacheBackend       = "CACHE_BACKEND"
	EnvValkeyURL          = "VALKEY_URL"
	EnvValkeyPassword     = "VALKEY_PASSWORD"
	EnvValkeyKeyPrefix    = "VALKEY_KEY_PREFIX"
	EnvTimezone           = "MYDOS_TIMEZONE"
	EnvHTTPTimeout        = "HTTP_TIMEOUT"
	EnvGoogleCredentials  = "GOOGLE_OAUTH_CREDENTIALS"
	EnvGoogleTokenFile    = "GOOGLE_TOKEN_FILE"
	EnvLogLevel           = "LOG_LEVEL"
	EnvLogFormat          = "LOG_FORMAT"
	EnvConfigFile         = "MYDOS_CONFIG"
	EnvSecretID           = "MYDOS_SECRET_ID"
	envAWSExecutionEnv    = "AWS_EXECUTION_ENV"
	defaultDotEnvFile     = ".env"
	defaultTimezone       = "America/Los_Angeles"
	defaultHTTPTimeout    = 30 * time.Second
	defaultGoogleTokenDir = ".config/mydos"
)

// Config is the complete runtime configuration.
type Config struct {
	Notion      NotionConfig   `yaml:"notion"`
	Cache       CacheConfig    `yaml:"cache"`
	Google      GoogleConfig   `yaml:"google"`
	Log         LogConfig      `yaml:"log"`
	Timezone    string         `yaml:"timezone"`
	HTTPTimeout DurationString `yaml:"http_timeout"`
}

// NotionConfig configures the task database.
type NotionConfig struct {
	APIKey     string `yaml:"api_key"`
	DatabaseID string `yaml:"database_id"`
	APIURL     string `yaml:"api_url"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend  string         `yaml:"backend"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Valkey   ValkeyConfig   `yaml:"valkey"`
}

// SupabaseConfig configures the Supabase cache backend.
type SupabaseConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
	Table string `yaml:"table"`
}

// ValkeyConfig configures the Valkey cache backend.
type ValkeyConfig struct {
	URL       string `yaml:"url"`
	Password  string `yaml:"password"`
	KeyPrefix string `yaml:"key_prefix"`
}

// GoogleConfig configures the Google Calendar OAuth client.
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DurationString is a time.Duration read from YAML or the environment either
// as a Go duration ("45s") or as whole seconds ("45").
type DurationString time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *DurationString) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := parseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = DurationString(parsed)
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// Default returns a Config with defaults applied.
func Default() Config {
	return Config{
		Cache:       CacheConfig{Backend: cache.BackendSupabase, Supabase: SupabaseConfig{Table: cache.DefaultTable}},
		Log:         LogConfig{Level: "info", Format: "text"},
		Timezone:    defaultTimezone,
		HTTPTimeout: DurationString(defaultHTTPTimeout),
	}
}

// Options controls where Load looks for configuration.
type Options struct {
	// ConfigFile is a YAML file. Defaults to $MYDOS_CONFIG.
	ConfigFile string

	// DotEnvFile defaults to .env. Missing files are ignored.
	DotEnvFile string

	// SecretID names a Secrets Manager secret. Defaults to $MYDOS_SECRET_ID.
	SecretID string

	// Secrets fetches SecretID. When nil and a secret is configured, a
	// client is created from the default AWS configuration.
	Secrets SecretsClient
}

// Load builds a Config from all sources. It does not validate.
func Load(ctx context.Context, opts Options) (*Config, error) {
	if _, onLambda := os.LookupEnv(envAWSExecutionEnv); !onLambda {
		dotenv := opts.DotEnvFile
		if dotenv == "" {
			dotenv = defaultDotEnvFile
		}
		if err := godotenv.Load(dotenv); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", dotenv, err)
		}
	}

	cfg := Default()

	file := opts.ConfigFile
	if file == "" {
		file = os.Getenv(EnvConfigFile)
	}
	if file != "" {
		if err := cfg.loadFile(file); err != nil {
			return nil, err
		}
	}

	if err := cfg.apply(os.LookupEnv); err != nil {
		return nil, err
	}

	secretID := opts.SecretID
	if secretID == "" {
		secretID = os.Getenv(EnvSecretID)
	}
	if secretID != "" {
		client := opts.Secrets
		if client == nil {
			var err error
			client, err = NewSecretsClient(ctx)
			if err != nil {
				return nil, err
			}
		}
		values, err := FetchSecret(ctx, client, secretID)
		if err != nil {
			return nil, err
		}
		if err := cfg.apply(lookupMap(values)); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal([]byte(substituteEnv(string(data))), c); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return nil
}

// substituteEnv replaces ${VAR} placeholders with environment values.
// Placeholders for unset variables are left as they are.
func substituteEnv(content string) string {
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 {
			continue
		}
		content = strings.ReplaceAll(content, "${"+pair[0]+"}", pair[1])
	}
	return content
}

type lookupFunc func(key string) (string, bool)

func lookupMap(m map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// apply overrides fields from non-empty values returned by lookup.
func (c *Config) apply(lookup lookupFunc) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(EnvNotionAPIKey, &c.Notion.APIKey)
	set(EnvNotionDatabaseID, &c.Notion.DatabaseID)
	set(EnvNotionAPIURL, &c.Notion.APIURL)
	set(EnvCacheBackend, &c.Cache.Backend)
	set(EnvSupabaseURL, &c.Cache.Supabase.URL)
	set(EnvSupabaseToken, &c.Cache.Supabase.Token)
	set(EnvSupabaseTable, &c.Cache.Supabase.Table)
	set(EnvValkeyURL, &c.Cache.Valkey.URL)
	set(EnvValkeyPassword, &c.Cache.Valkey.Password)
	set(EnvValkeyKeyPrefix, &c.Cache.Valkey.KeyPrefix)
	set(EnvTimezone, &c.Timezone)
	set(EnvGoogleCredentials, &c.Google.CredentialsFile)
	set(EnvGoogleTokenFile, &c.Google.TokenFile)
	set(EnvLogLevel, &c.Log.Level)
	set(EnvLogFormat, &c.Log.Format)

	if v, ok := lookup(EnvHTTPTimeout); ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHTTPTimeout, err)
		}
		c.HTTPTimeout = DurationString(d)
	}
	return nil
}

// Validate checks that everything the request handler needs is present.
func (c *Config) Validate() error {
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	require(EnvNotionAPIKey, c.Notion.APIKey)
	require(EnvNotionDatabaseID, c.Notion.DatabaseID)

	switch c.Cache.Backend {
	case cache.BackendSupabase:
		require(EnvSupabaseURL, c.Cache.Supabase.URL)
		require(EnvSupabaseToken, c.Cache.Supabase.Token)
	case cache.BackendValkey:
		require(EnvValkeyURL, c.Cache.Valkey.URL)
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvCacheBackend, cache.BackendSupabase, cache.BackendValkey, c.Cache.Backend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvHTTPTimeout)
	}
	return nil
}

// ValidateCalendar checks the settings the calendar commands need.
func (c *Config) ValidateCalendar() error {
	if strings.TrimSpace(c.Google.CredentialsFile) == "" {
		return fmt.Errorf("missing required configuration: %s", EnvGoogleCredentials)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvTimezone, c.Timezone, err)
	}
	return loc, nil
}

// Timeout returns the HTTP client timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTPTimeout)
}

// TokenFile returns the Google token path, defaulting to
// ~/.config/mydos/google-token.json.
func (c *Config) TokenFile() string {
	if c.Google.TokenFile != "" {
		return c.Google.TokenFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "google-token.json"
	}
	return filepath.Join(home, defaultGoogleTokenDir, "google-token.json")
}
