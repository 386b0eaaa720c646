package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEnv = []string{
	EnvNotionAPIKey, EnvNotionDatabaseID, EnvNotionAPIURL,
	EnvSupabaseURL, EnvSupabaseToken, EnvSupabaseTable,
	EnvCacheBackend, EnvValkeyURL, EnvValkeyPassword, EnvValkeyKeyPrefix,
	EnvTimezone, EnvHTTPTimeout, EnvGoogleCredentials, EnvGoogleTokenFile,
	EnvLogLevel, EnvLogFormat, EnvConfigFile, EnvSecretID, envAWSExecutionEnv,
}

// clearEnv unsets every variable the package reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnv {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func noDotEnv(t *testing.T) Options {
	return Options{DotEnvFile: filepath.Join(t.TempDir(), "missing.env")}
}

type fakeSecrets struct {
	value *string
	err   error
	gotID string
}

func (f *fakeSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.gotID = aws.ToString(params.SecretId)
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: f.value}, nil
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(context.Background(), noDotEnv(t))
	require.NoError(t, err)

	assert.Equal(t, "supabase", cfg.Cache.Backend)
	assert.Equal(t, "cache", cfg.Cache.Supabase.Table)
	assert.Equal(t, "America/Los_Angeles", cfg.Timezone)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvNotionAPIKey, "secret_abc")
	t.Setenv(EnvNotionDatabaseID, "db1")
	t.Setenv(EnvCacheBackend, "valkey")
	t.Setenv(EnvValkeyURL, "redis://localhost:6379")
	t.Setenv(EnvValkeyKeyPrefix, "mydos:")
	t.Setenv(EnvTimezone, "Europe/Berlin")
	t.Setenv(EnvHTTPTimeout, "5")

	cfg, err := Load(context.Background(), noDotEnv(t))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "secret_abc", cfg.Notion.APIKey)
	assert.Equal(t, "db1", cfg.Notion.DatabaseID)
	assert.Equal(t, "valkey", cfg.Cache.Backend)
	assert.Equal(t, "redis://localhost:6379", cfg.Cache.Valkey.URL)
	assert.Equal(t, "mydos:", cfg.Cache.Valkey.KeyPrefix)
	assert.Equal(t, 5*time.Second, cfg.Timeout())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("NOTION_API_KEY=from-dotenv\nNOTION_DATABASE_ID=db-dotenv\n"), 0o600))
	t.Setenv(EnvNotionDatabaseID, "db-env")
	t.Cleanup(func() { _ = os.Unsetenv(EnvNotionAPIKey) })

	cfg, err := Load(context.Background(), Options{DotEnvFile: dotenv})
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.Notion.APIKey)
	assert.Equal(t, "db-env", cfg.Notion.DatabaseID, "environment wins over .env")
}

func TestLoad_DotEnvSkippedOnLambda(t *testing.T) {
	clearEnv(t)
	t.Setenv(envAWSExecutionEnv, "AWS_Lambda_go1.x")
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("NOTION_API_KEY=from-dotenv\n"), 0o600))

	cfg, err := Load(context.Background(), Options{DotEnvFile: dotenv})
	require.NoError(t, err)
	assert.Empty(t, cfg.Notion.APIKey)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_NOTION_KEY", "substituted")
	t.Setenv(EnvSupabaseTable, "env_table")

	file := filepath.Join(t.TempDir(), "mydos.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
notion:
  api_key: ${TEST_NOTION_KEY}
  database_id: yaml-db
cache:
  backend: supabase
  supabase:
    url: https://example.supabase.co
    token: yaml-token
    table: yaml_table
timezone: UTC
http_timeout: 45s
`), 0o600))

	opts := noDotEnv(t)
	opts.ConfigFile = file
	cfg, err := Load(context.Background(), opts)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "substituted", cfg.Notion.APIKey)
	assert.Equal(t, "yaml-db", cfg.Notion.DatabaseID)
	assert.Equal(t, "https://example.supabase.co", cfg.Cache.Supabase.URL)
	assert.Equal(t, "env_table", cfg.Cache.Supabase.Table, "environment wins over the file")
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 45*time.Second, cfg.Timeout())
}

func TestLoad_YAMLFileErrors(t *testing.T) {
	clearEnv(t)

	opts := noDotEnv(t)
	opts.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := Load(context.Background(), opts)
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("http_timeout: forever\n"), 0o600))
	opts.ConfigFile = bad
	_, err = Load(context.Background(), opts)
	assert.Error(t, err)
}

func TestLoad_Secret(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvNotionAPIKey, "from-env")
	t.Setenv(EnvNotionDatabaseID, "db-env")

	secrets := &fakeSecrets{value: aws.String(`{"NOTION_API_KEY":"from-secret","SUPABASE_TOKEN":"sb-secret"}`)}
	opts := noDotEnv(t)
	opts.SecretID = "mydos/prod"
	opts.Secrets = secrets

	cfg, err := Load(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, "mydos/prod", secrets.gotID)
	assert.Equal(t, "from-secret", cfg.Notion.APIKey, "secret wins over environment")
	assert.Equal(t, "db-env", cfg.Notion.DatabaseID)
	assert.Equal(t, "sb-secret", cfg.Cache.Supabase.Token)
}

func TestLoad_SecretErrors(t *testing.T) {
	tests := []struct {
		name    string
		secrets *fakeSecrets
	}{
		{"api error", &fakeSecrets{err: errors.New("AccessDenied")}},
		{"no string", &fakeSecrets{}},
		{"not json", &fakeSecrets{value: aws.String("plain")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			opts := noDotEnv(t)
			opts.SecretID = "mydos/prod"
			opts.Secrets = tt.secrets

			_, err := Load(context.Background(), opts)
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Notion.APIKey = "key"
		cfg.Notion.DatabaseID = "db"
		cfg.Cache.Supabase.URL = "https://x.supabase.co"
		cfg.Cache.Supabase.Token = "token"
		return cfg
	}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		errContains string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing notion key", func(c *Config) { c.Notion.APIKey = "" }, "NOTION_API_KEY"},
		{
			name: "lists every missing variable",
			mutate: func(c *Config) {
				c.Notion.DatabaseID = ""
				c.Cache.Supabase.Token = ""
			},
			errContains: "missing required configuration: NOTION_DATABASE_ID, SUPABASE_TOKEN",
		},
		{"valkey needs url", func(c *Config) { c.Cache.Backend = "valkey" }, "VALKEY_URL"},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }, "CACHE_BACKEND"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "MYDOS_TIMEZONE"},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }, "HTTP_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestValidateCalendar(t *testing.T) {
	cfg := Default()
	assert.ErrorContains(t, cfg.ValidateCalendar(), "GOOGLE_OAUTH_CREDENTIALS")

	cfg.Google.CredentialsFile = "/tmp/credentials.json"
	assert.NoError(t, cfg.ValidateCalendar())
}

func TestTokenFile(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "google-token.json", filepath.Base(cfg.TokenFile()))

	cfg.Google.TokenFile = "/tmp/token.json"
	assert.Equal(t, "/tmp/token.json", cfg.TokenFile())
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("90")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	d, err = parseDuration("1m30s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = parseDuration("soon")
	assert.Error(t, err)
}
