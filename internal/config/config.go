// Package config loads adhook settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreSupabase = "supabase"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"

	StorageSupabase = "supabase"
	StorageGCS      = "gcs"
)

type Config struct {
	Server struct {
		Addr            string
		CORSOrigins     []string
		MaxMultipartMB  int
		ShutdownTimeout time.Duration
	}
	Log struct {
		Mode string
	}
	OpenAI struct {
		APIKey            string
		BaseURL           string
		TimeoutSec        int
		RequestsPerSecond float64
		Verbose           bool
	}
	Supabase struct {
		URL            string
		ServiceRoleKey string
	}
	Store struct {
		Backend         string
		PostgresDSN     string
		SQLitePath      string
		LibSQLAuthToken string
		ListCacheTTL    time.Duration
	}
	Storage struct {
		Backend            string
		Bucket             string
		SavePolicy         string
		UploadConcurrency  int
		FetchTimeout       time.Duration
		AllowInsecureFetch bool
		AllowPrivateFetch  bool
		BackgroundTimeout  time.Duration
	}
	GCS struct {
		ProjectID       string
		CredentialsFile string
		Endpoint        string
		PublicBaseURL   string
	}
}

// HasOpenAI reports whether a provider credential is configured.
func (c *Config) HasOpenAI() bool {
	return c.OpenAI.APIKey != ""
}

// HasSupabase reports whether both Supabase settings are present.
func (c *Config) HasSupabase() bool {
	return c.Supabase.URL != "" && c.Supabase.ServiceRoleKey != ""
}

// Load reads path when given, otherwise adhook.yaml from the working
// directory or ./config. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("adhook")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}

	cfg.Server.Addr = v.GetString("server.addr")
	cfg.Server.CORSOrigins = v.GetStringSlice("server.cors_origins")
	cfg.Server.MaxMultipartMB = v.GetInt("server.max_multipart_mb")
	cfg.Server.ShutdownTimeout = time.Duration(v.GetInt("server.shutdown_timeout_sec")) * time.Second

	cfg.Log.Mode = v.GetString("log.mode")

	cfg.OpenAI.APIKey = v.GetString("openai.api_key")
	cfg.OpenAI.BaseURL = v.GetString("openai.base_url")
	cfg.OpenAI.TimeoutSec = v.GetInt("openai.timeout_sec")
	cfg.OpenAI.RequestsPerSecond = v.GetFloat64("openai.requests_per_second")
	cfg.OpenAI.Verbose = v.GetBool("openai.verbose")

	cfg.Supabase.URL = v.GetString("supabase.url")
	cfg.Supabase.ServiceRoleKey = v.GetString("supabase.service_role_key")

	cfg.Store.Backend = strings.ToLower(v.GetString("store.backend"))
	cfg.Store.PostgresDSN = v.GetString("store.postgres_dsn")
	cfg.Store.SQLitePath = v.GetString("store.sqlite_path")
	cfg.Store.LibSQLAuthToken = v.GetString("store.libsql_auth_token")
	cfg.Store.ListCacheTTL = time.Duration(v.GetInt("store.list_cache_ttl_sec")) * time.Second

	cfg.Storage.Backend = strings.ToLower(v.GetString("storage.backend"))
	cfg.Storage.Bucket = v.GetString("storage.bucket")
	cfg.Storage.SavePolicy = strings.ToLower(v.GetString("storage.save_policy"))
	cfg.Storage.UploadConcurrency = v.GetInt("storage.upload_concurrency")
	cfg.Storage.FetchTimeout = time.Duration(v.GetInt("storage.fetch_timeout_sec")) * time.Second
	cfg.Storage.AllowInsecureFetch = v.GetBool("storage.allow_insecure_fetch")
	cfg.Storage.AllowPrivateFetch = v.GetBool("storage.allow_private_fetch")
	cfg.Storage.BackgroundTimeout = time.Duration(v.GetInt("storage.background_timeout_sec")) * time.Second

	cfg.GCS.ProjectID = v.GetString("gcs.project_id")
	cfg.GCS.CredentialsFile = v.GetString("gcs.credentials_file")
	cfg.GCS.Endpoint = v.GetString("gcs.endpoint")
	cfg.GCS.PublicBaseURL = v.GetString("gcs.public_base_url")

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.max_multipart_mb", 32)
	v.SetDefault("server.shutdown_timeout_sec", 15)

	v.SetDefault("log.mode", "dev")

	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.timeout_sec", 120)
	v.SetDefault("openai.requests_per_second", 0)
	v.SetDefault("openai.verbose", false)

	v.SetDefault("store.backend", StoreSupabase)
	v.SetDefault("store.sqlite_path", "adhook.db")
	v.SetDefault("store.list_cache_ttl_sec", 0)

	v.SetDefault("storage.backend", StorageSupabase)
	v.SetDefault("storage.bucket", "adhook")
	v.SetDefault("storage.save_policy", "rehost")
	v.SetDefault("storage.upload_concurrency", 4)
	v.SetDefault("storage.fetch_timeout_sec", 60)
	v.SetDefault("storage.allow_insecure_fetch", false)
	v.SetDefault("storage.allow_private_fetch", false)
	v.SetDefault("storage.background_timeout_sec", 120)
}

// bindEnv maps ADHOOK_SECTION_KEY for every key, plus the conventional
// variable names of the hosted services.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("ADHOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("openai.api_key", "ADHOOK_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("supabase.url", "ADHOOK_SUPABASE_URL", "SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL")
	_ = v.BindEnv("supabase.service_role_key", "ADHOOK_SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_SERVICE_ROLE_KEY")
	_ = v.BindEnv("store.postgres_dsn", "ADHOOK_STORE_POSTGRES_DSN", "DATABASE_URL")
	_ = v.BindEnv("store.libsql_auth_token", "ADHOOK_STORE_LIBSQL_AUTH_TOKEN", "TURSO_AUTH_TOKEN")
	_ = v.BindEnv("gcs.project_id", "ADHOOK_GCS_PROJECT_ID", "GOOGLE_CLOUD_PROJECT")
	_ = v.BindEnv("gcs.credentials_file", "ADHOOK_GCS_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS")
}

func validate(cfg *Config) error {
	switch cfg.Store.Backend {
	case StoreSupabase, StorePostgres, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("store.backend %q is not one of supabase, postgres, sqlite, memory", cfg.Store.Backend)
	}
	switch cfg.Storage.Backend {
	case StorageSupabase, StorageGCS:
	default:
		return fmt.Errorf("storage.backend %q is not one of supabase, gcs", cfg.Storage.Backend)
	}
	switch cfg.Storage.SavePolicy {
	case "rehost", "passthrough":
	default:
		return fmt.Errorf("storage.save_policy %q is not one of rehost, passthrough", cfg.Storage.SavePolicy)
	}
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if cfg.Store.Backend == StorePostgres && cfg.Store.PostgresDSN == "" {
		return fmt.Errorf("store.postgres_dsn is required for the postgres backend")
	}
	if cfg.Store.Backend == StoreSQLite && cfg.Store.SQLitePath == "" {
		return fmt.Errorf("store.sqlite_path is required for the sqlite backend")
	}
	return nil
}
