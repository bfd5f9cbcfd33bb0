package app

import (
	stderrors "errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jwp-tools/jwpedit/internal/cache"
	"github.com/jwp-tools/jwpedit/internal/server/session"
	"github.com/jwp-tools/jwpedit/internal/store/gsheets"
	"github.com/jwp-tools/jwpedit/internal/store/sqlite"
	"github.com/jwp-tools/jwpedit/pkg/errors"
)

// Store drivers.
const (
	DriverSheets = "sheets"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// DefaultAdminPassword is used when no admin password is configured.
const DefaultAdminPassword = "admin123"

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	Store  StoreConfig
	Google GoogleConfig
	Export ExportConfig

	AdminPassword string
	// AdminPasswordDefaulted is set when AdminPassword fell back to the default.
	AdminPasswordDefaulted bool

	CacheTTL   time.Duration
	SessionTTL time.Duration
	Timezone   string

	// Logging configuration. LogLevel comes from --log-level, EnvLogLevel
	// from LOG_LEVEL.
	LogLevel    string
	EnvLogLevel string
	LogFormat   string
	LogOutput   string
}

// StoreConfig selects the tabular backend.
type StoreConfig struct {
	Driver        string
	Spreadsheet   string
	SpreadsheetID string
	SQLitePath    string
}

// GoogleConfig holds service-account credentials for the sheets driver.
type GoogleConfig struct {
	Credentials     string
	CredentialsFile string
}

// ExportConfig holds the S3 destination for exports.
type ExportConfig struct {
	S3Bucket   string
	S3Region   string
	S3Endpoint string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied later by UpdateFromFlags)
//  2. Environment variables (JWPEDIT_ prefix, plus GOOGLE_CREDENTIALS and ADMIN_PASSWORD)
//  3. .env and .env.local
//  4. Config file (configFile, or .jwpedit.yaml in the working or home directory)
//  5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix("JWPEDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return nil, errors.NewConfigError("env", "bind environment", err)
	}

	if configFile == "" {
		configFile = os.Getenv("JWPEDIT_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".jwpedit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !stderrors.As(err, &notFound) {
			return nil, errors.NewConfigError("file", "read "+configFile, err)
		}
	}

	config := &Config{
		Format:     v.GetString("format"),
		ConfigFile: v.ConfigFileUsed(),

		Store: StoreConfig{
			Driver:        strings.ToLower(v.GetString("store.driver")),
			Spreadsheet:   v.GetString("store.spreadsheet"),
			SpreadsheetID: v.GetString("store.spreadsheet_id"),
			SQLitePath:    v.GetString("store.sqlite_path"),
		},
		Google: GoogleConfig{
			Credentials:     v.GetString("google.credentials"),
			CredentialsFile: v.GetString("google.credentials_file"),
		},
		Export: ExportConfig{
			S3Bucket:   v.GetString("export.s3_bucket"),
			S3Region:   v.GetString("export.s3_region"),
			S3Endpoint: v.GetString("export.s3_endpoint"),
		},

		AdminPassword: v.GetString("admin.password"),
		CacheTTL:      v.GetDuration("cache.ttl"),
		SessionTTL:    v.GetDuration("session.ttl"),
		Timezone:      v.GetString("timezone"),

		EnvLogLevel: os.Getenv("LOG_LEVEL"),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput:   getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}
	if config.AdminPassword == "" {
		config.AdminPassword = DefaultAdminPassword
		config.AdminPasswordDefaulted = true
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSheets, DriverSQLite, DriverMemory:
	default:
		return errors.NewValidationError("store.driver", c.Store.Driver, "must be one of: sheets, sqlite, memory")
	}
	if c.CacheTTL < 0 {
		return errors.NewValidationError("cache.ttl", c.CacheTTL, "must not be negative")
	}
	if c.SessionTTL <= 0 {
		return errors.NewValidationError("session.ttl", c.SessionTTL, "must be positive")
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return errors.NewValidationError("timezone", c.Timezone, err.Error())
		}
	}
	return nil
}

// CredentialsJSON returns the inline service-account key, if any.
func (c *Config) CredentialsJSON() []byte {
	if c.Google.Credentials == "" {
		return nil
	}
	return []byte(c.Google.Credentials)
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", DriverSheets)
	v.SetDefault("store.spreadsheet", gsheets.DefaultSpreadsheet)
	v.SetDefault("store.sqlite_path", sqlite.DefaultPath)
	v.SetDefault("cache.ttl", cache.DefaultTTL)
	v.SetDefault("session.ttl", session.DefaultTTL)
	v.SetDefault("export.s3_region", "us-east-1")
}

// bindLegacyEnv keeps the unprefixed variable names deployments already use.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"google.credentials": {"JWPEDIT_GOOGLE_CREDENTIALS", "GOOGLE_CREDENTIALS"},
		"admin.password":     {"JWPEDIT_ADMIN_PASSWORD", "ADMIN_PASSWORD"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return err
		}
	}
	return nil
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env; neither overrides the real environment.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
