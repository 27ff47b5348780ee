// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	API() APIConfig
	Credentials() CredentialsConfig
	Report() ReportConfig
	Identity() IdentityConfig
	Database() DatabaseConfig

	// Report Setters (flag overrides)
	SetReportOutput(string)
	SetReportFormat(string)
	SetReportIncludeItemRows(bool)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	APICfg         APIConfig         `mapstructure:"api" yaml:"api"`
	CredentialsCfg CredentialsConfig `mapstructure:"credentials" yaml:"credentials"`
	ReportCfg      ReportConfig      `mapstructure:"report" yaml:"report"`
	IdentityCfg    IdentityConfig    `mapstructure:"identity" yaml:"identity"`
	DatabaseCfg    DatabaseConfig    `mapstructure:"database" yaml:"database"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig           { return c.LoggerCfg }
func (c *Config) API() APIConfig                 { return c.APICfg }
func (c *Config) Credentials() CredentialsConfig { return c.CredentialsCfg }
func (c *Config) Report() ReportConfig           { return c.ReportCfg }
func (c *Config) Identity() IdentityConfig       { return c.IdentityCfg }
func (c *Config) Database() DatabaseConfig       { return c.DatabaseCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetReportOutput(p string)        { c.ReportCfg.Output = p }
func (c *Config) SetReportFormat(f string)        { c.ReportCfg.Format = f }
func (c *Config) SetReportIncludeItemRows(b bool) { c.ReportCfg.IncludeItemRows = b }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// APIConfig points the remote data client at the scoring service.
type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	ForceHTTP2        bool          `mapstructure:"force_http2" yaml:"force_http2"`
}

// CredentialsConfig controls where the API key comes from. An empty APIKey
// means the operator is prompted.
type CredentialsConfig struct {
	APIKey   string   `mapstructure:"api_key" yaml:"-"`
	EnvFiles []string `mapstructure:"env_files" yaml:"env_files"`
}

// ReportConfig selects the output destination and report shape.
type ReportConfig struct {
	Output          string `mapstructure:"output" yaml:"output"`
	Format          string `mapstructure:"format" yaml:"format"`
	IncludeItemRows bool   `mapstructure:"include_item_rows" yaml:"include_item_rows"`
}

// IdentityConfig tunes sub identity resolution.
type IdentityConfig struct {
	// PassthroughFixedLength treats subIds of exactly FixedLength characters
	// as display sentinels instead of user ids.
	PassthroughFixedLength bool `mapstructure:"passthrough_fixed_length" yaml:"passthrough_fixed_length"`
	FixedLength            int  `mapstructure:"fixed_length" yaml:"fixed_length"`
}

// DatabaseConfig holds the optional archive database connection details.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// SupportedFormats lists the report formats understood by internal/reporting.
var SupportedFormats = []string{"csv", "tsv", "json", "xlsx", "xml"}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "assessment-export")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- API --
	v.SetDefault("api.base_url", "https://api.ostrichcyber-risk.com")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.requests_per_second", 10.0)
	v.SetDefault("api.user_agent", "assessment-export")
	v.SetDefault("api.force_http2", true)

	// -- Credentials --
	v.SetDefault("credentials.api_key", "")
	v.SetDefault("credentials.env_files", []string{".env"})

	// -- Report --
	v.SetDefault("report.output", "OstrichAssessmentReport.csv")
	v.SetDefault("report.format", "csv")
	v.SetDefault("report.include_item_rows", true)

	// -- Identity --
	v.SetDefault("identity.passthrough_fixed_length", false)
	v.SetDefault("identity.fixed_length", 20)

	// -- Database --
	v.SetDefault("database.url", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	_ = v.BindEnv("credentials.api_key", "OSTRICH_API_KEY")
	_ = v.BindEnv("database.url", "OSTRICH_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading "~" in every path-valued setting.
func (c *Config) expandPaths() error {
	var err error
	if c.ReportCfg.Output, err = homedir.Expand(c.ReportCfg.Output); err != nil {
		return fmt.Errorf("report.output: %w", err)
	}
	if c.LoggerCfg.LogFile, err = homedir.Expand(c.LoggerCfg.LogFile); err != nil {
		return fmt.Errorf("logger.log_file: %w", err)
	}
	for i, f := range c.CredentialsCfg.EnvFiles {
		if c.CredentialsCfg.EnvFiles[i], err = homedir.Expand(f); err != nil {
			return fmt.Errorf("credentials.env_files: %w", err)
		}
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.APICfg.Validate(); err != nil {
		return fmt.Errorf("api configuration invalid: %w", err)
	}
	if err := c.ReportCfg.Validate(); err != nil {
		return fmt.Errorf("report configuration invalid: %w", err)
	}
	if c.IdentityCfg.PassthroughFixedLength && c.IdentityCfg.FixedLength <= 0 {
		return fmt.Errorf("identity.fixed_length must be a positive integer")
	}
	return nil
}

// Validate checks the API settings.
func (a *APIConfig) Validate() error {
	u, err := url.Parse(a.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL, got %q", a.BaseURL)
	}
	if a.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive duration")
	}
	if a.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	return nil
}

// Validate checks the report settings.
func (r *ReportConfig) Validate() error {
	if strings.TrimSpace(r.Output) == "" {
		return fmt.Errorf("output must not be empty")
	}
	format := strings.ToLower(r.Format)
	for _, f := range SupportedFormats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q (supported: %s)", r.Format, strings.Join(SupportedFormats, ", "))
}
