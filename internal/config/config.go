package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	GoogleAds GoogleAdsConfig `yaml:"google_ads"`
	Audience  AudienceConfig  `yaml:"audience"`
	Source    SourceConfig    `yaml:"source"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port for the listener.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// GoogleAdsConfig holds Google Ads API credentials and transport settings.
type GoogleAdsConfig struct {
	DeveloperToken  string `yaml:"developer_token"`
	ClientID        string `yaml:"client_id"`
	ClientSecret    string `yaml:"client_secret"`
	RefreshToken    string `yaml:"refresh_token"`
	LoginCustomerID string `yaml:"login_customer_id"`
	BaseURL         string `yaml:"base_url"`
	APIVersion      string `yaml:"api_version"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	// PropertiesFile points at an ads.properties file; values found there
	// fill any credential left empty above.
	PropertiesFile string `yaml:"properties_file"`
}

// Timeout returns the configured timeout as a duration
func (c GoogleAdsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AudienceConfig describes the Customer Match list each run creates.
type AudienceConfig struct {
	CustomerID     string `yaml:"customer_id"`
	ListNamePrefix string `yaml:"list_name_prefix"`
	Description    string `yaml:"description"`
	// MembershipLifeSpanDays is 1..540, or 10000 for unlimited.
	MembershipLifeSpanDays int    `yaml:"membership_life_span_days"`
	UploadKeyType          string `yaml:"upload_key_type"`
	IdentifierKind         string `yaml:"identifier_kind"` // "email" or "phone"
	BatchSize              int    `yaml:"batch_size"`
}

// SourceConfig selects where raw identifiers come from.
type SourceConfig struct {
	Type      string                `yaml:"type"` // synthetic, csv, s3, sql, redis
	Synthetic SyntheticSourceConfig `yaml:"synthetic"`
	CSV       CSVSourceConfig       `yaml:"csv"`
	S3        S3SourceConfig        `yaml:"s3"`
	SQL       SQLSourceConfig       `yaml:"sql"`
	Redis     RedisSourceConfig     `yaml:"redis"`
}

// SyntheticSourceConfig generates fabricated identifiers for demos.
type SyntheticSourceConfig struct {
	Count    int    `yaml:"count"`
	Template string `yaml:"template"` // fmt verb %d receives the index
}

// CSVSourceConfig reads one column of a local CSV file.
type CSVSourceConfig struct {
	Path      string `yaml:"path"`
	Column    string `yaml:"column"` // header name, or zero-based index when HasHeader is false
	HasHeader bool   `yaml:"has_header"`
}

// S3SourceConfig streams a CSV object from S3.
type S3SourceConfig struct {
	Bucket     string `yaml:"bucket"`
	Key        string `yaml:"key"`
	Region     string `yaml:"region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
	Column     string `yaml:"column"`
	HasHeader  bool   `yaml:"has_header"`
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c S3SourceConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// SQLSourceConfig runs a single-column query through database/sql.
type SQLSourceConfig struct {
	Driver string `yaml:"driver"` // "postgres" or "snowflake"
	DSN    string `yaml:"dsn"`
	Query  string `yaml:"query"`
}

// RedisSourceConfig scans the members of a Redis set.
type RedisSourceConfig struct {
	URL       string `yaml:"url"`
	Key       string `yaml:"key"`
	ScanCount int64  `yaml:"scan_count"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// ShouldRedact reports whether PII redaction is on (the default).
func (c LoggingConfig) ShouldRedact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Field: "file", Reason: err.Error()}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Field: "file", Reason: fmt.Sprintf("parsing %s: %v", path, err)}
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:8080"}
	}
	if cfg.GoogleAds.BaseURL == "" {
		cfg.GoogleAds.BaseURL = "https://googleads.googleapis.com"
	}
	if cfg.GoogleAds.APIVersion == "" {
		cfg.GoogleAds.APIVersion = "v19"
	}
	if cfg.GoogleAds.TimeoutSeconds == 0 {
		cfg.GoogleAds.TimeoutSeconds = 60
	}
	if cfg.Audience.ListNamePrefix == "" {
		cfg.Audience.ListNamePrefix = "Customer Match list"
	}
	if cfg.Audience.Description == "" {
		cfg.Audience.Description = "A list of customers that originated from email addresses"
	}
	if cfg.Audience.MembershipLifeSpanDays == 0 {
		cfg.Audience.MembershipLifeSpanDays = 30
	}
	if cfg.Audience.UploadKeyType == "" {
		cfg.Audience.UploadKeyType = "CONTACT_INFO"
	}
	if cfg.Audience.IdentifierKind == "" {
		cfg.Audience.IdentifierKind = "email"
	}
	if cfg.Audience.BatchSize == 0 {
		cfg.Audience.BatchSize = 10000
	}
	if cfg.Source.Type == "" {
		cfg.Source.Type = "synthetic"
	}
	if cfg.Source.Synthetic.Count == 0 {
		cfg.Source.Synthetic.Count = 1000
	}
	if cfg.Source.Synthetic.Template == "" {
		cfg.Source.Synthetic.Template = "customer%d@example.com"
	}
	if cfg.Source.CSV.Column == "" {
		cfg.Source.CSV.Column = "email"
	}
	if cfg.Source.S3.Column == "" {
		cfg.Source.S3.Column = "email"
	}
	if cfg.Source.S3.Region == "" {
		cfg.Source.S3.Region = "us-east-1"
	}
	if cfg.Source.SQL.Driver == "" {
		cfg.Source.SQL.Driver = "postgres"
	}
	if cfg.Source.Redis.ScanCount == 0 {
		cfg.Source.Redis.ScanCount = 1000
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	overrideString(&cfg.GoogleAds.DeveloperToken, "GOOGLE_ADS_DEVELOPER_TOKEN")
	overrideString(&cfg.GoogleAds.ClientID, "GOOGLE_ADS_CLIENT_ID")
	overrideString(&cfg.GoogleAds.ClientSecret, "GOOGLE_ADS_CLIENT_SECRET")
	overrideString(&cfg.GoogleAds.RefreshToken, "GOOGLE_ADS_REFRESH_TOKEN")
	overrideString(&cfg.GoogleAds.LoginCustomerID, "GOOGLE_ADS_LOGIN_CUSTOMER_ID")
	overrideString(&cfg.GoogleAds.BaseURL, "GOOGLE_ADS_BASE_URL")
	overrideString(&cfg.GoogleAds.PropertiesFile, "GOOGLE_ADS_PROPERTIES_FILE")
	overrideString(&cfg.Audience.CustomerID, "GOOGLE_ADS_CUSTOMER_ID")

	overrideString(&cfg.Source.Type, "SOURCE_TYPE")
	overrideString(&cfg.Source.CSV.Path, "SOURCE_CSV_PATH")
	overrideString(&cfg.Source.S3.Bucket, "SOURCE_S3_BUCKET")
	overrideString(&cfg.Source.S3.Key, "SOURCE_S3_KEY")
	overrideString(&cfg.Source.SQL.DSN, "SOURCE_SQL_DSN")
	if v := os.Getenv("DATABASE_URL"); v != "" && cfg.Source.SQL.DSN == "" {
		cfg.Source.SQL.DSN = v
	}
	overrideString(&cfg.Source.Redis.URL, "REDIS_URL")
	if v := os.Getenv("SOURCE_SYNTHETIC_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &ConfigError{Field: "SOURCE_SYNTHETIC_COUNT", Reason: err.Error()}
		}
		cfg.Source.Synthetic.Count = n
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if cfg.GoogleAds.PropertiesFile != "" {
		props, err := LoadAdsProperties(cfg.GoogleAds.PropertiesFile)
		if err != nil {
			return nil, err
		}
		cfg.GoogleAds.fillFrom(props)
	}

	return cfg, nil
}

func overrideString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// fillFrom copies credentials from other into any field still empty.
func (c *GoogleAdsConfig) fillFrom(other GoogleAdsConfig) {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&c.DeveloperToken, other.DeveloperToken)
	fill(&c.ClientID, other.ClientID)
	fill(&c.ClientSecret, other.ClientSecret)
	fill(&c.RefreshToken, other.RefreshToken)
	fill(&c.LoginCustomerID, other.LoginCustomerID)
}
