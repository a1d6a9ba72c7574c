package config

import (
	"fmt"
	"strings"
)

// ConfigError reports missing or unusable configuration. It is fatal: no
// remote call is attempted once one is returned.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Validate checks the settings a workflow run cannot do without.
func (c *Config) Validate() error {
	if err := c.GoogleAds.Validate(); err != nil {
		return err
	}
	if err := c.Audience.Validate(); err != nil {
		return err
	}
	return c.Source.Validate()
}

// Validate checks the user list settings against the limits of the
// Google Ads API. The customer id is checked per run, since requests may
// name their own.
func (c AudienceConfig) Validate() error {
	d := c.MembershipLifeSpanDays
	if (d < 1 || d > 540) && d != 10000 {
		return &ConfigError{Field: "audience.membership_life_span_days", Reason: "must be 1..540, or 10000 for unlimited"}
	}
	switch c.UploadKeyType {
	case "CONTACT_INFO", "CRM_ID", "MOBILE_ADVERTISING_ID":
	default:
		return &ConfigError{Field: "audience.upload_key_type", Reason: fmt.Sprintf("unsupported value %q", c.UploadKeyType)}
	}
	switch strings.ToLower(c.IdentifierKind) {
	case "email", "phone":
	default:
		return &ConfigError{Field: "audience.identifier_kind", Reason: fmt.Sprintf("unsupported value %q", c.IdentifierKind)}
	}
	// Email and phone identifiers only populate CONTACT_INFO lists.
	if c.UploadKeyType != "CONTACT_INFO" {
		return &ConfigError{Field: "audience.upload_key_type", Reason: fmt.Sprintf("%s lists cannot be populated with identifier_kind %q", c.UploadKeyType, c.IdentifierKind)}
	}
	if c.BatchSize < 1 {
		return &ConfigError{Field: "audience.batch_size", Reason: "must be positive"}
	}
	return nil
}

// Validate checks that every credential needed for the OAuth2 refresh flow
// and the developer-token header is present.
func (c GoogleAdsConfig) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"google_ads.developer_token", c.DeveloperToken},
		{"google_ads.client_id", c.ClientID},
		{"google_ads.client_secret", c.ClientSecret},
		{"google_ads.refresh_token", c.RefreshToken},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ConfigError{Field: r.field, Reason: "is required"}
		}
	}
	if c.TimeoutSeconds < 0 {
		return &ConfigError{Field: "google_ads.timeout_seconds", Reason: "must not be negative"}
	}
	return nil
}

// Validate checks that the selected source has what it needs to open.
func (c SourceConfig) Validate() error {
	switch c.Type {
	case "synthetic":
		if c.Synthetic.Count < 0 {
			return &ConfigError{Field: "source.synthetic.count", Reason: "must not be negative"}
		}
	case "csv":
		if c.CSV.Path == "" {
			return &ConfigError{Field: "source.csv.path", Reason: "is required"}
		}
	case "s3":
		if c.S3.Bucket == "" || c.S3.Key == "" {
			return &ConfigError{Field: "source.s3", Reason: "bucket and key are required"}
		}
	case "sql":
		if c.SQL.DSN == "" || c.SQL.Query == "" {
			return &ConfigError{Field: "source.sql", Reason: "dsn and query are required"}
		}
		if c.SQL.Driver != "postgres" && c.SQL.Driver != "snowflake" {
			return &ConfigError{Field: "source.sql.driver", Reason: fmt.Sprintf("unsupported driver %q", c.SQL.Driver)}
		}
	case "redis":
		if c.Redis.URL == "" || c.Redis.Key == "" {
			return &ConfigError{Field: "source.redis", Reason: "url and key are required"}
		}
	default:
		return &ConfigError{Field: "source.type", Reason: fmt.Sprintf("unknown source type %q", c.Type)}
	}
	return nil
}
