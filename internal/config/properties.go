package config

import (
	"github.com/magiconair/properties"
)

// Keys used by the Google Ads client libraries' ads.properties file.
const (
	propClientID        = "api.googleads.clientId"
	propClientSecret    = "api.googleads.clientSecret"
	propRefreshToken    = "api.googleads.refreshToken"
	propDeveloperToken  = "api.googleads.developerToken"
	propLoginCustomerID = "api.googleads.loginCustomerId"
)

// LoadAdsProperties reads credentials from an ads.properties file.
func LoadAdsProperties(path string) (GoogleAdsConfig, error) {
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return GoogleAdsConfig{}, &ConfigError{Field: "google_ads.properties_file", Reason: err.Error()}
	}
	return GoogleAdsConfig{
		ClientID:        p.GetString(propClientID, ""),
		ClientSecret:    p.GetString(propClientSecret, ""),
		RefreshToken:    p.GetString(propRefreshToken, ""),
		DeveloperToken:  p.GetString(propDeveloperToken, ""),
		LoginCustomerID: p.GetString(propLoginCustomerID, ""),
	}, nil
}
