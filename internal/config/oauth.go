package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// OAuthInstalled mirrors the "installed" block of a Google OAuth client
// credentials file.
type OAuthInstalled struct {
	ClientID                string   `json:"client_id"`
	ProjectID               string   `json:"project_id"`
	AuthURI                 string   `json:"auth_uri"`
	TokenURI                string   `json:"token_uri"`
	AuthProviderX509CertURL string   `json:"auth_provider_x509_cert_url"`
	ClientSecret            string   `json:"client_secret"`
	RedirectURIs            []string `json:"redirect_uris"`
}

// OAuthClientConfig is the OAuth client credentials file layout.
type OAuthClientConfig struct {
	Installed OAuthInstalled `json:"installed"`
}

// LoadOAuthClient loads the OAuth client credentials for a named
// environment, e.g. env="test" reads oauthClient.test.json.
func LoadOAuthClient(env string) (*OAuthClientConfig, error) {
	name := "oauthClient.json"
	if env != "" {
		name = "oauthClient." + env + ".json"
	}
	path, err := findFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to find oauth client file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth client file: %w", err)
	}

	var cfg OAuthClientConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse oauth client file: %w", err)
	}

	if cfg.Installed.ClientID == "" || cfg.Installed.ClientSecret == "" {
		return nil, fmt.Errorf("oauth client file %s is missing client_id or client_secret", path)
	}

	return &cfg, nil
}
