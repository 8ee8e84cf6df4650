package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

type Config struct {
	ListenAddr string
	BaseURL    string
	Timezone   string

	DB struct {
		DSN string
	}

	Session struct {
		Secret string
	}

	// OIDC enables single sign-on next to local password login when an
	// issuer is configured. Optional.
	OIDC struct {
		ClientID     string
		ClientSecret string
		IssuerURL    string
		RedirectPath string
	}

	// Google holds the OAuth client used for the calendar integration.
	Google struct {
		ClientID     string
		ClientSecret string
		RedirectPath string
		AuthURL      string
		TokenURL     string
		APIBaseURL   string
		// SyncAccount is the email of the household account whose Google
		// connection is used for mirroring todos to the shared calendar.
		SyncAccount string
	}

	PrometheusEnabled bool
	TrustedProxies    []string
}

func Load() (*Config, error) {
	cfg := &Config{}

	cfg.ListenAddr = getenvDefault("HEARTH_LISTEN_ADDR", ":8080")
	cfg.BaseURL = getenvDefault("HEARTH_BASE_URL", "http://localhost:8080")
	cfg.Timezone = getenvDefault("HEARTH_TIMEZONE", "Europe/Amsterdam")
	cfg.DB.DSN = os.Getenv("HEARTH_DB_DSN")

	if cfg.DB.DSN == "" {
		host := os.Getenv("HEARTH_DB_HOST")
		name := os.Getenv("HEARTH_DB_NAME")
		user := os.Getenv("HEARTH_DB_USER")
		password := os.Getenv("HEARTH_DB_PASSWORD")
		port := getenvDefault("HEARTH_DB_PORT", "5432")
		sslmode := getenvDefault("HEARTH_DB_SSLMODE", "disable")

		if host != "" && name != "" && user != "" && password != "" {
			cfg.DB.DSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslmode)
		}
	}

	cfg.Session.Secret = os.Getenv("HEARTH_SESSION_SECRET")

	cfg.OIDC.ClientID = os.Getenv("HEARTH_OIDC_CLIENT_ID")
	cfg.OIDC.ClientSecret = os.Getenv("HEARTH_OIDC_CLIENT_SECRET")
	cfg.OIDC.IssuerURL = os.Getenv("HEARTH_OIDC_ISSUER_URL")
	cfg.OIDC.RedirectPath = getenvDefault("HEARTH_OIDC_REDIRECT_PATH", "/auth/sso/callback")

	cfg.Google.ClientID = os.Getenv("HEARTH_GOOGLE_CLIENT_ID")
	cfg.Google.ClientSecret = os.Getenv("HEARTH_GOOGLE_CLIENT_SECRET")
	cfg.Google.RedirectPath = getenvDefault("HEARTH_GOOGLE_REDIRECT_PATH", "/api/calendar/callback")
	cfg.Google.AuthURL = getenvDefault("HEARTH_GOOGLE_AUTH_URL", "https://accounts.google.com/o/oauth2/v2/auth")
	cfg.Google.TokenURL = getenvDefault("HEARTH_GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token")
	cfg.Google.APIBaseURL = getenvDefault("HEARTH_GOOGLE_API_BASE_URL", "https://www.googleapis.com/calendar/v3")
	cfg.Google.SyncAccount = os.Getenv("HEARTH_GOOGLE_SYNC_ACCOUNT")

	cfg.PrometheusEnabled = getenvBool("HEARTH_PROMETHEUS_ENDPOINT_ENABLED", false)
	cfg.TrustedProxies = getenvList("HEARTH_TRUSTED_PROXIES")

	if cfg.DB.DSN == "" {
		return nil, errors.New("HEARTH_DB_DSN is required (or set HEARTH_DB_HOST, HEARTH_DB_NAME, HEARTH_DB_USER, and HEARTH_DB_PASSWORD)")
	}
	if cfg.Session.Secret == "" {
		return nil, errors.New("HEARTH_SESSION_SECRET is required")
	}
	if len(cfg.Session.Secret) < 32 {
		return nil, fmt.Errorf("HEARTH_SESSION_SECRET must be at least 32 characters long (got %d)", len(cfg.Session.Secret))
	}
	if cfg.OIDC.IssuerURL != "" && (cfg.OIDC.ClientID == "" || cfg.OIDC.ClientSecret == "") {
		return nil, errors.New("HEARTH_OIDC_CLIENT_ID and HEARTH_OIDC_CLIENT_SECRET are required when an OIDC issuer is configured")
	}
	if (cfg.Google.ClientID == "") != (cfg.Google.ClientSecret == "") {
		return nil, errors.New("HEARTH_GOOGLE_CLIENT_ID and HEARTH_GOOGLE_CLIENT_SECRET must be set together")
	}

	if len(cfg.TrustedProxies) == 0 {
		fmt.Println("WARNING: No HEARTH_TRUSTED_PROXIES configured. Hearth will trust all proxies - Not recommended for public environments.")
	}

	return cfg, nil
}

// GoogleEnabled reports whether the calendar integration is configured.
func (c *Config) GoogleEnabled() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}

// OIDCEnabled reports whether SSO login is configured.
func (c *Config) OIDCEnabled() bool {
	return c.OIDC.IssuerURL != ""
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return def
}

func getenvList(key string) []string {
	if v := os.Getenv(key); v != "" {
		var result []string
		for _, item := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return nil
}
