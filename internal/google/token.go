package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/svanleeuwen/hearth/internal/config"
)

// CalendarScope is the only scope Hearth requests from Google.
const CalendarScope = "https://www.googleapis.com/auth/calendar"

// Token is the subset of the token endpoint response the rest of the
// application cares about.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

// TokenClient drives the OAuth authorization-code and refresh-token grants
// against Google's token endpoint.
type TokenClient struct {
	oauth      oauth2.Config
	tokenURL   string
	httpClient *http.Client
	now        func() time.Time
}

func NewTokenClient(cfg *config.Config) *TokenClient {
	return &TokenClient{
		oauth: oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  strings.TrimRight(cfg.BaseURL, "/") + cfg.Google.RedirectPath,
			Scopes:       []string{CalendarScope},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.Google.AuthURL,
				TokenURL: cfg.Google.TokenURL,
			},
		},
		tokenURL:   cfg.Google.TokenURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		now:        time.Now,
	}
}

// AuthCodeURL builds the consent page URL. Offline access with forced consent
// is required so Google issues a refresh token on every connect.
func (c *TokenClient) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// ExchangeCode trades an authorization code for an access and refresh token.
func (c *TokenClient) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	out := &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		out.ExpiresAt = &expiry
	}
	return out, nil
}

// Refresh performs a refresh_token grant directly against the token endpoint.
// The oauth2 TokenSource is bypassed here on purpose: the caller persists the
// refreshed credentials and must see grant failures verbatim to decide
// whether reauthorization is required.
func (c *TokenClient) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{
		"client_id":     {c.oauth.ClientID},
		"client_secret": {c.oauth.ClientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read refresh response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var te tokenErrorResponse
		_ = json.Unmarshal(body, &te)
		// 4xx means the grant itself was rejected (revoked or expired
		// refresh token); transient server errors stay plain errors so the
		// caller does not discard credentials over an outage.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			if te.Error != "" {
				return nil, fmt.Errorf("refresh token: %s (%s): %w", te.Error, te.ErrorDescription, ErrUnauthorized)
			}
			return nil, fmt.Errorf("refresh token: unexpected status %d: %w", resp.StatusCode, ErrUnauthorized)
		}
		return nil, fmt.Errorf("refresh token: unexpected status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("decode refresh response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("refresh token: response carried no access token: %w", ErrUnauthorized)
	}

	out := &Token{
		AccessToken: tr.AccessToken,
		// Google does not rotate the refresh token on this grant; keep the
		// old one when the response omits it.
		RefreshToken: tr.RefreshToken,
	}
	if tr.ExpiresIn > 0 {
		expiry := c.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
		out.ExpiresAt = &expiry
	}
	return out, nil
}
