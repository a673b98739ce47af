package google

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"
	"google.golang.org/api/searchconsole/v1"

	"github.com/seoauditor/seoauditor/internal/store"
)

// Scopes requested when a user links a Google account.
var Scopes = []string{
	"https://www.googleapis.com/auth/analytics.readonly",
	"https://www.googleapis.com/auth/webmasters.readonly",
	"https://www.googleapis.com/auth/userinfo.email",
}

// TokenStore loads and persists the OAuth tokens of Google connections.
type TokenStore interface {
	GetGoogleConnection(ctx context.Context, id string) (*store.GoogleConnection, error)
	UpdateGoogleTokens(ctx context.Context, id, accessToken string, expiresAt *time.Time) error
}

// Services are the per-connection API clients used by a metrics sync.
type Services struct {
	Analytics *analyticsdata.Service
	Search    *searchconsole.Service
}

// ConnectionClients builds authenticated API clients for stored Google
// connections. Refreshed access tokens are written back to the TokenStore.
type ConnectionClients struct {
	config *oauth2.Config
	tokens TokenStore
}

// NewConnectionClients creates a ConnectionClients for an OAuth app.
func NewConnectionClients(clientID, clientSecret, redirectURL string, tokens TokenStore) *ConnectionClients {
	return &ConnectionClients{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       Scopes,
			Endpoint:     googleoauth.Endpoint,
		},
		tokens: tokens,
	}
}

// AuthCodeURL returns the consent URL for linking an account. Offline access
// is forced so Google always returns a refresh token.
func (c *ConnectionClients) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for tokens.
func (c *ConnectionClients) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return tok, nil
}

// HTTPClient returns an auto-refreshing client for a connection.
func (c *ConnectionClients) HTTPClient(ctx context.Context, connectionID string) (*http.Client, error) {
	conn, err := c.tokens.GetGoogleConnection(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, fmt.Errorf("google connection %s not found", connectionID)
	}

	tok := &oauth2.Token{
		AccessToken:  conn.AccessToken,
		RefreshToken: conn.RefreshToken,
		TokenType:    "Bearer",
	}
	if conn.TokenExpiresAt != nil {
		tok.Expiry = *conn.TokenExpiresAt
	}

	src := &persistingSource{
		ctx:    ctx,
		id:     connectionID,
		base:   c.config.TokenSource(ctx, tok),
		tokens: c.tokens,
		last:   tok.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// Services returns the Analytics Data and Search Console clients of a
// connection.
func (c *ConnectionClients) Services(ctx context.Context, connectionID string) (*Services, error) {
	hc, err := c.HTTPClient(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	analytics, err := analyticsdata.NewService(ctx, option.WithHTTPClient(hc))
	if err != nil {
		return nil, fmt.Errorf("create analytics service: %w", err)
	}
	search, err := searchconsole.NewService(ctx, option.WithHTTPClient(hc))
	if err != nil {
		return nil, fmt.Errorf("create search console service: %w", err)
	}
	return &Services{Analytics: analytics, Search: search}, nil
}

// persistingSource saves every newly issued access token.
type persistingSource struct {
	ctx    context.Context
	id     string
	base   oauth2.TokenSource
	tokens TokenStore

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, upstream("oauth", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		var expiry *time.Time
		if !tok.Expiry.IsZero() {
			e := tok.Expiry
			expiry = &e
		}
		if err := s.tokens.UpdateGoogleTokens(s.ctx, s.id, tok.AccessToken, expiry); err != nil {
			log.Printf("warning: failed to persist refreshed token for connection %s: %v", s.id, err)
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}
