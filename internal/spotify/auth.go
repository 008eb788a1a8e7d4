package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/donaldgifford/podcast-mirror/internal/secrets"
)

const (
	defaultTokenURL = "https://accounts.spotify.com/api/token" //nolint:gosec // not a credential

	// A cached token is served only while it has more than this much
	// lifetime left.
	refreshMargin = 30 * time.Second

	// The stored expiry is shortened by this much relative to what the
	// upstream reported, with a one-minute floor.
	expiryHaircut = 60 * time.Second
)

// Default parameter names for upstream credentials.
const (
	ParamClientID     = "spotify/client-id"
	ParamClientSecret = "spotify/client-secret"
)

// TokenProvider supplies bearer credentials for upstream calls.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// OAuthTokenProvider implements TokenProvider using the OAuth2 client
// credentials flow. Credentials come from a secret provider and are
// resolved lazily on the first outbound call. Tokens are cached and
// refreshed automatically near expiry; Invalidate drops the cached token
// after an upstream 401 so the next attempt fetches a fresh one.
// Thread-safe via mutex.
type OAuthTokenProvider struct {
	params   secrets.Provider
	tokenURL string
	client   *http.Client

	mu      sync.Mutex
	token   string
	expiry  time.Time
	nowFunc func() time.Time // for testing
}

// OAuthOption configures the OAuthTokenProvider.
type OAuthOption func(*OAuthTokenProvider)

// WithTokenURL overrides the default token endpoint.
func WithTokenURL(u string) OAuthOption {
	return func(p *OAuthTokenProvider) {
		p.tokenURL = u
	}
}

// WithAuthHTTPClient overrides the default HTTP client.
func WithAuthHTTPClient(c *http.Client) OAuthOption {
	return func(p *OAuthTokenProvider) {
		p.client = c
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) OAuthOption {
	return func(p *OAuthTokenProvider) {
		p.nowFunc = f
	}
}

// NewOAuthTokenProvider creates a token provider backed by the given
// secret provider. Credential lookups go through the provider on every
// refresh; wrap it with secrets.NewCached to pin them per process.
func NewOAuthTokenProvider(params secrets.Provider, opts ...OAuthOption) *OAuthTokenProvider {
	p := &OAuthTokenProvider{
		params:   params,
		tokenURL: defaultTokenURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Token returns a valid access token, refreshing if necessary.
func (p *OAuthTokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.nowFunc().Before(p.expiry.Add(-refreshMargin)) {
		return p.token, nil
	}

	return p.refreshLocked(ctx)
}

// Invalidate clears the cached token. The next Token call fetches a
// fresh one.
func (p *OAuthTokenProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	p.expiry = time.Time{}
}

func (p *OAuthTokenProvider) refreshLocked(ctx context.Context) (string, error) {
	clientID, err := p.params.GetParameter(ctx, ParamClientID)
	if err != nil {
		return "", fmt.Errorf("resolving client id: %w", err)
	}
	clientSecret, err := p.params.GetParameter(ctx, ParamClientSecret)
	if err != nil {
		return "", fmt.Errorf("resolving client secret: %w", err)
	}

	form := url.Values{
		"grant_type": {"client_credentials"},
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.tokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	creds := base64.StdEncoding.EncodeToString(
		[]byte(clientID + ":" + clientSecret),
	)
	req.Header.Set("Authorization", "Basic "+creds)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp tokenErrorResponse
		_ = json.Unmarshal(body, &errResp) //nolint:errcheck // best-effort error parsing
		return "", fmt.Errorf(
			"token request failed (status %d): %s - %s: %w",
			resp.StatusCode,
			errResp.Error,
			errResp.ErrorDescription,
			ErrAuth,
		)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("parsing token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token response missing access token: %w", ErrAuth)
	}

	lifetime := time.Duration(tokenResp.ExpiresIn)*time.Second - expiryHaircut
	if lifetime < time.Minute {
		lifetime = time.Minute
	}

	p.token = tokenResp.AccessToken
	p.expiry = p.nowFunc().Add(lifetime)

	return p.token, nil
}
