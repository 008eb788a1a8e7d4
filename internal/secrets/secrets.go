// Package secrets resolves named parameters such as upstream API
// credentials. Lookups are memoized for the lifetime of the process.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ErrMissingSecret is returned when a required parameter cannot be
// resolved. This is a configuration error; callers surface it
// immediately rather than retrying.
var ErrMissingSecret = errors.New("secret parameter not found")

// Provider resolves a named secret parameter.
type Provider interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Env resolves parameters from environment variables. A parameter name
// like "spotify/client-id" maps to PREFIX_SPOTIFY_CLIENT_ID.
type Env struct {
	Prefix string
}

// GetParameter looks up the environment variable for name.
func (e *Env) GetParameter(_ context.Context, name string) (string, error) {
	key := envKey(e.Prefix, name)
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return "", fmt.Errorf("resolving %s (env %s): %w", name, key, ErrMissingSecret)
	}
	return val, nil
}

func envKey(prefix, name string) string {
	key := strings.ToUpper(name)
	key = strings.NewReplacer("/", "_", "-", "_", ".", "_").Replace(key)
	if prefix != "" {
		key = strings.ToUpper(prefix) + "_" + key
	}
	return key
}

// Static serves fixed parameter values. Used for config-file credentials
// and tests.
type Static map[string]string

// GetParameter returns the configured value for name.
func (s Static) GetParameter(_ context.Context, name string) (string, error) {
	val, ok := s[name]
	if !ok || val == "" {
		return "", fmt.Errorf("resolving %s: %w", name, ErrMissingSecret)
	}
	return val, nil
}

// Cached wraps a Provider and memoizes successful lookups for the
// process lifetime. Failed lookups are not cached, so a parameter that
// becomes available later is picked up on the next call.
type Cached struct {
	inner Provider

	mu     sync.Mutex
	values map[string]string
}

// NewCached wraps p with a process-lifetime memo cache.
func NewCached(p Provider) *Cached {
	return &Cached{
		inner:  p,
		values: make(map[string]string),
	}
}

// GetParameter returns the cached value for name, resolving it through
// the wrapped provider on first use.
func (c *Cached) GetParameter(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if val, ok := c.values[name]; ok {
		return val, nil
	}

	val, err := c.inner.GetParameter(ctx, name)
	if err != nil {
		return "", err
	}

	c.values[name] = val
	return val, nil
}
