// Package ratelimit enforces per-caller request quotas with fixed-window
// counters kept in the store. Counting is a single atomic increment per
// request, so every replica of the service shares one budget without
// coordination beyond the store itself.
//
// Windows are aligned to the epoch: bucket = floor(now / window). A
// caller can therefore burst up to 2x the limit across a window edge;
// that is the accepted cost of avoiding sliding-window bookkeeping.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/donaldgifford/podcast-mirror/internal/metrics"
	"github.com/donaldgifford/podcast-mirror/internal/store"
)

// ErrLimitExceeded is returned when the caller is over quota for the
// current window.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// counterField is the attribute holding the window's request count.
const counterField = "count"

// Class groups callers for policy selection.
type Class string

// Identity classes.
const (
	ClassUser      Class = "user"
	ClassAnonymous Class = "anonymous"
	ClassSystem    Class = "system"
)

// Identity names a caller. ID is empty for anonymous and system callers;
// every anonymous caller shares one budget.
type Identity struct {
	Class Class
	ID    string
}

// User returns the identity for an authenticated caller.
func User(id string) Identity {
	return Identity{Class: ClassUser, ID: id}
}

// Anonymous is the shared identity for unauthenticated callers.
var Anonymous = Identity{Class: ClassAnonymous}

// System is the identity for internal callers such as the sync engine.
var System = Identity{Class: ClassSystem}

func (i Identity) partitionKey() string {
	if i.ID == "" {
		return "RL#" + string(i.Class)
	}
	return "RL#" + string(i.Class) + ":" + i.ID
}

// Policy caps requests per window. A zero MaxRequests means unlimited.
type Policy struct {
	MaxRequests int64
	Window      time.Duration
}

// Policies maps identity class and operation to a policy. The "*"
// operation is the per-class default.
type Policies map[Class]map[string]Policy

// DefaultPolicies returns the shipped limits: search is tighter than
// cheap id lookups, anonymous callers share a small budget, and system
// callers get a ceiling high enough to never bind in practice.
func DefaultPolicies() Policies {
	return Policies{
		ClassUser: {
			"search": {MaxRequests: 30, Window: time.Minute},
			"*":      {MaxRequests: 120, Window: time.Minute},
		},
		ClassAnonymous: {
			"search": {MaxRequests: 10, Window: time.Minute},
			"*":      {MaxRequests: 60, Window: time.Minute},
		},
		ClassSystem: {
			"*": {MaxRequests: 5000, Window: time.Minute},
		},
	}
}

func (p Policies) resolve(class Class, operation string) (Policy, bool) {
	ops, ok := p[class]
	if !ok {
		return Policy{}, false
	}
	if pol, ok := ops[operation]; ok {
		return pol, true
	}
	pol, ok := ops["*"]
	return pol, ok
}

// Limiter checks requests against store-backed window counters.
type Limiter struct {
	store    store.Store
	policies Policies
	logger   *log.Logger
	nowFunc  func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(lim *Limiter) {
		lim.logger = l
	}
}

// WithNowFunc overrides the clock. Tests only.
func WithNowFunc(now func() time.Time) Option {
	return func(lim *Limiter) {
		lim.nowFunc = now
	}
}

// New creates a Limiter with the given policies.
func New(s store.Store, policies Policies, opts ...Option) *Limiter {
	lim := &Limiter{
		store:    s,
		policies: policies,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(lim)
	}
	return lim
}

// Check counts one request for the caller and returns ErrLimitExceeded
// when the window's budget is spent. Exactly MaxRequests calls succeed
// per window; the increment lands before the comparison, so two racing
// callers can never both take the last slot.
//
// A store failure lets the request through: a degraded store should not
// take the read path down with it.
func (lim *Limiter) Check(ctx context.Context, id Identity, operation string) error {
	pol, ok := lim.policies.resolve(id.Class, operation)
	if !ok || pol.MaxRequests <= 0 {
		return nil
	}

	now := lim.nowFunc()
	bucket := now.Unix() / int64(pol.Window.Seconds())
	key := store.Key{
		PK: id.partitionKey(),
		SK: fmt.Sprintf("%s#%d", operation, bucket),
	}

	// Counter rows are only read within their own window; keep them for
	// two so a straggling read never recreates an expired row.
	count, err := lim.store.AtomicIncrement(ctx, key, counterField, 1, 2*pol.Window)
	if err != nil {
		if lim.logger != nil {
			lim.logger.Warn("rate limit counter unavailable, allowing request",
				"class", id.Class, "operation", operation, "error", err)
		}
		return nil
	}

	if count > pol.MaxRequests {
		metrics.RateLimitRejectionsTotal.WithLabelValues(string(id.Class), operation).Inc()
		return fmt.Errorf("%w: %s %s (%d/%d in %s window)",
			ErrLimitExceeded, id.Class, operation, count, pol.MaxRequests, pol.Window)
	}
	return nil
}
