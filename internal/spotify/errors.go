package spotify

import (
	"errors"
	"fmt"
)

// Upstream error definitions. Transient failures (401, 429) are retried
// internally up to the attempt ceiling; once exhausted they surface as
// ErrAuth or ErrRateLimited. Anything else fails immediately.
var (
	// ErrAuth is returned when authentication against the upstream API
	// failed and retries were exhausted, or when the token endpoint
	// returned no usable access token.
	ErrAuth = errors.New("upstream authentication failed")

	// ErrRateLimited is returned when the upstream API kept answering
	// 429 until the retry budget ran out.
	ErrRateLimited = errors.New("upstream rate limit exceeded")

	// ErrNotFound is returned when the requested show or episode does
	// not exist upstream.
	ErrNotFound = errors.New("not found upstream")
)

// UpstreamError reports a non-2xx upstream response that is neither an
// auth nor a rate-limit condition. The body is carried for diagnostics.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream API error (status %d): %s", e.Status, e.Body)
}
