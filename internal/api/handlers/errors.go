package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/podcast-mirror/internal/ratelimit"
	"github.com/donaldgifford/podcast-mirror/internal/spotify"
)

// mapProxyError translates domain errors into HTTP status errors.
// Rate-limit rejections stay distinguishable from upstream outages so
// callers can decide between backing off and surfacing a hard error.
func mapProxyError(err error) error {
	var upstream *spotify.UpstreamError

	switch {
	case errors.Is(err, ratelimit.ErrLimitExceeded):
		return huma.Error429TooManyRequests(err.Error())
	case errors.Is(err, spotify.ErrNotFound):
		return huma.Error404NotFound("not found upstream")
	case errors.Is(err, spotify.ErrRateLimited):
		return huma.Error502BadGateway("upstream rate limit: " + err.Error())
	case errors.Is(err, spotify.ErrAuth):
		return huma.Error502BadGateway("upstream auth failure: " + err.Error())
	case errors.As(err, &upstream):
		return huma.Error502BadGateway("upstream error: " + err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
