package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/podcast-mirror/internal/proxy"
	"github.com/donaldgifford/podcast-mirror/internal/ratelimit"
	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

// callerIdentity maps the optional user header to a limiter identity.
func callerIdentity(userID string) ratelimit.Identity {
	if userID == "" {
		return ratelimit.Anonymous
	}
	return ratelimit.User(userID)
}

// SearchHandler handles catalog search requests.
type SearchHandler struct {
	svc *proxy.Service
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(svc *proxy.Service) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// SearchInput is the request for the search endpoint.
type SearchInput struct {
	Query  string `query:"q"      required:"true" minLength:"1" doc:"Search term" example:"true crime"`
	Limit  int    `query:"limit"  minimum:"1" maximum:"50" required:"false" doc:"Maximum results per page (default 20)" example:"20"`
	Offset int    `query:"offset" minimum:"0" required:"false" doc:"Result offset for pagination" example:"0"`
	UserID string `header:"X-User-ID" required:"false" doc:"Caller user id; when set, results carry subscription state"`
}

// SearchOutput is the response body for the search endpoint.
type SearchOutput struct {
	Body struct {
		Shows   []domain.AnnotatedShow `json:"shows" doc:"Matching shows"`
		Total   int                    `json:"total" doc:"Total matching shows upstream"`
		HasMore bool                   `json:"has_more" doc:"Whether more results are available"`
	}
}

// Search proxies a show search to the upstream catalog. Anonymous
// searches are cached; searches with a user identity bypass the cache
// and annotate each result with the caller's subscription state.
func (h *SearchHandler) Search(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	out := &SearchOutput{}

	if input.UserID != "" {
		annotated, err := h.svc.SearchWithSubscriptions(ctx, input.UserID, input.Query, limit, input.Offset)
		if err != nil {
			return nil, mapProxyError(err)
		}
		out.Body.Shows = annotated
		out.Body.Total = len(annotated)
		return out, nil
	}

	res, err := h.svc.Search(ctx, ratelimit.Anonymous, input.Query, limit, input.Offset)
	if err != nil {
		return nil, mapProxyError(err)
	}

	out.Body.Shows = make([]domain.AnnotatedShow, 0, len(res.Shows))
	for _, show := range res.Shows {
		out.Body.Shows = append(out.Body.Shows, domain.AnnotatedShow{Show: show})
	}
	out.Body.Total = res.Total
	out.Body.HasMore = res.HasMore
	return out, nil
}

// RegisterSearchRoutes registers search endpoints with the Huma API.
func RegisterSearchRoutes(api huma.API, h *SearchHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "search-shows",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search catalog shows",
		Description: "Proxies a show search to the upstream catalog through the rate limiter and read-through cache.",
		Tags:        []string{"catalog"},
		Errors:      []int{http.StatusTooManyRequests, http.StatusBadGateway},
	}, h.Search)
}
