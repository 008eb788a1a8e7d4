package spotify

// Upstream response shapes. Each shape has exactly one normalization
// function in convert.go; nothing outside this package inspects raw
// upstream fields.

// showObject represents a single show from the upstream catalog API.
type showObject struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Publisher     string        `json:"publisher"`
	Description   string        `json:"description"`
	Images        []imageObject `json:"images,omitempty"`
	TotalEpisodes int           `json:"total_episodes"`
}

// episodeObject represents a single episode from the upstream catalog API.
type episodeObject struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	AudioPreviewURL string        `json:"audio_preview_url"`
	DurationMs      int           `json:"duration_ms"`
	Explicit        bool          `json:"explicit"`
	Language        string        `json:"language"`
	ReleaseDate     string        `json:"release_date"`
	Images          []imageObject `json:"images,omitempty"`
	ExternalURLs    externalURLs  `json:"external_urls"`
}

// imageObject holds upstream artwork information.
type imageObject struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// externalURLs holds upstream link-out information.
type externalURLs struct {
	Spotify string `json:"spotify"`
}

// showPaging is the paginated show container returned by search.
type showPaging struct {
	Items []showObject `json:"items"`
	Next  string       `json:"next"`
	Total int          `json:"total"`
}

// episodePaging is the paginated episode container returned by the
// episode listing endpoint.
type episodePaging struct {
	Items []episodeObject `json:"items"`
	Next  string          `json:"next"`
	Total int             `json:"total"`
}

// searchResponse is the top-level search envelope.
type searchResponse struct {
	Shows showPaging `json:"shows"`
}

// tokenResponse is the OAuth2 token endpoint response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// tokenErrorResponse is the OAuth2 token endpoint error envelope.
type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
