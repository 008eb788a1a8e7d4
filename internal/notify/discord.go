package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

const (
	colorGreen = 0x2ECC71 // clean pass
	colorRed   = 0xE74C3C // at least one show failed

	// Discord allows at most 25 fields per embed; keep room for the
	// summary fields.
	maxFailureFields = 20
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// SendSyncReport sends the pass summary as a single Discord embed.
func (d *DiscordNotifier) SendSyncReport(ctx context.Context, summary domain.SyncSummary) error {
	payload := discordWebhookPayload{
		Embeds: []discordEmbed{buildSummaryEmbed(summary)},
	}
	return d.post(ctx, payload)
}

func buildSummaryEmbed(summary domain.SyncSummary) discordEmbed {
	embed := discordEmbed{
		Title: "Catalog sync complete",
		Color: colorGreen,
		Fields: []discordEmbedField{
			{Name: "Shows", Value: fmt.Sprintf("%d", summary.CollectionsProcessed), Inline: true},
			{Name: "Episodes upserted", Value: fmt.Sprintf("%d", summary.ItemsUpserted), Inline: true},
			{
				Name:   "Duration",
				Value:  (time.Duration(summary.DurationMs) * time.Millisecond).String(),
				Inline: true,
			},
		},
	}

	if len(summary.Failures) == 0 {
		return embed
	}

	embed.Title = "Catalog sync completed with failures"
	embed.Color = colorRed

	limit := min(len(summary.Failures), maxFailureFields)
	for _, f := range summary.Failures[:limit] {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name:  f.ShowID,
			Value: f.Error,
		})
	}
	if len(summary.Failures) > maxFailureFields {
		embed.Description = fmt.Sprintf(
			"... and %d more failed shows; see the service logs.",
			len(summary.Failures)-maxFailureFields,
		)
	}

	return embed
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
