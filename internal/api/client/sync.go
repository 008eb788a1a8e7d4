package client

import (
	"context"
	"time"

	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

// TriggerSync runs a sync pass on the server and returns its summary.
func (c *Client) TriggerSync(ctx context.Context) (*domain.SyncSummary, error) {
	var summary domain.SyncSummary
	if err := c.post(ctx, "/api/v1/sync", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// QuotaResponse is the body of a quota request.
type QuotaResponse struct {
	MaxDaily  int64     `json:"max_daily"`
	Used      int64     `json:"used"`
	Remaining int64     `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// Quota returns the upstream call budget and current usage.
func (c *Client) Quota(ctx context.Context) (*QuotaResponse, error) {
	var resp QuotaResponse
	if err := c.get(ctx, "/api/v1/quota", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
