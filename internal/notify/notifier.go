// Package notify defines the notification interface and implementations
// for sync report delivery.
package notify

import (
	"context"

	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

// Notifier defines the interface for reporting sync outcomes.
type Notifier interface {
	SendSyncReport(ctx context.Context, summary domain.SyncSummary) error
}
