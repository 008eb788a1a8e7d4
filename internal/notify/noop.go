package notify

import (
	"context"
	"log/slog"

	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

// NoOpNotifier implements Notifier by logging discarded reports. It is
// used when Discord (or another notification backend) is not configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards reports with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// SendSyncReport logs and discards a sync summary.
func (n *NoOpNotifier) SendSyncReport(_ context.Context, summary domain.SyncSummary) error {
	n.log.Debug("sync report discarded (no backend configured)",
		"shows", summary.CollectionsProcessed,
		"episodes_upserted", summary.ItemsUpserted,
		"failures", len(summary.Failures),
	)
	return nil
}
