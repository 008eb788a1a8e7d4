package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	apiclient "github.com/donaldgifford/podcast-mirror/internal/api/client"
	domain "github.com/donaldgifford/podcast-mirror/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printSearchTable(shows []domain.AnnotatedShow) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tTITLE\tPUBLISHER\tEPISODES\tSUBSCRIBED\n")
	for i := range shows {
		tw.writef("%s\t%s\t%s\t%d\t%v\n",
			shows[i].ID,
			truncate(shows[i].Title, 40),
			truncate(shows[i].Publisher, 30),
			shows[i].EpisodeCount,
			shows[i].Subscribed,
		)
	}
	return tw.finish()
}

func printShowsTable(shows []domain.Show) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tTITLE\tPUBLISHER\tEPISODES\tLAST REFRESHED\n")
	for i := range shows {
		refreshed := "-"
		if shows[i].LastRefreshedAt != nil {
			refreshed = shows[i].LastRefreshedAt.Format("2006-01-02 15:04:05")
		}
		tw.writef("%s\t%s\t%s\t%d\t%s\n",
			shows[i].ID,
			truncate(shows[i].Title, 40),
			truncate(shows[i].Publisher, 30),
			shows[i].EpisodeCount,
			refreshed,
		)
	}
	return tw.finish()
}

func printShowDetail(s *domain.Show) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID:\t%s\n", s.ID)
	tw.writef("Title:\t%s\n", s.Title)
	tw.writef("Publisher:\t%s\n", s.Publisher)
	tw.writef("Episodes:\t%d\n", s.EpisodeCount)
	if s.Description != "" {
		tw.writef("Description:\t%s\n", truncate(s.Description, 120))
	}
	if s.LastRefreshedAt != nil {
		tw.writef("Last Refreshed:\t%s\n", s.LastRefreshedAt.Format("2006-01-02 15:04:05"))
	}
	if s.LastEpisodePublishedAt != nil {
		tw.writef("Last Episode:\t%s\n", s.LastEpisodePublishedAt.Format("2006-01-02"))
	}
	return tw.finish()
}

func printEpisodesTable(episodes []domain.Episode) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tTITLE\tPUBLISHED\tDURATION\n")
	for i := range episodes {
		published := "-"
		if episodes[i].PublishedAt != nil {
			published = episodes[i].PublishedAt.Format("2006-01-02")
		}
		tw.writef("%s\t%s\t%s\t%s\n",
			episodes[i].ID,
			truncate(episodes[i].Title, 50),
			published,
			formatDuration(episodes[i].DurationSec),
		)
	}
	return tw.finish()
}

func printEpisodeDetail(e *domain.Episode) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID:\t%s\n", e.ID)
	tw.writef("Show:\t%s\n", e.ShowID)
	tw.writef("Title:\t%s\n", e.Title)
	tw.writef("Duration:\t%s\n", formatDuration(e.DurationSec))
	if e.PublishedAt != nil {
		tw.writef("Published:\t%s\n", e.PublishedAt.Format("2006-01-02"))
	}
	if e.ExternalURL != "" {
		tw.writef("URL:\t%s\n", e.ExternalURL)
	}
	return tw.finish()
}

func printSyncSummary(s *domain.SyncSummary) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Shows Processed:\t%d\n", s.CollectionsProcessed)
	tw.writef("Episodes Upserted:\t%d\n", s.ItemsUpserted)
	tw.writef("Duration:\t%dms\n", s.DurationMs)
	tw.writef("Failures:\t%d\n", len(s.Failures))
	for _, f := range s.Failures {
		tw.writef("  %s:\t%s\n", f.ShowID, truncate(f.Error, 80))
	}
	return tw.finish()
}

func printQuota(q *apiclient.QuotaResponse) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Daily Budget:\t%d\n", q.MaxDaily)
	tw.writef("Used:\t%d\n", q.Used)
	tw.writef("Remaining:\t%d\n", q.Remaining)
	tw.writef("Resets:\t%s\n", q.ResetAt.Format("2006-01-02 15:04:05 MST"))
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func formatDuration(sec int) string {
	if sec <= 0 {
		return "-"
	}
	return fmt.Sprintf("%dm%02ds", sec/60, sec%60)
}
