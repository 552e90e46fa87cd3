package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"reelsmith/internal/config"
	"reelsmith/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var statusFilters []string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List projects and their pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				statuses, err := parseStatusFilters(statusFilters)
				if err != nil {
					return err
				}
				items, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if jsonOutput || !stdoutIsTerminal() {
					return writeItemsJSON(cmd, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No projects found")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						fmt.Sprintf("%d", item.ID),
						item.Channel,
						item.Title,
						string(item.Status),
						formatProgress(item),
						formatFlag(item),
						item.UpdatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				tableText := renderTable(
					[]string{"ID", "Channel", "Title", "Status", "Progress", "Flags", "Updated"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), tableText)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	cmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Filter by status (repeatable)")
	return cmd
}

// stdoutIsTerminal decides whether status renders a table or falls back to
// JSON for piped output.
func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func parseStatusFilters(values []string) ([]queue.Status, error) {
	known := make(map[queue.Status]struct{})
	for _, status := range queue.AllStatuses() {
		known[status] = struct{}{}
	}
	statuses := make([]queue.Status, 0, len(values))
	for _, value := range values {
		status := queue.Status(strings.ToLower(strings.TrimSpace(value)))
		if _, ok := known[status]; !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func formatProgress(item *queue.Item) string {
	if item.ProgressStage == "" {
		return ""
	}
	return fmt.Sprintf("%s %.0f%%", item.ProgressStage, item.ProgressPercent)
}

func formatFlag(item *queue.Item) string {
	switch {
	case item.NeedsReview:
		return "review"
	case item.Status == queue.StatusFailed:
		return "failed"
	default:
		return ""
	}
}

type itemJSON struct {
	ID              int64     `json:"id"`
	Channel         string    `json:"channel"`
	Title           string    `json:"title"`
	VideoID         string    `json:"video_id"`
	Status          string    `json:"status"`
	ProgressStage   string    `json:"progress_stage,omitempty"`
	ProgressPercent float64   `json:"progress_percent,omitempty"`
	ProgressMessage string    `json:"progress_message,omitempty"`
	NeedsReview     bool      `json:"needs_review,omitempty"`
	ReviewReason    string    `json:"review_reason,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	UploadURL       string    `json:"upload_url,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func writeItemsJSON(cmd *cobra.Command, items []*queue.Item) error {
	payload := make([]itemJSON, 0, len(items))
	for _, item := range items {
		payload = append(payload, itemJSON{
			ID:              item.ID,
			Channel:         item.Channel,
			Title:           item.Title,
			VideoID:         item.VideoID,
			Status:          string(item.Status),
			ProgressStage:   item.ProgressStage,
			ProgressPercent: item.ProgressPercent,
			ProgressMessage: item.ProgressMessage,
			NeedsReview:     item.NeedsReview,
			ReviewReason:    item.ReviewReason,
			ErrorMessage:    item.ErrorMessage,
			UploadURL:       item.UploadURL,
			UpdatedAt:       item.UpdatedAt,
		})
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
