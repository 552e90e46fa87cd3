package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelsmith/internal/config"
	"reelsmith/internal/queue"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retry <project-id>",
		Short: "Clear a failed or review flag so the project can run again",
		Long: strings.TrimSpace(`
Reset a failed or review-flagged project to the start of the stage that
stopped it. Run "reelsmith run" afterwards to resume the pipeline.`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid project id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				item, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("project %d not found", id)
				}
				if item.Status != queue.StatusFailed && item.Status != queue.StatusReview {
					return fmt.Errorf("project %d is %s; only failed or review projects can be retried", id, item.Status)
				}

				item.Status = retryStatus(item)
				item.NeedsReview = false
				item.ReviewReason = ""
				item.ErrorMessage = ""
				if err := store.Update(cmd.Context(), item); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Project #%d reset to %s\n", item.ID, item.Status)
				return nil
			})
		},
	}
	return cmd
}

// retryStatus derives where a stopped project should resume. The progress
// stage label recorded by the failing stage matches its processing status, so
// rolling that back lands on the stage's start status.
func retryStatus(item *queue.Item) queue.Status {
	processing, ok := queue.ParseStatus(item.ProgressStage)
	if !ok {
		return queue.StatusPending
	}
	start, ok := queue.RollbackStatus(processing)
	if !ok {
		return queue.StatusPending
	}
	return start
}
