package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"reelsmith/internal/config"
	"reelsmith/internal/queue"
	"reelsmith/internal/workspace"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project's details and artifacts",
		Args:  cobra.ExactArgs(1),
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
				printItem(cmd, cfg, item)
				return nil
			})
		},
	}
	return cmd
}

func printItem(cmd *cobra.Command, cfg *config.Config, item *queue.Item) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Project #%d\n", item.ID)
	fmt.Fprintf(out, "  Channel:  %s\n", item.Channel)
	fmt.Fprintf(out, "  Title:    %s\n", item.Title)
	fmt.Fprintf(out, "  Video ID: %s\n", item.VideoID)
	fmt.Fprintf(out, "  Status:   %s\n", item.Status)
	if item.ProgressStage != "" {
		fmt.Fprintf(out, "  Progress: %s %.0f%% %s\n", item.ProgressStage, item.ProgressPercent, item.ProgressMessage)
	}
	if item.NeedsReview {
		fmt.Fprintf(out, "  Review:   %s\n", item.ReviewReason)
	}
	if item.ErrorMessage != "" {
		fmt.Fprintf(out, "  Error:    %s\n", item.ErrorMessage)
	}
	if item.UploadURL != "" {
		fmt.Fprintf(out, "  Watch:    %s\n", item.UploadURL)
	}

	project, err := workspace.NewProject(cfg.Paths.WorkspaceDir, item.Channel, item.Slug, item.VideoID)
	if err != nil {
		return
	}
	fmt.Fprintf(out, "  Folder:   %s\n", project.Dir())
	fmt.Fprintln(out, "  Artifacts:")
	artifacts := []struct {
		label string
		path  string
	}{
		{"outline", project.OutlinePath()},
		{"script", project.ScriptPath()},
		{"audio", project.AudioDirPath()},
		{"plan", project.PlanPath()},
		{"images", project.ImagesDirPath()},
		{"clip", project.ClipPath()},
		{"video", project.VideoPath()},
		{"thumbnail", project.ThumbnailPath()},
		{"metadata", project.MetadataPath()},
		{"receipt", project.ReceiptPath()},
	}
	for _, artifact := range artifacts {
		marker := " "
		if _, err := os.Stat(artifact.path); err == nil {
			marker = "x"
		}
		fmt.Fprintf(out, "    [%s] %-9s %s\n", marker, artifact.label, artifact.path)
	}
}
