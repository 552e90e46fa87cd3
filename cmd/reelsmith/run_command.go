package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"reelsmith/internal/channels"
	"reelsmith/internal/compose"
	"reelsmith/internal/config"
	"reelsmith/internal/imagery"
	"reelsmith/internal/mediaplan"
	"reelsmith/internal/metadatagen"
	"reelsmith/internal/outline"
	"reelsmith/internal/queue"
	"reelsmith/internal/scriptgen"
	"reelsmith/internal/shortclip"
	"reelsmith/internal/thumbnail"
	"reelsmith/internal/uploader"
	"reelsmith/internal/voiceover"
	"reelsmith/internal/workflow"
	"reelsmith/internal/workspace"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var channelFlag string
	var titleFlag string
	var stageFlag string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline for a video project",
		Long: strings.TrimSpace(`
Run the content pipeline for a single video project. A new project is
created on the first run for a channel/title pair; later runs resume the
same project from its recorded status. Use --stage to re-run one stage.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			channelName := strings.TrimSpace(channelFlag)
			title := strings.TrimSpace(titleFlag)
			if channelName == "" {
				return fmt.Errorf("--channel is required")
			}
			if title == "" {
				return fmt.Errorf("--title is required")
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				registry, err := ctx.channelRegistry(cfg)
				if err != nil {
					return err
				}
				channel, err := registry.Get(channelName)
				if err != nil {
					return err
				}
				return runPipeline(cmd, ctx, cfg, store, channel, title, stageFlag)
			})
		},
	}

	cmd.Flags().StringVar(&channelFlag, "channel", "", "Channel name from the channel registry")
	cmd.Flags().StringVar(&titleFlag, "title", "", "Video title")
	cmd.Flags().StringVar(&stageFlag, "stage", "",
		"Re-run a single stage ("+strings.Join(workflow.StageNames(), ", ")+")")
	return cmd
}

func runPipeline(cmd *cobra.Command, cctx *commandContext, cfg *config.Config, store *queue.Store, channel channels.Channel, title, stageName string) error {
	ctx := cmd.Context()

	// Roll interrupted processing statuses back to their stage's start
	// status so projects abandoned by a crashed run can resume.
	recovered, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		return fmt.Errorf("recover interrupted projects: %w", err)
	}
	if recovered > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Recovered %d interrupted project(s)\n", recovered)
	}

	item, err := resolveItem(ctx, store, channel.Name, title)
	if err != nil {
		return err
	}

	project, err := workspace.NewProject(cfg.Paths.WorkspaceDir, channel.Name, item.Slug, item.VideoID)
	if err != nil {
		return fmt.Errorf("prepare workspace: %w", err)
	}
	lock, err := project.Lock()
	if err != nil {
		return err
	}
	defer lock.Unlock()

	logger, err := cctx.newLogger(cfg)
	if err != nil {
		return err
	}

	manager := workflow.NewManager(cfg, store, logger, workflow.StageSet{
		Outliner:    outline.NewOutliner(cfg, channel, project),
		Scripter:    scriptgen.NewScripter(cfg, channel, project),
		Voicer:      voiceover.NewVoicer(cfg, channel, project),
		Planner:     mediaplan.NewPlanner(cfg, channel, project),
		Imager:      imagery.NewImager(cfg, channel, project),
		Clipper:     shortclip.NewClipper(cfg, channel, project),
		Composer:    compose.NewComposer(cfg, channel, project),
		Thumbnailer: thumbnail.NewThumbnailer(cfg, channel, project),
		Packager:    metadatagen.NewPackager(cfg, channel, project),
		Uploader:    uploader.NewUploader(cfg, channel, project),
	})

	if stage := strings.TrimSpace(stageName); stage != "" {
		err = manager.RunStage(ctx, item, stage)
	} else {
		err = manager.RunAll(ctx, item)
	}

	out := cmd.OutOrStdout()
	switch {
	case err != nil:
		fmt.Fprintf(out, "Project #%d stopped: %v\n", item.ID, err)
		return err
	case item.NeedsReview:
		fmt.Fprintf(out, "Project #%d needs review: %s\n", item.ID, item.ReviewReason)
	case item.Status == queue.StatusCompleted:
		fmt.Fprintf(out, "Project #%d completed\n", item.ID)
		if item.UploadURL != "" {
			fmt.Fprintf(out, "Watch URL: %s\n", item.UploadURL)
		}
	default:
		fmt.Fprintf(out, "Project #%d is now %s\n", item.ID, item.Status)
	}
	fmt.Fprintf(out, "Workspace: %s\n", project.Dir())
	return nil
}

// resolveItem finds the existing project for a channel/title pair or creates
// a new one with a fresh video ID.
func resolveItem(ctx context.Context, store *queue.Store, channel, title string) (*queue.Item, error) {
	item, err := store.FindByChannelTitle(ctx, channel, title)
	if err != nil {
		return nil, err
	}
	if item != nil {
		return item, nil
	}
	return store.NewProject(ctx, channel, title, newVideoID(), workspace.Slug(title))
}

func newVideoID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
