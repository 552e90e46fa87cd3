package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/channels"
	"reelsmith/internal/compose"
	"reelsmith/internal/imagery"
	"reelsmith/internal/mediaplan"
	"reelsmith/internal/metadatagen"
	"reelsmith/internal/outline"
	"reelsmith/internal/scriptgen"
	"reelsmith/internal/shortclip"
	"reelsmith/internal/stage"
	"reelsmith/internal/thumbnail"
	"reelsmith/internal/uploader"
	"reelsmith/internal/voiceover"
	"reelsmith/internal/workspace"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check stage readiness (credentials, binaries)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// Stage health depends on configuration, not on any particular
			// project, so probe with a scratch project that is never created
			// on disk.
			project, err := workspace.NewProject(cfg.Paths.WorkspaceDir, "health", "probe", "00000000")
			if err != nil {
				return err
			}
			channel := channels.Channel{Name: "health"}

			checks := []stage.Health{
				outline.NewOutliner(cfg, channel, project).HealthCheck(cmd.Context()),
				scriptgen.NewScripter(cfg, channel, project).HealthCheck(cmd.Context()),
				voiceover.NewVoicer(cfg, channel, project).HealthCheck(cmd.Context()),
				mediaplan.NewPlanner(cfg, channel, project).HealthCheck(cmd.Context()),
				imagery.NewImager(cfg, channel, project).HealthCheck(cmd.Context()),
				shortclip.NewClipper(cfg, channel, project).HealthCheck(cmd.Context()),
				compose.NewComposer(cfg, channel, project).HealthCheck(cmd.Context()),
				thumbnail.NewThumbnailer(cfg, channel, project).HealthCheck(cmd.Context()),
				metadatagen.NewPackager(cfg, channel, project).HealthCheck(cmd.Context()),
				uploader.NewUploader(cfg, channel, project).HealthCheck(cmd.Context()),
			}

			unhealthy := 0
			rows := make([][]string, 0, len(checks))
			for _, check := range checks {
				state := "ok"
				if !check.Ready {
					state = "unavailable"
					unhealthy++
				}
				rows = append(rows, []string{check.Name, state, check.Detail})
			}
			tableText := renderTable(
				[]string{"Stage", "State", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), tableText)
			if unhealthy > 0 {
				return fmt.Errorf("%d stage(s) not ready", unhealthy)
			}
			return nil
		},
	}
}
