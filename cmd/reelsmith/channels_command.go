package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newChannelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "List channels from the channel registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			registry, err := ctx.channelRegistry(cfg)
			if err != nil {
				return err
			}
			channelList := registry.All()
			if len(channelList) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No channels registered")
				return nil
			}
			rows := make([][]string, 0, len(channelList))
			for _, channel := range channelList {
				rows = append(rows, []string{
					channel.Name,
					channel.Topic,
					fmt.Sprintf("%d", channel.TargetWords),
					channel.VoiceID,
					channel.Privacy,
					yesNo(channel.UploadEnabled()),
				})
			}
			tableText := renderTable(
				[]string{"Name", "Topic", "Words", "Voice", "Privacy", "Upload"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), tableText)
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
