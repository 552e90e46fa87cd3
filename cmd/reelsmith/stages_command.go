package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/workflow"
)

func newStagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "stages",
		Short:       "List pipeline stages in execution order",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range workflow.StageNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
