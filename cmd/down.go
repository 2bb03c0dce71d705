package cmd

import (
	"github.com/spf13/cobra"

	"github.com/stackrun-dev/stackrun/services/stack"
)

var downVolumes bool

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop and remove the stack's containers and networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		project := projectName
		if project == "" {
			project = stack.DefaultProject(descriptorFile)
		}

		platform, err := selectPlatform()
		if err != nil {
			return err
		}

		return platform.Down(cmd.Context(), project, downVolumes)
	},
}

func init() {
	rootCmd.AddCommand(downCmd)
	downCmd.Flags().BoolVarP(&downVolumes, "volumes", "v", false, "also remove the stack's named volumes")
}
