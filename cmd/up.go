package cmd

import (
	"github.com/spf13/cobra"

	"github.com/stackrun-dev/stackrun/interfaces"
	"github.com/stackrun-dev/stackrun/services/stack"
)

var upDetach bool

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Create and start the stack's services in dependency order",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := stack.Load(descriptorFile, projectName)
		if err != nil {
			return err
		}

		platform, err := selectPlatform()
		if err != nil {
			return err
		}

		return platform.Up(cmd.Context(), st, interfaces.UpOptions{Detach: upDetach})
	},
}

func init() {
	rootCmd.AddCommand(upCmd)
	upCmd.Flags().BoolVarP(&upDetach, "detach", "d", false, "return once services are up instead of following logs")
}
