package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackrun-dev/stackrun/services/stack"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse and validate the stack descriptor without touching the engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := stack.Load(descriptorFile, projectName)
		if err != nil {
			return err
		}
		fmt.Printf("%s: OK (%d services, %d volumes, project %q)\n",
			descriptorFile, len(st.Services), len(st.Volumes), st.Project)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
