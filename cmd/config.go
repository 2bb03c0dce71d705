package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stackrun-dev/stackrun/services/stack"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the descriptor in normalized form after interpolation and validation",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := stack.Load(descriptorFile, projectName)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(st)
		if err != nil {
			return fmt.Errorf("render descriptor: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
