package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackrun-dev/stackrun/interfaces"
	"github.com/stackrun-dev/stackrun/pkg/logger"
	"github.com/stackrun-dev/stackrun/services/docker"
)

var (
	descriptorFile string
	projectName    string
	platformName   string
	logLevel       string
)

var rootCmd = &cobra.Command{
	Use:   "stackrun",
	Short: "stackrun - minimal service-startup sequencer for container stacks",
	Long: `stackrun reads a small compose-style descriptor declaring services,
volumes and health-gated dependencies, and drives the Docker Engine to
start them in order, wait on readiness, and tear them down again.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Get().SetLogLevel(logLevel)
	},
}

// Execute runs the CLI under the given base context, which commands reach
// through cmd.Context().
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func selectPlatform() (interfaces.Platform, error) {
	switch platformName {
	case "docker":
		return docker.NewDockerPlatform()
	// case "podman":
	//     return podman.New(...), nil
	default:
		return nil, fmt.Errorf("%q is not a valid platform", platformName)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&descriptorFile, "file", "f", "stack.yml", "path to the stack descriptor")
	rootCmd.PersistentFlags().StringVarP(&projectName, "project", "p", "", "project name (default: descriptor directory name)")
	rootCmd.PersistentFlags().StringVar(&platformName, "platform", "docker", "container platform to drive")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}
