package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stackrun-dev/stackrun/services/stack"
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List the stack's containers",
	RunE: func(cmd *cobra.Command, args []string) error {
		project := projectName
		if project == "" {
			project = stack.DefaultProject(descriptorFile)
		}

		platform, err := selectPlatform()
		if err != nil {
			return err
		}

		rows, err := platform.Ps(cmd.Context(), project)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Printf("no containers for project %q\n", project)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SERVICE\tNAME\tID\tSTATE\tHEALTH\tSTATUS")
		for _, r := range rows {
			health := r.Health
			if health == "" {
				health = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Service, r.Name, r.ID, r.State, health, r.Status)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(psCmd)
}
