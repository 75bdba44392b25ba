package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var teardownCmd = &cobra.Command{
	Use:   "teardown [NAME...]",
	Short: "Stop and remove serving containers",
	Long: `Stops and removes containers by name, or by the container_name of each
--config file. Containers that are already gone count as removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := containerNames(args)
		if err != nil {
			return err
		}
		m := newManager()
		failed := 0
		for _, name := range names {
			if m.Teardown(cmd.Context(), name) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tremoved\n", name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tfailed\n", name)
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d teardowns failed", failed, len(names))
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [NAME...]",
	Short: "Report whether serving containers are running",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := containerNames(args)
		if err != nil {
			return err
		}
		m := newManager()
		for _, name := range names {
			state := "stopped"
			if m.IsRunning(cmd.Context(), name) {
				state = "running"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, state)
		}
		return nil
	},
}

var commandCmd = &cobra.Command{
	Use:   "command",
	Short: "Print the launch command for each --config without running it",
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := loadDocuments()
		if err != nil {
			return err
		}
		m := newManager()
		for _, d := range docs {
			fmt.Fprintln(cmd.OutOrStdout(), m.CommandLine(d.Deployment))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(teardownCmd, statusCmd, commandCmd)
}
