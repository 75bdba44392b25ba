package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/forest-bench/internal/results"
)

var planDir string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "List the benchmark cases of a config and which are already done",
	Long: `Expands the test_matrix of each --config into test cases, skipping cases
whose random token count exceeds the input token count. Cases whose
artifact already exists in --output are marked reusable.`,
	Example: `  forest-bench plan -c config.yaml -o archive_results/vllm--g6e.4xlarge--qwen3-8b`,
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := loadDocuments()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, d := range docs {
			if d.TestMatrix == nil {
				return fmt.Errorf("%s: no test_matrix section", cfgFiles[i])
			}
			planned, needsRun := results.Plan(planDir, d.TestMatrix.Cases())

			fmt.Fprintf(out, "# %s (%s)\n", d.Deployment.ContainerName, cfgFiles[i])
			reusable := 0
			for _, p := range planned {
				mark := "todo"
				if p.Exists {
					mark = "done"
					reusable++
				}
				fmt.Fprintf(out, "%s\t%s\n", mark, p.Case)
			}
			fmt.Fprintf(out, "%d cases, %d reusable, deployment needed: %t\n", len(planned), reusable, needsRun)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVarP(&planDir, "output", "o", ".", "directory holding result artifacts")
}
