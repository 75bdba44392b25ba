/*
PURPOSE:
  Defines the 'deploy' subcommand.
  Provisions one serving container per config and waits until healthy.

REQUIREMENTS:
  User-specified:
  - Bring servers up before a benchmark run.
  - Health timeout defaults to 300s and is configurable.

  Implementation-discovered:
  - Multiple configs are deployed in parallel.

ARCHITECTURE INTEGRATION:
  - Calls: internal/deploy.DeployAll()
  - Uses: internal/config

ERROR HANDLING:
  - Returns the joined errors of every failed deployment.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Deploy -> Print endpoints.

USAGE:
  forest-bench deploy -c config.yaml --timeout 10m

SELF-HEALING INSTRUCTIONS:
  - Check flag names match deploy.BatchOptions fields generally.

RELATED FILES:
  - internal/deploy/batch.go

MAINTENANCE:
  - Update when adding new deploy options.
*/

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/daryltucker/forest-bench/internal/config"
	"github.com/daryltucker/forest-bench/internal/deploy"
)

var (
	healthTimeout  time.Duration
	healthInterval time.Duration
	healthHost     string
	keepFailed     bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Start serving containers and wait for them to become healthy",
	Long: `Starts one container per --config file and blocks until each answers
200 on GET /health, or the timeout elapses.

A container already running under the same name is stopped and removed
first, so re-running deploy restarts the server with the current config.
Containers that never become healthy are removed unless --keep is set.`,
	Example: `  # Deploy a single config with the default 300s gate
  forest-bench deploy -c model_configs/vllm-v0.9.2/g6e.4xlarge/config.yaml

  # Deploy two instance types in parallel with a longer gate
  forest-bench deploy -c g6e.yaml -c p5.yaml --timeout 15m`,
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := loadDocuments()
		if err != nil {
			return err
		}
		specs := make([]*config.DeploymentSpec, 0, len(docs))
		for _, d := range docs {
			specs = append(specs, d.Deployment)
		}

		m := newManager(deploy.WithInterval(healthInterval), deploy.WithHost(healthHost))
		outcomes := deploy.DeployAll(cmd.Context(), m, specs, deploy.BatchOptions{
			Timeout: healthTimeout,
			Keep:    keepFailed,
		})

		for _, o := range outcomes {
			if o.Err != nil {
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", o.Spec.ContainerName, o.Session.APIURL(), o.Session.ModelID())
		}
		return deploy.Errors(outcomes)
	},
}

func init() {
	rootCmd.AddCommand(deployCmd)

	deployCmd.Flags().DurationVar(&healthTimeout, "timeout", deploy.DefaultHealthTimeout, "health gate timeout per deployment")
	deployCmd.Flags().DurationVar(&healthInterval, "interval", deploy.DefaultHealthInterval, "health poll interval")
	deployCmd.Flags().StringVar(&healthHost, "host", "localhost", "host used to reach deployed servers")
	deployCmd.Flags().BoolVar(&keepFailed, "keep", false, "keep containers that fail the health gate")
}
