/*
PURPOSE:
  Defines the root Cobra command for the Forest Bench CLI.
  Handles global flags and command initialization.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.
  - Logger must be configured before any subcommand runs.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/forest-bench/main.go
  - Calls: Child commands (deploy, teardown, status, command, plan, serve, export)
  - Modifies: Global logger (output.Logger).

ERROR HANDLING:
  - Returns error to main.go for exit code handling.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands, Root is usually empty or helps.

USAGE:
  Called by main.go.

SELF-HEALING INSTRUCTIONS:
  - If adding new global flags, add them to init().

RELATED FILES:
  - cmd/forest-bench/main.go

MAINTENANCE:
  - Update when adding global configuration options.
*/

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/forest-bench/internal/config"
	"github.com/daryltucker/forest-bench/internal/deploy"
	"github.com/daryltucker/forest-bench/internal/output"
)

var (
	// cfgFiles stores the deployment config paths given via --config
	cfgFiles  []string
	logLevel  string
	logFormat string
	dockerBin string

	rootCmd = &cobra.Command{
		Use:   "forest-bench",
		Short: "Deploy model servers and aggregate benchmark results",
		Long: `Forest Bench provisions containerized model servers from a declarative
config, gates on their health endpoint, and turns a directory of benchmark
artifacts into a queryable dataset. Use 'deploy --help' or 'serve --help'.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return output.Configure(cmd.ErrOrStderr(), logLevel, logFormat)
		},
	}
)

// Execute executes the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&cfgFiles, "config", "c", nil, "deployment config file(s) (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().StringVar(&dockerBin, "docker", config.Env("FOREST_DOCKER", "docker"), "container engine binary")
}

// loadDocuments loads every --config file. Any invalid file aborts.
func loadDocuments() ([]*config.Document, error) {
	if len(cfgFiles) == 0 {
		return nil, fmt.Errorf("at least one --config file is required")
	}
	docs := make([]*config.Document, 0, len(cfgFiles))
	for _, path := range cfgFiles {
		doc, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func newManager(opts ...deploy.Option) *deploy.Manager {
	opts = append([]deploy.Option{deploy.WithRunner(deploy.NewExecRunner(dockerBin))}, opts...)
	return deploy.NewManager(opts...)
}

// containerNames merges positional names with the names found in --config.
func containerNames(args []string) ([]string, error) {
	names := append([]string(nil), args...)
	if len(cfgFiles) > 0 {
		docs, err := loadDocuments()
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			names = append(names, d.Deployment.ContainerName)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("give container names or --config")
	}
	return names, nil
}
