/*
PURPOSE:
  Defines the 'serve' subcommand.
  Loads a results directory and exposes it over HTTP.

REQUIREMENTS:
  User-specified:
  - Charting UI queries combinations, parameters and performance data.

  Implementation-discovered:
  - Listen address and results dir fall back to environment variables
    so the server can run in a container without flags.

ARCHITECTURE INTEGRATION:
  - Calls: internal/results.New(), internal/server.New()

ERROR HANDLING:
  - An unreadable results dir at startup is fatal.

IMPLEMENTATION RULES:
  - Setup flags in init().

USAGE:
  forest-bench serve --results-dir archive_results --listen :8000

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/server/server.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/daryltucker/forest-bench/internal/config"
	"github.com/daryltucker/forest-bench/internal/results"
	"github.com/daryltucker/forest-bench/internal/server"
)

var (
	resultsDir string
	listenAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve benchmark results over HTTP",
	Long: `Scans --results-dir for <runtime>--<instance>--<model> directories
holding test_in:*_out:*_proc:*_rand:*.json artifacts and serves the
flattened dataset as JSON until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gin.SetMode(gin.ReleaseMode)

		agg := results.New(resultsDir)
		if _, err := agg.Reload(cmd.Context()); err != nil {
			return err
		}
		return server.New(agg).ListenAndServe(cmd.Context(), listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&resultsDir, "results-dir", config.Env("FOREST_RESULTS_DIR", "archive_results"), "directory of combination result folders")
	serveCmd.Flags().StringVar(&listenAddr, "listen", config.Env("FOREST_LISTEN", ":8000"), "address to listen on")
}
