package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/daryltucker/forest-bench/internal/config"
	"github.com/daryltucker/forest-bench/internal/model"
	"github.com/daryltucker/forest-bench/internal/output"
	"github.com/daryltucker/forest-bench/internal/results"
)

var (
	exportDir    string
	exportFormat string
	exportOut    string

	filterRuntimes      []string
	filterInstanceTypes []string
	filterModels        []string
	filterInput         []int
	filterOutput        []int
	filterProcesses     []int
	filterRandom        []int
)

type recordWriter interface {
	Write(model.Record) error
	Close() error
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write flattened benchmark records as CSV or JSON lines",
	Example: `  forest-bench export --results-dir archive_results --format csv -o all.csv
  forest-bench export --runtime vllm --input-tokens 128,512 --format jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		agg := results.New(exportDir)
		d, err := agg.Reload(cmd.Context())
		if err != nil {
			return err
		}
		records := d.Query(exportFilters(cmd))

		var w io.Writer = cmd.OutOrStdout()
		if exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("create %s: %w", exportOut, err)
			}
			defer f.Close()
			w = f
		}

		rw, err := newRecordWriter(w, exportFormat)
		if err != nil {
			return err
		}
		for _, r := range records {
			if err := rw.Write(r); err != nil {
				return err
			}
		}
		output.Logger.Info("Exported records", "count", len(records), "format", exportFormat, "output", exportOut)
		return rw.Close()
	},
}

// newRecordWriter hides any io.Closer on w, so Close only flushes. The
// caller owns w.
func newRecordWriter(w io.Writer, format string) (recordWriter, error) {
	w = struct{ io.Writer }{w}
	switch format {
	case "csv":
		return output.NewCSVWriter(w)
	case "jsonl", "json":
		return output.NewJSONWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want csv or jsonl)", format)
	}
}

// exportFilters only includes flags the user actually set.
func exportFilters(cmd *cobra.Command) results.Filters {
	f := results.Filters{}
	set := func(flag, key string, v any) {
		if cmd.Flags().Changed(flag) {
			f[key] = v
		}
	}
	set("runtime", "runtime", filterRuntimes)
	set("instance-type", "instance_type", filterInstanceTypes)
	set("model-name", "model_name", filterModels)
	set("input-tokens", "input_tokens", filterInput)
	set("output-tokens", "output_tokens", filterOutput)
	set("processes", "processes", filterProcesses)
	set("random-tokens", "random_tokens", filterRandom)
	return f
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportDir, "results-dir", config.Env("FOREST_RESULTS_DIR", "archive_results"), "directory of combination result folders")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or jsonl")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "-", "output file, - for stdout")

	exportCmd.Flags().StringSliceVar(&filterRuntimes, "runtime", nil, "only these runtimes")
	exportCmd.Flags().StringSliceVar(&filterInstanceTypes, "instance-type", nil, "only these instance types")
	exportCmd.Flags().StringSliceVar(&filterModels, "model-name", nil, "only these models")
	exportCmd.Flags().IntSliceVar(&filterInput, "input-tokens", nil, "only these input token counts")
	exportCmd.Flags().IntSliceVar(&filterOutput, "output-tokens", nil, "only these output token counts")
	exportCmd.Flags().IntSliceVar(&filterProcesses, "processes", nil, "only these process counts")
	exportCmd.Flags().IntSliceVar(&filterRandom, "random-tokens", nil, "only these random token counts")
}
