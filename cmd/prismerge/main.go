// Command prismerge merges N SQLite databases sharing a declarative schema
// into one output database, preserving referential integrity across
// UUID-keyed foreign keys.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/camertron/prismerge/internal/config"
	"github.com/camertron/prismerge/internal/merge"
	"github.com/camertron/prismerge/internal/progress"
	"github.com/camertron/prismerge/internal/schema"
)

var (
	schemaPath    string
	outputPath    string
	removeFlag    bool
	minInserts    int
	keepIDMaps    bool
	jsonOutput    bool
	logLevelFlag  string
	outputPathSet bool
	removeSet     bool
	minInsertsSet bool
	keepIDMapsSet bool
)

var rootCmd = &cobra.Command{
	Use:   "prismerge [flags] <source.db> [source.db ...]",
	Short: "prismerge - merge Prisma-schema SQLite databases",
	Long:  "prismerge merges one or more SQLite databases that share a declarative schema into a single output database, remapping primary keys and rewriting foreign keys so referential integrity is preserved.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMerge,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&schemaPath, "schema", "", "path to the JSON schema document describing the models being merged (required)")
	flags.StringVar(&outputPath, "output-path", config.DefaultOutputPath, "path to write the merged database to")
	flags.BoolVar(&removeFlag, "remove", false, "delete the output database first if one already exists at output-path")
	flags.IntVar(&minInserts, "min-inserts", config.DefaultMinInserts, "number of pending inserts to batch before flushing a transaction")
	flags.BoolVar(&keepIDMaps, "keep-id-maps", false, "keep the <model>_id_map tables in the output database instead of dropping them")
	flags.BoolVar(&jsonOutput, "json", false, "emit progress and the final summary as JSON lines")
	flags.StringVar(&logLevelFlag, "log-level", "info", "log level: debug, info, warn, or error")
	_ = rootCmd.MarkFlagRequired("schema")

	rootCmd.PreRun = func(cmd *cobra.Command, args []string) {
		outputPathSet = cmd.Flags().Changed("output-path")
		removeSet = cmd.Flags().Changed("remove")
		minInsertsSet = cmd.Flags().Changed("min-inserts")
		keepIDMapsSet = cmd.Flags().Changed("keep-id-maps")
	}
}

func parseLogLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid --log-level %q: %w", s, err)
	}
	return lvl, nil
}

func newReporter(w io.Writer, useJSON bool) progress.Reporter {
	if useJSON {
		return progress.NewJSONLines(w)
	}
	return progress.NewTerminal(w)
}

func runMerge(cmd *cobra.Command, args []string) error {
	level, err := parseLogLevel(logLevelFlag)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	s, err := schema.Load(schemaPath)
	if err != nil {
		return err
	}

	cfg := config.Resolve(
		optionalInt(minInsertsSet, minInserts),
		optionalBool(keepIDMapsSet, keepIDMaps),
		optionalBool(removeSet, removeFlag),
		optionalString(outputPathSet, outputPath),
	)

	reporter := newReporter(os.Stdout, jsonOutput)

	logger.Info("starting merge", "sources", len(args), "output", cfg.OutputPath, "min_inserts", cfg.MinInserts)

	if err := merge.Run(cmd.Context(), cfg, s, args, reporter); err != nil {
		return err
	}

	logger.Info("merge complete", "output", cfg.OutputPath)
	return nil
}

func optionalInt(set bool, v int) *int {
	if !set {
		return nil
	}
	return &v
}

func optionalBool(set bool, v bool) *bool {
	if !set {
		return nil
	}
	return &v
}

func optionalString(set bool, v string) *string {
	if !set {
		return nil
	}
	return &v
}

// exitCode maps a command error to the process exit code spec.md §6
// defines: a schema violation is a distinct, pre-merge fatal class from any
// other driver error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, schema.ErrViolation) {
		return 2
	}
	return 1
}

func main() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	ctx := context.Background()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		slog.Error("prismerge failed", "err", err)
	}
	os.Exit(exitCode(err))
}
