package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tordrt/schemadiff"
	sdebug "github.com/tordrt/schemadiff/internal/debug"
	"github.com/tordrt/schemadiff/internal/db"
	"github.com/tordrt/schemadiff/internal/report"
)

var (
	sourceConn    string
	targetConn    string
	engine        string
	outputFormat  string
	includeTables string
	ignoreTables  string
	migrationName string
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "schemadiff",
	Short: "Compare the schema of two live databases",
	Long: `schemadiff introspects two databases of the same engine family (PostgreSQL,
MySQL, SQL Server, or SQLite), compares their structure at table, column,
constraint, and index granularity, and emits a report plus a forward
migration script.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&sourceConn, "source", "", "Source database connection string")
	rootCmd.Flags().StringVar(&targetConn, "target", "", "Target database connection string")
	rootCmd.Flags().StringVar(&engine, "type", "", "Database engine: postgres, mysql, sqlserver, or sqlite")
	rootCmd.Flags().StringVar(&outputFormat, "output", "console", "Output format: console, sql, json, or markdown")
	rootCmd.Flags().StringVar(&includeTables, "tables", "", "Comma-separated list of tables to include")
	rootCmd.Flags().StringVar(&ignoreTables, "ignore", "", "Comma-separated list of tables or patterns to exclude")
	rootCmd.Flags().StringVar(&migrationName, "migration-name", "", "Name for the generated migration artifacts")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose diagnostics")

	_ = rootCmd.MarkFlagRequired("type")
}

func run(cmd *cobra.Command, args []string) error {
	sdebug.Init(verbose)

	// Flags win over .env-provided defaults.
	if sourceConn == "" {
		sourceConn = os.Getenv("SCHEMADIFF_SOURCE")
	}
	if targetConn == "" {
		targetConn = os.Getenv("SCHEMADIFF_TARGET")
	}
	if sourceConn == "" || targetConn == "" {
		return fmt.Errorf("--source and --target are required (or set SCHEMADIFF_SOURCE / SCHEMADIFF_TARGET)")
	}

	readOpts := db.DefaultReadOptions()
	readOpts.IncludeTables = splitList(includeTables)
	readOpts.ExcludeTables = splitList(ignoreTables)

	opts := schemadiff.Options{
		Source:        sourceConn,
		Target:        targetConn,
		Engine:        engine,
		MigrationName: migrationName,
		Read:          &readOpts,
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Comparing %s against %s\n",
		schemadiff.DisplayName(engine, sourceConn),
		schemadiff.DisplayName(engine, targetConn))

	outcome, err := schemadiff.Diff(cmd.Context(), opts)
	if err != nil {
		return err
	}

	switch outputFormat {
	case "console":
		return report.RenderConsole(cmd.OutOrStdout(), outcome.Report)
	case "sql":
		return writeArtifact(cmd, outcome.Report.Metadata.MigrationName+".sql", func(f *os.File) error {
			_, err := f.WriteString(outcome.Script)
			return err
		})
	case "json":
		return writeArtifact(cmd, outcome.Report.Metadata.MigrationName+".json", func(f *os.File) error {
			return report.RenderJSON(f, outcome.Report, outcome.Script)
		})
	case "markdown":
		return writeArtifact(cmd, outcome.Report.Metadata.MigrationName+".md", func(f *os.File) error {
			return report.RenderMarkdown(f, outcome.Report)
		})
	}
	return fmt.Errorf("invalid output format: %s (must be console, sql, json, or markdown)", outputFormat)
}

func writeArtifact(cmd *cobra.Command, path string, render func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to close %s: %v\n", path, cerr)
		}
	}()

	if err := render(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}

func splitList(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// exitCode maps a pipeline error onto the process exit code: 130 for user
// cancellation, 1 for everything else.
func exitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return 130
	}
	return 1
}

// describe prefixes the error with its user-visible category.
func describe(err error) string {
	var (
		validationErr *schemadiff.ValidationError
		connectionErr *schemadiff.ConnectionError
		timeoutErr    *schemadiff.TimeoutError
		permissionErr *schemadiff.PermissionError
		catalogErr    *schemadiff.CatalogError
	)
	switch {
	case errors.As(err, &validationErr):
		return "validation error: " + err.Error()
	case errors.As(err, &timeoutErr):
		return "timeout: " + err.Error()
	case errors.As(err, &permissionErr):
		return "permission error: " + err.Error()
	case errors.As(err, &connectionErr):
		return "connection error: " + err.Error()
	case errors.As(err, &catalogErr):
		return "catalog error: " + err.Error()
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return "unexpected error: " + err.Error()
}

func main() {
	// A .env in the working directory can carry connection defaults.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		if verbose {
			fmt.Fprintf(os.Stderr, "%s\n", debug.Stack())
		}
		os.Exit(exitCode(err))
	}
}
