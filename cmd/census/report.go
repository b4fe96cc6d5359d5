package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"census/internal/config"
	"census/internal/diag"
	"census/internal/driver"
	"census/internal/observ"
	"census/internal/report"
	"census/internal/source"
	"census/internal/summary"
	"census/internal/unit"
)

var reportCmd = &cobra.Command{
	Use:   "report [flags] <stream.diag.jsonl|directory>",
	Short: "Aggregate diagnostic streams into a per-package table",
	Long:  `Ingest one diagnostic stream file or every *.diag.jsonl under a directory and print per-package message counts, lines of code, totals and percentages`,
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().String("min-severity", "", "lowest severity recorded (info|warning|error), overrides census.toml")
	reportCmd.Flags().Int("header-repeat", -1, "repeat the table header every N package rows (0=off), overrides census.toml")
	reportCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	reportCmd.Flags().Bool("no-ui", false, "disable the ingest progress UI")
}

// runReport executes the "report" command: it resolves configuration,
// ingests the given stream file or directory, prints ingest problems to
// stderr and the rendered table to stdout. It returns a non-nil error
// when flags cannot be read, ingest fails, or any stream produced
// error-level ingest problems.
func runReport(cmd *cobra.Command, args []string) error {
	path := args[0]

	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	noUI, err := cmd.Flags().GetBool("no-ui")
	if err != nil {
		return fmt.Errorf("failed to get no-ui flag: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	startDir := path
	if !info.IsDir() {
		startDir = filepath.Dir(path)
	}
	cfg, err := config.Discover(startDir)
	if err != nil {
		return err
	}
	minSeverity, err := resolveMinSeverity(cmd, cfg)
	if err != nil {
		return err
	}
	headerRepeat, err := resolveHeaderRepeat(cmd, cfg)
	if err != nil {
		return err
	}
	useColor, err := resolveColor(cmd, cfg)
	if err != nil {
		return err
	}

	opts := driver.Options{
		Resolver:       unit.NewResolver(cfg.Units.SystemSchemes...),
		MinSeverity:    minSeverity,
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
	}
	if quiet {
		// Quiet runs only surface problems that fail the run.
		opts.ProblemSeverity = diag.SevError
	}

	timer := observ.NewTimer()
	ingestPhase := timer.Begin("ingest")

	var global *summary.GlobalSummary
	var streams []driver.StreamResult
	var fileSet *source.FileSet

	if info.IsDir() {
		withUI := !noUI && !quiet && isTerminal(os.Stdout)
		res, err := ingestDir(cmd.Context(), path, opts, withUI)
		if err != nil {
			return err
		}
		global, streams, fileSet = res.Global, res.Streams, res.FileSet
	} else {
		fileSet = source.NewFileSetWithBase(filepath.Dir(path))
		col := summary.NewCollector(opts.Resolver, opts.MinSeverity)
		res, err := driver.IngestFile(fileSet, path, col, opts)
		if err != nil {
			return err
		}
		global, streams = col.Global(), []driver.StreamResult{res}
	}
	timer.End(ingestPhase, fmt.Sprintf("%d stream(s)", len(streams)))

	problems := printStreamProblems(os.Stderr, streams, fileSet, useColor)

	renderPhase := timer.Begin("render")
	out, err := report.String(global, report.Options{HeaderRepeat: headerRepeat})
	if err != nil {
		return err
	}
	timer.End(renderPhase, "")

	fmt.Print(out)

	if showTimings {
		fmt.Fprint(os.Stderr, timer.Summary())
	}
	if problems > 0 {
		return fmt.Errorf("%d ingest problem(s)", problems)
	}
	return nil
}

func ingestDir(ctx context.Context, dir string, opts driver.Options, withUI bool) (*driver.DirResult, error) {
	if !withUI {
		return driver.IngestDir(ctx, dir, opts)
	}
	files, err := driver.ListStreamFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) < 2 {
		return driver.IngestDir(ctx, dir, opts)
	}
	return runIngestWithUI(ctx, "ingesting diagnostic streams", files, dir, opts)
}

func resolveMinSeverity(cmd *cobra.Command, cfg config.Config) (diag.Severity, error) {
	flagValue, err := cmd.Flags().GetString("min-severity")
	if err != nil {
		return 0, fmt.Errorf("failed to get min-severity flag: %w", err)
	}
	if flagValue == "" {
		return cfg.MinSeverity(), nil
	}
	sev, ok := diag.ParseSeverity(flagValue)
	if !ok {
		return 0, fmt.Errorf("unknown severity %q (must be info, warning or error)", flagValue)
	}
	return sev, nil
}

func resolveHeaderRepeat(cmd *cobra.Command, cfg config.Config) (int, error) {
	n, err := cmd.Flags().GetInt("header-repeat")
	if err != nil {
		return 0, fmt.Errorf("failed to get header-repeat flag: %w", err)
	}
	if n < 0 {
		return cfg.Report.HeaderRepeat, nil
	}
	return n, nil
}

func resolveColor(cmd *cobra.Command, cfg config.Config) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	if mode == "" {
		mode = cfg.Output.Color
	}
	switch strings.ToLower(mode) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto", "":
		return isTerminal(os.Stderr), nil
	default:
		return false, fmt.Errorf("unknown color mode %q (must be auto, on or off)", mode)
	}
}

// printStreamProblems merges every stream's ingest problems into one
// bag, sorts and dedups them, writes them to w and returns how many
// error-level problems there were. Paths render relative to the file
// set's base directory.
func printStreamProblems(w io.Writer, streams []driver.StreamResult, fileSet *source.FileSet, useColor bool) int {
	all := diag.NewBag(0)
	for _, s := range streams {
		if s.Bag == nil || s.Bag.Len() == 0 {
			continue
		}
		if s.Bag.Len() >= int(s.Bag.Cap()) {
			fmt.Fprintf(w, "%s: problem list truncated at %d entries\n",
				displayPath(fileSet, s.Path), s.Bag.Cap())
		}
		all.Merge(s.Bag)
	}
	all.Sort()
	all.Dedup()

	errorColor := color.New(color.FgRed, color.Bold)
	warnColor := color.New(color.FgYellow)
	problems := 0
	for _, d := range all.Items() {
		if d.Severity >= diag.SevError {
			problems++
		}
		path := displayPath(fileSet, fileSet.Get(d.Primary.File).Path)
		pos := ""
		if !d.Primary.Empty() {
			start, _ := fileSet.Resolve(d.Primary)
			pos = fmt.Sprintf(":%d:%d", start.Line, start.Col)
		}
		label := d.Severity.String()
		if useColor {
			if d.Severity >= diag.SevError {
				label = errorColor.Sprint(label)
			} else {
				label = warnColor.Sprint(label)
			}
		}
		fmt.Fprintf(w, "%s%s: %s %s: %s\n", path, pos, label, d.Kind, d.Message)
	}
	return problems
}

func displayPath(fileSet *source.FileSet, path string) string {
	rel, err := source.RelativePath(path, fileSet.BaseDir())
	if err != nil {
		return path
	}
	return rel
}
