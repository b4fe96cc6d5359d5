package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"census/internal/config"
	"census/internal/diag"
	"census/internal/driver"
	"census/internal/report"
	"census/internal/summary/snapshot"
	"census/internal/unit"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] <directory>",
	Short: "Re-aggregate and re-render whenever diagnostic streams change",
	Long:  `Poll a directory of *.diag.jsonl streams and reprint the report on every change. The aggregated tree is cached on disk so a restarted watch can show the last known report immediately`,
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().Duration("interval", 2*time.Second, "poll interval")
	watchCmd.Flags().Bool("cache", true, "cache the aggregated tree between runs")
	watchCmd.Flags().String("min-severity", "", "lowest severity recorded (info|warning|error), overrides census.toml")
	watchCmd.Flags().Int("header-repeat", -1, "repeat the table header every N package rows (0=off), overrides census.toml")
	watchCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", args[0], err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	interval, err := cmd.Flags().GetDuration("interval")
	if err != nil {
		return fmt.Errorf("failed to get interval flag: %w", err)
	}
	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return fmt.Errorf("failed to get cache flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}

	cfg, err := config.Discover(dir)
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

	var cache *snapshot.DiskCache
	key := snapshot.KeyFor(dir)
	if useCache {
		cache, err = snapshot.OpenDiskCache("census")
		if err != nil {
			fmt.Fprintf(os.Stderr, "watch: cache unavailable: %v\n", err)
			cache = nil
		}
	}

	reportOpts := report.Options{HeaderRepeat: headerRepeat}

	// Show the last known report immediately while the first ingest is
	// pending.
	if cache != nil {
		if tree, ok, err := cache.Get(key); err == nil && ok {
			if out, err := report.String(tree, reportOpts); err == nil {
				fmt.Printf("-- cached report for %s --\n%s", dir, out)
			}
		}
	}

	opts := driver.Options{
		Resolver:       unit.NewResolver(cfg.Units.SystemSchemes...),
		MinSeverity:    minSeverity,
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
	}
	if quiet {
		opts.ProblemSeverity = diag.SevError
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastSeen map[string]string
	for {
		seen, err := fingerprintStreams(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		} else if changed(lastSeen, seen) {
			lastSeen = seen
			res, err := driver.IngestDir(ctx, dir, opts)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				fmt.Fprintf(os.Stderr, "watch: %v\n", err)
			} else {
				printStreamProblems(os.Stderr, res.Streams, res.FileSet, useColor)
				out, err := report.String(res.Global, reportOpts)
				if err != nil {
					return err
				}
				fmt.Printf("-- %s (%d streams) --\n%s", time.Now().Format(time.TimeOnly), len(res.Streams), out)
				if cache != nil {
					if err := cache.Put(key, res.Global); err != nil {
						fmt.Fprintf(os.Stderr, "watch: cache write: %v\n", err)
					}
				}
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// fingerprintStreams captures mtime and size of every stream file so a
// poll can tell whether anything changed.
func fingerprintStreams(dir string) (map[string]string, error) {
	files, err := driver.ListStreamFiles(dir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(files))
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			// A stream deleted mid-scan still counts as a change.
			out[path] = "gone"
			continue
		}
		out[path] = fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size())
	}
	return out, nil
}

func changed(prev, next map[string]string) bool {
	if prev == nil || len(prev) != len(next) {
		return true
	}
	for path, fp := range next {
		if prev[path] != fp {
			return true
		}
	}
	return false
}
