package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"census/internal/diag"
	"census/internal/source"
	"census/internal/summary"
)

// DirResult is the outcome of ingesting a directory of streams.
type DirResult struct {
	Global  *summary.GlobalSummary
	FileSet *source.FileSet
	Streams []StreamResult
}

// HasErrors reports whether any stream produced error diagnostics.
func (r *DirResult) HasErrors() bool {
	for _, s := range r.Streams {
		if s.Bag != nil && s.Bag.HasErrors() {
			return true
		}
	}
	return false
}

// ListStreamFiles returns the sorted *.diag.jsonl files under dir.
func ListStreamFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, StreamExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Sorted for a deterministic merge order.
	sort.Strings(files)
	return files, nil
}

// IngestDir ingests every stream under dir in parallel. Each worker
// fills its own collector; the independent trees are merged in sorted
// file order afterwards, so the result is deterministic regardless of
// scheduling.
func IngestDir(ctx context.Context, dir string, opts Options) (*DirResult, error) {
	files, err := ListStreamFiles(dir)
	if err != nil {
		return nil, err
	}

	fileSet := source.NewFileSetWithBase(dir)
	progress := opts.progress()
	res := &DirResult{
		Global:  summary.NewGlobalSummary(),
		FileSet: fileSet,
		Streams: make([]StreamResult, len(files)),
	}
	if len(files) == 0 {
		return res, nil
	}

	// Preload sequentially: FileSet is not safe for concurrent Add.
	loadErrors := make(map[string]error, len(files))
	for _, path := range files {
		progress.Send(Event{File: path, Status: StatusQueued})
		if _, err := fileSet.Load(path); err != nil {
			loadErrors[path] = err
			// Placeholder entry so problems reported against this
			// stream still resolve to its path.
			fileSet.AddVirtual(path, nil)
		}
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	trees := make([]*summary.GlobalSummary, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			progress.Send(Event{File: path, Status: StatusIngesting})

			id, _ := fileSet.GetLatest(path)
			if loadErr, hadError := loadErrors[path]; hadError {
				bag := diag.NewBag(opts.maxDiagnostics())
				opts.problemReporter(bag).Report(diag.IOLoadFileError, diag.SevError,
					source.Span{File: id}, "failed to load stream: "+loadErr.Error())
				res.Streams[i] = StreamResult{Path: path, FileID: id, Bag: bag}
				progress.Send(Event{File: path, Status: StatusError})
				return nil
			}

			col := summary.NewCollector(opts.Resolver, opts.MinSeverity)
			res.Streams[i] = ingestStream(fileSet, id, col, opts)
			trees[i] = col.Global()

			if res.Streams[i].Bag.HasErrors() {
				progress.Send(Event{File: path, Status: StatusError})
			} else {
				progress.Send(Event{File: path, Status: StatusDone})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, tree := range trees {
		res.Global.Merge(tree)
	}
	return res, nil
}
