// Package driver feeds diagnostic streams produced by an upstream
// analyzer into summary collectors, sequentially or in parallel over a
// directory of stream files.
package driver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"census/internal/diag"
	"census/internal/source"
	"census/internal/summary"
	"census/internal/unit"
)

// StreamExt is the file suffix of diagnostic streams.
const StreamExt = ".diag.jsonl"

// Options configures ingest.
type Options struct {
	// Resolver classifies unit identifiers; nil gets the defaults.
	Resolver *unit.Resolver
	// MinSeverity drops messages below the threshold at record time.
	MinSeverity diag.Severity
	// MaxDiagnostics caps ingest problems kept per stream.
	MaxDiagnostics int
	// ProblemSeverity drops ingest problems below the threshold
	// before they reach the stream's bag.
	ProblemSeverity diag.Severity
	// Jobs limits parallel workers for directory ingest (0 = auto).
	Jobs int
	// Progress receives per-file events; nil disables reporting.
	Progress Sink
}

func (o Options) maxDiagnostics() int {
	if o.MaxDiagnostics <= 0 {
		return 100
	}
	return o.MaxDiagnostics
}

func (o Options) problemReporter(bag *diag.Bag) diag.Reporter {
	return diag.NewMinSeverityReporter(diag.BagReporter{Bag: bag}, o.ProblemSeverity)
}

func (o Options) progress() Sink {
	if o.Progress == nil {
		return NopSink{}
	}
	return o.Progress
}

// StreamResult describes the ingest of one stream file.
type StreamResult struct {
	Path    string
	FileID  source.FileID
	Records int
	Bag     *diag.Bag
}

// IngestFile loads one stream file and feeds it into the collector.
// Problems inside the stream (bad JSON, unusable records) are recorded
// in the result's Bag; only the file-level read failure is an error.
func IngestFile(fileSet *source.FileSet, path string, col *summary.Collector, opts Options) (StreamResult, error) {
	id, err := fileSet.Load(path)
	if err != nil {
		return StreamResult{Path: path}, fmt.Errorf("failed to load stream %s: %w", path, err)
	}
	return ingestStream(fileSet, id, col, opts), nil
}

// ingestStream walks the loaded stream line by line. Records for the
// same unit enter it once; a unit change leaves the previous unit
// first, preserving the single-current-unit call pattern.
func ingestStream(fileSet *source.FileSet, id source.FileID, col *summary.Collector, opts Options) StreamResult {
	f := fileSet.Get(id)
	bag := diag.NewBag(opts.maxDiagnostics())
	rep := opts.problemReporter(bag)
	res := StreamResult{Path: f.Path, FileID: id, Bag: bag}

	currentUnit := ""
	currentHTML := false
	leave := func() {
		if currentUnit == "" {
			return
		}
		if currentHTML {
			col.LeaveHTML()
		} else {
			col.LeaveLibrary()
		}
		currentUnit = ""
	}
	defer leave()

	content := f.Content
	var off uint32
	for len(content) > 0 {
		line := content
		next := len(content)
		if i := bytes.IndexByte(content, '\n'); i >= 0 {
			line = content[:i]
			next = i + 1
		}
		lineSpan := source.Span{File: id, Start: off, End: off + uint32(len(line))}
		content = content[next:]
		off += uint32(next)

		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		res.Records++

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			rep.Report(diag.DecodeError, diag.SevError, lineSpan, "bad stream record: "+err.Error())
			continue
		}
		if rec.Unit == "" {
			rep.Report(diag.RecordError, diag.SevError, lineSpan, "record names no unit")
			continue
		}
		if !rec.HasMessage() && !rec.HasLines() {
			rep.Report(diag.RecordError, diag.SevWarning, lineSpan, "record carries neither message nor lines")
			continue
		}

		if rec.Unit != currentUnit {
			leave()
			currentUnit = rec.Unit
			currentHTML = isHTMLUnit(rec.Unit)
			if currentHTML {
				col.EnterHTML(rec.Unit)
			} else {
				col.EnterLibrary(rec.Unit)
			}
		}

		if rec.HasLines() {
			if err := col.RecordLineCount(rec.Lines); err != nil {
				rep.Report(diag.RecordError, diag.SevError, lineSpan, err.Error())
			}
		}
		if rec.HasMessage() {
			sev, ok := diag.ParseSeverity(rec.Severity)
			if !ok {
				rep.Report(diag.RecordError, diag.SevError, lineSpan,
					fmt.Sprintf("unknown severity %q", rec.Severity))
				continue
			}
			loc := summary.Location{
				File:      rec.File,
				StartLine: rec.StartLine,
				StartCol:  rec.StartCol,
				EndLine:   rec.EndLine,
				EndCol:    rec.EndCol,
			}
			if err := col.Log(rec.Kind, sev, loc, rec.Text); err != nil {
				rep.Report(diag.RecordError, diag.SevError, lineSpan, err.Error())
			}
		}
	}
	return res
}

func isHTMLUnit(raw string) bool {
	p := strings.ToLower(unit.Parse(raw).Path)
	return strings.HasSuffix(p, ".html") || strings.HasSuffix(p, ".htm")
}
