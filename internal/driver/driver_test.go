package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"census/internal/diag"
	"census/internal/source"
	"census/internal/summary"
)

func writeStream(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name+StreamExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write stream: %v", err)
	}
	return path
}

const sampleStream = `{"unit":"package:p/main.dart","lines":10}
{"unit":"package:p/main.dart","kind":"TypeError","severity":"error","file":"main.dart","start_line":3,"start_col":7,"text":"boom"}
{"unit":"package:p/main.dart","kind":"TypeError","severity":"error","text":"boom again"}
{"unit":"dart:core","lines":5,"kind":"TypeError","severity":"error","text":"core issue"}
{"unit":"file:///index.html","kind":"UnknownTag","severity":"warning","text":"tag"}
`

func TestIngestFile_PopulatesTree(t *testing.T) {
	dir := t.TempDir()
	path := writeStream(t, dir, "run1", sampleStream)

	fileSet := source.NewFileSetWithBase(dir)
	col := summary.NewCollector(nil, diag.SevInfo)
	res, err := IngestFile(fileSet, path, col, Options{})
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if res.Records != 5 {
		t.Errorf("Records = %d, want 5", res.Records)
	}
	if res.Bag.Len() != 0 {
		t.Errorf("unexpected ingest problems: %+v", res.Bag.Items())
	}

	counts := summary.NewCounts()
	counts.Collect(col.Global())
	if counts.Totals["TypeError"] != 3 {
		t.Errorf("Totals[TypeError] = %d, want 3", counts.Totals["TypeError"])
	}
	if counts.Totals["UnknownTag"] != 1 {
		t.Errorf("Totals[UnknownTag] = %d, want 1", counts.Totals["UnknownTag"])
	}
	if counts.TotalLinesOfCode != 15 {
		t.Errorf("TotalLinesOfCode = %d, want 15", counts.TotalLinesOfCode)
	}

	// The HTML unit must land in the loose container as HTML.
	if _, ok := col.Global().Loose["file:///index.html"].(*summary.HTMLSummary); !ok {
		t.Errorf("HTML unit not ingested as HTML: %T", col.Global().Loose["file:///index.html"])
	}

	l := col.Global().Packages["p"].Libraries["package:p/main.dart"]
	if l.Messages[0].Location.String() != "main.dart:3:7" {
		t.Errorf("location = %q, want main.dart:3:7", l.Messages[0].Location.String())
	}
}

func TestIngestFile_BadRecords(t *testing.T) {
	dir := t.TempDir()
	path := writeStream(t, dir, "bad", `this is not json
{"kind":"TypeError","severity":"error","text":"no unit"}
{"unit":"package:p/l.dart","kind":"TypeError","severity":"fatal","text":"bad severity"}
{"unit":"package:p/l.dart"}
{"unit":"package:p/l.dart","kind":"TypeError","severity":"error","text":"kept"}
`)

	fileSet := source.NewFileSet()
	col := summary.NewCollector(nil, diag.SevInfo)
	res, err := IngestFile(fileSet, path, col, Options{})
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if !res.Bag.HasErrors() {
		t.Fatalf("expected ingest problems")
	}
	// Decode error, missing unit, unknown severity are errors; the
	// empty record is only a warning.
	errs := 0
	for _, d := range res.Bag.Items() {
		if d.Severity == diag.SevError {
			errs++
		}
	}
	if errs != 3 {
		t.Errorf("error diagnostics = %d, want 3: %+v", errs, res.Bag.Items())
	}

	// The good record still made it through.
	counts := summary.NewCounts()
	counts.Collect(col.Global())
	if counts.Totals["TypeError"] != 1 {
		t.Errorf("Totals[TypeError] = %d, want 1", counts.Totals["TypeError"])
	}

	// Problem positions resolve to stream lines.
	start, _ := fileSet.Resolve(res.Bag.Items()[0].Primary)
	if start.Line != 1 {
		t.Errorf("first problem at line %d, want 1", start.Line)
	}
}

func TestIngestFile_ProblemThreshold(t *testing.T) {
	dir := t.TempDir()
	path := writeStream(t, dir, "sparse", `{"unit":"package:p/l.dart"}
{"unit":"package:p/l.dart","lines":2}
`)

	// The empty first record is only a warning; an error-level
	// threshold filters it out before it reaches the bag.
	col := summary.NewCollector(nil, diag.SevInfo)
	res, err := IngestFile(source.NewFileSet(), path, col, Options{ProblemSeverity: diag.SevError})
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if res.Bag.Len() != 0 {
		t.Errorf("problems below threshold kept: %+v", res.Bag.Items())
	}

	col = summary.NewCollector(nil, diag.SevInfo)
	res, err = IngestFile(source.NewFileSet(), path, col, Options{})
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if res.Bag.Len() != 1 || res.Bag.Items()[0].Severity != diag.SevWarning {
		t.Errorf("default threshold should keep the warning: %+v", res.Bag.Items())
	}
}

func TestIngestDir_MergesDeterministically(t *testing.T) {
	dir := t.TempDir()
	writeStream(t, dir, "a", `{"unit":"package:p/l.dart","lines":10}
{"unit":"package:p/l.dart","kind":"TypeError","severity":"error","text":"from a"}
`)
	writeStream(t, dir, "b", `{"unit":"package:p/l.dart","lines":4}
{"unit":"package:q/m.dart","lines":2,"kind":"Hint","severity":"info","text":"from b"}
`)

	for i := 0; i < 3; i++ {
		res, err := IngestDir(context.Background(), dir, Options{Jobs: 2})
		if err != nil {
			t.Fatalf("IngestDir: %v", err)
		}
		if res.HasErrors() {
			t.Fatalf("unexpected stream errors")
		}

		counts := summary.NewCounts()
		counts.Collect(res.Global)
		if counts.TotalLinesOfCode != 16 {
			t.Errorf("TotalLinesOfCode = %d, want 16", counts.TotalLinesOfCode)
		}
		if counts.LinesOfCode["p"] != 14 {
			t.Errorf("LinesOfCode[p] = %d, want 14", counts.LinesOfCode["p"])
		}

		l := res.Global.Packages["p"].Libraries["package:p/l.dart"]
		if len(l.Messages) != 1 || l.Messages[0].Text != "from a" {
			t.Errorf("merged messages = %+v", l.Messages)
		}
	}
}

func TestIngestDir_MissingFileRecorded(t *testing.T) {
	dir := t.TempDir()
	writeStream(t, dir, "ok", `{"unit":"package:p/l.dart","lines":1}`)
	// A dangling symlink fails to load without failing the walk.
	if err := os.Symlink(filepath.Join(dir, "absent"), filepath.Join(dir, "gone"+StreamExt)); err != nil {
		t.Skipf("symlink unsupported: %v", err)
	}

	res, err := IngestDir(context.Background(), dir, Options{})
	if err != nil {
		t.Fatalf("IngestDir: %v", err)
	}
	if !res.HasErrors() {
		t.Fatalf("load failure not recorded")
	}

	// The failure diagnostic must resolve back to the broken stream's
	// path through the file set.
	for _, s := range res.Streams {
		if s.Bag == nil || !s.Bag.HasErrors() {
			continue
		}
		d := s.Bag.Items()[0]
		f := res.FileSet.Get(d.Primary.File)
		if !strings.HasSuffix(f.Path, "gone"+StreamExt) {
			t.Errorf("failure diagnostic resolves to %q, want the broken stream", f.Path)
		}
		if f.Flags&source.FileVirtual == 0 {
			t.Errorf("placeholder for an unreadable stream should be virtual")
		}
	}

	counts := summary.NewCounts()
	counts.Collect(res.Global)
	if counts.LinesOfCode["p"] != 1 {
		t.Errorf("healthy stream not ingested alongside broken one")
	}
}

func TestIngestDir_EmptyDir(t *testing.T) {
	res, err := IngestDir(context.Background(), t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("IngestDir: %v", err)
	}
	if len(res.Streams) != 0 {
		t.Errorf("Streams = %d, want 0", len(res.Streams))
	}
}

func TestIngestDir_ProgressEvents(t *testing.T) {
	dir := t.TempDir()
	writeStream(t, dir, "a", `{"unit":"package:p/l.dart","lines":1}`)

	ch := make(chan Event, 16)
	_, err := IngestDir(context.Background(), dir, Options{Progress: ChannelSink{Ch: ch}})
	if err != nil {
		t.Fatalf("IngestDir: %v", err)
	}
	close(ch)

	var statuses []Status
	for ev := range ch {
		statuses = append(statuses, ev.Status)
	}
	if len(statuses) != 3 {
		t.Fatalf("events = %d, want queued/ingesting/done", len(statuses))
	}
	if statuses[0] != StatusQueued || statuses[2] != StatusDone {
		t.Errorf("unexpected event order: %v", statuses)
	}
}
