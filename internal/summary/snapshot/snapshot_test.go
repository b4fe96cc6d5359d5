package snapshot

import (
	"testing"

	"census/internal/diag"
	"census/internal/summary"
)

func buildTree(t *testing.T) *summary.GlobalSummary {
	t.Helper()
	c := summary.NewCollector(nil, diag.SevInfo)

	c.EnterLibrary("package:p/main.dart")
	if err := c.RecordLineCount(12); err != nil {
		t.Fatalf("RecordLineCount: %v", err)
	}
	if err := c.Log("TypeError", diag.SevError,
		summary.Location{File: "main.dart", StartLine: 3, StartCol: 7, EndLine: 3, EndCol: 12},
		"boom"); err != nil {
		t.Fatalf("Log: %v", err)
	}
	c.LeaveLibrary()

	c.EnterLibrary("dart:core")
	if err := c.RecordLineCount(4); err != nil {
		t.Fatalf("RecordLineCount: %v", err)
	}
	c.LeaveLibrary()

	c.EnterHTML("file:///index.html")
	if err := c.Log("UnknownTag", diag.SevWarning, summary.Location{File: "index.html"}, "tag"); err != nil {
		t.Fatalf("Log: %v", err)
	}
	c.LeaveHTML()

	return c.Global()
}

func treesEqual(t *testing.T, got, want *summary.GlobalSummary) {
	t.Helper()
	gc, wc := summary.NewCounts(), summary.NewCounts()
	gc.Collect(got)
	wc.Collect(want)
	if gc.TotalLinesOfCode != wc.TotalLinesOfCode {
		t.Errorf("TotalLinesOfCode = %d, want %d", gc.TotalLinesOfCode, wc.TotalLinesOfCode)
	}
	for kind, n := range wc.Totals {
		if gc.Totals[kind] != n {
			t.Errorf("Totals[%s] = %d, want %d", kind, gc.Totals[kind], n)
		}
	}
	if len(got.Loose) != len(want.Loose) {
		t.Errorf("loose units = %d, want %d", len(got.Loose), len(want.Loose))
	}
}

func TestSnapshot_EncodeDecode(t *testing.T) {
	tree := buildTree(t)

	data, err := Encode(tree)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	restored, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	treesEqual(t, restored, tree)

	// Loose HTML must come back as an HTML unit, not a library.
	u, ok := restored.Loose["file:///index.html"]
	if !ok {
		t.Fatalf("loose HTML unit lost")
	}
	h, ok := u.(*summary.HTMLSummary)
	if !ok {
		t.Fatalf("loose HTML unit restored as %T", u)
	}
	if len(h.Messages) != 1 || h.Messages[0].Location.File != "index.html" {
		t.Errorf("HTML messages not restored: %+v", h.Messages)
	}
}

func TestSnapshot_DecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte("not a snapshot")); err == nil {
		t.Fatalf("Decode of garbage succeeded")
	}
}

func TestDiskCache_PutGet(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCacheAt: %v", err)
	}
	tree := buildTree(t)
	key := KeyFor("/work/project")

	if _, ok, err := cache.Get(key); err != nil || ok {
		t.Fatalf("Get before Put: ok=%v err=%v", ok, err)
	}
	if err := cache.Put(key, tree); err != nil {
		t.Fatalf("Put: %v", err)
	}
	restored, ok, err := cache.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("Get missed after Put")
	}
	treesEqual(t, restored, tree)
}

func TestKeyFor_PathNormalization(t *testing.T) {
	if KeyFor("/a/b/../b") != KeyFor("/a/b") {
		t.Errorf("equivalent paths produced different keys")
	}
	if KeyFor("/a/b") == KeyFor("/a/c") {
		t.Errorf("different paths produced the same key")
	}
}
