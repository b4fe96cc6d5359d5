package source

import (
	"fmt"
	"path/filepath"
	"strings"
)

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, len(content)/32)
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i))
		}
	}
	return out
}

// toLineCol maps a byte offset to a 1-based line/column position using
// the precomputed newline index. A newline byte belongs to the line it
// terminates.
func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// Empty index means the whole file is a single line.
	if len(lineIdx) == 0 {
		return LineCol{Line: 1, Col: off + 1}
	}

	// Binary search: count newlines strictly before off.
	lo, hi := 0, len(lineIdx)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		if lineIdx[mid] < off {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	nl := lo

	var startOff uint32
	if nl > 0 {
		startOff = lineIdx[nl-1] + 1
	}
	return LineCol{Line: uint32(nl + 1), Col: off - startOff + 1}
}

func normalizePath(p string) string {
	// one shape across platforms for stable diffs
	return filepath.ToSlash(filepath.Clean(p))
}

// RelativePath renders target relative to baseDir, falling back to the
// absolute form when target lives outside baseDir.
func RelativePath(target, baseDir string) (string, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", target, err)
	}
	if baseDir == "" {
		return normalizePath(abs), nil
	}
	rel, err := filepath.Rel(baseDir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return normalizePath(abs), nil
	}
	return normalizePath(rel), nil
}
