// Package unit classifies analyzed source units by their URI-like
// identifier: platform units ("dart:core"), units belonging to a
// distribution package ("package:foo/bar.dart"), and everything else.
package unit

import (
	"strings"
)

// Scope is the classification of a unit identifier.
type Scope uint8

const (
	// ScopeLoose is anything not scoped to the platform or a package.
	// Malformed identifiers always land here; classification never fails.
	ScopeLoose Scope = iota
	// ScopeSystem is a platform-provided unit.
	ScopeSystem
	// ScopePackage is a unit belonging to a named distribution package.
	ScopePackage
)

func (s Scope) String() string {
	switch s {
	case ScopeLoose:
		return "loose"
	case ScopeSystem:
		return "system"
	case ScopePackage:
		return "package"
	}
	return "unknown"
}

// PackageScheme marks units that belong to a distribution package.
const PackageScheme = "package"

// ID is a parsed unit identifier.
type ID struct {
	Scheme string
	Path   string
}

// Parse splits a raw identifier into scheme and path. A missing scheme
// yields an ID with an empty Scheme; no input is rejected.
func Parse(raw string) ID {
	i := strings.IndexByte(raw, ':')
	if i <= 0 {
		return ID{Path: raw}
	}
	return ID{Scheme: raw[:i], Path: raw[i+1:]}
}

func (id ID) String() string {
	if id.Scheme == "" {
		return id.Path
	}
	return id.Scheme + ":" + id.Path
}

// PackageName returns the first path segment, the distribution package
// name for package-scheme identifiers. Empty when there is none.
func (id ID) PackageName() string {
	p := strings.TrimPrefix(id.Path, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return p
}

// Resolver classifies identifiers against a configurable set of
// platform schemes.
type Resolver struct {
	systemSchemes map[string]struct{}
}

// NewResolver builds a Resolver. With no arguments the platform scheme
// set is {"dart"}.
func NewResolver(systemSchemes ...string) *Resolver {
	if len(systemSchemes) == 0 {
		systemSchemes = []string{"dart"}
	}
	set := make(map[string]struct{}, len(systemSchemes))
	for _, s := range systemSchemes {
		if s = strings.TrimSpace(s); s != "" {
			set[s] = struct{}{}
		}
	}
	return &Resolver{systemSchemes: set}
}

// Classify maps an ID to its scope. Identifiers with an empty path or a
// package scheme without a usable package name fall back to loose.
func (r *Resolver) Classify(id ID) Scope {
	if id.Scheme == "" || id.Path == "" {
		return ScopeLoose
	}
	if _, ok := r.systemSchemes[id.Scheme]; ok {
		return ScopeSystem
	}
	if id.Scheme == PackageScheme {
		if id.PackageName() == "" {
			return ScopeLoose
		}
		return ScopePackage
	}
	return ScopeLoose
}

// Resolve parses and classifies in one step, returning the package name
// for package-scoped identifiers and "" otherwise.
func (r *Resolver) Resolve(raw string) (ID, Scope, string) {
	id := Parse(raw)
	scope := r.Classify(id)
	if scope == ScopePackage {
		return id, scope, id.PackageName()
	}
	return id, scope, ""
}
