package scanner

import (
	"path/filepath"
	"strings"
)

// SkipPolicy decides which directories are pruned before descending.
type SkipPolicy struct {
	// HiddenPrefix marks hidden directories, "." on Unix-like systems.
	HiddenPrefix string
	// IgnoredDirs are dependency or build directory names, matched case-insensitively.
	IgnoredDirs []string
	// SystemPrefixes are operating-system path prefixes, matched case-insensitively.
	SystemPrefixes []string
}

// DefaultSkipPolicy returns the skip rules used when none are configured.
func DefaultSkipPolicy() SkipPolicy {
	return SkipPolicy{
		HiddenPrefix: ".",
		IgnoredDirs: []string{
			"node_modules", "site-packages", "dist-info", "__pycache__",
			"venv", "env", "libs", "include", "scripts", "bin", "obj",
		},
		SystemPrefixes: []string{
			`C:\WINDOWS`, `C:\PROGRAM FILES`, `C:\PROGRAM FILES (X86)`,
			`C:\SYSTEM32`, `C:\PROGRAMDATA`, `C:\USERS\DEFAULT`,
			`C:\BOOT`, `C:\RECOVERY`,
			"/PROC", "/SYS", "/DEV",
		},
	}
}

// compiled is a SkipPolicy normalised for fast lookups.
type compiled struct {
	hidden   string
	ignored  map[string]struct{}
	prefixes []string
}

func (p SkipPolicy) compile() compiled {
	c := compiled{
		hidden:  p.HiddenPrefix,
		ignored: make(map[string]struct{}, len(p.IgnoredDirs)),
	}
	for _, name := range p.IgnoredDirs {
		c.ignored[strings.ToLower(name)] = struct{}{}
	}
	for _, prefix := range p.SystemPrefixes {
		if prefix = strings.TrimSpace(prefix); prefix != "" {
			c.prefixes = append(c.prefixes, strings.ToUpper(filepath.Clean(prefix)))
		}
	}
	return c
}

// skip reports whether the directory at path should be pruned.
func (c compiled) skip(path string) bool {
	name := filepath.Base(path)
	if c.hidden != "" && strings.HasPrefix(name, c.hidden) {
		return true
	}
	if _, ok := c.ignored[strings.ToLower(name)]; ok {
		return true
	}
	upper := strings.ToUpper(filepath.Clean(path))
	for _, prefix := range c.prefixes {
		if hasPathPrefix(upper, prefix) {
			return true
		}
	}
	return false
}

// hasPathPrefix matches prefix on a path-component boundary. Both separators
// are accepted so Windows-style prefixes behave the same on every platform.
func hasPathPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) {
		return true
	}
	switch path[len(prefix)] {
	case '/', '\\':
		return true
	}
	return strings.HasSuffix(prefix, "/") || strings.HasSuffix(prefix, `\`)
}
