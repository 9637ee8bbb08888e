package validate

import (
	"bufio"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const maxContentLen = 80

// Scanner walks a directory tree and applies validator patterns to each
// matching source file.
type Scanner struct {
	Globs    []string
	SkipDirs []string
}

// NewScanner creates a Scanner with the given file globs and skip list.
func NewScanner(globs, skipDirs []string) *Scanner {
	return &Scanner{Globs: globs, SkipDirs: skipDirs}
}

// ScanGaming scans root for gaming patterns. It returns the violations
// and the total number of files scanned (the score normalizer).
func (sc *Scanner) ScanGaming(root string) ([]Violation, int, error) {
	var violations []Violation
	var totalFiles int

	err := sc.walk(root, func(path string) {
		totalFiles++
		violations = append(violations, scanLines(path, func(n int, line string) []Violation {
			var out []Violation
			for category, patterns := range GamingPatterns {
				for _, p := range patterns {
					if p.Matches(line) {
						out = append(out, Violation{
							File:     path,
							Line:     n,
							Category: category,
							Message:  p.Message,
							Content:  truncate(strings.TrimSpace(line)),
						})
					}
				}
			}
			return out
		})...)
	})
	if err != nil {
		return nil, 0, err
	}
	return violations, totalFiles, nil
}

// ScanQuality scans root for zero-tolerance violations. Files whose
// extension maps to no known language are skipped.
func (sc *Scanner) ScanQuality(root string) ([]Violation, error) {
	var violations []Violation

	err := sc.walk(root, func(path string) {
		lang, ok := ExtToLang[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return
		}
		categories := QualityPatterns[lang]

		violations = append(violations, scanLines(path, func(n int, line string) []Violation {
			var out []Violation
			for category, patterns := range categories {
				for _, p := range patterns {
					if p.Matches(line) {
						out = append(out, Violation{
							File:     path,
							Line:     n,
							Category: category,
							Message:  p.Message,
							Content:  truncate(strings.TrimSpace(line)),
							Severity: SeverityCritical,
						})
					}
				}
			}
			return out
		})...)
	})
	if err != nil {
		return nil, err
	}
	return violations, nil
}

func (sc *Scanner) walk(root string, visit func(path string)) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("scan path: %w", err)
	}
	if !info.IsDir() {
		visit(root)
		return nil
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if sc.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if sc.matchesGlobs(filepath.ToSlash(rel)) {
			visit(path)
		}
		return nil
	})
}

func (sc *Scanner) skipDir(name string) bool {
	for _, skip := range sc.SkipDirs {
		if name == skip {
			return true
		}
	}
	return false
}

func (sc *Scanner) matchesGlobs(rel string) bool {
	for _, glob := range sc.Globs {
		if ok, err := doublestar.Match(glob, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func scanLines(path string, check func(n int, line string) []Violation) []Violation {
	f, err := os.Open(path)
	if err != nil {
		slog.Warn("could not scan file", "path", path, "error", err)
		return nil
	}
	defer f.Close()

	var violations []Violation
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		violations = append(violations, check(n, scanner.Text())...)
	}
	return violations
}

func truncate(s string) string {
	if len(s) > maxContentLen {
		return s[:maxContentLen]
	}
	return s
}
