package beancount

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
)

// Loaded is the combined content of a set of files and everything they
// include.
type Loaded struct {
	Directives []*domain.Directive
	// Files lists every file that contributed, roots first, without
	// duplicates.
	Files []string
}

// ReadFiles parses the given files and follows their includes. Relative
// include paths resolve against the including file's directory and may be
// glob patterns. A file reached twice is read once.
func ReadFiles(paths []string) (*Loaded, error) {
	r := &reader{seen: make(map[string]bool), out: &Loaded{}}
	for _, path := range paths {
		if err := r.read(path); err != nil {
			return nil, err
		}
	}
	return r.out, nil
}

type reader struct {
	seen map[string]bool
	out  *Loaded
}

func (r *reader) read(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if r.seen[abs] {
		return nil
	}
	r.seen[abs] = true

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	res, err := Parse(path, src)
	if err != nil {
		return err
	}
	r.out.Files = append(r.out.Files, path)
	r.out.Directives = append(r.out.Directives, res.Directives...)

	for _, inc := range res.Includes {
		target := inc
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		matches := []string{target}
		if strings.ContainsAny(target, "*?[") {
			if matches, err = filepath.Glob(target); err != nil {
				return fmt.Errorf("include %q in %s: %w", inc, path, err)
			}
		}
		for _, m := range matches {
			if err := r.read(m); err != nil {
				return err
			}
		}
	}
	return nil
}
