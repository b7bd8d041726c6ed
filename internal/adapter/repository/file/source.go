// Package file reads ledger sources from disk or from a command and appends
// committed entries to the journal.
package file

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/beancount"
	"github.com/jakobhellermann/beancount-staging/internal/usecase"
)

// CommandPseudoFile names the output of a staging command in parse errors
// and entry locations.
const CommandPseudoFile = "<command>"

// FileSource reads a list of ledger files, following includes.
type FileSource struct {
	paths []string
}

// NewFileSource creates a new FileSource.
func NewFileSource(paths []string) *FileSource {
	return &FileSource{paths: paths}
}

// Load reads and parses every file.
func (s *FileSource) Load(ctx context.Context) (*usecase.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loaded, err := beancount.ReadFiles(s.paths)
	if err != nil {
		return nil, err
	}

	return &usecase.Snapshot{Directives: loaded.Directives, Files: loaded.Files}, nil
}

// CommandSource runs a command and parses its standard output as ledger
// text. It contributes no files to watch.
type CommandSource struct {
	argv []string
	dir  string
}

// NewCommandSource creates a new CommandSource. dir is the working
// directory; empty means the current one.
func NewCommandSource(argv []string, dir string) *CommandSource {
	return &CommandSource{argv: argv, dir: dir}
}

// Load runs the command to completion and parses what it printed.
func (s *CommandSource) Load(ctx context.Context) (*usecase.Snapshot, error) {
	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)
	cmd.Dir = s.dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("run staging command %q: %w", strings.Join(s.argv, " "), err)
		}
		return nil, fmt.Errorf("run staging command %q: %w: %s", strings.Join(s.argv, " "), err, msg)
	}

	res, err := beancount.Parse(CommandPseudoFile, out)
	if err != nil {
		return nil, err
	}

	return &usecase.Snapshot{Directives: res.Directives}, nil
}

// NewStagingSource picks the staging source from the configuration. Exactly
// one of files and command must be set.
func NewStagingSource(files, command []string, dir string) (usecase.EntrySource, error) {
	switch {
	case len(files) > 0 && len(command) > 0:
		return nil, fmt.Errorf("%w: got both files and a command", domain.ErrStagingSourceSet)
	case len(files) > 0:
		return NewFileSource(files), nil
	case len(command) > 0:
		return NewCommandSource(command, dir), nil
	default:
		return nil, fmt.Errorf("%w: got neither files nor a command", domain.ErrStagingSourceSet)
	}
}
