package file

import (
	"context"
	"fmt"
	"os"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/beancount"
)

// JournalWriter appends entries to existing journal files. It never creates,
// truncates or rewrites a file.
type JournalWriter struct{}

// NewJournalWriter creates a new JournalWriter.
func NewJournalWriter() *JournalWriter {
	return &JournalWriter{}
}

// Append writes a blank line followed by the formatted entry to the end of
// path.
func (w *JournalWriter) Append(ctx context.Context, path string, entry *domain.Directive) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content := "\n" + beancount.Format(entry)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open journal for appending: %w", err)
	}

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("failed to write to journal: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close journal: %w", err)
	}
	return nil
}
