package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	fileRepo "github.com/jakobhellermann/beancount-staging/internal/adapter/repository/file"
	"github.com/jakobhellermann/beancount-staging/internal/domain"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/beancount"
	"github.com/jakobhellermann/beancount-staging/internal/reconcile"
)

var (
	journalStyle = color.New(color.FgYellow)
	stagingStyle = color.New(color.FgGreen)
	summaryStyle = color.New(color.Bold)
)

func showCmd() *cobra.Command {
	var journal, staging, command []string

	cmd := &cobra.Command{
		Use:     "show",
		Aliases: []string{"diff"},
		Short:   "Show differences between journal and staging files",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := fileRepo.NewStagingSource(staging, command, "")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			j, err := fileRepo.NewFileSource(journal).Load(ctx)
			if err != nil {
				return err
			}
			s, err := source.Load(ctx)
			if err != nil {
				return err
			}

			printDiff(cmd.OutOrStdout(), reconcile.ReconcileDirectives(j.Directives, s.Directives))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&journal, "journal", "j", nil, "Journal file (repeatable)")
	cmd.Flags().StringSliceVarP(&staging, "staging", "s", nil, "Staging file (repeatable)")
	cmd.Flags().StringArrayVar(&command, "staging-command", nil, "Command printing staging entries, one argument per flag")
	_ = cmd.MarkFlagRequired("journal")

	return cmd
}

// hiddenInJournal are declarations that normally only live in the journal
// and would drown out the interesting differences.
func hiddenInJournal(k domain.Kind) bool {
	switch k {
	case domain.KindOpen, domain.KindPrice, domain.KindCommodity, domain.KindPad:
		return true
	}
	return false
}

func printDiff(w io.Writer, items []reconcile.Item) {
	var journalCount, stagingCount int

	for _, item := range items {
		switch item.Origin {
		case reconcile.OnlyInJournal:
			if hiddenInJournal(item.Directive.Kind()) {
				continue
			}
			journalStyle.Fprintln(w, "━━━ Only in Journal ━━━")
			journalCount++
		case reconcile.OnlyInStaging:
			stagingStyle.Fprintln(w, "━━━ Only in Staging (needs review) ━━━")
			stagingCount++
		}
		fmt.Fprintln(w, beancount.Format(item.Directive))
	}

	if journalCount == 0 && stagingCount == 0 {
		fmt.Fprintln(w, "✓ All transactions match!")
		return
	}

	summaryStyle.Fprintln(w, "━━━ Summary ━━━")
	if journalCount > 0 {
		fmt.Fprintf(w, "  %s transaction(s) only in journal\n", journalStyle.Sprint(journalCount))
	}
	if stagingCount > 0 {
		fmt.Fprintf(w, "  %s transaction(s) only in staging (need review)\n", stagingStyle.Sprint(stagingCount))
	}
}
