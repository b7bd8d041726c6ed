package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "beancount-staging",
		Short: "Tools for reviewing and staging beancount transactions",
		Long: `Compare staging files against a beancount journal, or inspect a running
review server.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8472", "Base URL of the review server")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(pendingCmd())
	rootCmd.AddCommand(historyCmd())

	return rootCmd
}
