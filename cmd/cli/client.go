package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakobhellermann/beancount-staging/internal/adapter/http/dto"
)

// getJSON fetches path from the review server into out.
func getJSON(path string, out any) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(strings.TrimRight(baseURL, "/") + path)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s: %s", resp.StatusCode, apiErr.Error, apiErr.Message)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func pendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List entries awaiting review on a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			var state dto.InitResponse
			if err := getJSON("/api/init", &state); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, item := range state.Items {
				line := fmt.Sprintf("%3d  %s  %s", item.Index, item.ID, firstLine(item.Content))
				if draft, ok := state.Drafts[item.ID]; ok {
					line += "  -> " + draft
				}
				fmt.Fprintln(w, truncate(line, 120))
			}
			summaryStyle.Fprintf(w, "%d pending\n", len(state.Items))
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int
	var pendingID, status string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent commit attempts from the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("limit", fmt.Sprint(limit))
			if pendingID != "" {
				q.Set("pending_id", pendingID)
			}
			if status != "" {
				q.Set("status", status)
			}

			var records []dto.AuditRecordResponse
			if err := getJSON("/api/history?"+q.Encode(), &records); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, r := range records {
				style := stagingStyle
				if r.Status != "success" {
					style = journalStyle
				}
				line := fmt.Sprintf("%s  %-9s %s  %s  %s", r.CreatedAt.Format("2006-01-02 15:04:05"), style.Sprint(r.Status), r.EntryDate, r.Account, r.Payee)
				if r.ErrorMessage != "" {
					line += "  (" + r.ErrorMessage + ")"
				}
				fmt.Fprintln(w, line)
			}
			if len(records) == 0 {
				fmt.Fprintln(w, "no commits recorded")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of records")
	cmd.Flags().StringVar(&pendingID, "id", "", "Only records for this pending entry")
	cmd.Flags().StringVar(&status, "status", "", "Only records with this status (success, rejected, invariant, error)")

	return cmd
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
