package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/skillpath/internal/llm"
	"github.com/abhisek/skillpath/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded LLM requests",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		switch purpose {
		case "", llm.PurposeExercise, llm.PurposeDiagnosis, llm.PurposeUnknown:
		default:
			return fmt.Errorf("unknown purpose %q (want %s, %s or %s)",
				purpose, llm.PurposeExercise, llm.PurposeDiagnosis, llm.PurposeUnknown)
		}

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		events, err := e.store.EventRepo().QueryLLMRequests(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(w, "No LLM requests recorded.")
			return nil
		}

		fmt.Fprintf(w, "%-5s  %-19s  %-10s  %-28s  %-6s  %-6s  %-7s  %s\n",
			"Seq", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Fprintln(w, strings.Repeat("─", 100))

		for _, ev := range events {
			if purpose != "" && ev.Purpose != purpose {
				continue
			}
			ok := "✓"
			if !ev.Success {
				ok = "✗"
			}
			fmt.Fprintf(w, "%-5d  %-19s  %-10s  %-28s  %-6d  %-6d  %-7d  %s\n",
				ev.Sequence,
				ev.Timestamp.Local().Format("2006-01-02 15:04:05"),
				ev.Purpose,
				truncate(ev.Model, 28),
				ev.InputTokens,
				ev.OutputTokens,
				ev.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <seq>",
	Short: "View the full request and response of an LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid sequence %q: %w", args[0], err)
		}

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		events, err := e.store.EventRepo().QueryLLMRequests(cmd.Context(), store.QueryOpts{
			After:  seq - 1,
			Before: seq + 1,
			Limit:  1,
		})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			return fmt.Errorf("llm request %d not found", seq)
		}
		ev := events[0]

		w := cmd.OutOrStdout()
		sep := strings.Repeat("─", 60)

		fmt.Fprintf(w, "Seq:       %d\n", ev.Sequence)
		fmt.Fprintf(w, "Time:      %s\n", ev.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "Provider:  %s\n", ev.Provider)
		fmt.Fprintf(w, "Model:     %s\n", ev.Model)
		fmt.Fprintf(w, "Purpose:   %s\n", ev.Purpose)
		fmt.Fprintf(w, "Tokens:    %d in / %d out\n", ev.InputTokens, ev.OutputTokens)
		fmt.Fprintf(w, "Latency:   %dms\n", ev.LatencyMs)
		fmt.Fprintf(w, "Success:   %v\n", ev.Success)
		if ev.ErrorMessage != "" {
			fmt.Fprintf(w, "Error:     %s\n", ev.ErrorMessage)
		}

		for _, part := range []struct{ title, body string }{
			{"REQUEST", ev.RequestBody},
			{"RESPONSE", ev.ResponseBody},
		} {
			fmt.Fprintln(w)
			fmt.Fprintln(w, sep)
			fmt.Fprintln(w, part.title)
			fmt.Fprintln(w, sep)
			if part.body == "" {
				fmt.Fprintln(w, "(not captured)")
				continue
			}
			fmt.Fprintln(w, part.body)
		}
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage and estimated cost per model",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		usage, err := e.store.EventRepo().LLMUsage(cmd.Context())
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(usage) == 0 {
			fmt.Fprintln(w, "No LLM usage recorded yet.")
			return nil
		}
		writeUsage(w, usage)
		return nil
	},
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (exercise, diagnosis, unknown)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
