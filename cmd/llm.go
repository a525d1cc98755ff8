package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prepia/tutor/internal/llm"
	"github.com/prepia/tutor/internal/store"
	"github.com/prepia/tutor/internal/ui/theme"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect generative provider request/response events",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent provider events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit, Purpose: purpose})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		printEvents(cmd.OutOrStdout(), events)
		return nil
	},
}

func printEvents(w io.Writer, events []store.LLMRequestEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, theme.Hint.Render("No provider events found."))
		return
	}

	fmt.Fprintln(w, theme.Heading.Render(fmt.Sprintf("%-5s  %-19s  %-18s  %-28s  %-6s  %-6s  %-7s  %s",
		"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")))
	fmt.Fprintln(w, theme.Rule(104))

	for _, e := range events {
		fmt.Fprintf(w, "%-5d  %-19s  %-18s  %-28s  %-6d  %-6d  %-7d  %s\n",
			e.ID,
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			truncate(e.Purpose, 18),
			truncate(e.Model, 28),
			e.InputTokens,
			e.OutputTokens,
			e.LatencyMs,
			theme.Mark(e.Success),
		)
	}
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View full request/response for a provider event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("event %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		printEvent(cmd.OutOrStdout(), e)
		return nil
	},
}

func printEvent(w io.Writer, e *store.LLMRequestEvent) {
	field := func(name, format string, args ...any) {
		fmt.Fprintf(w, "%s %s\n", theme.Label.Render(fmt.Sprintf("%-10s", name+":")), fmt.Sprintf(format, args...))
	}
	field("ID", "%d", e.ID)
	field("Time", "%s", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
	field("Provider", "%s", e.Provider)
	field("Model", "%s", e.Model)
	field("Purpose", "%s", e.Purpose)
	field("Tokens", "%d in / %d out", e.InputTokens, e.OutputTokens)
	field("Latency", "%dms", e.LatencyMs)
	field("Success", "%s", theme.Mark(e.Success))
	if e.ErrorMessage != "" {
		field("Error", "%s", theme.Incorrect.Render(e.ErrorMessage))
	}

	for _, part := range []struct{ title, body string }{
		{"REQUEST", e.RequestBody},
		{"RESPONSE", e.ResponseBody},
	} {
		fmt.Fprintln(w)
		fmt.Fprintln(w, theme.Rule(60))
		fmt.Fprintln(w, theme.Heading.Render(part.title))
		fmt.Fprintln(w, theme.Rule(60))
		if part.body == "" {
			fmt.Fprintln(w, theme.Hint.Render("(not captured)"))
			continue
		}
		fmt.Fprintln(w, part.body)
	}
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		ctx := cmd.Context()
		byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		printUsage(cmd.OutOrStdout(), byPurpose, byModel)
		return nil
	},
}

func printUsage(w io.Writer, byPurpose, byModel []store.LLMUsage) {
	if len(byPurpose) == 0 {
		fmt.Fprintln(w, theme.Hint.Render("No provider usage recorded yet."))
		return
	}

	fmt.Fprintln(w, theme.Title.Render("Usage by Purpose"))
	fmt.Fprintln(w, theme.Rule(80))
	fmt.Fprintln(w, theme.Heading.Render(fmt.Sprintf("%-18s  %6s  %6s  %10s  %10s  %10s  %8s",
		"Purpose", "Calls", "Failed", "Input", "Output", "Total", "Avg Ms")))
	fmt.Fprintln(w, theme.Rule(80))

	var totalCalls, totalFailed, totalIn, totalOut int
	for _, u := range byPurpose {
		fmt.Fprintf(w, "%-18s  %6d  %6d  %10d  %10d  %10d  %8.0f\n",
			truncate(u.Key, 18), u.Requests, u.Failures, u.InputTokens, u.OutputTokens,
			u.InputTokens+u.OutputTokens, u.AvgLatencyMs)
		totalCalls += u.Requests
		totalFailed += u.Failures
		totalIn += u.InputTokens
		totalOut += u.OutputTokens
	}
	fmt.Fprintln(w, theme.Rule(80))
	fmt.Fprintf(w, "%-18s  %6d  %6d  %10d  %10d  %10d\n",
		"TOTAL", totalCalls, totalFailed, totalIn, totalOut, totalIn+totalOut)

	if len(byModel) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, theme.Title.Render("Estimated Cost (USD)"))
	fmt.Fprintln(w, theme.Rule(80))
	fmt.Fprintln(w, theme.Heading.Render(fmt.Sprintf("%-32s  %6s  %10s  %10s  %10s",
		"Model", "Calls", "Input", "Output", "Cost")))
	fmt.Fprintln(w, theme.Rule(80))

	var totalCost float64
	var unknown []string
	for _, u := range byModel {
		cost, ok := llm.EstimateCost(u.Key, u.InputTokens, u.OutputTokens)
		if !ok {
			unknown = append(unknown, u.Key)
			fmt.Fprintf(w, "%-32s  %6d  %10d  %10d  %10s\n",
				truncate(u.Key, 32), u.Requests, u.InputTokens, u.OutputTokens, "?")
			continue
		}
		totalCost += cost
		fmt.Fprintf(w, "%-32s  %6d  %10d  %10d  %10s\n",
			truncate(u.Key, 32), u.Requests, u.InputTokens, u.OutputTokens, formatCost(cost))
	}

	fmt.Fprintln(w, theme.Rule(80))
	label := "TOTAL"
	if len(unknown) > 0 {
		label = "TOTAL (partial)"
	}
	fmt.Fprintf(w, "%-32s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(totalCost))

	if len(unknown) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, theme.Warning.Render("Pricing unavailable for: "+strings.Join(unknown, ", ")))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. explain, adaptive-question, chat)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
