package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tradecoach/internal/models"
	"tradecoach/internal/store"
)

func newJournalCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Review saved analyses",
		Long:  "List, inspect, delete and report on the analyses saved in your trading journal.",
	}

	cmd.AddCommand(newJournalListCmd(app))
	cmd.AddCommand(newJournalShowCmd(app))
	cmd.AddCommand(newJournalDeleteCmd(app))
	cmd.AddCommand(newJournalReportCmd(app))
	return cmd
}

func newJournalListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved analyses, newest first",
		Example: `  tradecoach journal list
  tradecoach journal list --symbol AAPL --limit 10
  tradecoach journal list --emotion fear --result loss`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			filter := store.TradeFilter{}
			filter.Symbol, _ = cmd.Flags().GetString("symbol")
			method, _ := cmd.Flags().GetString("method")
			filter.Method = models.AnalysisMethod(method)
			if result, _ := cmd.Flags().GetString("result"); result != "" {
				filter.Result = models.ParseTradeResult(result)
			}
			filter.Emotion, _ = cmd.Flags().GetString("emotion")
			filter.Limit, _ = cmd.Flags().GetInt("limit")
			if days, _ := cmd.Flags().GetInt("days"); days > 0 {
				filter.StartDate = time.Now().AddDate(0, 0, -days)
			}

			records, err := app.Journal.List(ctx, filter)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(records)
			}
			if len(records) == 0 {
				output.Info("No analyses found.")
				output.Dim("Tip: save one with 'tradecoach analyze ... --save'.")
				return nil
			}

			table := NewTable(output, "ID", "Date", "Symbol", "Dir", "Result", "Emotion", "Risk", "Method", "Conf")
			for _, r := range records {
				table.AddRow(
					r.ID,
					FormatDateTime(r.CreatedAt),
					orDash(r.Trade.Symbol),
					string(r.Trade.Direction),
					output.Result(r.Trade.Result),
					orDash(r.Emotional.PrimaryEmotion),
					output.RiskLevel(r.Analysis.RiskLevel),
					output.Method(r.Analysis.AnalysisMethod),
					FormatConfidence(r.Analysis.ConfidenceScore),
				)
			}
			table.Render()
			output.Println()
			output.Dim("%d record(s). Use 'tradecoach journal show <id>' for details.", len(records))
			return nil
		},
	}
	cmd.Flags().StringP("symbol", "s", "", "Filter by symbol")
	cmd.Flags().String("method", "", "Filter by analysis method: external, fallback")
	cmd.Flags().String("result", "", "Filter by outcome: win, loss, breakeven, unknown")
	cmd.Flags().String("emotion", "", "Filter by primary emotion")
	cmd.Flags().Int("days", 0, "Only the last N days")
	cmd.Flags().IntP("limit", "n", store.DefaultLimit, "Maximum records to show")
	return cmd
}

func newJournalShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one saved analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			record, err := app.Journal.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(record)
			}

			output.Dim("%s  %s", record.ID, FormatDateTime(record.CreatedAt))
			output.Println()
			printTradeInput(output, record)
			output.Println()
			printAnalysis(output, record.Trade, record.Analysis)
			return nil
		},
	}
}

func printTradeInput(output *Output, r *models.TradeRecord) {
	e, t := r.Emotional, r.Trade
	output.Bold("Emotional State")
	output.Printf("  Emotion:    %s (%s)\n", orDash(e.PrimaryEmotion), FormatScore(e.Intensity))
	if len(e.SecondaryEmotions) > 0 {
		output.Printf("  Also:       %s\n", strings.Join(e.SecondaryEmotions, ", "))
	}
	output.Printf("  Clarity:    %s  Stress: %s  Confidence: %s\n", FormatScore(e.MentalClarity), FormatScore(e.StressLevel), FormatScore(e.Confidence))
	if e.Notes != "" {
		output.Printf("  Notes:      %s\n", e.Notes)
	}
	output.Println()

	output.Bold("Trade")
	output.Printf("  %s %s on %s, result %s\n", orDash(t.Symbol), t.Direction, orDash(t.Timeframe), output.Result(t.Result))
	output.Printf("  Entry: %s  Exit: %s  R:R %s\n", FormatPrice(t.EntryPrice), FormatPrice(t.ExitPrice), FormatRiskReward(t.RiskRewardRatio))
	if t.Strategy != "" || t.SetupType != "" {
		output.Printf("  Strategy: %s  Setup: %s\n", orDash(t.Strategy), orDash(t.SetupType))
	}
}

func newJournalDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one saved analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := app.Journal.Delete(ctx, args[0]); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": args[0]})
			}
			output.Success("✓ Deleted %s", args[0])
			return nil
		},
	}
}

func newJournalReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the journal over a period",
		Long: `Summarize saved analyses: outcomes, win rate, average confidence, risk levels
and how each primary emotion has worked out for you.`,
		Example: `  tradecoach journal report
  tradecoach journal report --period weekly`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			period, _ := cmd.Flags().GetString("period")
			stats, err := app.Journal.Report(ctx, period)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(stats)
			}
			printReport(output, stats)
			return nil
		},
	}
	cmd.Flags().StringP("period", "p", "all", "Report period: daily, weekly, monthly, all")
	return cmd
}

func printReport(output *Output, s *models.JournalStats) {
	output.Bold("Journal Report (%s)", s.Period)
	if !s.Start.IsZero() {
		output.Dim("%s to %s", FormatDateTime(s.Start), FormatDateTime(s.End))
	}
	output.Println()

	if s.TotalTrades == 0 {
		output.Info("No analyses in this period.")
		return
	}

	output.Printf("  Trades:          %d\n", s.TotalTrades)
	output.Printf("  Wins/Losses/BE:  %s/%s/%d\n", output.Green(fmt.Sprint(s.Wins)), output.Red(fmt.Sprint(s.Losses)), s.Breakeven)
	output.Printf("  Win Rate:        %s\n", FormatWinRate(s.WinRate))
	output.Printf("  Avg Confidence:  %s\n", FormatConfidence(s.AvgConfidence))
	output.Printf("  AI / Offline:    %d / %d\n", s.ExternalCount, s.FallbackCount)
	output.Println()

	output.Bold("Risk Levels")
	for _, level := range []models.RiskLevel{models.RiskElevated, models.RiskModerate, models.RiskAcceptable} {
		output.Printf("  %s %d\n", output.RiskLevel(level), s.RiskLevels[level])
	}
	output.Println()

	if len(s.TopEmotions) == 0 {
		return
	}
	emotions := append([]models.EmotionStat(nil), s.TopEmotions...)
	sort.SliceStable(emotions, func(i, j int) bool { return emotions[i].Count > emotions[j].Count })

	output.Bold("Emotions")
	table := NewTable(output, "Emotion", "Trades", "Wins", "Losses", "Win Rate")
	for _, e := range emotions {
		table.AddRow(e.Emotion, fmt.Sprint(e.Count), fmt.Sprint(e.Wins), fmt.Sprint(e.Losses), FormatWinRate(e.WinRate))
	}
	table.Render()
}
