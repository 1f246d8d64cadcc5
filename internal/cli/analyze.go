package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	apperrors "tradecoach/internal/errors"
	"tradecoach/internal/models"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the psychology of a trade",
		Long: `Analyze one trade: how you felt, what you traded and how you managed risk.

All fields are optional. Scores run 1-10; leave a score out rather than guessing.
Without an OpenAI key the analysis comes from the built-in coaching rules.`,
		Example: `  tradecoach analyze --emotion anxiety --intensity 8 --clarity 4 --stress 8 --confidence 3 \
      --symbol ES --direction long --rr 1.0
  tradecoach analyze --emotion calm --symbol AAPL --timeframe 1h --image https://example.com/chart.png --save
  tradecoach analyze --emotion fear --market market.json --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			sub, err := submissionFromFlags(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout(app))
			defer cancel()

			save, _ := cmd.Flags().GetBool("save")
			if !save {
				analysis, err := app.Journal.Analyze(ctx, sub)
				if err != nil {
					return err
				}
				if output.IsJSON() {
					return output.JSON(analysis)
				}
				printAnalysis(output, sub.Trade, analysis)
				return nil
			}

			record, err := app.Journal.Submit(ctx, sub)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(record)
			}
			printAnalysis(output, record.Trade, record.Analysis)
			output.Println()
			output.Success("✓ Saved to journal as %s", record.ID)
			return nil
		},
	}

	cmd.Flags().StringP("emotion", "e", "", "Primary emotion (e.g. fear, greed, anxiety, calm)")
	cmd.Flags().Int("intensity", 0, "Emotion intensity 1-10")
	cmd.Flags().StringSlice("secondary", nil, "Secondary emotions")
	cmd.Flags().Int("clarity", 0, "Mental clarity 1-10")
	cmd.Flags().Int("stress", 0, "Stress level 1-10")
	cmd.Flags().Int("confidence", 0, "Confidence 1-10")
	cmd.Flags().String("notes", "", "Free-form notes")
	cmd.Flags().StringP("symbol", "s", "", "Instrument symbol")
	cmd.Flags().StringP("direction", "d", "", "Trade direction: long/buy, short/sell")
	cmd.Flags().Float64("entry", 0, "Entry price")
	cmd.Flags().Float64("exit", 0, "Exit price")
	cmd.Flags().Float64("rr", 0, "Reward-to-risk ratio (2 means 2:1)")
	cmd.Flags().StringP("timeframe", "t", "", "Chart timeframe (e.g. 5m, 1h, 1d)")
	cmd.Flags().String("result", "", "Outcome: win, loss, breakeven/be")
	cmd.Flags().String("strategy", "", "Strategy name")
	cmd.Flags().String("setup", "", "Setup type")
	cmd.Flags().String("image", "", "Chart image URL (http(s) or data:image)")
	cmd.Flags().String("market", "", "JSON file with market context")
	cmd.Flags().Bool("save", false, "Save the analysis to the journal")

	cmd.AddCommand(newAnalyzeBatchCmd(app))
	return cmd
}

func newAnalyzeBatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <file.json>",
		Short: "Analyze and save a batch of trades",
		Long: `Analyze every submission in a JSON array and save each to the journal.

Submissions are analyzed in parallel and independently: one failing entry does not
stop the others. Results are reported in file order.`,
		Example: `  tradecoach analyze batch trades.json
  tradecoach analyze batch trades.json --workers 8 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			workers, _ := cmd.Flags().GetInt("workers")

			subs, err := readSubmissions(args[0])
			if err != nil {
				return err
			}

			timeout := analysisTimeout(app) * time.Duration(len(subs)/max(workers, 1)+1)
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			start := time.Now()
			results := app.Journal.SubmitBatch(ctx, subs, workers)
			if output.IsJSON() {
				return output.JSON(results)
			}

			failed := 0
			table := NewTable(output, "#", "ID", "Symbol", "Risk", "Method", "Confidence")
			for _, r := range results {
				if r.Record == nil {
					failed++
					table.AddRow(fmt.Sprintf("%d", r.Index+1), output.Red("error"), "-", "-", "-", TruncateString(r.Error, 50))
					continue
				}
				a := r.Record.Analysis
				table.AddRow(
					fmt.Sprintf("%d", r.Index+1),
					r.Record.ID,
					orDash(r.Record.Trade.Symbol),
					output.RiskLevel(a.RiskLevel),
					output.Method(a.AnalysisMethod),
					FormatConfidence(a.ConfidenceScore),
				)
			}
			table.Render()
			output.Println()
			output.Dim("%d analyzed, %d failed in %s", len(results)-failed, failed, FormatDuration(time.Since(start)))
			if failed > 0 {
				return fmt.Errorf("%d of %d submissions failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().IntP("workers", "w", 4, "Number of parallel analyses")
	return cmd
}

// analysisTimeout bounds a whole analysis including retries.
func analysisTimeout(app *App) time.Duration {
	per := 60 * time.Second
	attempts := 1
	if app.Config != nil {
		if app.Config.Coach.RequestTimeout > 0 {
			per = app.Config.Coach.RequestTimeout
		}
		attempts = max(app.Config.Coach.Retry.MaxAttempts, 1)
	}
	return per*time.Duration(attempts) + 10*time.Second
}

func submissionFromFlags(cmd *cobra.Command) (models.Submission, error) {
	f := cmd.Flags()
	var sub models.Submission

	sub.Emotional.PrimaryEmotion, _ = f.GetString("emotion")
	sub.Emotional.Intensity, _ = f.GetInt("intensity")
	sub.Emotional.SecondaryEmotions, _ = f.GetStringSlice("secondary")
	sub.Emotional.MentalClarity, _ = f.GetInt("clarity")
	sub.Emotional.StressLevel, _ = f.GetInt("stress")
	sub.Emotional.Confidence, _ = f.GetInt("confidence")
	sub.Emotional.Notes, _ = f.GetString("notes")

	sub.Trade.Symbol, _ = f.GetString("symbol")
	if f.Changed("direction") {
		direction, _ := f.GetString("direction")
		sub.Trade.Direction = models.ParseDirection(direction)
	}
	if f.Changed("result") {
		result, _ := f.GetString("result")
		sub.Trade.Result = models.ParseTradeResult(result)
	}
	sub.Trade.Timeframe, _ = f.GetString("timeframe")
	sub.Trade.Strategy, _ = f.GetString("strategy")
	sub.Trade.SetupType, _ = f.GetString("setup")
	sub.Trade.EntryPrice = optionalFloat(cmd, "entry")
	sub.Trade.ExitPrice = optionalFloat(cmd, "exit")
	sub.Trade.RiskRewardRatio = optionalFloat(cmd, "rr")

	sub.ImageURL, _ = f.GetString("image")

	if path, _ := f.GetString("market"); path != "" {
		market, err := readMarketContext(path)
		if err != nil {
			return sub, err
		}
		sub.Market = market
	}
	return sub, nil
}

// optionalFloat returns nil unless the flag was given.
func optionalFloat(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetFloat64(name)
	return models.Float(v)
}

func readMarketContext(path string) (*models.MarketContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading market context: %w", err)
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidJSON, "market context %s must be a JSON object", path)
	}
	var market models.MarketContext
	if err := json.Unmarshal(data, &market); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidJSON, "market context %s: %v", path, err)
	}
	return &market, nil
}

func readSubmissions(path string) ([]models.Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsArray() {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidJSON, "batch file %s must be a JSON array of submissions", path)
	}
	var subs []models.Submission
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidJSON, "batch file %s: %v", path, err)
	}
	return subs, nil
}

func printAnalysis(output *Output, trade models.TradeDetails, a models.AIAnalysis) {
	title := "Trade Psychology Analysis"
	if trade.Symbol != "" {
		title += " - " + trade.Symbol
	}
	output.Bold("%s", title)
	output.Printf("%s  Risk: %s  Confidence: %s\n",
		output.Method(a.AnalysisMethod), output.RiskLevel(a.RiskLevel), FormatConfidence(a.ConfidenceScore))
	if a.IsDemo() {
		output.Dim("Offline coaching rules%s", fallbackNote(a.DebugInfo))
	}
	output.Println()

	if a.Summary != "" {
		output.Printf("%s\n\n", a.Summary)
	}
	section(output, "Technical Observations", a.TechnicalObservations)
	section(output, "Psychological Insights", a.PsychologicalInsights)
	section(output, "Improvement Suggestions", a.ImprovementSuggestions)
	section(output, "Pattern Recognition", a.PatternRecognition)
	section(output, "Market Context", a.MarketContextInsights)

	output.Bold("Risk Management")
	output.Printf("  %s\n", a.RiskManagementAssessment)

	if d := a.DebugInfo; d != nil && len(d.DegradedSections) > 0 {
		output.Println()
		output.Warning("Partial reply from the model; generic points used for: %s", strings.Join(d.DegradedSections, ", "))
	}
}

func fallbackNote(d *models.DebugInfo) string {
	if d == nil {
		return ""
	}
	switch d.Reason {
	case models.ReasonMissingAPIKey:
		return " (no API key configured)"
	case models.ReasonCircuitOpen:
		return " (model temporarily disabled after repeated failures)"
	case models.ReasonRequestFailed:
		return fmt.Sprintf(" (model request failed after %d attempt(s): %s)", d.Attempts, d.Error)
	default:
		return ""
	}
}

func section(output *Output, title string, points []string) {
	if len(points) == 0 {
		return
	}
	output.Bold("%s", title)
	for _, p := range points {
		output.Printf("  • %s\n", p)
	}
	output.Println()
}
