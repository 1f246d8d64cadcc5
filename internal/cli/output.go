// Package cli provides the command-line interface for tradecoach.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tradecoach/internal/models"
)

// Output handles formatted output for the CLI.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput creates a new Output instance.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &Output{
		writer:       cmd.OutOrStdout(),
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && !color.NoColor,
	}
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON outputs data as JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...interface{}) {
	o.line(color.FgGreen, format, args...)
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...interface{}) {
	o.line(color.FgRed, format, args...)
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...interface{}) {
	o.line(color.FgYellow, format, args...)
}

// Info prints an info message in cyan.
func (o *Output) Info(format string, args ...interface{}) {
	o.line(color.FgCyan, format, args...)
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...interface{}) {
	o.line(color.Bold, format, args...)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.line(color.Faint, format, args...)
}

func (o *Output) line(attr color.Attribute, format string, args ...interface{}) {
	fmt.Fprintln(o.writer, o.paint(attr, fmt.Sprintf(format, args...)))
}

// paint wraps text in the attribute's escape codes when colour is enabled.
func (o *Output) paint(attr color.Attribute, text string) string {
	if !o.colorEnabled {
		return text
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(text)
}

// Green returns green colored text.
func (o *Output) Green(text string) string { return o.paint(color.FgGreen, text) }

// Red returns red colored text.
func (o *Output) Red(text string) string { return o.paint(color.FgRed, text) }

// Yellow returns yellow colored text.
func (o *Output) Yellow(text string) string { return o.paint(color.FgYellow, text) }

// Cyan returns cyan colored text.
func (o *Output) Cyan(text string) string { return o.paint(color.FgCyan, text) }

// Magenta returns magenta colored text.
func (o *Output) Magenta(text string) string { return o.paint(color.FgMagenta, text) }

// DimText returns dimmed text.
func (o *Output) DimText(text string) string { return o.paint(color.Faint, text) }

// RiskLevel renders a risk level with its traffic-light colour.
func (o *Output) RiskLevel(level models.RiskLevel) string {
	label := strings.ToUpper(string(level))
	switch level {
	case models.RiskElevated:
		return o.Red("▲ " + label)
	case models.RiskModerate:
		return o.Yellow("● " + label)
	case models.RiskAcceptable:
		return o.Green("▼ " + label)
	default:
		return label
	}
}

// Method renders the analysis method tag.
func (o *Output) Method(method models.AnalysisMethod) string {
	if method == models.MethodExternal {
		return o.Magenta("[AI]")
	}
	return o.Cyan("[OFFLINE]")
}

// Result renders a trade outcome.
func (o *Output) Result(result models.TradeResult) string {
	switch result {
	case models.ResultWin:
		return o.Green(string(result))
	case models.ResultLoss:
		return o.Red(string(result))
	case models.ResultBreakeven:
		return o.Yellow(string(result))
	default:
		return o.DimText("-")
	}
}

// Table represents a simple table for output.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

// NewTable creates a new table.
func NewTable(output *Output, headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		output:  output,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render renders the table.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visibleLen(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && visibleLen(cell) > widths[i] {
				widths[i] = visibleLen(cell)
			}
		}
	}

	t.printRow(t.headers, widths, true)
	t.printSeparator(widths)
	for _, row := range t.rows {
		t.printRow(row, widths, false)
	}
}

func (t *Table) printRow(cells []string, widths []int, isHeader bool) {
	var parts []string
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		padded := cell + strings.Repeat(" ", widths[i]-visibleLen(cell))
		if isHeader {
			padded = t.output.paint(color.Bold, padded)
		}
		parts = append(parts, padded)
	}
	t.output.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
}

func (t *Table) printSeparator(widths []int) {
	var parts []string
	for _, w := range widths {
		parts = append(parts, strings.Repeat("─", w))
	}
	t.output.Println(t.output.DimText(strings.Join(parts, "  ")))
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// stripANSI removes ANSI escape codes from a string.
func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func visibleLen(s string) int {
	return len([]rune(stripANSI(s)))
}
