package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/weekly-ranker/internal/audit"
	"github.com/wonny/weekly-ranker/internal/contracts"
	"github.com/wonny/weekly-ranker/internal/selection"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a formatted command header
func PrintHeader(title string, fields ...string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	if len(fields) > 0 {
		PrintSeparator()
		for i := 0; i+1 < len(fields); i += 2 {
			PrintKeyValue(fields[i], fields[i+1], 10)
		}
	}
	PrintDoubleSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	for i := 0; i < totalWidth; i++ {
		fmt.Print("─")
	}
	fmt.Println()
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintReport prints processed/skipped counts of a stage report with skip reasons
func PrintReport(report *contracts.RunReport) {
	if report == nil {
		return
	}
	PrintKeyValue("Processed", fmt.Sprintf("%d", report.Processed()), 10)
	PrintKeyValue("Skipped", fmt.Sprintf("%d", report.Skipped()), 10)

	reasons := report.SkipsByReason()
	keys := make([]string, 0, len(reasons))
	for r := range reasons {
		keys = append(keys, string(r))
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("     - %s: %d\n", k, reasons[contracts.SkipReason(k)])
	}
}

// PrintRanking prints the top of a ranked list as a table
func PrintRanking(records []contracts.PredictionRecord) {
	widths := []int{4, 16, 12, 10, 12, 8}
	PrintTableHeader([]string{"#", "Stock", "Last Close", "Pred 1W", "Target", "Move %"}, widths)
	for _, row := range selection.Rows(records) {
		move := "-"
		if m, ok := row.ExpectedMove(); ok {
			move = m.StringFixed(2)
		}
		PrintTableRow([]string{
			fmt.Sprintf("%d", row.Rank),
			row.Stock,
			nullString(row.LastClose, 2),
			row.Pred1W.StringFixed(4),
			nullString(row.PredictedPrice, 2),
			move,
		}, widths)
	}
}

// PrintEvaluation prints an evaluation summary and its best and worst rows
func PrintEvaluation(view audit.View) {
	PrintKeyValue("Compared", fmt.Sprintf("%d", view.Compared), 12)
	PrintKeyValue("MAE", nullString(view.MAE, 4), 12)
	PrintKeyValue("Correlation", nullString(view.Correlation, 4), 12)

	widths := []int{16, 10, 10, 10}
	columns := []string{"Stock", "Pred 1W", "Actual", "Diff"}
	printRows := func(title string, rows []audit.RowView) {
		fmt.Println()
		fmt.Println(title)
		PrintTableHeader(columns, widths)
		for _, r := range rows {
			PrintTableRow([]string{r.Stock, nullString(r.Pred1W, 4), nullString(r.Actual1W, 4), nullString(r.Diff, 4)}, widths)
		}
	}
	printRows("Most accurate", view.MostAccurate)
	printRows("Largest misses", view.LargestMisses)
}

func nullString(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.StringFixed(places)
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}
