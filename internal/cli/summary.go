package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/spice-statements/internal/model"
	"github.com/Veraticus/spice-statements/internal/service"
)

const maxNarrationWidth = 48

// RenderSummary renders the outcome of a categorization run.
func RenderSummary(fileName string, summary service.CategorizationSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("File:"), fileName)
	fmt.Fprintf(&b, "%s %d\n", BoldStyle.Render("Transactions:"), summary.TotalTransactions)
	fmt.Fprintf(&b, "%s %d preset, %d matched locally\n",
		SuccessStyle.Render(SuccessIcon+" Memory bank:"), summary.Preset, summary.LocalMatches)

	if summary.Batches > 0 {
		fmt.Fprintf(&b, "%s %d unique narrations in %d batches, %d categorized\n",
			InfoStyle.Render(RobotIcon+" Classifier:"), summary.UniqueNarrations, summary.Batches, summary.AIMatched)
	}
	if summary.FailedBatches > 0 {
		b.WriteString(FormatWarning(fmt.Sprintf("%d batches failed and were left as Other", summary.FailedBatches)))
		b.WriteString("\n")
	}
	if summary.StillOther > 0 {
		fmt.Fprintf(&b, "%s %d\n", WarningStyle.Render("Still Other:"), summary.StillOther)
	}
	if summary.NewKeywords > 0 {
		fmt.Fprintf(&b, "%s %d\n", SuccessStyle.Render(BookIcon+" New keywords:"), summary.NewKeywords)
	}

	if len(summary.ByCategory) > 0 {
		b.WriteString("\n")
		b.WriteString(BoldStyle.Render(ChartIcon + " By category"))
		b.WriteString("\n")
		for _, name := range sortedCategories(summary.ByCategory) {
			fmt.Fprintf(&b, "  %-28s %d\n", name, summary.ByCategory[name])
		}
	}

	fmt.Fprintf(&b, "\n%s", SubtleStyle.Render("Completed in "+summary.Duration.Round(1e6).String()))

	return RenderBox("Categorization complete", b.String())
}

// sortedCategories orders categories by descending count then name.
func sortedCategories(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// RenderTransactions renders transactions as an aligned table.
func RenderTransactions(transactions []model.Transaction) string {
	headers := []string{"Date", "Narration", "Amount", "Category", "Status"}
	rows := make([][]string, 0, len(transactions))
	for _, txn := range transactions {
		date := txn.RawDate
		if !txn.Date.IsZero() {
			date = txn.Date.Format("2006-01-02")
		}
		amount := txn.Amount.StringFixed(2)
		if txn.Direction == model.DirectionExpense {
			amount = "-" + amount
		}
		rows = append(rows, []string{date, truncate(txn.Name, maxNarrationWidth), amount, txn.Category, string(txn.Status)})
	}

	return renderTable(headers, rows, func(row []string, col int, cell string) string {
		if col == 4 {
			return StatusStyle(model.ClassificationStatus(row[4])).Render(cell)
		}
		return cell
	})
}

// RenderKeywordRules renders a user's stored keyword rules.
func RenderKeywordRules(rules []model.KeywordRule) string {
	headers := []string{"Keyword", "Category", "Source", "Updated"}
	rows := make([][]string, 0, len(rules))
	for _, rule := range rules {
		rows = append(rows, []string{rule.Keyword, rule.Category, string(rule.Source), rule.UpdatedAt.Format("2006-01-02")})
	}
	return renderTable(headers, rows, nil)
}

// RenderUsage renders a usage summary.
func RenderUsage(summary *model.UsageSummary) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("%s %d", BoldStyle.Render("Calls:"), summary.Calls),
		fmt.Sprintf("%s %d", BoldStyle.Render("Prompt tokens:"), summary.PromptTokens),
		fmt.Sprintf("%s %d", BoldStyle.Render("Completion tokens:"), summary.CompletionTokens),
		fmt.Sprintf("%s %d", BoldStyle.Render("Total tokens:"), summary.TotalTokens),
		fmt.Sprintf("%s $%.4f", BoldStyle.Render("Estimated cost:"), summary.EstimatedCost),
	)
	return RenderBox(RobotIcon+" Classifier usage for "+summary.UserID, content)
}

func renderTable(headers []string, rows [][]string, style func(row []string, col int, cell string) string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	headerCells := make([]string, len(headers))
	for i, h := range headers {
		headerCells[i] = TableCellStyle.Width(widths[i] + 2).Render(h)
	}
	b.WriteString(TableHeaderStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, headerCells...)))
	b.WriteString("\n")

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			text := cell
			if style != nil {
				text = style(row, i, cell)
			}
			cells[i] = TableCellStyle.Width(widths[i] + 2).Render(text)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
