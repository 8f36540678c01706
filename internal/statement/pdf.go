package statement

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-statements/internal/model"
)

var (
	pdfLineDate = regexp.MustCompile(`^(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}|\d{1,2}[ \-][A-Za-z]{3}[ \-]\d{2,4}|\d{4}-\d{2}-\d{2})\s+(.+)$`)
	pdfAmount   = regexp.MustCompile(`^\(?-?(?:₹|\$|Rs\.?)?[\d,]*\d\.\d{2}\)?(?:Dr|Cr|DR|CR)?$`)
	pdfDrCr     = regexp.MustCompile(`^(?i:dr|cr)\.?$`)

	pdfBalanceLine = regexp.MustCompile(`(?i)\b(?:opening|closing)\s+balance\b|\bbalance\s+(?:b/?f|brought\s+forward)\b`)
)

// parsePDF extracts statement lines from a text PDF. A line is a transaction
// when it starts with a date and ends with one or more amounts; with two or
// more amounts the last is the running balance.
func (p *Parser) parsePDF(r io.Reader) ([]model.Transaction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	pages, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}

	lines, err := pdfLines(data)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Extracted PDF text", "pages", pages, "lines", len(lines))

	return parseStatementLines(lines), nil
}

func pdfLines(data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var lines []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", i, err)
		}
		for _, row := range rows {
			if line := joinRow(row.Content); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines, nil
}

// joinRow rebuilds a text line, inserting a space where runs are visibly apart.
func joinRow(texts pdf.TextHorizontal) string {
	var b strings.Builder
	end := 0.0
	for i, t := range texts {
		if i > 0 && t.X-end > 1.0 {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		end = t.X + t.W
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// parseStatementLines applies the line grammar to extracted text.
func parseStatementLines(lines []string) []model.Transaction {
	var txns []model.Transaction
	var balance *decimal.Decimal

	for _, line := range lines {
		m := pdfLineDate.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		words := strings.Fields(m[2])
		amounts, narration := splitTrailingAmounts(words)
		if len(amounts) == 0 || narration == "" {
			continue
		}

		if pdfBalanceLine.MatchString(narration) {
			if bal, err := ParseAmount(amounts[len(amounts)-1]); err == nil {
				balance = &bal
			}
			continue
		}

		token := amounts[0]
		if len(amounts) >= 2 {
			token = amounts[len(amounts)-2]
		}
		amount, err := ParseAmount(token)
		if err != nil {
			continue
		}

		var newBalance *decimal.Decimal
		if len(amounts) >= 2 {
			if bal, err := ParseAmount(amounts[len(amounts)-1]); err == nil {
				newBalance = &bal
			}
		}

		direction := model.DirectionExpense
		switch {
		case hasCreditMarker(token):
			direction = model.DirectionIncome
		case hasDebitMarker(token), amount.IsNegative():
			direction = model.DirectionExpense
		case balance != nil && newBalance != nil && newBalance.GreaterThan(*balance):
			direction = model.DirectionIncome
		}
		if newBalance != nil {
			balance = newBalance
		}

		txn := model.Transaction{
			ID:        uuid.NewString(),
			Name:      narration,
			Amount:    amount.Abs(),
			Direction: direction,
			Status:    model.StatusUnseen,
		}
		if t, ok := ParseDate(m[1]); ok {
			txn.Date = t
		} else {
			txn.RawDate = m[1]
		}
		txn.Hash = txn.GenerateHash()
		txns = append(txns, txn)
	}
	return txns
}

// splitTrailingAmounts pops amount tokens off the end of words, folding a
// separate Dr/Cr marker into the amount before it.
func splitTrailingAmounts(words []string) ([]string, string) {
	var amounts []string
	i := len(words)
	for i > 0 {
		w := words[i-1]
		if pdfDrCr.MatchString(w) && i > 1 && pdfAmount.MatchString(words[i-2]) {
			amounts = append([]string{words[i-2] + w}, amounts...)
			i -= 2
			continue
		}
		if !pdfAmount.MatchString(w) {
			break
		}
		amounts = append([]string{w}, amounts...)
		i--
	}
	return amounts, strings.Join(words[:i], " ")
}

func hasCreditMarker(s string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSuffix(s, ".")), "cr")
}

func hasDebitMarker(s string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSuffix(s, ".")), "dr")
}
