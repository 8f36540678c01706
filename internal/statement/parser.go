// Package statement parses uploaded bank statements into transactions.
package statement

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-statements/internal/common"
	"github.com/Veraticus/spice-statements/internal/model"
)

// Format identifies a statement file type.
type Format string

// Supported statement formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatPDF  Format = "pdf"
	FormatOFX  Format = "ofx"
)

// Parser reads statement files of every supported format.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new statement parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// DetectFormat returns the statement format implied by the file name.
func DetectFormat(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	case ".pdf":
		return FormatPDF, nil
	case ".ofx", ".qfx":
		return FormatOFX, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, fileName)
	}
}

// Parse reads a statement and returns its transactions. Every failure wraps
// common.ErrParseFailed.
func (p *Parser) Parse(ctx context.Context, fileName string, r io.Reader) ([]model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := DetectFormat(fileName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrParseFailed, err)
	}

	var txns []model.Transaction
	switch format {
	case FormatOFX:
		txns, err = p.parseOFX(r)
	case FormatPDF:
		txns, err = p.parsePDF(r)
	default:
		var rows [][]string
		rows, err = p.readRows(format, r)
		if err == nil {
			txns, err = p.parseRows(rows)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrParseFailed, fileName, err)
	}

	if len(txns) == 0 {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrParseFailed, fileName, common.ErrNoTransactions)
	}

	p.logger.Info("Parsed statement",
		"file", fileName,
		"format", format,
		"transactions", len(txns))

	return txns, nil
}

func (p *Parser) readRows(format Format, r io.Reader) ([][]string, error) {
	switch format {
	case FormatCSV:
		return readCSV(r)
	case FormatXLSX:
		return readXLSX(r)
	case FormatXLS:
		return readXLS(r)
	default:
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, format)
	}
}

// parseRows locates the header row and converts the rows below it.
func (p *Parser) parseRows(rows [][]string) ([]model.Transaction, error) {
	headerIdx, mapping, err := findHeader(rows)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Detected statement schema",
		"header_row", headerIdx,
		"mapping", fmt.Sprintf("%+v", mapping))

	var txns []model.Transaction
	skipped := 0
	for _, row := range rows[headerIdx+1:] {
		txn, ok := buildTransaction(row, mapping)
		if !ok {
			if appendContinuation(txns, row, mapping) {
				continue
			}
			skipped++
			continue
		}
		txns = append(txns, txn)
	}

	for i := range txns {
		txns[i].Hash = txns[i].GenerateHash()
	}

	if skipped > 0 {
		p.logger.Debug("Skipped non-transaction rows", "count", skipped)
	}
	return txns, nil
}

// buildTransaction converts one data row. Rows without a narration or a
// parseable amount are rejected.
func buildTransaction(row []string, m model.SchemaMapping) (model.Transaction, bool) {
	narration := cell(row, m.DescriptionField)
	if narration == "" {
		return model.Transaction{}, false
	}

	amount, direction, ok := rowAmount(row, m)
	if !ok {
		return model.Transaction{}, false
	}

	txn := model.Transaction{
		ID:        uuid.NewString(),
		Name:      narration,
		Amount:    amount,
		Direction: direction,
		Category:  cell(row, m.CategoryField),
		Status:    model.StatusUnseen,
	}

	raw := cell(row, m.DateField)
	if t, ok := ParseDate(raw); ok {
		txn.Date = t
	} else {
		txn.RawDate = raw
	}
	return txn, true
}

// rowAmount resolves the amount and direction from whichever money columns exist.
func rowAmount(row []string, m model.SchemaMapping) (amount decimal.Decimal, direction model.Direction, ok bool) {
	if w, err := ParseAmount(cell(row, m.WithdrawalField)); err == nil && !w.IsZero() {
		return w.Abs(), model.DirectionExpense, true
	}
	if d, err := ParseAmount(cell(row, m.DepositField)); err == nil && !d.IsZero() {
		return d.Abs(), model.DirectionIncome, true
	}

	a, err := ParseAmount(cell(row, m.AmountField))
	if err != nil {
		return decimal.Zero, "", false
	}

	direction = model.DirectionIncome
	if a.IsNegative() {
		direction = model.DirectionExpense
	}
	if dir, known := typeDirection(cell(row, m.TypeField)); known {
		direction = dir
	}
	return a.Abs(), direction, true
}

// typeDirection interprets a transaction type column such as "Dr" or "CREDIT".
func typeDirection(raw string) (model.Direction, bool) {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(raw), ".")) {
	case "dr", "d", "debit", "withdrawal", "expense", "payment", "purchase":
		return model.DirectionExpense, true
	case "cr", "c", "credit", "deposit", "income", "refund":
		return model.DirectionIncome, true
	default:
		return "", false
	}
}

// appendContinuation joins a narration-only row onto the previous transaction.
// Some banks wrap long narrations across rows.
func appendContinuation(txns []model.Transaction, row []string, m model.SchemaMapping) bool {
	if len(txns) == 0 {
		return false
	}
	extra := cell(row, m.DescriptionField)
	if !strings.ContainsFunc(extra, unicode.IsLetter) {
		return false
	}
	for i := range row {
		if i != m.DescriptionField && cell(row, i) != "" {
			return false
		}
	}
	last := &txns[len(txns)-1]
	last.Name = last.Name + " " + extra
	return true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
