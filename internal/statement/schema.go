package statement

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/spice-statements/internal/common"
	"github.com/Veraticus/spice-statements/internal/model"
)

// maxHeaderScan is how many leading rows are searched for the header row.
// Bank exports often put account details above the table.
const maxHeaderScan = 25

var headerSplit = regexp.MustCompile(`[^\p{L}\p{N}]+`)

type column int

const (
	columnNone column = iota
	columnSkip
	columnDate
	columnValueDate
	columnDescription
	columnAmount
	columnWithdrawal
	columnDeposit
	columnType
	columnCategory
)

// headerRule maps any of its tokens (or token pairs) to a column role.
// Rules are evaluated in order; the first hit wins.
var headerRules = []struct {
	tokens []string
	role   column
}{
	{[]string{"balance", "bal", "closing", "chq", "cheque", "check", "ref", "reference", "sl", "serial", "sno"}, columnSkip},
	{[]string{"value"}, columnValueDate},
	{[]string{"date", "dt", "posted", "posting"}, columnDate},
	{[]string{"category"}, columnCategory},
	{[]string{"type", "dr cr", "cr dr"}, columnType},
	{[]string{"withdrawal", "withdrawals", "debit", "debits", "dr", "paid out", "money out", "spent"}, columnWithdrawal},
	{[]string{"deposit", "deposits", "credit", "credits", "cr", "paid in", "money in", "received"}, columnDeposit},
	{[]string{"amount", "amt", "inr", "sum"}, columnAmount},
	{[]string{"narration", "description", "particulars", "details", "remarks", "memo", "payee", "merchant", "name", "transaction"}, columnDescription},
}

// DetectSchema maps header cells to transaction fields. It requires a
// narration column and at least one money column.
func DetectSchema(header []string) (model.SchemaMapping, error) {
	m := model.EmptySchemaMapping()
	valueDate := -1

	for i, cell := range header {
		switch classifyHeader(cell) {
		case columnDate:
			setOnce(&m.DateField, i)
		case columnValueDate:
			setOnce(&valueDate, i)
		case columnDescription:
			setOnce(&m.DescriptionField, i)
		case columnAmount:
			setOnce(&m.AmountField, i)
		case columnWithdrawal:
			setOnce(&m.WithdrawalField, i)
		case columnDeposit:
			setOnce(&m.DepositField, i)
		case columnType:
			setOnce(&m.TypeField, i)
		case columnCategory:
			setOnce(&m.CategoryField, i)
		}
	}

	if m.DateField < 0 {
		m.DateField = valueDate
	}

	if m.DescriptionField < 0 {
		return m, fmt.Errorf("%w: no narration column in %q", common.ErrSchemaNotRecognized, header)
	}
	if m.AmountField < 0 && m.WithdrawalField < 0 && m.DepositField < 0 {
		return m, fmt.Errorf("%w: no amount column in %q", common.ErrSchemaNotRecognized, header)
	}
	return m, nil
}

// findHeader returns the index and mapping of the first row that looks like a header.
func findHeader(rows [][]string) (int, model.SchemaMapping, error) {
	limit := min(len(rows), maxHeaderScan)
	for i := 0; i < limit; i++ {
		if m, err := DetectSchema(rows[i]); err == nil {
			return i, m, nil
		}
	}
	return -1, model.EmptySchemaMapping(), fmt.Errorf("%w: no header row in the first %d rows", common.ErrSchemaNotRecognized, limit)
}

func classifyHeader(cell string) column {
	tokens := headerSplit.Split(strings.ToLower(strings.TrimSpace(cell)), -1)
	words := tokens[:0]
	for _, t := range tokens {
		if t != "" {
			words = append(words, t)
		}
	}
	if len(words) == 0 {
		return columnNone
	}

	for _, rule := range headerRules {
		for _, tok := range rule.tokens {
			if containsPhrase(words, strings.Fields(tok)) {
				return rule.role
			}
		}
	}
	return columnNone
}

func containsPhrase(words, phrase []string) bool {
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, p := range phrase {
			if words[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func setOnce(field *int, i int) {
	if *field < 0 {
		*field = i
	}
}
