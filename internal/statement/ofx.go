package statement

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-statements/internal/model"
)

var (
	ofxSeverity = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	ofxOpenTag  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocessOFX fixes common formatting issues in bank-exported OFX files.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = ofxSeverity.ReplaceAllStringFunc(content, strings.ToUpper)
	// SGML files sometimes drop the closing bracket of a bare opening tag.
	return ofxOpenTag.ReplaceAllString(content, "$1>")
}

// parseOFX converts bank and credit card statements in an OFX/QFX file.
func (p *Parser) parseOFX(r io.Reader) ([]model.Transaction, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var txns []model.Transaction
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			bankStmts++
			for _, t := range stmt.BankTranList.Transactions {
				txns = append(txns, convertOFXTransaction(t))
			}
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			ccStmts++
			for _, t := range stmt.BankTranList.Transactions {
				txns = append(txns, convertOFXTransaction(t))
			}
		}
	}

	p.logger.Debug("Parsed OFX file",
		"transactions", len(txns),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return txns, nil
}

func convertOFXTransaction(t ofxgo.Transaction) model.Transaction {
	amount, err := decimal.NewFromString(t.TrnAmt.Rat.FloatString(2))
	if err != nil {
		amount = decimal.Zero
	}

	direction := model.DirectionIncome
	if amount.IsNegative() {
		direction = model.DirectionExpense
	}

	txn := model.Transaction{
		ID:        string(t.FiTID),
		Date:      t.DtPosted.Time,
		Name:      ofxNarration(t),
		Amount:    amount.Abs(),
		Direction: direction,
		Status:    model.StatusUnseen,
	}
	if t.Payee != nil && t.Payee.Name != "" {
		txn.MerchantName = string(t.Payee.Name)
	}
	if txn.ID == "" {
		txn.ID = txn.GenerateHash()
	}
	txn.Hash = txn.GenerateHash()
	return txn
}

// ofxNarration prefers NAME, falling back to MEMO when NAME is generic.
func ofxNarration(t ofxgo.Transaction) string {
	name := strings.TrimSpace(string(t.Name))
	if name == "" && t.Payee != nil {
		name = strings.TrimSpace(string(t.Payee.Name))
	}
	if memo := strings.TrimSpace(string(t.Memo)); memo != "" && isGenericDescription(name) {
		name = memo
	}
	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "", "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	default:
		return false
	}
}
