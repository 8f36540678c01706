package statement

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/spice-statements/internal/common"
	"github.com/Veraticus/spice-statements/internal/model"
)

const sampleCSV = "\ufeffStatement for A/C XXXX1234\n" +
	"\n" +
	"Date,Narration,Chq./Ref.No.,Value Dt,Withdrawal Amt.,Deposit Amt.,Closing Balance\n" +
	"01/03/24,UPI-SWIGGY-swiggy@icici-ref123456789,0000123456789,01/03/24,250.00,,9750.00\n" +
	"02/03/24,NEFT CR-HDFC0001234-ACME CORP PVT LTD,N0612345,02/03/24,,\"50,000.00\",59750.00\n" +
	"03/03/24,POS 416021XXXXXX1234 BIG BAZAAR,,03/03/24,\"1,200.50\",,58549.50\n" +
	",MUMBAI,,,,,\n" +
	"********,,,,,,\n"

func TestParse_CSV(t *testing.T) {
	p := NewParser(nil)

	txns, err := p.Parse(context.Background(), "statement.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, txns, 3)

	assert.Equal(t, "UPI-SWIGGY-swiggy@icici-ref123456789", txns[0].Name)
	assert.Equal(t, "250", txns[0].Amount.String())
	assert.Equal(t, model.DirectionExpense, txns[0].Direction)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), txns[0].Date)

	assert.Equal(t, "50000", txns[1].Amount.String())
	assert.Equal(t, model.DirectionIncome, txns[1].Direction)

	assert.Equal(t, "POS 416021XXXXXX1234 BIG BAZAAR MUMBAI", txns[2].Name)
	assert.Equal(t, "1200.5", txns[2].Amount.String())

	for _, txn := range txns {
		assert.NotEmpty(t, txn.ID)
		assert.Equal(t, txn.GenerateHash(), txn.Hash)
	}
}

func TestParse_CSVAmountAndType(t *testing.T) {
	data := "Txn Date;Description;Amount;Type;Category\n" +
		"2024-03-05;Salary March;85000;CR;Salary\n" +
		"2024-03-06;NETFLIX.COM;649;DR;\n" +
		"sometime;REFUND AMAZON;-120.00;;\n"

	txns, err := NewParser(nil).Parse(context.Background(), "export.CSV", strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, txns, 3)

	assert.Equal(t, model.DirectionIncome, txns[0].Direction)
	assert.Equal(t, "Salary", txns[0].Category)
	assert.Equal(t, model.StatusUnseen, txns[0].Status)
	assert.Equal(t, model.DirectionExpense, txns[1].Direction)
	assert.Empty(t, txns[1].Category)

	assert.Equal(t, model.DirectionExpense, txns[2].Direction)
	assert.True(t, txns[2].Date.IsZero())
	assert.Equal(t, "sometime", txns[2].RawDate)
}

func TestParse_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Bank of Somewhere"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Date", "Particulars", "Debit", "Credit", "Balance"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"05-03-2024", "UPI-ZEPTO-xyz@icici", "499.00", "", "1000.00"}))
	require.NoError(t, f.SetSheetRow(sheet, "A5", &[]any{"06-03-2024", "INTEREST CREDIT", "", "12.34", "1012.34"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	txns, err := NewParser(nil).Parse(context.Background(), "statement.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, "UPI-ZEPTO-xyz@icici", txns[0].Name)
	assert.Equal(t, model.DirectionExpense, txns[0].Direction)
	assert.Equal(t, model.DirectionIncome, txns[1].Direction)
	assert.Equal(t, "12.34", txns[1].Amount.String())
}

const sampleOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>1500.00
<FITID>2024012001
<NAME>CREDIT
<MEMO>PAYROLL ACME INC
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestParse_OFX(t *testing.T) {
	txns, err := NewParser(nil).Parse(context.Background(), "export.qfx", strings.NewReader(sampleOFX))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, "2024011501", txns[0].ID)
	assert.Equal(t, "STARBUCKS STORE #1234", txns[0].Name)
	assert.Equal(t, "25.5", txns[0].Amount.String())
	assert.Equal(t, model.DirectionExpense, txns[0].Direction)
	assert.Equal(t, 2024, txns[0].Date.Year())

	assert.Equal(t, "PAYROLL ACME INC", txns[1].Name)
	assert.Equal(t, model.DirectionIncome, txns[1].Direction)
}

func TestPreprocessOFX(t *testing.T) {
	in := "\n\n<OFX>\n<SEVERITY>Info</SEVERITY>\n<CODE\n"
	out := preprocessOFX(in)
	assert.Equal(t, "<OFX>\n<SEVERITY>INFO</SEVERITY>\n<CODE>\n", out)
}

func TestParseStatementLines(t *testing.T) {
	lines := []string{
		"Statement of Account",
		"Date Narration Withdrawal Deposit Balance",
		"01/03/2024 Opening Balance 10,000.00",
		"02/03/2024 UPI-SWIGGY-swiggy@icici-ref123456789 250.00 9,750.00",
		"03/03/2024 NEFT CR ACME CORP PVT LTD 5,000.00 14,750.00",
		"04/03/2024 ATM WDL 040324 MG ROAD 2,000.00 Dr 12,750.00",
		"05/03/2024 REFUND 100.00Cr",
		"Page 1 of 1",
	}

	txns := parseStatementLines(lines)
	require.Len(t, txns, 4)

	assert.Equal(t, "UPI-SWIGGY-swiggy@icici-ref123456789", txns[0].Name)
	assert.Equal(t, model.DirectionExpense, txns[0].Direction)
	assert.Equal(t, "250", txns[0].Amount.String())

	assert.Equal(t, "NEFT CR ACME CORP PVT LTD", txns[1].Name)
	assert.Equal(t, model.DirectionIncome, txns[1].Direction)

	assert.Equal(t, "ATM WDL 040324 MG ROAD", txns[2].Name)
	assert.Equal(t, model.DirectionExpense, txns[2].Direction)
	assert.Equal(t, "2000", txns[2].Amount.String())

	assert.Equal(t, "REFUND", txns[3].Name)
	assert.Equal(t, model.DirectionIncome, txns[3].Direction)
}

func TestParse_Errors(t *testing.T) {
	p := NewParser(nil)
	ctx := context.Background()

	_, err := p.Parse(ctx, "statement.docx", strings.NewReader("x"))
	require.ErrorIs(t, err, common.ErrParseFailed)
	require.ErrorIs(t, err, common.ErrUnsupportedFormat)

	_, err = p.Parse(ctx, "statement.csv", strings.NewReader("Date,Narration,Amount\n"))
	require.ErrorIs(t, err, common.ErrParseFailed)
	require.ErrorIs(t, err, common.ErrNoTransactions)

	_, err = p.Parse(ctx, "statement.csv", strings.NewReader("just,some,numbers\n1,2,3\n"))
	require.ErrorIs(t, err, common.ErrSchemaNotRecognized)

	_, err = p.Parse(ctx, "statement.pdf", strings.NewReader("not a pdf"))
	require.ErrorIs(t, err, common.ErrParseFailed)
}

func TestParse_PDF(t *testing.T) {
	f, err := os.Open("testdata/statement.pdf")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	txns, err := NewParser(nil).Parse(context.Background(), "statement.pdf", f)
	require.NoError(t, err)
	require.Len(t, txns, 2)

	names := []string{txns[0].Name, txns[1].Name}
	assert.ElementsMatch(t, []string{
		"UPI-SWIGGY-swiggy@icici-ref123456789",
		"NEFT CR ACME CORP PVT LTD",
	}, names)
	for _, txn := range txns {
		assert.Equal(t, model.StatusUnseen, txn.Status)
		assert.NotEmpty(t, txn.Hash)
		assert.False(t, txn.Date.IsZero(), txn.Name)
	}
}

func TestParse_XLSErrors(t *testing.T) {
	p := NewParser(nil)
	ctx := context.Background()

	_, err := p.Parse(ctx, "statement.xls", strings.NewReader("not a workbook"))
	require.ErrorIs(t, err, common.ErrParseFailed)
	assert.ErrorContains(t, err, "failed to open workbook")

	// A zip-based workbook is not a BIFF file.
	var buf bytes.Buffer
	wb := excelize.NewFile()
	require.NoError(t, wb.SetCellValue("Sheet1", "A1", "Date"))
	require.NoError(t, wb.Write(&buf))
	require.NoError(t, wb.Close())

	_, err = p.Parse(ctx, "statement.xls", &buf)
	require.ErrorIs(t, err, common.ErrParseFailed)
}

func TestDetectFormat(t *testing.T) {
	for name, want := range map[string]Format{
		"a.csv":  FormatCSV,
		"a.XLSX": FormatXLSX,
		"a.xls":  FormatXLS,
		"a.pdf":  FormatPDF,
		"a.ofx":  FormatOFX,
		"a.qfx":  FormatOFX,
	} {
		got, err := DetectFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}
