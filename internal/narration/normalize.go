// Package narration cleans raw bank transaction narrations and derives
// stable merchant keys from them.
package narration

import (
	"regexp"
	"strings"
)

// transactionPrefixes are channel markers banks put in front of a narration.
var transactionPrefixes = []string{
	"UPI", "POS", "NEFT", "IMPS", "RTGS", "ACH", "ECS", "NACH", "ATM",
	"BIL", "BILLPAY", "MMT", "INB", "VPS", "IPS", "ECOM", "TRF", "DR", "CR",
	"TO", "BY",
}

// noiseTokens are bank, payment app and reference markers that never name a merchant.
var noiseTokens = []string{
	"HDFC", "ICICI", "SBI", "SBIN", "AXIS", "KOTAK", "PNB", "BOB", "CANARA",
	"IDFC", "INDUSIND", "YESBANK", "FEDERAL", "BANK",
	"PAYTM", "PHONEPE", "GPAY", "GOOGLEPAY", "BHIM", "AMAZONPAY", "MOBIKWIK",
	"RAZORPAY", "CASHFREE", "BILLDESK", "PAYU",
	"YBL", "IBL", "AXL", "APL", "OKAXIS", "OKHDFCBANK", "OKICICI", "OKSBI",
	"REF", "TXN", "UTR", "RRN",
}

var (
	ifscToken     = regexp.MustCompile(`(?i)\b[a-z]{4}0[a-z0-9]{6}\b`)
	camelBoundary = regexp.MustCompile(`(\p{Ll})(\p{Lu})`)
	letterDigit   = regexp.MustCompile(`(\p{L})(\p{N})`)
	digitLetter   = regexp.MustCompile(`(\p{N})(\p{L})`)
	leadingNoise  = regexp.MustCompile(`^[\s/\-:_.*#]+`)
	prefixPattern = regexp.MustCompile(`^(?:` + strings.Join(transactionPrefixes, "|") + `)(?:[\s/\-:_.*#]+|$)`)
	longDigitRun  = regexp.MustCompile(`\d{8,}`)
	dateDigitRun  = regexp.MustCompile(`\b\d{6,8}\b`)
	slashDate     = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)
	handlePattern = regexp.MustCompile(`[\p{L}\p{N}._]+@[\p{L}\p{N}._]+`)
	noisePattern  = regexp.MustCompile(`\b(?:` + strings.Join(noiseTokens, "|") + `)\d*\b`)
	punctuation   = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	spaces        = regexp.MustCompile(`\s+`)
)

// Normalize returns an upper-cased, whitespace-normalized narration with
// channel prefixes, IFSC codes, reference numbers, dates, UPI handles and
// bank names removed. If nothing survives, the trimmed upper-cased input is
// returned instead.
func Normalize(raw string) string {
	s := splitBoundaries(raw)
	s = strings.ToUpper(s)
	s = stripPrefixes(s)

	s = ifscToken.ReplaceAllString(s, " ")

	s = slashDate.ReplaceAllString(s, " ")
	s = longDigitRun.ReplaceAllString(s, " ")
	s = dateDigitRun.ReplaceAllString(s, " ")

	s = handlePattern.ReplaceAllString(s, " ")
	s = noisePattern.ReplaceAllString(s, " ")

	s = punctuation.ReplaceAllString(s, " ")
	s = strings.TrimSpace(spaces.ReplaceAllString(s, " "))

	// Removals can expose a prefix that was buried behind a code.
	s = stripPrefixes(s)

	if s == "" {
		return strings.ToUpper(strings.TrimSpace(raw))
	}
	return s
}

// splitBoundaries inserts spaces at camelCase and letter/digit boundaries.
// IFSC-shaped tokens are left intact so they can be recognized later.
func splitBoundaries(s string) string {
	locs := ifscToken.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return splitSegment(s)
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(splitSegment(s[last:loc[0]]))
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(splitSegment(s[last:]))
	return b.String()
}

func splitSegment(s string) string {
	s = camelBoundary.ReplaceAllString(s, "$1 $2")
	s = letterDigit.ReplaceAllString(s, "$1 $2")
	return digitLetter.ReplaceAllString(s, "$1 $2")
}

func stripPrefixes(s string) string {
	for {
		s = leadingNoise.ReplaceAllString(s, "")
		loc := prefixPattern.FindStringIndex(s)
		if loc == nil {
			return strings.TrimSpace(s)
		}
		s = s[loc[1]:]
	}
}
