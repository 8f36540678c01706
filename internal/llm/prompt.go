package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-statements/internal/model"
)

const batchSystemPrompt = "You are a forensic accountant categorizing Indian and international bank statement narrations. " +
	"You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, markdown formatting, " +
	"or commentary before or after the JSON. Start your response directly with { and end with }."

// heuristic is a named hint included verbatim in every batch prompt.
type heuristic struct {
	name string
	rule string
}

var forensicHeuristics = []heuristic{
	{"upi_merchant", "In a 'UPI-X-Y' narration the merchant is usually X; Y is often a UPI handle or bank."},
	{"gateway_noise", "Ignore payment gateway and bank names (RAZORPAY, PAYU, CASHFREE, BILLDESK, PAYTM, HDFC, ICICI, SBI) when naming the merchant."},
	{"healthcare", "Words like HOSPITAL, CLINIC, PHARMACY, MEDICAL, CHEMIST, DIAGNOSTIC or LAB map to Healthcare."},
	{"grocery_apps", "ZEPTO, BLINKIT, BIGBASKET, INSTAMART, DMART, JIOMART and GROFERS map to Groceries."},
	{"food_delivery", "SWIGGY and ZOMATO orders map to Food Delivery unless the narration says INSTAMART."},
	{"telecom", "AIRTEL, JIO, VI, VODAFONE, BSNL and ACT FIBERNET recharges or bills map to Telecom."},
	{"fuel", "Fuel stations such as HPCL, BPCL, IOCL, INDIAN OIL, SHELL or words like PETROL and FUEL map to Fuel."},
	{"emi", "Narrations with EMI, LOAN or NACH debits from a lender map to Loan & EMI."},
	{"salary", "Credits containing SALARY or SAL map to Salary."},
	{"cash", "ATM or cash withdrawal narrations map to Cash Withdrawal."},
	{"person_transfer", "A transfer to or from what looks like a person's name maps to Transfers."},
	{"unknown", "If you cannot tell, use Other with a low confidence rather than guessing."},
}

// buildBatchPrompt renders the user prompt for one batch of narrations.
func buildBatchPrompt(items []model.BatchItem, categories []string) (string, error) {
	payload, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to marshal batch items: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Categorize each bank transaction narration below.\n\n")

	sb.WriteString("CATEGORIES (use exactly one of these names):\n")
	for _, c := range categories {
		sb.WriteString("- ")
		sb.WriteString(c)
		sb.WriteString("\n")
	}

	sb.WriteString("\nHEURISTICS:\n")
	for _, h := range forensicHeuristics {
		fmt.Fprintf(&sb, "- [%s] %s\n", h.name, h.rule)
	}

	sb.WriteString("\nFor every item return the merchant name, the category, ")
	sb.WriteString("a single lowercase keyword that would identify this merchant in future narrations, ")
	sb.WriteString("a confidence from 0 to 100 and a short reasoning.\n\n")

	sb.WriteString("TRANSACTIONS:\n")
	sb.Write(payload)
	sb.WriteString("\n\n")

	sb.WriteString(`Respond with JSON in exactly this shape:
{"categorizations": [{"id": 0, "merchant": "Swiggy", "category": "Food Delivery", "keyword": "swiggy", "confidence": 92, "reasoning": "food delivery app"}]}
Return one entry per transaction id.`)

	return sb.String(), nil
}
