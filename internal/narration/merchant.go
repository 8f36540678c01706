package narration

import (
	"strings"
	"unicode/utf8"
)

// MerchantIdentifier reduces a raw narration to a lowercase key of one to
// three words, used to group similar transactions.
func MerchantIdentifier(raw string) string {
	words := strings.Fields(Normalize(raw))
	switch {
	case len(words) == 0:
		return ""
	case len(words) == 1:
		return strings.ToLower(words[0])
	case utf8.RuneCountInString(words[0]) <= 3 && len(words) >= 3:
		return strings.ToLower(strings.Join(words[:3], " "))
	default:
		return strings.ToLower(strings.Join(words[:2], " "))
	}
}
