package ocr

import (
	"regexp"
	"strings"
)

// amountTokenRegexp matches a whole token that looks like a money amount:
//   - 1.29, 12,50        decimal separator with 1-2 digits after it
//   - 1,280  12.345,67   thousand groups, optional decimals
//   - 298                only when a currency sign was stripped off the token
var (
	amountTokenRegexp = regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{1,2})?$|^\d+[.,]\d{1,2}$`)
	bareNumberRegexp  = regexp.MustCompile(`^\d+$`)
)

const currencySigns = "¥￥$€£円"

/*
ExtractAmountCandidates scans OCR text for tokens that look like prices and
returns them in reading order with duplicates removed.

Dates (2024-03-18), times (14:22), quantities (x12) and bare integers are
ignored; a bare integer counts only next to a currency sign (¥298, 298円).
The result is passed to the structuring step as hints, it is not a parse.
*/
func ExtractAmountCandidates(text string) []string {
	amounts := make([]string, 0)
	seen := make(map[string]bool)

	for _, token := range strings.Fields(text) {
		token = strings.TrimRight(token, ":;)")
		trimmed := strings.Trim(token, currencySigns)
		hadCurrency := trimmed != token
		token = trimmed

		if !amountTokenRegexp.MatchString(token) && !(hadCurrency && bareNumberRegexp.MatchString(token)) {
			continue
		}
		if !seen[token] {
			seen[token] = true
			amounts = append(amounts, token)
		}
	}
	return amounts
}
