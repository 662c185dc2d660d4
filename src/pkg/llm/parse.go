package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tuumbleweed/xerr"
)

/*
StripCodeFence extracts the JSON payload from a model reply.

Handled shapes:
  - a bare JSON object
  - a fenced block, with or without a language tag (```json ... ```)
  - a fence without its closing marker (truncated output)
  - prose before or after the object or fence
*/
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)

	if start := strings.Index(text, "```"); start >= 0 {
		body := text[start+3:]
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		// Language tag sits on the opening line: ```json
		if newline := strings.IndexByte(body, '\n'); newline >= 0 {
			tag := strings.TrimSpace(body[:newline])
			if tag != "" && !strings.ContainsAny(tag, "{[") {
				body = body[newline+1:]
			}
		} else {
			body = strings.TrimPrefix(strings.TrimSpace(body), "json")
		}
		return strings.TrimSpace(body)
	}

	first := strings.IndexByte(text, '{')
	last := strings.LastIndexByte(text, '}')
	if first >= 0 && last > first {
		return text[first : last+1]
	}
	return text
}

// wireReceipt mirrors Receipt but keeps amounts raw so strings like "1,280" parse too.
type wireReceipt struct {
	StoreName *string         `json:"store_name"`
	Date      *string         `json:"date"`
	Items     []wireItem      `json:"items"`
	Total     json.RawMessage `json:"total"`
}

type wireItem struct {
	Name     *string         `json:"name"`
	Quantity json.RawMessage `json:"quantity"`
	Price    json.RawMessage `json:"price"`
}

/*
ParseReceipt turns a model reply into a Receipt.

The reply may be fenced or wrapped in prose (see StripCodeFence). Amounts may
be numbers or strings with currency signs and thousand separators; amounts
that cannot be read become null. A reply without a JSON object is an error.
*/
func ParseReceipt(text string) (receipt Receipt, e *xerr.Error) {
	payload := StripCodeFence(text)

	var wire wireReceipt
	err := json.Unmarshal([]byte(payload), &wire)
	if err != nil {
		return receipt, xerr.NewError(err, "parse receipt JSON from model reply", payload)
	}

	receipt.StoreName = blankToNil(wire.StoreName)
	receipt.Date = blankToNil(wire.Date)
	receipt.Total = parseAmount(wire.Total)
	receipt.Items = make([]Item, 0, len(wire.Items))
	for _, item := range wire.Items {
		receipt.Items = append(receipt.Items, Item{
			Name:     blankToNil(item.Name),
			Quantity: parseAmount(item.Quantity),
			Price:    parseAmount(item.Price),
		})
	}
	return receipt, nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// parseAmount reads a JSON number or string amount. null or garbage gives nil.
func parseAmount(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var number float64
	if json.Unmarshal(raw, &number) == nil {
		return &number
	}
	var text string
	if json.Unmarshal(raw, &text) != nil {
		return nil
	}
	value, err := parseAmountString(text)
	if err != nil {
		return nil
	}
	return &value
}

/*
parseAmountString accepts "1,280", "¥1,280", "1280円", "12.50", "12,50" and
"12.345,67". A single comma followed by exactly two digits, or a comma after
the last dot, is a decimal comma. Any other comma is a thousand separator.
*/
func parseAmountString(s string) (float64, error) {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "¥￥$€£円"))
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	lastComma, lastDot := strings.LastIndexByte(s, ','), strings.LastIndexByte(s, '.')
	if lastComma >= 0 && lastDot >= 0 && lastComma > lastDot {
		// 12.345,67
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else if strings.Count(s, ",") == 1 && lastDot < 0 {
		comma := strings.IndexByte(s, ',')
		if len(s)-comma-1 == 2 {
			s = s[:comma] + "." + s[comma+1:]
		}
	}
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}
