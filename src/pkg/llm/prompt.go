package llm

import (
	"strings"

	"receipt-digitizer/src/pkg/openai"
)

const instructions = `
The text below is the OCR output of a shop receipt. It may contain typos and
misread characters. Extract the receipt information and answer with a single
JSON object in exactly this shape, without any commentary:

{
  "store_name": "store name",
  "date": "YYYY-MM-DD",
  "items": [
    {"name": "product name", "quantity": number, "price": number}
  ],
  "total": number
}

Rules:
- Use null for anything you cannot determine. Do not guess.
- price is the amount charged for the line, as printed.
- Amounts are plain numbers without currency signs or thousand separators.
- Do not invent products that the text does not mention.
- Discounts, tax lines, payment and change lines are not items.
`

/*
BuildPrompt returns the instructions and the user message for one receipt.
amountCandidates are regex hints from the numeric OCR pass and may be empty.
*/
func BuildPrompt(ocrText string, amountCandidates []string) (systemInstructions string, userMessage string) {
	var builder strings.Builder
	builder.WriteString("OCR text:\n")
	builder.WriteString("=== OCR TEXT START ===\n")
	builder.WriteString(strings.TrimSpace(ocrText))
	builder.WriteString("\n=== OCR TEXT END ===\n\n")

	builder.WriteString("Amount candidates (regex hints, may be incomplete):\n")
	if len(amountCandidates) == 0 {
		builder.WriteString("- (none)\n")
	}
	for _, amount := range amountCandidates {
		builder.WriteString("- ")
		builder.WriteString(amount)
		builder.WriteString("\n")
	}
	return strings.TrimSpace(instructions), builder.String()
}

// receiptSchema is the strict structured-output schema matching Receipt.
func receiptSchema() map[string]any {
	item := openai.StrictObj(map[string]any{
		"name":     openai.Nullable("string", "Product name as printed, without the price."),
		"quantity": openai.Nullable("number", "Quantity, null when not printed."),
		"price":    openai.Nullable("number", "Amount charged for the line."),
	})
	return openai.StrictObj(map[string]any{
		"store_name": openai.Nullable("string", "Store name."),
		"date":       openai.Nullable("string", "Purchase date as YYYY-MM-DD."),
		"items": map[string]any{
			"type":        "array",
			"description": "Purchased items in receipt order.",
			"items":       item,
		},
		"total": openai.Nullable("number", "Total amount charged."),
	})
}
