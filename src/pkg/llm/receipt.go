package llm

import (
	"math"

	"receipt-digitizer/src/pkg/openai"
)

/*
Receipt is the structured form of one receipt. Every field is nullable: the
model is told to return null rather than guess, and a null survives all the
way to the CSV as an empty cell.
*/
type Receipt struct {
	StoreName *string  `json:"store_name"`
	Date      *string  `json:"date"` // YYYY-MM-DD
	Items     []Item   `json:"items"`
	Total     *float64 `json:"total"`

	SourceImage string              `json:"source_image,omitempty"`
	RunMetadata *openai.RunMetadata `json:"run_metadata,omitempty"`
}

type Item struct {
	Name     *string  `json:"name"`
	Quantity *float64 `json:"quantity"`
	Price    *float64 `json:"price"`
}

/*
ItemsSum adds up the item prices. ok is false when there are no items or any
price is missing, since the sum would then be meaningless.
*/
func (r Receipt) ItemsSum() (sum float64, ok bool) {
	if len(r.Items) == 0 {
		return 0, false
	}
	for _, item := range r.Items {
		if item.Price == nil {
			return 0, false
		}
		sum += *item.Price
	}
	return sum, true
}

// TotalMatches reports whether the item prices add up to Total within tolerance.
// Unknown totals or sums never match.
func (r Receipt) TotalMatches(tolerance float64) bool {
	sum, ok := r.ItemsSum()
	if !ok || r.Total == nil {
		return false
	}
	return math.Abs(sum-*r.Total) <= tolerance
}
