package ocr

import (
	"context"
	"image"
	"strings"

	"github.com/tuumbleweed/xerr"

	"receipt-digitizer/src/pkg/preprocess"
)

// TextSpan is one recognized line with its box in the preprocessed image.
type TextSpan struct {
	Text       string          `json:"text"`
	Box        image.Rectangle `json:"box"`
	Confidence float64         `json:"confidence"` // 0..100
}

// Recognizer turns a binary raster into text spans, top to bottom.
type Recognizer interface {
	Recognize(ctx context.Context, r *preprocess.Raster) ([]TextSpan, *xerr.Error)
}

// JoinSpans returns the span texts one per line, skipping empty ones.
func JoinSpans(spans []TextSpan) string {
	lines := make([]string, 0, len(spans))
	for _, span := range spans {
		text := strings.TrimSpace(span.Text)
		if text == "" {
			continue
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}

// FilterSpans keeps spans with Confidence >= minConfidence, preserving order.
func FilterSpans(spans []TextSpan, minConfidence float64) []TextSpan {
	kept := make([]TextSpan, 0, len(spans))
	for _, span := range spans {
		if span.Confidence >= minConfidence {
			kept = append(kept, span)
		}
	}
	return kept
}
