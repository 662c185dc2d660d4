package ocr

import (
	"bytes"
	"context"

	"github.com/otiai10/gosseract/v2"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-digitizer/src/pkg/preprocess"
)

// Tesseract is a Recognizer backed by gosseract. A new client is created per
// call, so one value can be shared between goroutines.
type Tesseract struct {
	Language      string
	PageSegMode   gosseract.PageSegMode
	MinConfidence float64
	Variables     map[string]string
}

// NewTesseract builds the text recognizer from the ocr config.
func NewTesseract(cfg Config) *Tesseract {
	variables := map[string]string{
		// Keep multiple spaces between columns (item name ... price).
		"preserve_interword_spaces": "1",
	}
	if cfg.CharBlacklist != "" {
		variables["tessedit_char_blacklist"] = cfg.CharBlacklist
	}
	return &Tesseract{
		Language:      cfg.Language,
		PageSegMode:   gosseract.PageSegMode(cfg.PageSegMode),
		MinConfidence: cfg.MinConfidence,
		Variables:     variables,
	}
}

// NewNumericTesseract biases the classifier toward digits and separators. Its
// output feeds ExtractAmountCandidates.
func NewNumericTesseract(cfg Config) *Tesseract {
	return &Tesseract{
		Language:    cfg.Language,
		PageSegMode: gosseract.PageSegMode(cfg.PageSegMode),
		Variables: map[string]string{
			"tessedit_char_whitelist":   "0123456789.,",
			"classify_bln_numeric_mode": "1",
			"preserve_interword_spaces": "1",
		},
	}
}

/*
Recognize runs tesseract on r and returns one span per text line.

The raster is handed over as PNG bytes. Lines under MinConfidence are dropped.
ctx is only checked before the (blocking) recognition starts.
*/
func (t *Tesseract) Recognize(ctx context.Context, r *preprocess.Raster) (spans []TextSpan, e *xerr.Error) {
	err := ctx.Err()
	if err != nil {
		return nil, xerr.NewError(err, "context done before OCR", t.Language)
	}

	var png bytes.Buffer
	err = preprocess.EncodePNG(&png, r)
	if err != nil {
		return nil, xerr.NewError(err, "encode raster as PNG for OCR", t.Language)
	}

	client := gosseract.NewClient()
	defer func() {
		_ = client.Close()
	}()

	err = client.SetLanguage(t.Language)
	if err != nil {
		return nil, xerr.NewError(err, "unable to client.SetLanguage", t.Language)
	}
	for name, value := range t.Variables {
		err = client.SetVariable(gosseract.SettableVariable(name), value)
		if err != nil {
			return nil, xerr.NewError(err, "unable to client.SetVariable", name)
		}
	}
	err = client.SetPageSegMode(t.PageSegMode)
	if err != nil {
		return nil, xerr.NewError(err, "unable to client.SetPageSegMode", t.PageSegMode)
	}
	err = client.SetImageFromBytes(png.Bytes())
	if err != nil {
		return nil, xerr.NewError(err, "unable to client.SetImageFromBytes", png.Len())
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, xerr.NewError(err, "unable to run OCR on image", t.Language)
	}

	spans = make([]TextSpan, 0, len(boxes))
	for _, box := range boxes {
		spans = append(spans, TextSpan{Text: box.Word, Box: box.Box, Confidence: box.Confidence})
	}
	kept := FilterSpans(spans, t.MinConfidence)

	tl.Log(
		tl.Info1, palette.Green, "OCR found '%d' lines, kept '%d' (min confidence %.0f)",
		len(spans), len(kept), t.MinConfidence,
	)
	return kept, nil
}
