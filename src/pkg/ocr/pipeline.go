package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-digitizer/src/pkg/preprocess"
)

// Options selects the preprocessing path and the recognizers for ProcessImage.
type Options struct {
	Mode       preprocess.Mode
	Preprocess preprocess.Config
	Recognizer Recognizer
	// Numeric is an optional digits-only pass; its text feeds amount candidates.
	Numeric Recognizer
}

// Result is what ProcessImage produced for one image.
type Result struct {
	ImagePath        string            `json:"image_path"`
	RunDir           string            `json:"run_dir"`
	Text             string            `json:"text"`
	Spans            []TextSpan        `json:"spans"`
	AmountCandidates []string          `json:"amount_candidates"`
	Report           preprocess.Report `json:"report"`
}

/*
ProcessImage orchestrates the per-image OCR pipeline.

It performs the following steps:
 1. Validates the input image path and decodes it.
 2. Creates a per-run directory under outputDirPath.
 3. Copies the original image into it as orig.<ext>.
 4. Preprocesses it and saves clean.png, compare.png and report.json.
 5. Recognizes text on the clean image and saves spans.json and ocr.txt.
 6. Extracts amount candidates (from the numeric pass when configured) into
    amounts.json.

If any step fails, it returns a *xerr.Error describing the problem. A decode
failure happens before anything is written.
*/
func ProcessImage(ctx context.Context, imagePath string, outputDirPath string, options Options) (result Result, e *xerr.Error) {
	result.ImagePath = imagePath
	e = validateImagePath(imagePath)
	if e != nil {
		return result, e
	}
	if options.Recognizer == nil {
		return result, xerr.NewError(fmt.Errorf("no recognizer configured"), "process image", imagePath)
	}

	normalizedOutputDirPath := strings.TrimSpace(outputDirPath)
	if normalizedOutputDirPath == "" {
		normalizedOutputDirPath = "./out"
	}

	tl.Log(
		tl.Notice, palette.BlueBold, "%s image processing for '%s' into root '%s'",
		"Starting", imagePath, normalizedOutputDirPath,
	)

	original, err := preprocess.Load(imagePath)
	if err != nil {
		return result, xerr.NewError(err, "load image", imagePath)
	}

	e = ensureOutputDirectory(normalizedOutputDirPath)
	if e != nil {
		return result, e
	}
	result.RunDir, e = createRunDirectory(normalizedOutputDirPath, imagePath, time.Now())
	if e != nil {
		return result, e
	}

	originalExt := strings.ToLower(filepath.Ext(imagePath))
	if originalExt == "" {
		originalExt = ".jpg"
	}
	e = copyOriginalImage(imagePath, filepath.Join(result.RunDir, "orig"+originalExt))
	if e != nil {
		return result, e
	}

	var clean *preprocess.Raster
	clean, result.Report, e = createProcessedImage(original, options, result.RunDir)
	if e != nil {
		return result, e
	}

	result.Spans, e = options.Recognizer.Recognize(ctx, clean)
	if e != nil {
		return result, e
	}
	result.Text = JoinSpans(result.Spans)

	e = SaveJSONToFile(filepath.Join(result.RunDir, "spans.json"), result.Spans)
	if e != nil {
		return result, e
	}
	e = SaveTextToFile(filepath.Join(result.RunDir, "ocr.txt"), result.Text)
	if e != nil {
		return result, e
	}

	amountSource := result.Text
	if options.Numeric != nil {
		var numericSpans []TextSpan
		numericSpans, e = options.Numeric.Recognize(ctx, clean)
		if e != nil {
			return result, e
		}
		amountSource = JoinSpans(numericSpans)
		e = SaveTextToFile(filepath.Join(result.RunDir, "numbers-ocr.txt"), amountSource)
		if e != nil {
			return result, e
		}
	}
	result.AmountCandidates = ExtractAmountCandidates(amountSource)
	tl.Log(tl.Info, palette.Cyan, "Extracted amounts: '%s'", strings.Join(result.AmountCandidates, ", "))

	e = SaveJSONToFile(filepath.Join(result.RunDir, "amounts.json"), result.AmountCandidates)
	if e != nil {
		return result, e
	}

	tl.Log(
		tl.Info1, palette.Green, "Finished processing image '%s'. Run dir: '%s', %d lines recognized",
		imagePath, result.RunDir, len(result.Spans),
	)
	return result, nil
}

/*
validateImagePath ensures the image path is not empty and points to a regular
file.
*/
func validateImagePath(imagePath string) (e *xerr.Error) {
	if strings.TrimSpace(imagePath) == "" {
		err := fmt.Errorf("image path is empty")
		return xerr.NewError(err, "no input image path provided", imagePath)
	}
	info, err := os.Stat(imagePath)
	if err != nil {
		return xerr.NewError(err, "stat input image", imagePath)
	}
	if info.IsDir() {
		return xerr.NewError(fmt.Errorf("'%s' is a directory", imagePath), "input image is not a file", imagePath)
	}
	return nil
}

// IsImagePath reports whether path has one of the decodable image extensions.
func IsImagePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".webp", ".bmp", ".tif", ".tiff", ".gif":
		return true
	}
	return false
}

/*
ListImages returns the image files in dir (not recursive), sorted by name. A
path that is a file is returned as the only element.
*/
func ListImages(path string) (images []string, e *xerr.Error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, xerr.NewError(err, "stat input path", path)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, xerr.NewError(err, "read input directory", path)
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() && IsImagePath(entry.Name()) {
			images = append(images, filepath.Join(path, entry.Name()))
		}
	}
	return images, nil
}
