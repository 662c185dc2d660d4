package main

import (
	"context"
	"flag"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-digitizer/src/pkg/config"
	"receipt-digitizer/src/pkg/ocr"
	"receipt-digitizer/src/pkg/receipt"
	"receipt-digitizer/src/pkg/util"
)

/*
main preprocesses one image and runs tesseract on it. The run directory gets
orig.<ext>, clean.png, compare.png, report.json, spans.json, ocr.txt and
amounts.json.
*/
func main() {
	// Common flags.
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")

	// Program-specific flags.
	imagePath := flag.String("image", "", "Path to the receipt image to process.")
	outputDirPath := flag.String("out", "./out", "Directory where processed images and OCR text will be stored.")
	language := flag.String("language", "", "Tesseract languages, e.g. jpn+eng, eng, spa+eng (default from config). \"tesseract --list-langs\"")

	// Parse and initialize config.
	flag.Parse()
	util.RequiredFlag(imagePath, "image")
	util.EnsureFlags()
	config.InitializeConfig(*configPath)
	if *language != "" {
		ocr.Cfg.Language = *language
	}

	tl.Log(
		tl.Notice, palette.BlueBold, "%s entrypoint. Config path: '%s'",
		"Running OCR", *configPath,
	)

	options, e := receipt.OCROptionsFromConfig()
	e.QuitIf(xerr.ErrorTypeError)

	result, e := ocr.ProcessImage(context.Background(), *imagePath, *outputDirPath, options)
	e.QuitIf(xerr.ErrorTypeError)

	tl.Log(tl.Verbose, palette.BlueDim, "OCR text:\n```\n%s\n```", result.Text)
	tl.Log(tl.Notice1, palette.GreenBold, "%s. Results stored in '%s'", "OCR run completed", result.RunDir)
}
