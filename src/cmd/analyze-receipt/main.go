package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-digitizer/src/pkg/config"
	"receipt-digitizer/src/pkg/export"
	"receipt-digitizer/src/pkg/llm"
	"receipt-digitizer/src/pkg/ocr"
	"receipt-digitizer/src/pkg/util"
)

/*
main structures an OCR text file produced by the ocr program. amounts.json
next to it is used as hints when present. The result is saved as
receipt.json and receipt.csv in the same directory.
*/
func main() {
	// Ensure required environment variables are present.
	config.CheckIfEnvVarsPresent("OPENAI_API_KEY")
	// Common flags.
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")
	// Program-specific flags.
	ocrTextPath := flag.String("ocr-text", "", "Path to the OCR text file to analyze.")
	imagePath := flag.String("image", "", "Original photo, attached when llm.attach_image is on.")
	// Parse flags and initialize config.
	flag.Parse()
	util.RequiredFlag(ocrTextPath, "ocr-text")
	util.EnsureFlags()
	config.InitializeConfig(*configPath)

	tl.Log(
		tl.Notice, palette.BlueBold, "%s entrypoint. Config path: '%s'",
		"Running receipt analysis", *configPath,
	)

	ocrBytes, readErr := os.ReadFile(*ocrTextPath)
	xerr.QuitIfError(readErr, "read OCR text file")
	runDir := filepath.Dir(*ocrTextPath)

	var amounts []string
	amountsPath := filepath.Join(runDir, "amounts.json")
	if _, statErr := os.Stat(amountsPath); statErr == nil {
		var e *xerr.Error
		amounts, e = llm.ReadAmountCandidatesFromFile(amountsPath)
		e.QuitIf(xerr.ErrorTypeError)
	}
	tl.Log(
		tl.Info1, palette.Cyan, "Loaded OCR text from '%s' (length: %d, amount hints: %d)",
		*ocrTextPath, len(ocrBytes), len(amounts),
	)

	structurer := llm.NewOpenAIStructurer(llm.Cfg)
	structured, e := structurer.Structure(context.Background(), llm.Input{
		OCRText:          string(ocrBytes),
		AmountCandidates: amounts,
		ImagePath:        *imagePath,
	})
	e.QuitIf(xerr.ErrorTypeError)

	tl.LogJSON(tl.Info, palette.Cyan, "Receipt", structured)

	e = ocr.SaveJSONToFile(filepath.Join(runDir, "receipt.json"), structured)
	e.QuitIf(xerr.ErrorTypeError)
	e = export.SaveCSV(filepath.Join(runDir, "receipt.csv"), []llm.Receipt{structured}, export.Cfg)
	e.QuitIf(xerr.ErrorTypeError)

	tl.Log(tl.Notice1, palette.GreenBold, "%s", "Receipt analysis generated and saved successfully")
}
