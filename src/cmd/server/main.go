package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-digitizer/src/pkg/config"
	echomw "receipt-digitizer/src/pkg/echo-middleware"
	"receipt-digitizer/src/pkg/export"
	"receipt-digitizer/src/pkg/receipt"
	"receipt-digitizer/src/pkg/server"
)

/*
main serves the receipt API until SIGINT/SIGTERM.

RECEIPT_API_BEARER_TOKEN guards /api. /api/receipts needs OPENAI_API_KEY
unless -ocr-only is set.
*/
func main() {
	// Common flags.
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")

	// Program-specific flags.
	outputDirPath := flag.String("out", "./out/api", "Directory for the run directories of /api/receipts.")
	ocrOnly := flag.Bool("ocr-only", false, "Answer /api/receipts with OCR text only (no LLM).")

	flag.Parse()
	config.CheckIfEnvVarsPresent(echomw.EnvAPIBearerToken)
	if !*ocrOnly {
		config.CheckIfEnvVarsPresent("OPENAI_API_KEY")
	}
	config.InitializeConfig(*configPath)

	mode, err := config.Cfg.Preprocess.PipelineMode()
	xerr.QuitIfError(err, "read preprocess mode from config")

	digitizer, e := receipt.NewDigitizerFromConfig(!*ocrOnly)
	e.QuitIf(xerr.ErrorTypeError)

	s := server.New(server.Options{
		Server:      echomw.Cfg,
		BearerToken: os.Getenv(echomw.EnvAPIBearerToken),
		Mode:        mode,
		Preprocess:  config.Cfg.Preprocess.PipelineConfig(),
		Digitizer:   digitizer,
		OutDir:      *outputDirPath,
		Export:      export.Cfg,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e = s.Start(ctx)
	e.QuitIf(xerr.ErrorTypeError)
	tl.Log(tl.Notice1, palette.GreenBold, "%s", "Receipt API stopped")
}
