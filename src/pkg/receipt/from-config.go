package receipt

import (
	"github.com/tuumbleweed/xerr"

	"receipt-digitizer/src/pkg/config"
	"receipt-digitizer/src/pkg/export"
	"receipt-digitizer/src/pkg/llm"
	"receipt-digitizer/src/pkg/ocr"
)

/*
NewDigitizerFromConfig builds a Digitizer from the initialized configuration:
tesseract recognizers from the ocr section, the OpenAI structurer and its
throttle from the llm section. withStructurer=false gives an OCR-only
Digitizer that needs no API key.
*/
func NewDigitizerFromConfig(withStructurer bool) (digitizer *Digitizer, e *xerr.Error) {
	options, e := OCROptionsFromConfig()
	if e != nil {
		return nil, e
	}

	digitizer = &Digitizer{
		OCR:    options,
		Export: export.Cfg,
	}
	if withStructurer {
		digitizer.Structurer = llm.NewOpenAIStructurer(llm.Cfg)
		digitizer.Limiter = NewLimiter(llm.Cfg.RequestsPerMinute)
	}
	return digitizer, nil
}

// OCROptionsFromConfig maps the preprocess and ocr sections to ocr.Options.
func OCROptionsFromConfig() (options ocr.Options, e *xerr.Error) {
	mode, err := config.Cfg.Preprocess.PipelineMode()
	if err != nil {
		return options, xerr.NewError(err, "read preprocess mode from config", config.Cfg.Preprocess.Mode)
	}

	options = ocr.Options{
		Mode:       mode,
		Preprocess: config.Cfg.Preprocess.PipelineConfig(),
		Recognizer: ocr.NewTesseract(ocr.Cfg),
	}
	if ocr.Cfg.NumericPass {
		options.Numeric = ocr.NewNumericTesseract(ocr.Cfg)
	}
	return options, nil
}
