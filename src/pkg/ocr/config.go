package ocr

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"receipt-digitizer/src/pkg/util"
)

type Config struct {
	Language      string  `json:"language,omitempty"`       // tesseract language codes, e.g. "jpn+eng"
	PageSegMode   int     `json:"page_seg_mode,omitempty"`  // tesseract --psm
	MinConfidence float64 `json:"min_confidence,omitempty"` // 0..100, lines below are dropped
	CharBlacklist string  `json:"char_blacklist,omitempty"`
	NumericPass   bool    `json:"numeric_pass,omitempty"` // second digits-only pass for amount hints
}

func DefaultValueConfig() Config {
	return Config{
		Language:      "jpn+eng",
		PageSegMode:   6, // single uniform block of text
		MinConfidence: 30,
		CharBlacklist: "+",
	}
}

var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "ocr", "not provided", "default ocr config")
		return
	}

	defaultConfig := DefaultValueConfig()
	Cfg = *localConfig

	tl.ApplyDefaults(&Cfg, defaultConfig, func(field string, defVal any) {
		tl.Log(
			tl.Info, palette.Purple,
			"%s field is %s in %s configuration. Using default value: %v",
			field, "missing", util.GetPackageName(), tl.PrettyForStderr(defVal),
		)
	})

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "ocr", "provided", "local ocr config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", util.GetPackageName()), Cfg)
}
