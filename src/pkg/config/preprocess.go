package config

import (
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"receipt-digitizer/src/pkg/preprocess"
)

/*
PreprocessConfig is the file form of preprocess.Config. The toggles are
inverted (skip_*) so an omitted field means the stage runs.

A zero c is indistinguishable from a missing one and is replaced by the
default. A target_width above preprocess.MaxTargetWidth is capped.
*/
type PreprocessConfig struct {
	Mode              string  `json:"mode,omitempty"` // basic or advanced
	SkipDeskew        bool    `json:"skip_deskew,omitempty"`
	SkipShadowRemoval bool    `json:"skip_shadow_removal,omitempty"`
	TargetWidth       int     `json:"target_width,omitempty"`
	BlockSize         int     `json:"block_size,omitempty"`
	C                 float64 `json:"c,omitempty"`
	DenoiseKernel     int     `json:"denoise_kernel,omitempty"`
}

func DefaultPreprocessConfig() PreprocessConfig {
	defaults := preprocess.DefaultConfig()
	return PreprocessConfig{
		Mode:          string(preprocess.ModeAdvanced),
		TargetWidth:   defaults.TargetWidth,
		BlockSize:     defaults.BlockSize,
		C:             defaults.C,
		DenoiseKernel: defaults.DenoiseKernel,
	}
}

func initializePreprocessConfig(local *PreprocessConfig) *PreprocessConfig {
	defaultConfig := DefaultPreprocessConfig()
	if local == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "preprocess", "not provided", "default preprocess config")
		return &defaultConfig
	}

	cfg := *local
	tl.ApplyDefaults(&cfg, defaultConfig, func(field string, defVal any) {
		tl.Log(
			tl.Info, palette.Purple,
			"%s field is %s in %s configuration. Using default value: %v",
			field, "missing", "preprocess", tl.PrettyForStderr(defVal),
		)
	})
	if cfg.TargetWidth > preprocess.MaxTargetWidth {
		tl.Log(
			tl.Warning, palette.PurpleBright, "%s '%d' is %s, capping to '%d'",
			"target_width", cfg.TargetWidth, "too large", preprocess.MaxTargetWidth,
		)
		cfg.TargetWidth = preprocess.MaxTargetWidth
	}
	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "preprocess", "provided", "local preprocess config")
	return &cfg
}

// PipelineConfig converts the file form into the value passed to preprocess.Run.
func (p PreprocessConfig) PipelineConfig() preprocess.Config {
	return preprocess.Config{
		ApplyDeskew:        !p.SkipDeskew,
		ApplyShadowRemoval: !p.SkipShadowRemoval,
		TargetWidth:        p.TargetWidth,
		BlockSize:          p.BlockSize,
		C:                  p.C,
		DenoiseKernel:      p.DenoiseKernel,
	}
}

func (p PreprocessConfig) PipelineMode() (preprocess.Mode, error) {
	return preprocess.ParseMode(p.Mode)
}
