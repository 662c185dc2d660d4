package preprocess

import "fmt"

// Config holds the toggles and tunables of PreprocessAdvanced. It is passed by
// value per call; there is no package-level state.
type Config struct {
	ApplyDeskew        bool    `json:"apply_deskew"`
	ApplyShadowRemoval bool    `json:"apply_shadow_removal"`
	TargetWidth        int     `json:"target_width"`
	BlockSize          int     `json:"block_size"`
	C                  float64 `json:"c"`
	DenoiseKernel      int     `json:"denoise_kernel"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ApplyDeskew:        true,
		ApplyShadowRemoval: true,
		TargetWidth:        2000,
		BlockSize:          11,
		C:                  2,
		DenoiseKernel:      3,
	}
}

// Validate checks every structural constraint up front so a bad config fails
// before any pixel is touched.
func (c Config) Validate() error {
	if c.TargetWidth <= 0 {
		return &InvalidParameterError{Stage: "config", Param: "target_width", Value: c.TargetWidth, Reason: "must be positive"}
	}
	if c.TargetWidth > MaxTargetWidth {
		return &InvalidParameterError{Stage: "config", Param: "target_width", Value: c.TargetWidth, Reason: fmt.Sprintf("must be at most %d", MaxTargetWidth)}
	}
	if c.BlockSize < 3 || c.BlockSize%2 == 0 {
		return &InvalidParameterError{Stage: "config", Param: "block_size", Value: c.BlockSize, Reason: "must be odd and >= 3"}
	}
	return requireOddPositive("config", "denoise_kernel", c.DenoiseKernel)
}
