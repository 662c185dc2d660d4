package server

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"receipt-digitizer/src/pkg/preprocess"
)

/*
preprocessParams reads the per-request overrides:

	mode=basic|advanced
	skip_deskew=true  skip_shadow_removal=true
	target_width=2000 block_size=11 c=2 denoise_kernel=3

Missing values fall back to the server defaults. Malformed values and a
target_width above maxTargetWidth are reported as
*preprocess.InvalidParameterError so they answer 400 like structural
violations do.
*/
func preprocessParams(c echo.Context, mode preprocess.Mode, cfg preprocess.Config, maxTargetWidth int) (preprocess.Mode, preprocess.Config, error) {
	var err error
	if raw := c.QueryParam("mode"); raw != "" {
		mode, err = preprocess.ParseMode(raw)
		if err != nil {
			return mode, cfg, err
		}
	}

	var skipDeskew, skipShadows bool
	skipDeskew, err = boolParam(c, "skip_deskew", !cfg.ApplyDeskew)
	if err != nil {
		return mode, cfg, err
	}
	skipShadows, err = boolParam(c, "skip_shadow_removal", !cfg.ApplyShadowRemoval)
	if err != nil {
		return mode, cfg, err
	}
	cfg.ApplyDeskew, cfg.ApplyShadowRemoval = !skipDeskew, !skipShadows

	for name, target := range map[string]*int{
		"target_width":   &cfg.TargetWidth,
		"block_size":     &cfg.BlockSize,
		"denoise_kernel": &cfg.DenoiseKernel,
	} {
		*target, err = intParam(c, name, *target)
		if err != nil {
			return mode, cfg, err
		}
	}

	if limit := targetWidthLimit(maxTargetWidth); cfg.TargetWidth > limit {
		return mode, cfg, &preprocess.InvalidParameterError{Stage: "request", Param: "target_width", Value: cfg.TargetWidth, Reason: "must be at most " + strconv.Itoa(limit)}
	}

	if raw := c.QueryParam("c"); raw != "" {
		cfg.C, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return mode, cfg, malformed("c", raw, "must be a number")
		}
	}
	return mode, cfg, nil
}

// targetWidthLimit is the configured bound, never above preprocess.MaxTargetWidth.
func targetWidthLimit(configured int) int {
	if configured <= 0 {
		return preprocess.MaxTargetWidth
	}
	return min(configured, preprocess.MaxTargetWidth)
}

func boolParam(c echo.Context, name string, fallback bool) (bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, malformed(name, raw, "must be true or false")
	}
	return value, nil
}

func intParam(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, malformed(name, raw, "must be an integer")
	}
	return value, nil
}

func malformed(name, raw, reason string) error {
	return &preprocess.InvalidParameterError{Stage: "request", Param: name, Value: raw, Reason: reason}
}
