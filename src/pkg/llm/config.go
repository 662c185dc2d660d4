package llm

import (
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"receipt-digitizer/src/pkg/util"
)

type Config struct {
	Model             string `json:"model,omitempty"`
	ReasoningEffort   string `json:"reasoning_effort,omitempty"`
	MaxOutputTokens   int    `json:"max_output_tokens,omitempty"`
	RequestsPerMinute int    `json:"requests_per_minute,omitempty"`
	AttachImage       bool   `json:"attach_image,omitempty"` // also send the original photo
	BaseURL           string `json:"base_url,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		Model:             "gpt-5-mini",
		ReasoningEffort:   "low",
		MaxOutputTokens:   4096,
		RequestsPerMinute: 20,
		BaseURL:           "https://api.openai.com/v1",
	}
}

var Cfg Config = DefaultValueConfig()

/*
If local Config is provided - use it. Replace all missing values with default ones.

If not provided - just use defaultConfig.
*/
func InitializeConfig(localConfig *Config) {
	if localConfig == nil {
		tl.Log(tl.Info, palette.Purple, "%s config is %s, keeping %s", "llm", "not provided", "default llm config")
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

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", "llm", "provided", "local llm config")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", util.GetPackageName()), Cfg)
}
