/*
Package config loads the JSON configuration file and hands every section to
the package that owns it.

	{
	  "preprocess": {"mode": "advanced", "skip_deskew": false, "block_size": 11},
	  "ocr":        {"language": "jpn+eng"},
	  "llm":        {"model": "gpt-5-mini"},
	  "export":     {"delimiter": ","},
	  "email":      {"provider": "mailgun", "sender": "receipts@example.com"},
	  "server":     {"port": 8401},
	  "workers":    2
	}

Missing sections keep their defaults, missing fields are filled from the
defaults and logged. Secrets never live here; they come from the environment.
*/
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	echomw "receipt-digitizer/src/pkg/echo-middleware"
	"receipt-digitizer/src/pkg/email"
	"receipt-digitizer/src/pkg/export"
	"receipt-digitizer/src/pkg/llm"
	"receipt-digitizer/src/pkg/ocr"
)

type Config struct {
	Preprocess *PreprocessConfig `json:"preprocess,omitempty"`
	OCR        *ocr.Config       `json:"ocr,omitempty"`
	LLM        *llm.Config       `json:"llm,omitempty"`
	Export     *export.Config    `json:"export,omitempty"`
	Email      *email.Config     `json:"email,omitempty"`
	Server     *echomw.Config    `json:"server,omitempty"`
	Workers    int               `json:"workers,omitempty"` // concurrent images in batch runs
}

func DefaultValueConfig() Config {
	preprocessConfig := DefaultPreprocessConfig()
	return Config{
		Preprocess: &preprocessConfig,
		Workers:    2,
	}
}

// create config with default values before config gets initialized
var Cfg Config = DefaultValueConfig()

/*
InitializeConfig reads configPath and initializes every section.

A missing file is not an error: the defaults are kept and a line is logged.
An unreadable or malformed file quits the program.
*/
func InitializeConfig(configPath string) {
	local, e := readConfigFile(configPath)
	e.QuitIf(xerr.ErrorTypeError)
	applyConfig(local)
}

func readConfigFile(configPath string) (local *Config, e *xerr.Error) {
	fileBytes, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		tl.Log(tl.Info, palette.Purple, "%s file '%s' is %s, keeping %s", "Config", configPath, "missing", "default configuration")
		return nil, nil
	}
	if err != nil {
		return nil, xerr.NewError(err, "read config file", configPath)
	}

	local = &Config{}
	err = json.Unmarshal(fileBytes, local)
	if err != nil {
		return nil, xerr.NewError(err, "parse config file", configPath)
	}
	tl.Log(tl.Info, palette.Green, "%s file '%s' %s", "Config", configPath, "loaded")
	return local, nil
}

func applyConfig(local *Config) {
	if local == nil {
		local = &Config{}
	}

	Cfg = DefaultValueConfig()
	Cfg.Preprocess = initializePreprocessConfig(local.Preprocess)
	if local.Workers > 0 {
		Cfg.Workers = local.Workers
	}

	ocr.InitializeConfig(local.OCR)
	llm.InitializeConfig(local.LLM)
	export.InitializeConfig(local.Export)
	email.InitializeConfig(local.Email)
	echomw.InitializeConfig(local.Server)

	Cfg.OCR = &ocr.Cfg
	Cfg.LLM = &llm.Cfg
	Cfg.Export = &export.Cfg
	Cfg.Email = &email.Cfg
	Cfg.Server = &echomw.Cfg

	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", "preprocess"), Cfg.Preprocess)
}

// MissingEnvVars returns the names from names that are unset or empty.
func MissingEnvVars(names ...string) []string {
	var missing []string
	for _, name := range names {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// CheckIfEnvVarsPresent logs every missing variable and exits(1) if any are missing.
func CheckIfEnvVarsPresent(names ...string) {
	missing := MissingEnvVars(names...)
	for _, name := range missing {
		tl.Log(tl.Error, palette.Red, "%s environment variable is %s", name, "not set")
	}
	if len(missing) > 0 {
		os.Exit(1)
	}
}
