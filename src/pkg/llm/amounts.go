package llm

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/tuumbleweed/xerr"
)

/*
ReadAmountCandidatesFromFile reads the JSON array of amount strings that the
OCR step saved as amounts.json, e.g. ["1.29","3.99"].

It returns a *xerr.Error on failure.
*/
func ReadAmountCandidatesFromFile(amountsPath string) (amounts []string, e *xerr.Error) {
	fileBytes, readErr := os.ReadFile(amountsPath)
	if readErr != nil {
		return amounts, xerr.NewError(readErr, "read amounts file", amountsPath)
	}

	parseErr := json.Unmarshal([]byte(strings.TrimSpace(string(fileBytes))), &amounts)
	if parseErr != nil {
		return amounts, xerr.NewError(parseErr, "parse amounts JSON", amountsPath)
	}
	return amounts, nil
}
