package openai

import (
	"fmt"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

/*
ExtractRunMetadata summarizes a finished response for storage next to the
structured receipt. startTime is the moment the request was sent.
*/
func ExtractRunMetadata(resp responseObject, startTime time.Time) (meta RunMetadata) {
	meta.ResponseID = resp.ID
	meta.Status = resp.Status

	meta.Model, meta.ModelSnapshot = ParseModelSnapshot(resp.Model)

	if resp.Reasoning != nil && resp.Reasoning.Effort != nil {
		meta.ReasoningEffort = *resp.Reasoning.Effort
	}

	meta.Temperature = resp.Temperature

	if resp.Usage != nil {
		meta.TokensIn = resp.Usage.InputTokens
		meta.TokensOut = resp.Usage.OutputTokens
		meta.TokensTotal = resp.Usage.TotalTokens

		if resp.Usage.InputTokensDetails != nil {
			meta.TokensCached = resp.Usage.InputTokensDetails.CachedTokens
		}

		if resp.Usage.OutputTokensDetails != nil {
			meta.TokensReasoning = resp.Usage.OutputTokensDetails.ReasoningTokens
		}
	}

	// created_at has second precision, so timing uses the local clock.
	meta.StartedAt = startTime.UnixMilli()
	meta.FinishedAt = time.Now().UnixMilli()
	meta.Elapsed = meta.FinishedAt - meta.StartedAt

	meta.ResponseLogsUrl = fmt.Sprintf("https://platform.openai.com/logs/%s", meta.ResponseID)

	tl.Log(tl.Verbose, palette.Green, "Built run metadata for response_id='%s' status='%s'", meta.ResponseID, meta.Status)
	return meta
}

/*
ParseModelSnapshot splits a full model string into (base, snapshot).

Behavior:
  - If the string ends with a valid YYYY-MM-DD snapshot (e.g., "gpt-5-nano-2025-08-07"),
    it returns ("gpt-5-nano", "2025-08-07").
  - If no valid snapshot is found, it returns (model, "").

Examples:

	"gpt-5-nano-2025-08-07" -> ("gpt-5-nano", "2025-08-07")
	"gpt-5-nano"            -> ("gpt-5-nano", "")
	"gpt-5-nano-rc1"        -> ("gpt-5-nano-rc1", "")
*/
func ParseModelSnapshot(model string) (base string, snapshot string) {
	m := strings.TrimSpace(model)
	base, snapshot = m, ""

	if len(m) < 11 || m[len(m)-11] != '-' {
		return base, snapshot
	}
	tail := m[len(m)-10:]
	if _, err := time.Parse("2006-01-02", tail); err != nil {
		return base, snapshot
	}
	return m[:len(m)-11], tail
}
