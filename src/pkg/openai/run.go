package openai

import (
	"context"
	"fmt"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

/*
SendPrompt sends a prompt via the Responses API and returns the concatenated
assistant text together with the run metadata.

Behavior:
 1. POST /responses in background mode with store enabled.
 2. If the status is not "completed", poll GET /responses/{id} until a
    terminal state ("failed", "cancelled" and "expired" are errors).
 3. Log token usage when available.

The full response text is not logged here; the caller decides what to print.
*/
func (c *Client) SendPrompt(ctx context.Context, inputParameters InputParameters) (responseText string, meta RunMetadata, e *xerr.Error) {
	if c.APIKey == "" {
		return "", meta, xerr.NewError(fmt.Errorf("OPENAI_API_KEY is empty"), "send prompt", inputParameters.Model)
	}
	tl.Log(tl.Info, palette.Blue, "%s %s to %s with model '%s'", "Sending", "prompt", "OpenAI Responses API", inputParameters.Model)
	startTime := time.Now()

	payload := requestPayload{
		Model:              inputParameters.Model,
		Reasoning:          inputParameters.Reasoning,
		Store:              true,
		PreviousResponseID: inputParameters.PreviousResponseID,
		Instructions:       inputParameters.Instructions,
		Input:              inputParameters.Input,
		Temperature:        inputParameters.Temperature,
		MaxOutputTokens:    inputParameters.MaxOutputTokens,
		Background:         true, // allows us to poll
		Text:               inputParameters.Text,
	}
	tl.LogJSON(tl.Debug, palette.CyanDim, "request body", payload)

	initial, e := c.createResponse(ctx, payload)
	if e != nil {
		return "", RunMetadata{}, e
	}

	finalResp := initial
	if initial.Status != "" && initial.Status != "completed" {
		tl.Log(
			tl.Info, palette.Cyan, "%s current status is '%s' id - '%s' (polling every %s)...",
			"Waiting for completion,", initial.Status, initial.ID, c.PollInterval,
		)
		finalResp, e = c.waitForResponseCompletion(ctx, initial.ID)
		if e != nil {
			return "", RunMetadata{ResponseID: initial.ID}, e
		}
	}

	responseText = extractOutputText(&finalResp)
	meta = ExtractRunMetadata(finalResp, startTime)

	if finalResp.Usage != nil {
		tl.Log(
			tl.Detailed, palette.CyanDim,
			"Tokens in: %v (cached: %v), out: %v (reasoning: %v), total: %v",
			meta.TokensIn, meta.TokensCached, meta.TokensOut, meta.TokensReasoning, meta.TokensTotal,
		)
	} else {
		tl.Log(tl.Detailed, palette.PurpleDim, "Usage data is %s", "not available")
	}

	tl.Log(tl.Info1, palette.Green, "%s in %s for the response '%s'", "Response completed", time.Since(startTime), finalResp.ID)
	tl.Log(tl.Debug1, palette.GreenDim, "You can %s at '%s'", "view the conversation", meta.ResponseLogsUrl)
	return responseText, meta, nil
}
