package llm

import (
	"context"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-digitizer/src/pkg/openai"
	"receipt-digitizer/src/pkg/util"
)

// Input is what the structuring step knows about one receipt.
type Input struct {
	OCRText          string
	AmountCandidates []string
	ImagePath        string // original photo, sent only when AttachImage is on
}

// Structurer turns OCR text into a Receipt.
type Structurer interface {
	Structure(ctx context.Context, input Input) (Receipt, *xerr.Error)
}

// OpenAIStructurer asks an OpenAI model for a Receipt using strict structured output.
type OpenAIStructurer struct {
	Client *openai.Client
	Config Config
}

func NewOpenAIStructurer(cfg Config) *OpenAIStructurer {
	return &OpenAIStructurer{
		Client: openai.NewClient("", cfg.BaseURL),
		Config: cfg,
	}
}

/*
Structure sends the OCR text (plus amount hints, and the photo when
AttachImage is set) to the model and parses the reply with ParseReceipt.

The run metadata is attached to the returned Receipt even when parsing fails,
so the caller can still log what was spent.
*/
func (s *OpenAIStructurer) Structure(ctx context.Context, input Input) (receipt Receipt, e *xerr.Error) {
	effort := openai.Effort(s.Config.ReasoningEffort)
	tl.Log(
		tl.Notice, palette.BlueBold, "%s with %s model %s, reasoning effort is %s",
		"Structuring receipt", "OpenAI", s.Config.Model, effort,
	)

	systemInstructions, userMessage := BuildPrompt(input.OCRText, input.AmountCandidates)
	var userContent any = userMessage
	if s.Config.AttachImage && input.ImagePath != "" {
		dataURL, e := buildImageDataURL(input.ImagePath)
		if e != nil {
			return receipt, e
		}
		userContent = []map[string]any{openai.InputText(userMessage), openai.InputImage(dataURL)}
	}

	textOptions := openai.TextAsJSONSchema("receipt", receiptSchema(), true)
	parameters := openai.InputParameters{
		Model:        s.Config.Model,
		Instructions: systemInstructions,
		Input: []openai.InputItem{
			{Role: openai.RoleUser, Content: userContent},
		},
		MaxOutputTokens: util.Ptr(s.Config.MaxOutputTokens),
		Text:            &textOptions,
	}
	if effort != "" {
		parameters.Reasoning = &openai.Reasoning{Effort: util.Ptr(effort)}
	}

	responseText, meta, e := s.Client.SendPrompt(ctx, parameters)
	if e != nil {
		return receipt, e
	}
	tl.Log(tl.Verbose, palette.Cyan, "Response text:\n```\n%s\n```", responseText)

	receipt, e = ParseReceipt(responseText)
	receipt.RunMetadata = &meta
	receipt.SourceImage = input.ImagePath
	if e != nil {
		return receipt, e
	}

	tl.Log(
		tl.Notice1, palette.GreenBold, "%s with %d items (total %.2f)",
		"Structured receipt", len(receipt.Items), util.Deref(receipt.Total, 0),
	)
	return receipt, nil
}
