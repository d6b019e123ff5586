package llm

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// visionInstruction asks the model for an exhaustive transcription. Table
// data, numbers and handwriting are called out explicitly because those are
// exactly what OCR tends to mangle.
const visionInstruction = "Extrae TODO el texto visible en este documento. " +
	"Incluye: datos de tablas, números, fechas, nombres, direcciones, " +
	"valores monetarios, y cualquier información manuscrita o impresa. " +
	"Mantén el formato y estructura original."

const (
	visionMaxTokens   = 3000
	visionCallTimeout = 45 * time.Second
)

// ExtractImageText submits a JPEG page image to the vision endpoint and
// returns the transcribed text. Complex pages need more room than regular
// answer calls, so the per-call deadline is extended.
func (c *Caller) ExtractImageText(ctx context.Context, jpeg []byte) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(jpeg)

	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Temperature: 0,
		MaxTokens:   visionMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: visionInstruction,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    "data:image/jpeg;base64," + encoded,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	}

	visionCaller := *c
	visionCaller.config.CallTimeout = visionCallTimeout

	result, err := visionCaller.do(ctx, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text), nil
}
