package llm

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturingClient records the last request before answering.
type capturingClient struct {
	lastReq openai.ChatCompletionRequest
	text    string
}

func (c *capturingClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.lastReq = req
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: c.text}},
		},
	}, nil
}

func TestExtractImageTextRequestShape(t *testing.T) {
	client := &capturingClient{text: "  Texto extraído de la página  "}
	caller, _ := newTestCaller(client)

	jpegData := []byte{0xff, 0xd8, 0xff, 0xe0}
	text, err := caller.ExtractImageText(context.Background(), jpegData)
	require.NoError(t, err)

	assert.Equal(t, "Texto extraído de la página", text)

	req := client.lastReq
	assert.Equal(t, float32(0), req.Temperature)
	assert.Equal(t, visionMaxTokens, req.MaxTokens)

	require.Len(t, req.Messages, 1)
	parts := req.Messages[0].MultiContent
	require.Len(t, parts, 2)

	assert.Equal(t, openai.ChatMessagePartTypeText, parts[0].Type)
	assert.Contains(t, parts[0].Text, "Extrae TODO el texto visible")

	require.Equal(t, openai.ChatMessagePartTypeImageURL, parts[1].Type)
	require.NotNil(t, parts[1].ImageURL)
	assert.Equal(t, openai.ImageURLDetailHigh, parts[1].ImageURL.Detail)

	encoded := base64.StdEncoding.EncodeToString(jpegData)
	assert.True(t, strings.HasPrefix(parts[1].ImageURL.URL, "data:image/jpeg;base64,"))
	assert.True(t, strings.HasSuffix(parts[1].ImageURL.URL, encoded))
}

func TestExtractImageTextDoesNotMutateCallerTimeout(t *testing.T) {
	client := &capturingClient{text: "texto"}
	caller, _ := newTestCaller(client)
	original := caller.config.CallTimeout

	_, err := caller.ExtractImageText(context.Background(), []byte{0x01})
	require.NoError(t, err)

	// The extended vision deadline applies to a copy, not the shared caller.
	assert.Equal(t, original, caller.config.CallTimeout)
}
