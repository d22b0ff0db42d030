package aisvc

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/alloyapp/alloy/core/assistant"
)

// OpenAIModel talks to any OpenAI-compatible chat completions endpoint.
type OpenAIModel struct {
	client *openai.Client
	model  string
}

var _ assistant.Model = (*OpenAIModel)(nil)

func NewOpenAIModel(client *http.Client, baseURL, apiKey, model string) *OpenAIModel {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = client
	return &OpenAIModel{client: openai.NewClientWithConfig(cfg), model: model}
}

func buildChatMessages(history []assistant.Turn, prompt string) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, t := range history {
		role := openai.ChatMessageRoleUser
		if t.Role == assistant.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Text})
	}
	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})
}

func (m *OpenAIModel) SendTurn(ctx context.Context, history []assistant.Turn, prompt string) (string, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: buildChatMessages(history, prompt),
	})
	if err != nil {
		return "", errors.Wrap(err, "creating chat completion")
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errEmptyReply
	}
	return resp.Choices[0].Message.Content, nil
}
