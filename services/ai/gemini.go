package aisvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core/assistant"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	maxResponseSize      = 4 << 20
)

// GeminiModel talks to the Gemini generateContent REST endpoint.
type GeminiModel struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

var _ assistant.Model = (*GeminiModel)(nil)

func NewGeminiModel(client *http.Client, baseURL, apiKey, model string) *GeminiModel {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiModel{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

type (
	geminiPart struct {
		Text string `json:"text"`
	}

	geminiContent struct {
		Role  string       `json:"role"`
		Parts []geminiPart `json:"parts"`
	}

	geminiRequest struct {
		Contents []geminiContent `json:"contents"`
	}

	geminiResponse struct {
		Candidates []struct {
			Content      geminiContent `json:"content"`
			FinishReason string        `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback *struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}

	geminiError struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
)

// BuildURL returns the generateContent endpoint of the configured model.
func (m *GeminiModel) BuildURL() string {
	return m.baseURL + "/v1beta/models/" + url.PathEscape(m.model) + ":generateContent"
}

// buildGeminiRequest replays the history then adds the prompt as the last user turn.
// Turn roles already use Gemini's names (user, model).
func buildGeminiRequest(history []assistant.Turn, prompt string) geminiRequest {
	contents := make([]geminiContent, 0, len(history)+1)
	for _, t := range history {
		contents = append(contents, geminiContent{Role: t.Role, Parts: []geminiPart{{Text: t.Text}}})
	}
	contents = append(contents, geminiContent{Role: assistant.RoleUser, Parts: []geminiPart{{Text: prompt}}})
	return geminiRequest{Contents: contents}
}

func (m *GeminiModel) SendTurn(ctx context.Context, history []assistant.Turn, prompt string) (string, error) {
	body, err := json.Marshal(buildGeminiRequest(history, prompt))
	if err != nil {
		return "", errors.Wrap(err, "encoding gemini request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BuildURL(), bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "creating gemini request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", m.apiKey)

	res, err := m.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling gemini")
	}
	defer func() { _ = res.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return "", errors.Wrap(err, "reading gemini response")
	}
	if res.StatusCode != http.StatusOK {
		var gerr geminiError
		if json.Unmarshal(data, &gerr) == nil && gerr.Error.Message != "" {
			return "", errors.Errorf("gemini: %d %s: %s", res.StatusCode, gerr.Error.Status, gerr.Error.Message)
		}
		return "", errors.Errorf("gemini: unexpected status %d", res.StatusCode)
	}
	return parseGeminiResponse(data)
}

func parseGeminiResponse(data []byte) (string, error) {
	var resp geminiResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", errors.Wrap(err, "decoding gemini response")
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini: prompt blocked (%s)", resp.PromptFeedback.BlockReason)
		}
		return "", errEmptyReply
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", errEmptyReply
	}
	return sb.String(), nil
}
