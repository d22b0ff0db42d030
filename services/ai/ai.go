// Package aisvc provides the generative models behind the assistant.
package aisvc

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/alloyapp/alloy/core"
	"github.com/alloyapp/alloy/core/assistant"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

var errEmptyReply = errors.New("model returned an empty reply")

// NewModel builds the configured provider's model, instrumented on reg.
// Calls are never retried and time out after conf.AI.Timeout.
func NewModel(conf *core.Config, reg prometheus.Registerer) (assistant.Model, error) {
	client := &http.Client{Timeout: conf.AI.Timeout}

	var model assistant.Model
	switch conf.AI.Provider {
	case ProviderGemini, "":
		model = NewGeminiModel(client, conf.AI.BaseURL, conf.AI.APIKey, conf.AI.Model)
	case ProviderOpenAI:
		model = NewOpenAIModel(client, conf.AI.BaseURL, conf.AI.APIKey, conf.AI.Model)
	default:
		return nil, errors.Errorf("unknown AI provider %q", conf.AI.Provider)
	}
	return Instrument(model, conf.AI.Provider, reg)
}
