package backend

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/butecodosdevs/buteco-linebot-go/internal/apiclient"
	domerrors "github.com/butecodosdevs/buteco-linebot-go/internal/errors"
)

// AIClient talks to the text-generation backend.
type AIClient struct {
	ep      *apiclient.Endpoint
	timeout time.Duration
}

// NewAIClient creates an AI client whose calls time out after timeout.
func NewAIClient(ep *apiclient.Endpoint, timeout time.Duration) *AIClient {
	return &AIClient{ep: ep, timeout: timeout}
}

// GenerateRequest is a prompt for the AI backend.
type GenerateRequest struct {
	Prompt       string `json:"prompt"`
	Provider     string `json:"provider,omitempty"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// Generate returns the model's answer. An empty answer is a DecodeError.
func (c *AIClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	var resp generateResponse
	res := c.ep.Call(ctx, apiclient.Request{
		Method:  http.MethodPost,
		Path:    "/GenAI/generate",
		Body:    req,
		Timeout: c.timeout,
	})
	if err := res.Decode("Generate", &resp); err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", domerrors.NewDecodeError(c.ep.Name(), "Generate", errEmptyAnswer)
	}
	return text, nil
}

var errEmptyAnswer = errors.New("empty answer")
