package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/manash/adhook/internal/provider"
	"github.com/manash/adhook/pkg/models"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete returns the content of the first choice, or "{}" when the
// provider returned no content.
func (p *Provider) Complete(ctx context.Context, req *models.ChatRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = models.DefaultTextModel
	}

	apiReq := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
	}
	if req.JSONResponse {
		apiReq.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(apiReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := p.send(ctx, "/chat/completions", "application/json", jsonData, provider.ErrCompletionFailed)
	if err != nil {
		return "", err
	}

	var apiResp chatResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(apiResp.Choices) == 0 || apiResp.Choices[0].Message.Content == nil {
		return "{}", nil
	}
	return *apiResp.Choices[0].Message.Content, nil
}
