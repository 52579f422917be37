package adhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/manash/adhook/internal/apierr"
	"github.com/manash/adhook/pkg/models"
)

const (
	copySystemPrompt = "You are a senior DTC ad copywriter. Always return valid JSON."
	copyTemperature  = 0.7
)

type CopyInput struct {
	ProductName string `json:"productName"`
	Description string `json:"description"`
	Platform    string `json:"platform"`
}

// CopyPrompt is the user message asking for three copy variations.
func CopyPrompt(in CopyInput) string {
	return fmt.Sprintf(`
Return JSON with key "variations" = array of 3 objects:
{ "headline": string (≤60 chars),
  "primary_text": string (2–4 short sentences, direct-response tone),
  "cta": string,
  "keywords": string[] (≤6)
}
Product: %s
Description: %s
Platform: %s
Audience: buyers on %s.
Constraints: punchy, compliant, no claims, no emojis unless natural.`,
		in.ProductName, in.Description, in.Platform, in.Platform)
}

// GenerateCopy asks the text model for copy variations and returns its JSON
// content unchanged apart from whitespace.
func (s *Service) GenerateCopy(ctx context.Context, in CopyInput) (json.RawMessage, error) {
	if s.writer == nil {
		return nil, apierr.Config(MsgMissingProviderKey)
	}
	if in.ProductName == "" || in.Description == "" {
		return nil, apierr.Validation(MsgCopyFieldsRequired)
	}
	if in.Platform == "" {
		in.Platform = models.DefaultPlatform
	}

	content, err := s.writer.Complete(ctx, &models.ChatRequest{
		Model:        models.DefaultTextModel,
		System:       copySystemPrompt,
		User:         CopyPrompt(in),
		Temperature:  copyTemperature,
		JSONResponse: true,
	})
	if err != nil {
		s.log.Warn("Copy generation failed", "product", in.ProductName, "error", err)
		return nil, apierr.Upstream(err)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(content)); err != nil {
		return nil, apierr.Upstream(err)
	}

	s.log.Info("Copy generated", "product", in.ProductName, "platform", in.Platform, "bytes", buf.Len())
	return json.RawMessage(buf.Bytes()), nil
}
