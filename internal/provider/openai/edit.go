package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strconv"

	"github.com/manash/adhook/internal/provider"
	"github.com/manash/adhook/pkg/models"
)

func (p *Provider) Edit(ctx context.Context, req *models.EditRequest) (*models.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = models.DefaultImageModel
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("model", model); err != nil {
		return nil, fmt.Errorf("failed to write model: %w", err)
	}

	imagePart, err := writer.CreateFormFile("image", "input.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := imagePart.Write(req.Image); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}

	if len(req.Mask) > 0 {
		maskPart, err := writer.CreateFormFile("mask", "mask.png")
		if err != nil {
			return nil, fmt.Errorf("failed to create mask part: %w", err)
		}
		if _, err := maskPart.Write(req.Mask); err != nil {
			return nil, fmt.Errorf("failed to write mask: %w", err)
		}
	}

	if err := writer.WriteField("prompt", req.Prompt); err != nil {
		return nil, fmt.Errorf("failed to write prompt: %w", err)
	}

	if err := writer.WriteField("n", strconv.Itoa(req.Count)); err != nil {
		return nil, fmt.Errorf("failed to write count: %w", err)
	}

	if err := writer.WriteField("size", req.Size); err != nil {
		return nil, fmt.Errorf("failed to write size: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	respBody, err := p.send(ctx, "/images/edits", writer.FormDataContentType(), body.Bytes(), provider.ErrEditFailed)
	if err != nil {
		return nil, err
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return buildResponse(apiResp), nil
}
