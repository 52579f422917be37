package adhook

import (
	"context"

	"github.com/manash/adhook/internal/apierr"
	"github.com/manash/adhook/pkg/models"
)

type ImageInput struct {
	Prompt string `json:"prompt"`
	// N is forwarded as given; nil means models.DefaultCount.
	N    *int   `json:"n"`
	Size string `json:"size"`
	// Save, when set, persists the result in the background.
	Save *AutoSave `json:"save,omitempty"`
}

type AutoSave struct {
	ProductName string `json:"productName"`
	Description string `json:"description"`
	Platform    string `json:"platform"`
}

type EditInput struct {
	// Image is nil when no part was sent. An empty upload is forwarded.
	Image  []byte
	Mask   []byte
	Prompt string
	// Size is forwarded as given.
	Size string
	// N must be at least 1. Callers substitute models.DefaultCount when
	// the field was omitted.
	N int
}

// GenerateImages creates images from a prompt and returns their links in
// provider order.
func (s *Service) GenerateImages(ctx context.Context, in ImageInput) ([]string, error) {
	if s.images == nil {
		return nil, apierr.Config(MsgMissingProviderKey)
	}
	if in.Prompt == "" {
		return nil, apierr.Validation(MsgPromptRequired)
	}
	if in.N != nil && *in.N < 1 {
		return nil, apierr.Validation(MsgCountInvalid)
	}

	req := models.NewRequest(in.Prompt)
	req.Size = models.NormalizeSize(in.Size)
	if in.N != nil {
		req.Count = *in.N
	}

	resp, err := s.images.Generate(ctx, req)
	if err != nil {
		s.log.Warn("Image generation failed", "error", err)
		return nil, apierr.Upstream(err)
	}

	urls := resp.URLs()
	s.logImageCost("generate", req.Model, req.Size, len(urls))

	if in.Save != nil {
		s.scheduleAutoSave(in.Prompt, urls, *in.Save)
	}
	return urls, nil
}

// EditImage edits an uploaded image, optionally restricted by a mask.
func (s *Service) EditImage(ctx context.Context, in EditInput) ([]string, error) {
	if s.images == nil {
		return nil, apierr.Config(MsgMissingProviderKey)
	}
	if in.Image == nil {
		return nil, apierr.Validation(MsgImageRequired)
	}
	if in.Prompt == "" {
		return nil, apierr.Validation(MsgPromptRequired)
	}
	if in.N < 1 {
		return nil, apierr.Validation(MsgCountInvalid)
	}

	req := models.NewEditRequest(in.Image, in.Prompt)
	req.Mask = in.Mask
	if in.Size != "" {
		req.Size = in.Size
	}
	req.Count = in.N

	resp, err := s.images.Edit(ctx, req)
	if err != nil {
		s.log.Warn("Image edit failed", "error", err)
		return nil, apierr.Upstream(err)
	}

	urls := resp.URLs()
	s.logImageCost("edit", req.Model, req.Size, len(urls))
	return urls, nil
}

func (s *Service) logImageCost(op, model, size string, count int) {
	est := s.costs.Images(model, size, count)
	s.log.Info("Images returned",
		"op", op,
		"model", model,
		"size", size,
		"count", count,
		"estimated_cost", est.Total,
		"currency", est.Currency,
	)
}

func (s *Service) scheduleAutoSave(prompt string, urls []string, save AutoSave) {
	in := SaveImagesInput{
		ProductName: save.ProductName,
		Description: save.Description,
		Platform:    save.Platform,
		Prompt:      prompt,
		URLs:        urls,
	}
	err := s.goBackground("auto-save", func(ctx context.Context) error {
		_, err := s.SaveImages(ctx, in)
		return err
	})
	if err != nil {
		s.log.Warn("Auto-save skipped", "error", err)
	}
}
