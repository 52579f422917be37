package adhook

import (
	"bytes"
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"

	"github.com/manash/adhook/internal/apierr"
	"github.com/manash/adhook/internal/bucket"
	"github.com/manash/adhook/internal/image"
	"github.com/manash/adhook/internal/store"
	"github.com/manash/adhook/pkg/models"
)

type SaveCopyInput struct {
	ProductName string          `json:"productName"`
	Description string          `json:"description"`
	Platform    string          `json:"platform"`
	Variations  json.RawMessage `json:"variations"`
	UserID      *string         `json:"userId"`
}

type SaveImagesInput struct {
	ProductName string   `json:"productName"`
	Description string   `json:"description"`
	Platform    string   `json:"platform"`
	Prompt      string   `json:"prompt"`
	URLs        []string `json:"urls"`
}

// SaveCopy stores one record holding the caller's variations array as is.
func (s *Service) SaveCopy(ctx context.Context, in SaveCopyInput) error {
	if s.store == nil {
		return apierr.Config(MsgMissingStoreConfig)
	}
	if in.ProductName == "" || in.Description == "" || in.Platform == "" || !isJSONArray(in.Variations) {
		return apierr.Validation(MsgMissingFields)
	}

	gen := &models.Generation{
		UserID:      in.UserID,
		ProductName: in.ProductName,
		Description: in.Description,
		Platform:    in.Platform,
		Variations:  models.RawVariations(in.Variations),
	}
	if err := s.store.Insert(ctx, gen); err != nil {
		s.log.Error("Save copy failed", "product", in.ProductName, "error", err)
		return apierr.Persistence(err)
	}

	s.log.Info("Copy saved", "id", gen.ID, "product", in.ProductName)
	return nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '[' && json.Valid(trimmed)
}

// SaveImages stores an image result. Under PolicyRehost every image is
// copied into the bucket first and the bucket links are returned; under
// PolicyPassthrough the caller's links are stored and nil is returned.
// Any fetch or upload failure aborts before the record is written.
func (s *Service) SaveImages(ctx context.Context, in SaveImagesInput) ([]string, error) {
	if s.store == nil || (s.policy == PolicyRehost && s.bucket == nil) {
		return nil, apierr.Config(MsgMissingStoreConfig)
	}
	if in.ProductName == "" || in.Description == "" || len(in.URLs) == 0 {
		return nil, apierr.Validation(MsgSaveImagesRequired)
	}
	if in.Platform == "" {
		in.Platform = models.DefaultPlatform
	}

	images := in.URLs
	if s.policy == PolicyRehost {
		rehosted, err := s.rehost(ctx, in.ProductName, in.URLs)
		if err != nil {
			s.log.Error("Rehost failed", "product", in.ProductName, "error", err)
			return nil, apierr.Persistence(err)
		}
		images = rehosted
	}

	variations, err := models.ImageVariations(in.Prompt, images)
	if err != nil {
		return nil, apierr.Persistence(err)
	}
	gen := &models.Generation{
		ProductName: in.ProductName,
		Description: in.Description,
		Platform:    in.Platform,
		Variations:  variations,
	}
	if err := s.store.Insert(ctx, gen); err != nil {
		s.log.Error("Save images failed", "product", in.ProductName, "error", err)
		return nil, apierr.Persistence(err)
	}

	s.log.Info("Images saved", "id", gen.ID, "product", in.ProductName, "count", len(images), "policy", string(s.policy))
	if s.policy == PolicyPassthrough {
		return nil, nil
	}
	return images, nil
}

// rehost uploads every reference under one timestamped prefix and returns
// the public links in input order.
func (s *Service) rehost(ctx context.Context, productName string, refs []string) ([]string, error) {
	started := s.now().UnixMilli()

	if err := s.bucket.Ensure(ctx); err != nil {
		return nil, err
	}

	links := make([]string, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, ref := range refs {
		g.Go(func() error {
			blob, err := s.fetcher.Fetch(gctx, ref)
			if err != nil {
				return err
			}
			key := bucket.ObjectKey(productName, started, i+1, image.ExtensionFor(blob.ContentType))
			if err := s.bucket.Upload(gctx, key, blob.Data, blob.ContentType); err != nil {
				return err
			}
			links[i] = s.bucket.PublicURL(key)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return links, nil
}

// ListGenerations returns the most recent records, newest first.
func (s *Service) ListGenerations(ctx context.Context) ([]*models.Generation, error) {
	if s.store == nil {
		return nil, apierr.Config(MsgMissingStoreConfig)
	}
	rows, err := s.store.ListRecent(ctx, store.DefaultListLimit)
	if err != nil {
		s.log.Error("List generations failed", "error", err)
		return nil, apierr.Persistence(err)
	}
	return rows, nil
}
