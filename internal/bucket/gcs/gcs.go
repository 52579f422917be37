// Package gcs implements bucket.Bucket on Google Cloud Storage.
package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/manash/adhook/internal/bucket"
	"github.com/manash/adhook/internal/logger"
)

const defaultPublicBase = "https://storage.googleapis.com"

type Config struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
	// Endpoint overrides the API endpoint, e.g. a local emulator.
	Endpoint string
	// PublicBaseURL replaces https://storage.googleapis.com in public links.
	PublicBaseURL string
}

type Bucket struct {
	client     *storage.Client
	name       string
	projectID  string
	publicBase string
	log        *logger.Logger
}

var _ bucket.Bucket = (*Bucket)(nil)

func New(ctx context.Context, cfg Config, log *logger.Logger) (*Bucket, error) {
	if log == nil {
		log = logger.Nop()
	}
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return newBucket(client, cfg, log), nil
}

func newBucket(client *storage.Client, cfg Config, log *logger.Logger) *Bucket {
	name := cfg.Bucket
	if name == "" {
		name = bucket.DefaultName
	}
	publicBase := strings.TrimRight(cfg.PublicBaseURL, "/")
	if publicBase == "" {
		publicBase = defaultPublicBase
	}
	return &Bucket{
		client:     client,
		name:       name,
		projectID:  cfg.ProjectID,
		publicBase: publicBase,
		log:        log.With("service", "GCSBucket", "bucket", name),
	}
}

func (b *Bucket) Ensure(ctx context.Context) error {
	handle := b.client.Bucket(b.name)
	_, err := handle.Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("failed to read bucket attrs: %w", err)
	}

	if b.projectID == "" {
		return errors.New("gcs project id is required to create a bucket")
	}
	err = handle.Create(ctx, b.projectID, &storage.BucketAttrs{
		PredefinedACL:              "publicRead",
		PredefinedDefaultObjectACL: "publicRead",
	})
	if isConflict(err) {
		b.log.Debug("Bucket already exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	b.log.Info("Bucket created")
	return nil
}

func (b *Bucket) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	obj := b.client.Bucket(b.name).Object(key).If(storage.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		if isPreconditionFailed(err) {
			return fmt.Errorf("object %s: %w", key, errObjectExists)
		}
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (b *Bucket) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", b.publicBase, b.name, key)
}

func (b *Bucket) Close() error {
	return b.client.Close()
}

var errObjectExists = errors.New("the resource already exists")

func isConflict(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusConflict
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
