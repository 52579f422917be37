// Package supabase implements bucket.Bucket on the Supabase Storage REST API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/manash/adhook/internal/bucket"
	"github.com/manash/adhook/internal/logger"
)

const fileSizeLimit = "20MB"

type Config struct {
	URL            string
	ServiceRoleKey string
	Bucket         string
	TimeoutSec     int
}

type Bucket struct {
	baseURL    string
	key        string
	name       string
	httpClient *http.Client
	log        *logger.Logger
}

var _ bucket.Bucket = (*Bucket)(nil)

func New(cfg Config, log *logger.Logger) (*Bucket, error) {
	if cfg.URL == "" || cfg.ServiceRoleKey == "" {
		return nil, errors.New("supabase url and service role key are required")
	}
	name := cfg.Bucket
	if name == "" {
		name = bucket.DefaultName
	}
	timeout := 2 * time.Minute
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Bucket{
		baseURL:    strings.TrimRight(cfg.URL, "/") + "/storage/v1",
		key:        cfg.ServiceRoleKey,
		name:       name,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("service", "SupabaseBucket", "bucket", name),
	}, nil
}

type createBucketRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Public        bool   `json:"public"`
	FileSizeLimit string `json:"file_size_limit"`
}

func (b *Bucket) Ensure(ctx context.Context) error {
	payload, err := json.Marshal(createBucketRequest{
		ID:            b.name,
		Name:          b.name,
		Public:        true,
		FileSizeLimit: fileSizeLimit,
	})
	if err != nil {
		return err
	}

	err = b.do(ctx, http.MethodPost, "/bucket", "application/json", payload, nil)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "exists") {
		b.log.Debug("Bucket already exists", "message", err.Error())
		return nil
	}
	return err
}

func (b *Bucket) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	headers := map[string]string{"x-upsert": "false"}
	return b.do(ctx, http.MethodPost, "/object/"+b.name+"/"+escapePath(key), contentType, data, headers)
}

func (b *Bucket) PublicURL(key string) string {
	return b.baseURL + "/object/public/" + b.name + "/" + escapePath(key)
}

func (b *Bucket) do(ctx context.Context, method, path, contentType string, body []byte, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", b.key)
	req.Header.Set("Authorization", "Bearer "+b.key)
	req.Header.Set("Content-Type", contentType)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return storageError(resp.StatusCode, respBody)
}

type apiError struct {
	StatusCode string `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// storageError reports the API's message unchanged.
func storageError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		msg = parsed.Message
	}
	if msg == "" {
		msg = fmt.Sprintf("storage request failed: status %d", status)
	}
	return errors.New(msg)
}

func escapePath(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
