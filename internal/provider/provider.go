package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/manash/adhook/pkg/models"
)

var (
	ErrAPIKeyRequired   = errors.New("API key is required")
	ErrGenerationFailed = errors.New("image generation failed")
	ErrEditFailed       = errors.New("image edit failed")
	ErrCompletionFailed = errors.New("completion failed")
)

// ImageProvider creates and edits images.
type ImageProvider interface {
	Generate(ctx context.Context, req *models.Request) (*models.Response, error)
	Edit(ctx context.Context, req *models.EditRequest) (*models.Response, error)
}

// CopyWriter returns the raw message content of a single chat completion.
type CopyWriter interface {
	Complete(ctx context.Context, req *models.ChatRequest) (string, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	TimeoutSec int
	// RequestsPerSecond paces outbound calls. Zero disables pacing.
	RequestsPerSecond float64
	Verbose           bool
}

// UpstreamError is a non-success response from the provider. Error returns
// the provider's body untouched so callers can forward it.
type UpstreamError struct {
	Op         error
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("%v: status %d", e.Op, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Op }
