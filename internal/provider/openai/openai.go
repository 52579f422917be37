package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/manash/adhook/internal/logger"
	"github.com/manash/adhook/internal/provider"
	"github.com/manash/adhook/pkg/models"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
)

type apiRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type apiResponse struct {
	Created int64       `json:"created"`
	Data    []imageData `json:"data"`
}

type imageData struct {
	URL     string `json:"url,omitempty"`
	B64JSON string `json:"b64_json,omitempty"`
}

type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logger.Logger
	verbose    bool
}

func New(cfg *provider.Config, log *logger.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, provider.ErrAPIKeyRequired
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := defaultTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 2)
	}

	if log == nil {
		log = logger.Nop()
	}

	return &Provider{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
		log:     log.With("service", "OpenAIProvider"),
		verbose: cfg.Verbose,
	}, nil
}

func (p *Provider) Generate(ctx context.Context, req *models.Request) (*models.Response, error) {
	apiReq := &apiRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		N:      req.Count,
		Size:   req.Size,
	}
	if apiReq.Model == "" {
		apiReq.Model = models.DefaultImageModel
	}

	jsonData, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := p.send(ctx, "/images/generations", "application/json", jsonData, provider.ErrGenerationFailed)
	if err != nil {
		return nil, err
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return buildResponse(apiResp), nil
}

// send posts body to the API and returns the response body. Non-2xx responses
// become *provider.UpstreamError carrying the body verbatim.
func (p *Provider) send(ctx context.Context, path, contentType string, payload []byte, op error) ([]byte, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	url := p.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	p.logRequest(http.MethodPost, url, contentType, payload)

	start := time.Now()
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	p.logResponse(url, resp.StatusCode, time.Since(start), body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &provider.UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

func buildResponse(apiResp apiResponse) *models.Response {
	response := &models.Response{
		Images: make([]models.GeneratedImage, 0, len(apiResp.Data)),
	}

	for i, data := range apiResp.Data {
		response.Images = append(response.Images, models.GeneratedImage{
			Index:  i,
			URL:    data.URL,
			Base64: data.B64JSON,
		})
	}

	return response
}

func (p *Provider) logRequest(method, url, contentType string, body []byte) {
	if !p.verbose {
		return
	}

	fields := []interface{}{"method", method, "url", url, "content_type", contentType, "bytes", len(body)}
	if strings.HasPrefix(contentType, "application/json") {
		fields = append(fields, "body", string(body))
	}
	p.log.Debug("provider request", fields...)
}

func (p *Provider) logResponse(url string, statusCode int, elapsed time.Duration, body []byte) {
	if !p.verbose {
		return
	}

	p.log.Debug("provider response",
		"url", url,
		"status", statusCode,
		"duration_ms", elapsed.Milliseconds(),
		"body", string(truncateBase64InJSON(body)),
	)
}

// truncateBase64InJSON shortens b64_json payloads so responses stay readable
// in logs.
func truncateBase64InJSON(body []byte) []byte {
	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}

	truncateBase64Fields(data)

	result, err := json.Marshal(data)
	if err != nil {
		return body
	}
	return result
}

func truncateBase64Fields(data map[string]interface{}) {
	for key, value := range data {
		switch v := value.(type) {
		case string:
			if key == "b64_json" && len(v) > 100 {
				data[key] = v[:100] + "... [truncated]"
			}
		case map[string]interface{}:
			truncateBase64Fields(v)
		case []interface{}:
			for _, item := range v {
				if m, ok := item.(map[string]interface{}); ok {
					truncateBase64Fields(m)
				}
			}
		}
	}
}
