// Package supabase implements store.Store on the Supabase PostgREST API.
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
	"strconv"
	"strings"
	"time"

	"github.com/manash/adhook/internal/logger"
	"github.com/manash/adhook/internal/store"
	"github.com/manash/adhook/pkg/models"
)

type Config struct {
	URL            string
	ServiceRoleKey string
	Table          string
	TimeoutSec     int
}

type Store struct {
	endpoint   string
	key        string
	httpClient *http.Client
	log        *logger.Logger
}

var _ store.Store = (*Store)(nil)

func New(cfg Config, log *logger.Logger) (*Store, error) {
	if cfg.URL == "" || cfg.ServiceRoleKey == "" {
		return nil, errors.New("supabase url and service role key are required")
	}
	table := cfg.Table
	if table == "" {
		table = store.Table
	}
	timeout := 30 * time.Second
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		endpoint:   strings.TrimRight(cfg.URL, "/") + "/rest/v1/" + table,
		key:        cfg.ServiceRoleKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("service", "SupabaseStore", "table", table),
	}, nil
}

type insertRow struct {
	UserID      *string           `json:"user_id"`
	ProductName string            `json:"product_name"`
	Description string            `json:"description"`
	Platform    string            `json:"platform"`
	Variations  models.Variations `json:"variations"`
}

func (s *Store) Insert(ctx context.Context, gen *models.Generation) error {
	payload, err := json.Marshal(insertRow{
		UserID:      gen.UserID,
		ProductName: gen.ProductName,
		Description: gen.Description,
		Platform:    gen.Platform,
		Variations:  gen.Variations,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	req, err := s.newRequest(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	body, err := s.do(req)
	if err != nil {
		return err
	}

	var inserted []models.Generation
	if err := json.Unmarshal(body, &inserted); err != nil || len(inserted) == 0 {
		s.log.Warn("Insert returned no representation", "body_len", len(body))
		return nil
	}
	gen.ID = inserted[0].ID
	gen.CreatedAt = inserted[0].CreatedAt
	return nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]*models.Generation, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(store.ClampLimit(limit)))

	req, err := s.newRequest(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	body, err := s.do(req)
	if err != nil {
		return nil, err
	}

	rows := []*models.Generation{}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse rows: %w", err)
	}
	return rows, nil
}

func (s *Store) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func (s *Store) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (s *Store) do(req *http.Request) ([]byte, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, restError(resp.StatusCode, body)
	}
	return body, nil
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// restError surfaces PostgREST's message field, or the raw body.
func restError(status int, body []byte) error {
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return errors.New(parsed.Message)
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return errors.New(msg)
	}
	return fmt.Errorf("row store request failed: status %d", status)
}
