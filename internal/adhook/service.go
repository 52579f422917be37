// Package adhook implements the ad copy and ad image operations on top of
// the provider, store and bucket clients.
package adhook

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/manash/adhook/internal/bucket"
	"github.com/manash/adhook/internal/cost"
	"github.com/manash/adhook/internal/image"
	"github.com/manash/adhook/internal/logger"
	"github.com/manash/adhook/internal/provider"
	"github.com/manash/adhook/internal/store"
)

// Messages reported to callers.
const (
	MsgMissingProviderKey = "Missing OPENAI_API_KEY"
	MsgMissingStoreConfig = "Supabase env vars missing"
	MsgCopyFieldsRequired = "productName and description required"
	MsgPromptRequired     = "prompt required"
	MsgImageRequired      = "image file required"
	MsgCountInvalid       = "n must be a positive integer"
	MsgMissingFields      = "Missing fields"
	MsgSaveImagesRequired = "productName, description, urls required"
)

// SavePolicy selects how save-images persists image links.
type SavePolicy string

const (
	// PolicyRehost copies every image into the bucket and stores the bucket links.
	PolicyRehost SavePolicy = "rehost"
	// PolicyPassthrough stores the caller's links as given.
	PolicyPassthrough SavePolicy = "passthrough"
)

func ParseSavePolicy(s string) (SavePolicy, error) {
	switch SavePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyRehost:
		return PolicyRehost, nil
	case PolicyPassthrough:
		return PolicyPassthrough, nil
	default:
		return "", fmt.Errorf("unknown save policy %q", s)
	}
}

// Fetcher resolves an image reference into bytes.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (*image.Blob, error)
}

// Deps are the collaborators of a Service. Nil clients are reported as
// configuration errors by the operations that need them.
type Deps struct {
	Images  provider.ImageProvider
	Writer  provider.CopyWriter
	Store   store.Store
	Bucket  bucket.Bucket
	Fetcher Fetcher
	Costs   *cost.Calculator
	Log     *logger.Logger

	SavePolicy        SavePolicy
	UploadConcurrency int
	BackgroundTimeout time.Duration
	Now               func() time.Time
}

type Service struct {
	images  provider.ImageProvider
	writer  provider.CopyWriter
	store   store.Store
	bucket  bucket.Bucket
	fetcher Fetcher
	costs   *cost.Calculator
	log     *logger.Logger

	policy            SavePolicy
	concurrency       int
	backgroundTimeout time.Duration
	now               func() time.Time

	mu       sync.Mutex
	draining bool
	tasks    sync.WaitGroup
}

func New(d Deps) *Service {
	s := &Service{
		costs:             d.Costs,
		log:               d.Log,
		policy:            d.SavePolicy,
		concurrency:       d.UploadConcurrency,
		backgroundTimeout: d.BackgroundTimeout,
		now:               d.Now,
	}
	if present(d.Images) {
		s.images = d.Images
	}
	if present(d.Writer) {
		s.writer = d.Writer
	}
	if present(d.Store) {
		s.store = d.Store
	}
	if present(d.Bucket) {
		s.bucket = d.Bucket
	}
	if present(d.Fetcher) {
		s.fetcher = d.Fetcher
	} else {
		s.fetcher = image.NewFetcher(0, nil)
	}
	if s.costs == nil {
		s.costs = cost.NewCalculator()
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	s.log = s.log.With("service", "AdHook")
	if s.policy == "" {
		s.policy = PolicyRehost
	}
	if s.concurrency <= 0 {
		s.concurrency = 4
	}
	if s.backgroundTimeout <= 0 {
		s.backgroundTimeout = 2 * time.Minute
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// present reports whether v holds a usable value. A typed nil pointer
// stored in an interface is treated as absent.
func present(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return !rv.IsNil()
	}
	return true
}

// Drain blocks until background tasks finish or ctx ends. No new tasks are
// accepted once Drain has been called.
func (s *Service) Drain(ctx context.Context) error {
	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("background tasks still running: %w", ctx.Err())
	}
}

var errDraining = errors.New("service is shutting down")

// goBackground runs fn detached from the caller's request with its own
// timeout.
func (s *Service) goBackground(name string, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draining {
		return errDraining
	}

	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.backgroundTimeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			s.log.Warn("Background task failed", "task", name, "error", err)
			return
		}
		s.log.Info("Background task finished", "task", name, "duration", time.Since(start))
	}()
	return nil
}
