package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/manash/adhook/internal/adhook"
	"github.com/manash/adhook/internal/bucket"
	"github.com/manash/adhook/internal/bucket/gcs"
	supabasebucket "github.com/manash/adhook/internal/bucket/supabase"
	"github.com/manash/adhook/internal/config"
	"github.com/manash/adhook/internal/cost"
	"github.com/manash/adhook/internal/image"
	"github.com/manash/adhook/internal/logger"
	"github.com/manash/adhook/internal/provider"
	"github.com/manash/adhook/internal/provider/openai"
	"github.com/manash/adhook/internal/security"
	"github.com/manash/adhook/internal/store"
	"github.com/manash/adhook/internal/store/postgres"
	"github.com/manash/adhook/internal/store/sqlite"
	supabasestore "github.com/manash/adhook/internal/store/supabase"
)

// ClientFactory builds the external clients. A nil client with a nil error
// means the credentials are not configured.
type ClientFactory struct {
	NewProvider func(cfg *config.Config, log *logger.Logger) (*openai.Provider, error)
	NewStore    func(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error)
	NewBucket   func(ctx context.Context, cfg *config.Config, log *logger.Logger) (bucket.Bucket, error)
}

func DefaultClients() ClientFactory {
	return ClientFactory{
		NewProvider: newProvider,
		NewStore:    newStore,
		NewBucket:   newBucket,
	}
}

func newProvider(cfg *config.Config, log *logger.Logger) (*openai.Provider, error) {
	if !cfg.HasOpenAI() {
		return nil, nil
	}
	return openai.New(&provider.Config{
		APIKey:            cfg.OpenAI.APIKey,
		BaseURL:           cfg.OpenAI.BaseURL,
		TimeoutSec:        cfg.OpenAI.TimeoutSec,
		RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
		Verbose:           cfg.OpenAI.Verbose,
	}, log)
}

func newStore(_ context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Backend {
	case config.StoreSupabase:
		if !cfg.HasSupabase() {
			return nil, nil
		}
		st, err = supabasestore.New(supabasestore.Config{
			URL:            cfg.Supabase.URL,
			ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
		}, log)
	case config.StorePostgres:
		st, err = postgres.New(cfg.Store.PostgresDSN, log)
	case config.StoreSQLite:
		st, err = sqlite.New(cfg.Store.SQLitePath, cfg.Store.LibSQLAuthToken)
	case config.StoreMemory:
		st = store.NewMemory()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}

	if cfg.Store.ListCacheTTL > 0 {
		st = store.NewCached(st, cfg.Store.ListCacheTTL)
	}
	return st, nil
}

func newBucket(ctx context.Context, cfg *config.Config, log *logger.Logger) (bucket.Bucket, error) {
	switch cfg.Storage.Backend {
	case config.StorageSupabase:
		if !cfg.HasSupabase() {
			return nil, nil
		}
		return supabasebucket.New(supabasebucket.Config{
			URL:            cfg.Supabase.URL,
			ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
			Bucket:         cfg.Storage.Bucket,
		}, log)
	case config.StorageGCS:
		return gcs.New(ctx, gcs.Config{
			Bucket:          cfg.Storage.Bucket,
			ProjectID:       cfg.GCS.ProjectID,
			CredentialsFile: cfg.GCS.CredentialsFile,
			Endpoint:        cfg.GCS.Endpoint,
			PublicBaseURL:   cfg.GCS.PublicBaseURL,
		}, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Deps is the wired service and the clients to close on exit.
type Deps struct {
	Service *adhook.Service
	closers []func() error
}

func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func wire(ctx context.Context, clients ClientFactory, cfg *config.Config, log *logger.Logger) (*Deps, error) {
	deps := &Deps{}

	policy, err := adhook.ParseSavePolicy(cfg.Storage.SavePolicy)
	if err != nil {
		return nil, err
	}

	svcDeps := adhook.Deps{
		Fetcher: image.NewFetcher(cfg.Storage.FetchTimeout, &security.URLValidator{
			AllowHTTP:    cfg.Storage.AllowInsecureFetch,
			AllowPrivate: cfg.Storage.AllowPrivateFetch,
		}),
		Costs:             cost.NewCalculator(),
		Log:               log,
		SavePolicy:        policy,
		UploadConcurrency: cfg.Storage.UploadConcurrency,
		BackgroundTimeout: cfg.Storage.BackgroundTimeout,
	}

	p, err := clients.NewProvider(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	if p != nil {
		svcDeps.Images = p
		svcDeps.Writer = p
	} else {
		log.Warn("OPENAI_API_KEY not set; generation endpoints will report a configuration error")
	}

	st, err := clients.NewStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if st != nil {
		svcDeps.Store = st
		deps.closers = append(deps.closers, st.Close)
	} else {
		log.Warn("Row store not configured; save and list endpoints will report a configuration error")
	}

	if policy == adhook.PolicyRehost {
		b, err := clients.NewBucket(ctx, cfg, log)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		if b != nil {
			svcDeps.Bucket = b
			if c, ok := b.(interface{ Close() error }); ok {
				deps.closers = append(deps.closers, c.Close)
			}
		}
	}

	deps.Service = adhook.New(svcDeps)
	log.Info("Service wired",
		"store", cfg.Store.Backend,
		"storage", cfg.Storage.Backend,
		"save_policy", string(policy),
		"openai_key", logger.MaskKey(cfg.OpenAI.APIKey),
	)
	return deps, nil
}
