package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/manash/adhook/internal/config"
	"github.com/manash/adhook/internal/logger"
	"github.com/manash/adhook/internal/server"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagConfig string
	flagAddr   string
)

type App struct {
	Out        io.Writer
	Err        io.Writer
	LoadConfig func(path string) (*config.Config, error)
	NewLogger  func(mode string) (*logger.Logger, error)
	Clients    ClientFactory
	// Serve blocks until ctx is done. Replaced in tests.
	Serve func(ctx context.Context, srv *server.Server) error
}

func DefaultApp() *App {
	return &App{
		Out:        os.Stdout,
		Err:        os.Stderr,
		LoadConfig: config.Load,
		NewLogger:  logger.New,
		Clients:    DefaultClients(),
		Serve: func(ctx context.Context, srv *server.Server) error {
			return srv.Run(ctx)
		},
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := DefaultApp()
	rootCmd := newRootCmd(app)
	return rootCmd.Execute()
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adhook",
		Short: "Generate ad copy and ad images for a product",
		Long: `adhook is an HTTP service that writes ad copy and generates ad images
with OpenAI and keeps the results in Supabase, Postgres or SQLite.

Examples:
  adhook serve
  adhook serve --addr :9000 --config ./adhook.yaml
  adhook migrate`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(app.Out)
	cmd.SetErr(app.Err)

	cmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (defaults to ./adhook.yaml when present)")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newMigrateCmd(app))
	cmd.AddCommand(newVersionCmd(app))
	return cmd
}

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), app)
		},
	}
	cmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func newMigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the generations table",
		Long: `migrate creates the adhook_generations table on the postgres and sqlite
backends. For the supabase backend it prints the SQL to run in the
Supabase SQL editor.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), app)
		},
	}
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(app.Out, "adhook %s (commit: %s)\n", version, commit)
		},
	}
}

func setup(app *App) (*config.Config, *logger.Logger, error) {
	cfg, err := app.LoadConfig(flagConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}
	log, err := app.NewLogger(cfg.Log.Mode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}

func runServe(parent context.Context, app *App) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, log, err := setup(app)
	if err != nil {
		return err
	}
	defer log.Sync()

	deps, err := wire(ctx, app.Clients, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	handler := server.NewRouter(server.RouterConfig{
		Handler:        server.NewHandler(deps.Service),
		Log:            log,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxMultipartMB: cfg.Server.MaxMultipartMB,
	})
	srv := server.New(cfg.Server.Addr, handler, deps.Service, log, cfg.Server.ShutdownTimeout)
	return app.Serve(ctx, srv)
}

func runMigrate(parent context.Context, app *App) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, log, err := setup(app)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Store.Backend == config.StoreSupabase {
		fmt.Fprint(app.Out, supabaseSchema)
		return nil
	}

	st, err := app.Clients.NewStore(parent, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	m, ok := st.(interface{ Migrate(context.Context) error })
	if !ok {
		fmt.Fprintf(app.Out, "store backend %q has no schema to migrate\n", cfg.Store.Backend)
		return nil
	}
	if err := m.Migrate(parent); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "migrated %s store\n", cfg.Store.Backend)
	return nil
}

const supabaseSchema = `create table if not exists public.adhook_generations (
  id uuid primary key default gen_random_uuid(),
  user_id text,
  product_name text not null,
  description text not null,
  platform text not null default 'Facebook',
  variations jsonb not null,
  created_at timestamptz not null default now()
);

create index if not exists idx_adhook_generations_created_at
  on public.adhook_generations (created_at desc);
`
