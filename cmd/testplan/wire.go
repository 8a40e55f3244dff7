package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fwojciec/testplan"
	"github.com/fwojciec/testplan/browser"
	"github.com/fwojciec/testplan/clipboard"
	"github.com/fwojciec/testplan/config"
	"github.com/fwojciec/testplan/fs"
	"github.com/fwojciec/testplan/gemini"
	"github.com/fwojciec/testplan/generation"
	"github.com/fwojciec/testplan/http"
	"github.com/fwojciec/testplan/jsonl"
	"github.com/fwojciec/testplan/lipgloss"
	"github.com/fwojciec/testplan/llm"
	"github.com/fwojciec/testplan/postgres"
)

// Options are the persistent flags shared by all commands.
type Options struct {
	configPath string
	verbose    bool
	upload     bool
	project    string
	folder     string
}

func (o Options) resolvedConfigPath() string {
	if o.ConfigPath != "" {
		return o.ConfigPath
	}
	return fs.DefaultConfigPath()
}

// Apply copies the flag values that override the configuration.
func (a *App) Apply(opts Options) {
	if opts.Project != "" {
		a.Config.ProjectKey = opts.Project
	}
	a.Upload = opts.Upload
	a.FolderID = opts.Folder
}

// Builder creates the App for a command invocation.
type Builder func(ctx context.Context, opts Options, stdout io.Writer) (*App, error)

// BuildApp wires the production dependencies described by the
// configuration file.
func BuildApp(ctx context.Context, opts Options, stdout io.Writer) (*App, error) {
	cfg, err := config.Load(opts.resolvedConfigPath())
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Stdout: stdout}
	app.Apply(opts)
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	dataDir := fs.DefaultDataDir()
	logger, closeLog, err := openLog(filepath.Join(dataDir, "testplan.log"), opts.Verbose)
	if err != nil {
		return nil, err
	}
	app.onClose(closeLog)
	app.Logger = logger

	backend, err := http.NewClient(cfg.APIURL, http.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	app.Searcher = backend
	app.Stories = backend
	app.Uploader = backend
	app.Folders = backend

	gen, stores, err := newGenerator(ctx, cfg, backend)
	if err != nil {
		return nil, err
	}
	app.Generator = gen
	app.GeneratorStores = stores

	if err := app.wireStore(ctx, cfg, backend, dataDir); err != nil {
		return nil, err
	}

	app.History = jsonl.NewHistoryLog(filepath.Join(dataDir, "history.jsonl"))
	theme, err := lipgloss.ByName(cfg.Theme)
	if err != nil {
		return nil, err
	}
	app.Theme = theme
	app.Clipboard = clipboard.New()
	app.Opener = browser.Opener{}

	logger.Debug("wired", "generator", cfg.Generator.Provider, "store", cfg.Store.Kind, "api", cfg.APIURL)
	ok = true
	return app, nil
}

// openLog opens the append-only log file. The terminal belongs to the TUI,
// so logs never go to stderr.
func openLog(path string, verbose bool) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { f.Close() }, nil
}

// newGenerator selects the generation client. It reports whether the
// client stores the plans it generates.
func newGenerator(ctx context.Context, cfg config.Config, backend *http.Client) (testplan.GenerationClient, bool, error) {
	var gen testplan.GenerationClient
	switch cfg.Generator.Provider {
	case config.ProviderBackend:
		return backend, true, nil

	case config.ProviderGemini:
		var copts []gemini.ClientOption
		if cfg.Generator.BaseURL != "" {
			copts = append(copts, gemini.WithBaseURL(cfg.Generator.BaseURL))
		}
		client, err := gemini.NewClient(ctx, cfg.Generator.APIKey, copts...)
		if err != nil {
			return nil, false, err
		}
		var opts []gemini.Option
		if cfg.Generator.Model != "" {
			opts = append(opts, gemini.WithModel(cfg.Generator.Model))
		}
		gen = gemini.NewGenerator(client, backend, opts...)

	case config.ProviderOpenAI, config.ProviderOllama:
		model, err := llm.NewModel(ctx, llm.ModelConfig{
			Provider: llm.Provider(cfg.Generator.Provider),
			Model:    cfg.Generator.Model,
			BaseURL:  cfg.Generator.BaseURL,
			APIKey:   cfg.Generator.APIKey,
		})
		if err != nil {
			return nil, false, err
		}
		gen = llm.NewGenerator(model, backend, llm.WithJSONMode(true))

	default:
		return nil, false, fmt.Errorf("unknown generator provider %q", cfg.Generator.Provider)
	}

	if cfg.Generator.Cache {
		gen = fs.NewGenerator(gen, fs.DefaultCacheDir())
	}
	return generation.NewUploadingClient(gen, backend), false, nil
}

func (a *App) wireStore(ctx context.Context, cfg config.Config, backend *http.Client, dataDir string) error {
	switch cfg.Store.Kind {
	case config.StoreBackend:
		a.Plans = backend

	case config.StoreJSONL:
		dir := cfg.Store.Dir
		if dir == "" {
			dir = filepath.Join(dataDir, "plans")
		}
		store := jsonl.NewPlanStore(dir)
		a.Plans = store
		a.Lister = store

	case config.StorePostgres:
		pool, err := postgres.Open(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return err
		}
		a.onClose(pool.Close)
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		store := postgres.NewPlanStore(pool, postgres.WithLogger(a.Logger))
		a.Plans = store
		a.Lister = store

	default:
		return fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}
	return nil
}
