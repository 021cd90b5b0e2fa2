package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/skillpath/internal/config"
	"github.com/abhisek/skillpath/internal/contentgen"
	"github.com/abhisek/skillpath/internal/diagnosis"
	"github.com/abhisek/skillpath/internal/llm"
	"github.com/abhisek/skillpath/internal/logging"
	"github.com/abhisek/skillpath/internal/mastery"
	"github.com/abhisek/skillpath/internal/metrics"
	"github.com/abhisek/skillpath/internal/ratelimit"
	"github.com/abhisek/skillpath/internal/spacedrep"
	"github.com/abhisek/skillpath/internal/store"
	"github.com/abhisek/skillpath/internal/tutor"
)

// env is what every store-backed command works with.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *store.Store
	metrics *metrics.Metrics
}

// setup loads the configuration, builds the logger, and opens the database.
// The caller must Close the result.
func setup(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Debug("database opened", zap.String("path", dbPath))

	return &env{cfg: cfg, logger: logger, store: s}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("close database", zap.Error(err))
	}
	_ = e.logger.Sync()
}

// resolveDBPath returns the database path using the --db flag (highest
// priority), then db_path from config or env, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

// content builds the exercise generator and the wrong-answer diagnoser.
// Generation asks the configured LLM first and falls back to the node's
// authored templates. The mock provider has no canned answers outside
// tests, so under it generation uses templates only and diagnosis runs
// its rules alone.
func (e *env) content(ctx context.Context) (contentgen.Generator, tutor.Diagnoser, error) {
	var p llm.Provider
	if e.cfg.LLM.Provider != llm.ProviderMock {
		var err error
		if p, err = llm.NewProvider(ctx, e.cfg.LLM, e.store.EventRepo(), e.logger); err != nil {
			return nil, nil, err
		}
		e.logger.Info("llm provider ready",
			zap.String("provider", p.Name()),
			zap.String("model", p.ModelID()),
		)
	}

	var gen contentgen.Generator = contentgen.TemplateGenerator{}
	if p != nil {
		gen = contentgen.Chain{
			contentgen.NewDeduped(contentgen.NewLLMGenerator(p, e.cfg.Content)),
			contentgen.TemplateGenerator{},
		}
	}

	var diag tutor.Diagnoser
	if e.cfg.Diagnosis.Enabled {
		diag = diagnosis.NewService(p, e.cfg.Diagnosis, e.logger)
	}
	return gen, diag, nil
}

// newTutor builds the service. Commands that never generate exercises pass
// withLLM=false so a missing API key does not stop them.
func (e *env) newTutor(ctx context.Context, limiter *ratelimit.Limiter, withLLM bool) (*tutor.Service, error) {
	var (
		gen  contentgen.Generator = contentgen.TemplateGenerator{}
		diag tutor.Diagnoser
	)
	if withLLM {
		var err error
		if gen, diag, err = e.content(ctx); err != nil {
			return nil, err
		}
	}
	return tutor.New(tutor.Options{
		Threads:   e.store.ThreadRepo(),
		States:    e.store.MasteryRepo(),
		Events:    e.store.EventRepo(),
		Model:     mastery.NewModel(e.cfg.Engine, spacedrep.NewScheduler(nil)),
		Generator: gen,
		Diagnoser: diag,
		Limiter:   limiter,
		Metrics:   e.metrics,
		Logger:    e.logger,
	})
}

func userFlag(cmd *cobra.Command) string {
	u, _ := cmd.Flags().GetString("user")
	return u
}

// termWidth is the width of stdout, or zero when it is not a terminal.
func termWidth() int {
	fd := os.Stdout.Fd()
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}
