package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/Kindred/internal/config"
	"github.com/MikeSquared-Agency/Kindred/internal/quiz"
	"github.com/MikeSquared-Agency/Kindred/internal/scoring"
	"github.com/MikeSquared-Agency/Kindred/internal/store"
)

// App holds everything an evaluation needs. All of it is read-only once
// Build returns.
type App struct {
	Engine       *scoring.Engine
	Bank         *quiz.Bank
	RosterSource string
}

// Build loads the roster and question bank and cross-checks them against the
// scoring config. Any defect here is fatal at startup.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	src, release, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open roster source: %w", err)
	}
	defer release()

	r, err := src.LoadRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster from %s: %w", src.Name(), err)
	}
	logger.Info("roster loaded", "source", src.Name(), "version", r.Version(), "profiles", r.Len())

	engine, err := scoring.NewEngine(r, cfg.Scoring, logger)
	if err != nil {
		return nil, fmt.Errorf("build scoring engine: %w", err)
	}

	bank, err := quiz.Load(cfg.Quiz.Path)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	if err := bank.Validate(r, cfg.Scoring.PerAnswerMax); err != nil {
		return nil, fmt.Errorf("validate question bank: %w", err)
	}
	logger.Info("question bank loaded", "version", bank.Version(), "questions", bank.Len())

	return &App{Engine: engine, Bank: bank, RosterSource: src.Name()}, nil
}
