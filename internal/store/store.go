package store

import (
	"context"
	"fmt"
	"os"

	"github.com/MikeSquared-Agency/Kindred/internal/config"
	"github.com/MikeSquared-Agency/Kindred/internal/roster"
)

// RosterSource loads the read-only profile roster once at startup.
type RosterSource interface {
	LoadRoster(ctx context.Context) (*roster.Roster, error)
	Name() string
}

// FileSource reads a YAML roster document. An empty Path means the embedded
// default roster.
type FileSource struct {
	Path string
}

func (f FileSource) Name() string {
	if f.Path == "" {
		return "embedded"
	}
	return "file:" + f.Path
}

func (f FileSource) LoadRoster(ctx context.Context) (*roster.Roster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Path == "" {
		return roster.Default()
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return roster.Parse(data)
}

// RosterWriter replaces the stored roster. Only the seed script writes.
type RosterWriter interface {
	ReplaceRoster(ctx context.Context, r *roster.Roster) error
}

// Open returns the roster source selected by cfg and a func that releases it.
func Open(ctx context.Context, cfg *config.Config) (RosterSource, func(), error) {
	switch cfg.Roster.Source {
	case "postgres":
		db, err := NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	case "file", "":
		return FileSource{Path: cfg.Roster.Path}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown roster source %q", cfg.Roster.Source)
	}
}
