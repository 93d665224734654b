package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/MikeSquared-Agency/Kindred/internal/config"
	"github.com/MikeSquared-Agency/Kindred/internal/roster"
)

func TestFileSourceEmbedded(t *testing.T) {
	src := FileSource{}
	if src.Name() != "embedded" {
		t.Errorf("expected embedded, got %s", src.Name())
	}
	r, err := src.LoadRoster(context.Background())
	if err != nil {
		t.Fatalf("LoadRoster failed: %v", err)
	}
	if r.Len() != 28 {
		t.Errorf("expected 28 profiles, got %d", r.Len())
	}
}

func TestFileSourcePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	doc := `
version: "test-1"
profiles:
  - id: a
    name: A
    traits: {passion: 4}
    affinity: b
  - id: b
    name: B
    category: curse
    traits: {humor: 9}
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	src := FileSource{Path: path}
	if src.Name() != "file:"+path {
		t.Errorf("unexpected name %s", src.Name())
	}
	r, err := src.LoadRoster(context.Background())
	if err != nil {
		t.Fatalf("LoadRoster failed: %v", err)
	}
	if r.Version() != "test-1" || r.Len() != 2 {
		t.Errorf("unexpected roster version=%s len=%d", r.Version(), r.Len())
	}
	aff, ok := r.Affinity("a")
	if !ok || aff.ID != "b" {
		t.Errorf("expected affinity b, got %+v", aff)
	}
}

func TestFileSourceErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := FileSource{Path: filepath.Join(t.TempDir(), "nope.yaml")}.LoadRoster(context.Background())
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected not-exist error, got %v", err)
		}
	})

	t.Run("empty roster", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "roster.yaml")
		if err := os.WriteFile(path, []byte("version: x\nprofiles: []\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := FileSource{Path: path}.LoadRoster(context.Background())
		if !errors.Is(err, roster.ErrEmptyRoster) {
			t.Errorf("expected ErrEmptyRoster, got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := FileSource{}.LoadRoster(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestSourcesSatisfyInterfaces(t *testing.T) {
	var _ RosterSource = FileSource{}
	var _ RosterSource = (*PostgresStore)(nil)
	var _ RosterWriter = (*PostgresStore)(nil)
}

func TestOpen(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		cfg := &config.Config{Roster: config.RosterConfig{Source: "file"}}
		src, closeFn, err := Open(context.Background(), cfg)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer closeFn()
		if _, ok := src.(FileSource); !ok {
			t.Errorf("expected FileSource, got %T", src)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := &config.Config{Roster: config.RosterConfig{Source: "s3"}}
		if _, _, err := Open(context.Background(), cfg); err == nil {
			t.Error("expected error for unknown source")
		}
	})

	t.Run("bad postgres url", func(t *testing.T) {
		cfg := &config.Config{
			Roster:   config.RosterConfig{Source: "postgres"},
			Database: config.DatabaseConfig{URL: "postgres://%zz"},
		}
		if _, _, err := Open(context.Background(), cfg); err == nil {
			t.Error("expected error for unparseable url")
		}
	})
}
