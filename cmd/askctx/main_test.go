package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/askctx/internal/config"
	"github.com/kailas-cloud/askctx/internal/domain"
)

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func snapshotConfig(t *testing.T, sections string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Corpus: config.CorpusConfig{
			EmbeddingsPath: writeFile(t, dir, "emb.csv", "title,heading,0,1\nOlympics,A,1,0\nOlympics,B,0,1\n"),
			SectionsSource: config.SectionsFromFile,
			SectionsPath:   writeFile(t, dir, "sections.csv", sections),
		},
	}
}

func TestLoadSnapshot(t *testing.T) {
	cfg := snapshotConfig(t, "title,heading,content,tokens\nOlympics,A,text a,10\nOlympics,B,text b,12\n")

	snap, err := loadSnapshot(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("loadSnapshot: %v", err)
	}
	if snap.Corpus.Len() != 2 || snap.Corpus.Dimensions() != 2 {
		t.Errorf("corpus = %d sections x %d dims", snap.Corpus.Len(), snap.Corpus.Dimensions())
	}
	if missing := missingSections(snap); len(missing) != 0 {
		t.Errorf("missing = %v", missing)
	}
}

func TestLoadSnapshot_MissingText(t *testing.T) {
	cfg := snapshotConfig(t, "title,heading,content,tokens\nOlympics,A,text a,10\n")

	snap, err := loadSnapshot(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("loadSnapshot: %v", err)
	}
	if missing := missingSections(snap); len(missing) != 1 {
		t.Errorf("missing = %v, want one section", missing)
	}
}

func TestLoadSnapshot_DimensionMismatch(t *testing.T) {
	cfg := snapshotConfig(t, "title,heading,content,tokens\nOlympics,A,text a,10\n")
	cfg.Embedding.Vectorizer.Dimensions = 1536

	_, err := loadSnapshot(context.Background(), cfg, nil)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
