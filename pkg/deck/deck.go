// Package deck wires the card store, the ingestion pipelines, and the
// on-disk content layout into one lifecycle.
package deck

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/quickdeck/quickdeck/pkg/deck/config"
	"github.com/quickdeck/quickdeck/pkg/deck/ingest"
	"github.com/quickdeck/quickdeck/pkg/deck/internalerr"
	"github.com/quickdeck/quickdeck/pkg/deck/store"
)

// Deck binds a store to its content directories.
type Deck struct {
	Store  store.Store
	Config config.Config
	logger *zap.Logger
}

// New creates a deck over an already-open store.
func New(st store.Store, cfg config.Config, logger *zap.Logger) *Deck {
	return &Deck{Store: st, Config: cfg, logger: logger}
}

// Close releases the underlying store.
func (d *Deck) Close() error {
	return d.Store.Close()
}

// DirStatus classifies a content directory.
type DirStatus int

const (
	DirValid DirStatus = iota
	DirMissing
	DirNotADirectory
)

// CheckContentDir reports whether path is usable as a content
// directory.
func CheckContentDir(path string) DirStatus {
	info, err := os.Stat(path)
	if err != nil {
		return DirMissing
	}
	if !info.IsDir() {
		return DirNotADirectory
	}
	return DirValid
}

// EnsureContent ingests the deck when the store is empty and skips
// ingestion otherwise, so a restart over an existing database is fast.
// Returns internalerr.ErrNoContent when neither content directory
// exists on a first run.
func (d *Deck) EnsureContent(ctx context.Context) error {
	empty, err := d.Store.IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		total, err := d.Store.TotalCount(ctx)
		if err != nil {
			return err
		}
		d.logger.Info("database already populated, skipping ingestion",
			zap.Int64("cards", total))
		return nil
	}
	return d.Build(ctx)
}

// Build wipes and re-ingests the deck from its content directories,
// then populates the FTS index exactly once. Ingestion holds the
// deck's write phase; request serving starts only after Build returns.
func (d *Deck) Build(ctx context.Context) error {
	mdDir, imgDir := d.Config.MarkdownDir(), d.Config.ImageDir()
	mdOK := CheckContentDir(mdDir) == DirValid
	imgOK := CheckContentDir(imgDir) == DirValid

	if !mdOK && !imgOK {
		return fmt.Errorf("%w: need %s or %s", internalerr.ErrNoContent, mdDir, imgDir)
	}

	if mdOK {
		md := ingest.NewMarkdownLoader(d.Store, d.logger)
		if err := md.LoadDir(ctx, mdDir); err != nil {
			return fmt.Errorf("load markdown: %w", err)
		}
	} else {
		if err := d.Store.Wipe(ctx); err != nil {
			return fmt.Errorf("wipe cards: %w", err)
		}
		d.logger.Warn("markdown directory unavailable, continuing with image-only cards",
			zap.String("dir", mdDir))
	}

	if imgOK {
		img := ingest.NewImageLoader(d.Store, d.logger)
		if err := img.LoadDir(ctx, imgDir); err != nil {
			return fmt.Errorf("load images: %w", err)
		}
	} else {
		d.logger.Warn("image directory unavailable, continuing with markdown-only cards",
			zap.String("dir", imgDir))
	}

	if err := d.Store.PopulateFTS(ctx); err != nil {
		return fmt.Errorf("populate fts: %w", err)
	}
	return nil
}
