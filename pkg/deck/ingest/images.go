package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/quickdeck/quickdeck/pkg/deck/store"
)

var imageExts = map[string]struct{}{
	".png":  {},
	".webp": {},
}

// ImageLoader ingests image assets as image-only cards.
type ImageLoader struct {
	store  store.Store
	logger *zap.Logger
}

// NewImageLoader creates a loader writing through the given store.
func NewImageLoader(st store.Store, logger *zap.Logger) *ImageLoader {
	return &ImageLoader{store: st, logger: logger}
}

// LoadDir ingests every png/webp under dir, recursively and following
// symlinks, as an image-only card. The deck id used in generated URLs
// is the name of dir's parent directory (./static/<deck>/img). Per-file
// failures are logged and skipped.
func (l *ImageLoader) LoadDir(ctx context.Context, dir string) error {
	l.logger.Info("loading image flashcards", zap.String("dir", dir))

	deckID := deckIDFromDir(dir)
	count := 0
	err := walkFiles(dir, func(path string) error {
		if _, ok := imageExts[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		if err := l.loadFile(ctx, dir, deckID, path); err != nil {
			l.logger.Warn("failed to process image file",
				zap.String("path", path), zap.Error(err))
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	l.logger.Info("loaded image flashcards", zap.Int("count", count))
	return nil
}

func (l *ImageLoader) loadFile(ctx context.Context, dir, deckID, path string) error {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return fmt.Errorf("relativize path: %w", err)
	}
	rel = filepath.ToSlash(rel)

	card := store.Card{
		QuestionHTML: store.ImageOnlyMarker,
		AnswerHTML: fmt.Sprintf(
			"<h3>Answer:</h3>\n<p align=\"center\"><img src='/static/%s/img/%s' class='img-fluid'></p>",
			deckID, rel),
	}
	_, err = l.store.InsertCard(ctx, card)
	return err
}

// deckIDFromDir recovers the deck id from an image directory laid out
// as ./static/<deck>/img, falling back to "deck".
func deckIDFromDir(dir string) string {
	id := filepath.Base(filepath.Dir(filepath.Clean(dir)))
	if id == "." || id == string(filepath.Separator) || id == "" {
		return "deck"
	}
	return id
}
