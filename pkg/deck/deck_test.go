package deck

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/quickdeck/quickdeck/pkg/deck/config"
	"github.com/quickdeck/quickdeck/pkg/deck/internalerr"
	"github.com/quickdeck/quickdeck/pkg/deck/store"
)

type recordingStore struct {
	cards     []store.Card
	wipes     int
	populates int
}

func (r *recordingStore) Close() error { return nil }

func (r *recordingStore) InsertCard(_ context.Context, c store.Card) (int64, error) {
	r.cards = append(r.cards, c)
	return int64(len(r.cards)), nil
}

func (r *recordingStore) Wipe(context.Context) error {
	r.cards = nil
	r.wipes++
	return nil
}

func (r *recordingStore) PopulateFTS(context.Context) error {
	r.populates++
	return nil
}

func (r *recordingStore) TotalCount(context.Context) (int64, error) {
	return int64(len(r.cards)), nil
}

func (r *recordingStore) IsEmpty(context.Context) (bool, error) {
	return len(r.cards) == 0, nil
}

func (r *recordingStore) DistinctCategories(context.Context) ([]string, error) {
	return nil, nil
}

func (r *recordingStore) DistinctSubcategories(context.Context, []string) ([]store.Subcategory, error) {
	return nil, nil
}

func (r *recordingStore) CountFiltered(context.Context, store.FilterCriteria) (int64, error) {
	return int64(len(r.cards)), nil
}

func (r *recordingStore) RandomFiltered(context.Context, []int64, store.FilterCriteria) (store.Card, bool, error) {
	return store.Card{}, false, nil
}

func testDeck(t *testing.T) (*Deck, *recordingStore, config.Config) {
	t.Helper()
	t.Chdir(t.TempDir())
	st := &recordingStore{}
	cfg := config.Config{Port: 8080, DeckID: "testdeck"}
	return New(st, cfg, zap.NewNop()), st, cfg
}

func TestBuildNoContentDirs(t *testing.T) {
	d, _, _ := testDeck(t)

	err := d.Build(context.Background())
	if !errors.Is(err, internalerr.ErrNoContent) {
		t.Errorf("err = %v, want ErrNoContent", err)
	}
}

func TestBuildMarkdownOnly(t *testing.T) {
	d, st, cfg := testDeck(t)

	mdDir := cfg.MarkdownDir()
	if err := os.MkdirAll(mdDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "Question : Math - Algebra - q?\nAnswer : a.\n"
	if err := os.WriteFile(filepath.Join(mdDir, "cards.md"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := d.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(st.cards) != 1 {
		t.Errorf("got %d cards, want 1", len(st.cards))
	}
	if st.populates != 1 {
		t.Errorf("populates = %d, want exactly 1", st.populates)
	}
}

func TestBuildImagesOnly(t *testing.T) {
	d, st, cfg := testDeck(t)

	imgDir := cfg.ImageDir()
	if err := os.MkdirAll(imgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(imgDir, "x.png"), []byte("px"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := d.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(st.cards) != 1 {
		t.Fatalf("got %d cards, want 1", len(st.cards))
	}
	if st.cards[0].QuestionHTML != store.ImageOnlyMarker {
		t.Errorf("question = %q, want image marker", st.cards[0].QuestionHTML)
	}
	if st.wipes != 1 {
		t.Errorf("wipes = %d, want 1 even without a markdown dir", st.wipes)
	}
}

func TestEnsureContentSkipsPopulatedStore(t *testing.T) {
	d, st, _ := testDeck(t)
	st.cards = []store.Card{{QuestionHTML: "existing"}}

	if err := d.EnsureContent(context.Background()); err != nil {
		t.Fatalf("EnsureContent: %v", err)
	}
	if st.wipes != 0 || st.populates != 0 {
		t.Error("populated store must not be re-ingested")
	}
	if len(st.cards) != 1 {
		t.Errorf("cards disturbed: %d", len(st.cards))
	}
}

func TestCheckContentDir(t *testing.T) {
	dir := t.TempDir()
	if got := CheckContentDir(dir); got != DirValid {
		t.Errorf("existing dir = %v, want DirValid", got)
	}
	if got := CheckContentDir(filepath.Join(dir, "missing")); got != DirMissing {
		t.Errorf("missing path = %v, want DirMissing", got)
	}
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := CheckContentDir(file); got != DirNotADirectory {
		t.Errorf("plain file = %v, want DirNotADirectory", got)
	}
}
