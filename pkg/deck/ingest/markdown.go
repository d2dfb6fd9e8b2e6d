// Package ingest loads deck content, markdown question/answer files
// and image assets, into the card store.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/quickdeck/quickdeck/pkg/deck/store"
)

// The three expressions below are the deck file grammar. Existing
// decks depend on the exact delimiter shapes, so they must not drift.
var (
	// HTML comments are stripped first, across lines.
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	// Delimiters anchor at line start so a mid-line "Question :" (say,
	// inside an answer body) never splits a block.
	questionRe = regexp.MustCompile(`(?mi)^\s*Question\s+:`)
	answerRe   = regexp.MustCompile(`(?mi)^\s*Answer\s+:`)
	// " - " (space-hyphen-space) separators, so category and
	// subcategory names may contain hyphens internally.
	taxonomyRe = regexp.MustCompile(`^\s*(.+?)\s-\s(.+?)\s-\s(.+)`)
)

// MarkdownLoader ingests .md question/answer files into the store.
type MarkdownLoader struct {
	store    store.Store
	renderer *Renderer
	logger   *zap.Logger
}

// NewMarkdownLoader creates a loader writing through the given store.
func NewMarkdownLoader(st store.Store, logger *zap.Logger) *MarkdownLoader {
	return &MarkdownLoader{store: st, renderer: NewRenderer(), logger: logger}
}

// LoadDir wipes the card tables and ingests every .md file under dir,
// recursively and following symlinks. Per-file failures are logged and
// skipped. The FTS index is not populated here; the caller does that
// once after all loaders have run.
func (l *MarkdownLoader) LoadDir(ctx context.Context, dir string) error {
	l.logger.Info("loading markdown files", zap.String("dir", dir))

	if err := l.store.Wipe(ctx); err != nil {
		return fmt.Errorf("wipe cards: %w", err)
	}

	total := 0
	err := walkFiles(dir, func(path string) error {
		if filepath.Ext(path) != ".md" {
			return nil
		}
		n, err := l.loadFile(ctx, path)
		if err != nil {
			l.logger.Warn("failed to process markdown file",
				zap.String("path", path), zap.Error(err))
			return nil
		}
		total += n
		return nil
	})
	if err != nil {
		return err
	}

	l.logger.Info("loaded markdown flashcards", zap.Int("count", total))
	return nil
}

func (l *MarkdownLoader) loadFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}

	cards, err := l.parseContent(path, string(raw))
	if err != nil {
		return 0, err
	}
	for _, c := range cards {
		if _, err := l.store.InsertCard(ctx, c); err != nil {
			return 0, fmt.Errorf("insert card: %w", err)
		}
	}
	return len(cards), nil
}

// parseContent splits one file into Q/A blocks and renders them. A
// file yielding no blocks is not an error; a block with no answer
// delimiter is skipped.
func (l *MarkdownLoader) parseContent(path, content string) ([]store.Card, error) {
	cleaned := commentRe.ReplaceAllString(content, "")

	// The prefix before the first question delimiter is preamble.
	parts := questionRe.Split(cleaned, -1)

	var cards []store.Card
	for _, part := range parts[1:] {
		loc := answerRe.FindStringIndex(part)
		if loc == nil {
			continue
		}
		questionPart := strings.TrimSpace(part[:loc[0]])
		answerMD := strings.TrimSpace(part[loc[1]:])

		var category, subcategory *string
		questionMD := questionPart
		if m := taxonomyRe.FindStringSubmatch(questionPart); m != nil {
			cat := strings.TrimSpace(m[1])
			sub := strings.TrimSpace(m[2])
			category, subcategory = &cat, &sub
			questionMD = strings.TrimSpace(m[3])
		} else {
			l.logger.Warn("non-conforming question format",
				zap.String("path", path), zap.String("question", questionPart))
		}

		if questionMD == "" && answerMD == "" {
			continue
		}

		// Headers are prepended before conversion so they render as
		// part of the card HTML.
		qHTML, err := l.renderer.Render("### Question :\n" + questionMD)
		if err != nil {
			return nil, fmt.Errorf("render question: %w", err)
		}
		aHTML, err := l.renderer.Render("### Answer :\n" + answerMD)
		if err != nil {
			return nil, fmt.Errorf("render answer: %w", err)
		}

		cards = append(cards, store.Card{
			Category:     category,
			Subcategory:  subcategory,
			QuestionHTML: qHTML,
			AnswerHTML:   aHTML,
		})
	}
	return cards, nil
}
