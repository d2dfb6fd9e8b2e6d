// Command quickdeck serves a flashcard deck ingested from a directory
// of markdown files and images.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quickdeck/quickdeck/pkg/deck"
	"github.com/quickdeck/quickdeck/pkg/deck/config"
	"github.com/quickdeck/quickdeck/pkg/deck/internalerr"
	"github.com/quickdeck/quickdeck/pkg/deck/session"
	"github.com/quickdeck/quickdeck/pkg/deck/store/sqlite"
	"github.com/quickdeck/quickdeck/pkg/deck/web"
)

type options struct {
	configFile  string
	port        int
	deckID      string
	deckName    string
	databaseURL string
	rebuildDeck string
	debug       bool
}

func main() {
	var opts options

	root := &cobra.Command{
		Use:          "quickdeck",
		Short:        "Serve a flashcard practice deck over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	root.Flags().StringVar(&opts.configFile, "config", config.DefaultFile, "path to YAML config file")
	root.Flags().IntVar(&opts.port, "port", 0, "listen port (overrides config)")
	root.Flags().StringVar(&opts.deckID, "deck", "", "deck id (overrides config)")
	root.Flags().StringVar(&opts.deckName, "deck-name", "", "deck display name (overrides config)")
	root.Flags().StringVar(&opts.databaseURL, "database", "", "database location (overrides config)")
	root.Flags().StringVar(&opts.rebuildDeck, "rebuild-deck", "", "deck id whose database is deleted and re-ingested")
	root.Flags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, opts options) error {
	logger, err := newLogger(opts.debug)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}

	// Flags win over file and environment.
	if cmd.Flags().Changed("port") {
		cfg.Port = opts.port
	}
	if opts.deckID != "" {
		cfg.DeckID = opts.deckID
	}
	if opts.deckName != "" {
		cfg.DeckDisplayName = opts.deckName
	}
	if opts.databaseURL != "" {
		cfg.DatabaseURL = opts.databaseURL
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", internalerr.ErrInvalidConfig, cfg.Port)
	}

	ctx := context.Background()

	if opts.rebuildDeck != "" {
		if err := rebuildDeckDatabase(logger, opts.rebuildDeck, cfg.DeckID); err != nil {
			return err
		}
	}

	st, err := sqlite.Open(ctx, cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	d := deck.New(st, cfg, logger)
	defer func() { _ = d.Close() }()

	if err := d.EnsureContent(ctx); err != nil {
		if errors.Is(err, internalerr.ErrNoContent) {
			logger.Error("no content directories found",
				zap.String("markdown", cfg.MarkdownDir()),
				zap.String("images", cfg.ImageDir()))
		}
		return err
	}

	srv, err := web.NewServer(st, session.NewMemoryStore(), cfg, logger)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("listening",
		zap.String("addr", addr),
		zap.String("deck", cfg.DeckID))
	return http.ListenAndServe(addr, srv.Handler())
}

// rebuildDeckDatabase deletes ./<id>.db so the next start re-ingests
// that deck. The id may name a deck other than the one being served;
// that case is allowed but flagged.
func rebuildDeckDatabase(logger *zap.Logger, rebuildID, servedID string) error {
	if rebuildID != servedID {
		logger.Warn("rebuild deck differs from served deck",
			zap.String("rebuild", rebuildID),
			zap.String("served", servedID))
	}
	path := "./" + rebuildID + ".db"
	switch err := os.Remove(path); {
	case err == nil:
		logger.Info("deleted deck database for rebuild", zap.String("path", path))
	case errors.Is(err, os.ErrNotExist):
		logger.Warn("rebuild requested but no database exists", zap.String("path", path))
	default:
		return fmt.Errorf("delete database: %w", err)
	}
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if debug {
		zcfg = zap.NewDevelopmentConfig()
	}
	return zcfg.Build()
}
