package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/quickdeck/quickdeck/pkg/deck/store"
)

// poolSize caps concurrent borrows. Sized above the expected parallel
// request level; additional borrows block until one is returned.
const poolSize = 5

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled, creating the
// file on demand, and initializes the schema. The returned store is
// safe for concurrent use.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(poolSize)

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS cards (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category TEXT,
	subcategory TEXT,
	question_html TEXT NOT NULL,
	answer_html TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS cards_fts
USING fts5(id UNINDEXED, category, subcategory, question_html, answer_html);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// InsertCard appends one card and returns its assigned id. The FTS
// shadow row is not written here; see PopulateFTS.
func (s *sqliteStore) InsertCard(ctx context.Context, c store.Card) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
INSERT INTO cards (category, subcategory, question_html, answer_html)
VALUES (?, ?, ?, ?)
RETURNING id;
`, c.Category, c.Subcategory, c.QuestionHTML, c.AnswerHTML).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Wipe deletes all rows from both tables in a single transaction.
func (s *sqliteStore) Wipe(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cards`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cards_fts`); err != nil {
		return err
	}

	return tx.Commit()
}

// PopulateFTS rebuilds the full-text shadow table from the cards
// table. Clearing first keeps repeated populates idempotent: every
// card ends up with exactly one shadow row.
func (s *sqliteStore) PopulateFTS(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cards_fts`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO cards_fts (id, category, subcategory, question_html, answer_html)
SELECT id, category, subcategory, question_html, answer_html FROM cards;
`); err != nil {
		return err
	}

	return tx.Commit()
}

// TotalCount returns the number of cards in the deck.
func (s *sqliteStore) TotalCount(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`).Scan(&total)
	return total, err
}

// IsEmpty reports whether the deck has no cards.
func (s *sqliteStore) IsEmpty(ctx context.Context) (bool, error) {
	total, err := s.TotalCount(ctx)
	if err != nil {
		return false, err
	}
	return total == 0, nil
}

// DistinctCategories returns the sorted set of non-null categories.
func (s *sqliteStore) DistinctCategories(ctx context.Context) ([]string, error) {
	return s.loadStringColumn(ctx, `
SELECT DISTINCT category FROM cards
WHERE category IS NOT NULL
ORDER BY category;
`)
}

// DistinctSubcategories returns all (subcategory, parent category)
// pairs sorted by subcategory. When restrict is non-nil, only pairs
// whose parent is in the set are returned.
func (s *sqliteStore) DistinctSubcategories(ctx context.Context, restrict []string) ([]store.Subcategory, error) {
	query := `
SELECT DISTINCT subcategory, category FROM cards
WHERE subcategory IS NOT NULL
`
	var args []any
	if restrict != nil {
		query += ` AND category IN (` + placeholders(len(restrict)) + `)`
		for _, cat := range restrict {
			args = append(args, cat)
		}
	}
	query += ` ORDER BY subcategory;`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []store.Subcategory
	for rows.Next() {
		var sub store.Subcategory
		if err := rows.Scan(&sub.Name, &sub.Category); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// CountFiltered returns the number of cards matching the criteria.
func (s *sqliteStore) CountFiltered(ctx context.Context, f store.FilterCriteria) (int64, error) {
	where, args := buildFilter(f)

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`+where, args...).Scan(&count)
	return count, err
}

// RandomFiltered returns one card drawn uniformly at random from the
// cards matching the criteria whose id is not in exclude. The second
// return is false when nothing matches.
func (s *sqliteStore) RandomFiltered(ctx context.Context, exclude []int64, f store.FilterCriteria) (store.Card, bool, error) {
	where, args := buildFilter(f)

	if len(exclude) > 0 {
		where += ` AND id NOT IN (` + placeholders(len(exclude)) + `)`
		for _, id := range exclude {
			args = append(args, id)
		}
	}

	query := `SELECT id, category, subcategory, question_html, answer_html FROM cards` +
		where + ` ORDER BY RANDOM() LIMIT 1`

	var (
		c        store.Card
		cat, sub sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&c.ID, &cat, &sub, &c.QuestionHTML, &c.AnswerHTML)
	if err == sql.ErrNoRows {
		return store.Card{}, false, nil
	}
	if err != nil {
		return store.Card{}, false, err
	}
	c.Category = nullable(cat)
	c.Subcategory = nullable(sub)
	return c, true, nil
}

// buildFilter assembles the shared WHERE clause for CountFiltered and
// RandomFiltered. User-provided values are always bound as parameters;
// only placeholder lists are interpolated. Keywords are joined with
// " AND " and handed to FTS MATCH unescaped, so malformed MATCH syntax
// surfaces as a query error.
func buildFilter(f store.FilterCriteria) (string, []any) {
	var b strings.Builder
	b.WriteString(` WHERE 1=1`)
	var args []any

	if len(f.Keywords) > 0 {
		b.WriteString(` AND id IN (SELECT id FROM cards_fts WHERE cards_fts MATCH ?)`)
		args = append(args, strings.Join(f.Keywords, " AND "))
	}

	// nil means all categories; an empty non-nil set means image-only.
	if f.Categories != nil {
		if len(f.Categories) == 0 {
			b.WriteString(` AND category IS NULL`)
		} else {
			b.WriteString(` AND category IN (` + placeholders(len(f.Categories)) + `)`)
			for _, cat := range f.Categories {
				args = append(args, cat)
			}
		}
	}

	if len(f.Subcategories) > 0 {
		b.WriteString(` AND subcategory IN (` + placeholders(len(f.Subcategories)) + `)`)
		for _, sub := range f.Subcategories {
			args = append(args, sub)
		}
	}

	if !f.IncludeImages {
		b.WriteString(` AND question_html != ?`)
		args = append(args, store.ImageOnlyMarker)
	}

	return b.String(), args
}

func (s *sqliteStore) loadStringColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var val string
		if err := rows.Scan(&val); err != nil {
			return nil, err
		}
		result = append(result, val)
	}
	return result, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
