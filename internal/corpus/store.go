package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kidtalk/agelab/internal/agebin"
	"github.com/kidtalk/agelab/internal/models"
)

// Store persists utterances in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates a SQLite database at dbPath and initializes the
// schema. Parent directories are created if they do not exist.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS utterances (
		id TEXT PRIMARY KEY,
		corpus TEXT NOT NULL,
		file TEXT NOT NULL,
		speaker TEXT NOT NULL,
		age_months REAL NOT NULL,
		raw TEXT NOT NULL,
		clean TEXT NOT NULL,
		word_count INTEGER NOT NULL,
		split TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_utterances_file ON utterances(file);
	CREATE INDEX IF NOT EXISTS idx_utterances_split ON utterances(split);
	`
	_, err := db.Exec(schema)
	return err
}

// Add inserts utterances in a single transaction.
func (s *Store) Add(ctx context.Context, utterances []*models.Utterance) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertBatch(ctx, tx, utterances); err != nil {
		return err
	}
	return tx.Commit()
}

func insertBatch(ctx context.Context, tx *sql.Tx, utterances []*models.Utterance) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO utterances (id, corpus, file, speaker, age_months, raw, clean, word_count, split)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, u := range utterances {
		if _, err := stmt.ExecContext(ctx,
			u.ID, u.Corpus, u.File, u.Speaker, u.AgeMonths, u.Raw, u.Clean, u.WordCount, u.Split,
		); err != nil {
			return err
		}
	}
	return nil
}

// Get returns an utterance by ID.
func (s *Store) Get(ctx context.Context, id string) (*models.Utterance, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, corpus, file, speaker, age_months, raw, clean, word_count, split
		 FROM utterances WHERE id = ?`, id,
	)
	u, err := scanUtterance(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("utterance not found: %s", id)
	}
	return u, err
}

// ReplaceFile swaps all utterances of one source file in a transaction and
// returns the IDs that were removed, so callers can keep the text index in
// step.
func (s *Store) ReplaceFile(ctx context.Context, file string, utterances []*models.Utterance) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM utterances WHERE file = ?`, file)
	if err != nil {
		return nil, err
	}
	var removed []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		removed = append(removed, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, `DELETE FROM utterances WHERE file = ?`, file); err != nil {
		return nil, err
	}
	if err := insertBatch(ctx, tx, utterances); err != nil {
		return nil, err
	}
	return removed, tx.Commit()
}

// DeleteFile removes all utterances of one source file and returns their IDs.
func (s *Store) DeleteFile(ctx context.Context, file string) ([]string, error) {
	return s.ReplaceFile(ctx, file, nil)
}

// ListAll returns every utterance ordered by ID.
func (s *Store) ListAll(ctx context.Context) ([]*models.Utterance, error) {
	return s.list(ctx,
		`SELECT id, corpus, file, speaker, age_months, raw, clean, word_count, split
		 FROM utterances ORDER BY id`)
}

// ListSplit returns the utterances assigned to one split, ordered by ID.
func (s *Store) ListSplit(ctx context.Context, split string) ([]*models.Utterance, error) {
	return s.list(ctx,
		`SELECT id, corpus, file, speaker, age_months, raw, clean, word_count, split
		 FROM utterances WHERE split = ? ORDER BY id`, split)
}

func (s *Store) list(ctx context.Context, query string, args ...interface{}) ([]*models.Utterance, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Utterance
	for rows.Next() {
		u, err := scanUtterance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUtterance(row scanner) (*models.Utterance, error) {
	var u models.Utterance
	err := row.Scan(&u.ID, &u.Corpus, &u.File, &u.Speaker, &u.AgeMonths, &u.Raw, &u.Clean, &u.WordCount, &u.Split)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SplitCounts reports how many utterances each split holds.
type SplitCounts struct {
	Train int64 `json:"train"`
	Dev   int64 `json:"dev"`
	Test  int64 `json:"test"`
}

// AssignSplits shuffles all utterances with the seed and assigns test, dev,
// and train splits. The test fraction applies to the whole corpus, the dev
// fraction to what remains after the test cut; both counts round up. The
// same seed over the same corpus always yields the same assignment.
func (s *Store) AssignSplits(ctx context.Context, seed int64, testFrac, devFrac float64) (SplitCounts, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM utterances ORDER BY id`)
	if err != nil {
		return SplitCounts{}, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return SplitCounts{}, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return SplitCounts{}, err
	}
	rows.Close()

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	nTest := int(math.Ceil(float64(len(ids)) * testFrac))
	rest := len(ids) - nTest
	nDev := int(math.Ceil(float64(rest) * devFrac))

	splitFor := func(i int) string {
		switch {
		case i < nTest:
			return models.SplitTest
		case i < nTest+nDev:
			return models.SplitDev
		default:
			return models.SplitTrain
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SplitCounts{}, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE utterances SET split = ? WHERE id = ?`)
	if err != nil {
		return SplitCounts{}, err
	}
	defer stmt.Close()

	var counts SplitCounts
	for i, id := range ids {
		split := splitFor(i)
		if _, err := stmt.ExecContext(ctx, split, id); err != nil {
			return SplitCounts{}, err
		}
		switch split {
		case models.SplitTrain:
			counts.Train++
		case models.SplitDev:
			counts.Dev++
		case models.SplitTest:
			counts.Test++
		}
	}
	return counts, tx.Commit()
}

// Stats summarizes the stored corpus. Bins counts utterances per age bin,
// keyed by bin label, with unusable ages under agebin.Unknown.
type Stats struct {
	Utterances int64            `json:"utterances"`
	Files      int64            `json:"files"`
	Corpora    int64            `json:"corpora"`
	WithAge    int64            `json:"with_age"`
	Splits     SplitCounts      `json:"splits"`
	Bins       map[string]int64 `json:"bins"`
}

// Stats returns corpus-level counts.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	var withAge sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT file), COUNT(DISTINCT corpus),
		        SUM(CASE WHEN age_months >= 0 THEN 1 ELSE 0 END)
		 FROM utterances`,
	).Scan(&st.Utterances, &st.Files, &st.Corpora, &withAge)
	if err != nil {
		return nil, err
	}
	st.WithAge = withAge.Int64

	rows, err := s.db.QueryContext(ctx, `SELECT split, COUNT(*) FROM utterances GROUP BY split`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var split string
		var count int64
		if err := rows.Scan(&split, &count); err != nil {
			return nil, err
		}
		switch split {
		case models.SplitTrain:
			st.Splits.Train = count
		case models.SplitDev:
			st.Splits.Dev = count
		case models.SplitTest:
			st.Splits.Test = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	st.Bins = make(map[string]int64)
	binRows, err := s.db.QueryContext(ctx, `SELECT age_months, COUNT(*) FROM utterances GROUP BY age_months`)
	if err != nil {
		return nil, err
	}
	defer binRows.Close()
	for binRows.Next() {
		var months float64
		var count int64
		if err := binRows.Scan(&months, &count); err != nil {
			return nil, err
		}
		st.Bins[agebin.FromMonths(months)] += count
	}
	return &st, binRows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
