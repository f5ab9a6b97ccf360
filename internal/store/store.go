package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	// Register modernc SQLite driver with database/sql.
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("analysis not found")

// Record is one stored analysis. Result holds the serialized result.
type Record struct {
	ID            string          `json:"id"`
	ContentHash   string          `json:"content_hash"`
	Model         string          `json:"model"`
	TargetLang    string          `json:"target_lang"`
	MaxChunkChars int             `json:"max_chunk_chars"`
	Source        string          `json:"source,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	Result        json.RawMessage `json:"result"`
}

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
    id              TEXT PRIMARY KEY,
    content_hash    TEXT NOT NULL,
    model           TEXT NOT NULL,
    target_lang     TEXT NOT NULL,
    max_chunk_chars INTEGER NOT NULL,
    source          TEXT NOT NULL DEFAULT '',
    created_at      INTEGER NOT NULL,
    result_json     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_lookup
    ON analyses (content_hash, model, target_lang, max_chunk_chars);
CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses (created_at);
`

var recordColumns = []string{
	"id",
	"content_hash",
	"model",
	"target_lang",
	"max_chunk_chars",
	"source",
	"created_at",
	"result_json",
}

// Store keeps analysis history in SQLite.
type Store struct {
	db *sql.DB
	sb squirrel.StatementBuilderType
}

// Open opens (creating if needed) the database at path. Use ":memory:"
// for a throwaway store.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Store{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return errors.New("save analysis: empty id")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	query, args, err := s.sb.
		Insert("analyses").
		Columns(recordColumns...).
		Values(
			rec.ID,
			rec.ContentHash,
			rec.Model,
			rec.TargetLang,
			rec.MaxChunkChars,
			rec.Source,
			rec.CreatedAt.UnixMilli(),
			string(rec.Result),
		).
		Suffix("ON CONFLICT (id) DO UPDATE SET result_json = excluded.result_json").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save analysis %s: %w", rec.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	query, args, err := s.sb.
		Select(recordColumns...).
		From("analyses").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return Record{}, fmt.Errorf("build select: %w", err)
	}
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get analysis %s: %w", id, err)
	}
	return rec, nil
}

// List returns up to limit records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	query, args, err := s.sb.
		Select(recordColumns...).
		From("analyses").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// FindByHash returns the newest analysis of identical input under the
// same settings.
func (s *Store) FindByHash(ctx context.Context, hash, model, targetLang string, maxChunkChars int) (Record, bool, error) {
	query, args, err := s.sb.
		Select(recordColumns...).
		From("analyses").
		Where(squirrel.Eq{
			"content_hash":    hash,
			"model":           model,
			"target_lang":     targetLang,
			"max_chunk_chars": maxChunkChars,
		}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return Record{}, false, fmt.Errorf("build lookup: %w", err)
	}
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("find analysis by hash: %w", err)
	}
	return rec, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec       Record
		createdAt int64
		result    string
	)
	err := row.Scan(
		&rec.ID,
		&rec.ContentHash,
		&rec.Model,
		&rec.TargetLang,
		&rec.MaxChunkChars,
		&rec.Source,
		&createdAt,
		&result,
	)
	if err != nil {
		return Record{}, err
	}
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	rec.Result = json.RawMessage(result)
	return rec, nil
}
