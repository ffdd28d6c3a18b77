package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"phrasehub/pkg/models"
)

// ErrNotFound is returned by Delete when no search has the given id.
var ErrNotFound = errors.New("search not found")

type Repo struct {
	DB *sql.DB
}

type ListQuery struct {
	Q      string // substring of the query text
	Limit  int
	Offset int
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Save inserts or replaces a finished search.
func (r *Repo) Save(ctx context.Context, rec models.SearchRecord) error {
	sources, err := json.Marshal(nonNil(rec.Sources))
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}
	left, err := json.Marshal(nonNil(rec.LeftWords))
	if err != nil {
		return fmt.Errorf("marshal left words: %w", err)
	}
	right, err := json.Marshal(nonNil(rec.RightWords))
	if err != nil {
		return fmt.Errorf("marshal right words: %w", err)
	}
	stats, err := json.Marshal(rec.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO searches (id, query, started_at, finished_at, source_count, sources_json, left_json, right_json, stats_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			query = excluded.query,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			source_count = excluded.source_count,
			sources_json = excluded.sources_json,
			left_json = excluded.left_json,
			right_json = excluded.right_json,
			stats_json = excluded.stats_json
	`, rec.ID, rec.Query, rec.StartedAt.UTC(), rec.FinishedAt.UTC(), len(rec.Sources),
		string(sources), string(left), string(right), string(stats))
	if err != nil {
		return fmt.Errorf("insert search: %w", err)
	}
	return nil
}

// Get returns the full record, or nil when id is unknown.
func (r *Repo) Get(ctx context.Context, id string) (*models.SearchRecord, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, query, started_at, finished_at, sources_json, left_json, right_json, stats_json
		FROM searches
		WHERE id = ?
	`, id)

	var rec models.SearchRecord
	var sources, left, right, statsBlob string
	if err := row.Scan(&rec.ID, &rec.Query, &rec.StartedAt, &rec.FinishedAt,
		&sources, &left, &right, &statsBlob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan get: %w", err)
	}

	if err := json.Unmarshal([]byte(sources), &rec.Sources); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	if err := json.Unmarshal([]byte(left), &rec.LeftWords); err != nil {
		return nil, fmt.Errorf("decode left words: %w", err)
	}
	if err := json.Unmarshal([]byte(right), &rec.RightWords); err != nil {
		return nil, fmt.Errorf("decode right words: %w", err)
	}
	if err := json.Unmarshal([]byte(statsBlob), &rec.Stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return &rec, nil
}

func (r *Repo) Count(ctx context.Context, q ListQuery) (int, error) {
	sqlStr, args := buildListSQL(q, true)
	var total int
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

// List returns summaries, newest first.
func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.SearchSummary, error) {
	sqlStr, args := buildListSQL(q, false)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]models.SearchSummary, 0)
	for rows.Next() {
		var s models.SearchSummary
		if err := rows.Scan(&s.ID, &s.Query, &s.StartedAt, &s.FinishedAt, &s.SourceCount); err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM searches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete search: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func buildListSQL(q ListQuery, countOnly bool) (string, []any) {
	sqlStr := `SELECT id, query, started_at, finished_at, source_count FROM searches`
	if countOnly {
		sqlStr = `SELECT COUNT(*) FROM searches`
	}

	var args []any
	if kw := strings.TrimSpace(q.Q); kw != "" {
		sqlStr += " WHERE LOWER(query) LIKE ?"
		args = append(args, "%"+strings.ToLower(kw)+"%")
	}

	if !countOnly {
		sqlStr += " ORDER BY started_at DESC, id ASC LIMIT ? OFFSET ?"
		limit := q.Limit
		if limit <= 0 || limit > 100 {
			limit = 20
		}
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		args = append(args, limit, offset)
	}
	return sqlStr, args
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
