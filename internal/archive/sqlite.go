package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"shuffletrace/internal/playlist"
)

// Run is one archived playthrough.
type Run struct {
	ID        int64
	Playlist  string
	Output    string
	StartedAt time.Time
	Rows      []playlist.Sample
}

// Sqlite keeps every playthrough in one database so many runs can be
// compared without collecting their CSV files.
type Sqlite struct {
	db *sql.DB
}

// Open opens (creating if needed) the archive at path and ensures its schema.
func Open(path string) (*Sqlite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// One connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	s := &Sqlite{db: db}
	if err := s.create(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sqlite) Close() error {
	return s.db.Close()
}

func (s *Sqlite) create() error {
	qs := [...]string{
		`PRAGMA foreign_keys = 1`,
		`CREATE TABLE IF NOT EXISTS run (
			id INTEGER PRIMARY KEY,
			playlist TEXT NOT NULL,
			output TEXT NOT NULL,
			started_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sample (
			run_id INTEGER NOT NULL REFERENCES run (id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			track_name TEXT NOT NULL,
			playlist_pos INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
	}
	for _, q := range qs {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("create archive schema: %w", err)
		}
	}
	return nil
}

// Record stores a playthrough and its rows in one transaction.
func (s *Sqlite) Record(ctx context.Context, playlistName, output string, startedAt time.Time, rows []playlist.Sample) error {
	handleErr := func(err error) error {
		return fmt.Errorf("sqlite: record run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return handleErr(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO run (playlist, output, started_at) VALUES ($1, $2, $3)`,
		playlistName, output, startedAt.UnixMilli())
	if err != nil {
		return handleErr(err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return handleErr(err)
	}

	const q = `INSERT INTO sample (run_id, seq, track_name, playlist_pos) VALUES ($1, $2, $3, $4)`
	for i, r := range rows {
		if _, err := tx.ExecContext(ctx, q, runID, i+1, r.TrackName, r.PlaylistPos); err != nil {
			return handleErr(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return handleErr(err)
	}
	return nil
}

// Runs returns every archived playthrough of playlistName in recording order.
func (s *Sqlite) Runs(ctx context.Context, playlistName string) ([]Run, error) {
	handleErr := func(err error) ([]Run, error) {
		return nil, fmt.Errorf("sqlite: get runs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.playlist, r.output, r.started_at, s.track_name, s.playlist_pos
		FROM run r
		LEFT JOIN sample s ON s.run_id = r.id
		WHERE r.playlist = $1
		ORDER BY r.id, s.seq`, playlistName)
	if err != nil {
		return handleErr(err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			startedAt int64
			name      sql.NullString
			pos       sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Playlist, &r.Output, &startedAt, &name, &pos); err != nil {
			return handleErr(err)
		}
		if len(runs) == 0 || runs[len(runs)-1].ID != r.ID {
			r.StartedAt = time.UnixMilli(startedAt)
			runs = append(runs, r)
		}
		if name.Valid {
			last := &runs[len(runs)-1]
			last.Rows = append(last.Rows, playlist.Sample{TrackName: name.String, PlaylistPos: int(pos.Int64)})
		}
	}
	if err := rows.Err(); err != nil {
		return handleErr(err)
	}
	return runs, nil
}

// PositionCounts tallies how often each playlist position was observed at
// each step across all archived runs of playlistName: counts[step][pos].
func (s *Sqlite) PositionCounts(ctx context.Context, playlistName string) (map[int]map[int]int, error) {
	handleErr := func(err error) (map[int]map[int]int, error) {
		return nil, fmt.Errorf("sqlite: position counts: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT s.seq, s.playlist_pos, COUNT(*)
		FROM sample s
		JOIN run r ON r.id = s.run_id
		WHERE r.playlist = $1
		GROUP BY s.seq, s.playlist_pos`, playlistName)
	if err != nil {
		return handleErr(err)
	}
	defer rows.Close()

	counts := make(map[int]map[int]int)
	for rows.Next() {
		var step, pos, n int
		if err := rows.Scan(&step, &pos, &n); err != nil {
			return handleErr(err)
		}
		if counts[step] == nil {
			counts[step] = make(map[int]int)
		}
		counts[step][pos] = n
	}
	if err := rows.Err(); err != nil {
		return handleErr(err)
	}
	return counts, nil
}
