package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists render history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logrus.Entry
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *logrus.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the service writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logger.WithField("component", "recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS render_cycles (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			generation  INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			mode        TEXT NOT NULL,
			state       TEXT NOT NULL,
			error       TEXT,
			draw_error  TEXT,
			samples     INTEGER,
			panes       INTEGER,
			series      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_render_ts ON render_cycles(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_render_symbol ON render_cycles(symbol)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRender(evt *RenderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := evt.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO render_cycles
		(timestamp, generation, symbol, mode, state, error, draw_error, samples, panes, series)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		ts.UnixMilli(), int64(evt.Generation), evt.Symbol, evt.Mode, evt.State,
		evt.Error, evt.DrawError, evt.Samples, evt.Panes, evt.Series,
	)
	return err
}

func (r *SQLiteRecorder) Recent(limit int) ([]RenderEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, generation, symbol, mode, state,
		COALESCE(error, ''), COALESCE(draw_error, ''), samples, panes, series
		FROM render_cycles ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query render history: %w", err)
	}
	defer rows.Close()

	events := []RenderEvent{}
	for rows.Next() {
		var (
			evt RenderEvent
			ts  int64
			gen int64
		)
		if err := rows.Scan(&ts, &gen, &evt.Symbol, &evt.Mode, &evt.State,
			&evt.Error, &evt.DrawError, &evt.Samples, &evt.Panes, &evt.Series); err != nil {
			return nil, fmt.Errorf("scan render history: %w", err)
		}
		evt.Timestamp = time.UnixMilli(ts)
		evt.Generation = uint64(gen)
		events = append(events, evt)
	}
	return events, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
