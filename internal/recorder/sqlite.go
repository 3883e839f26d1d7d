package recorder

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"
	_ "modernc.org/sqlite"

	"FinAgent/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			timestamp    INTEGER NOT NULL,
			query        TEXT,
			mode         TEXT,
			period       TEXT,
			symbols      TEXT,
			comparison   INTEGER,
			warning      TEXT,
			agent_errors INTEGER,
			states       TEXT,
			duration_ms  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS symbol_reports (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL REFERENCES runs(id),
			symbol     TEXT,
			status     TEXT,
			bars       INTEGER,
			mean_price REAL,
			max_price  REAL,
			min_price  REAL,
			plot_path  TEXT,
			error      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_run ON symbol_reports(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:30], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	comparison := 0
	if run.Comparison {
		comparison = 1
	}
	_, err = tx.Exec(`INSERT INTO runs
		(id, timestamp, query, mode, period, symbols, comparison, warning, agent_errors, states, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), run.Query, run.Mode, string(run.Period),
		strings.Join(run.Symbols, ","), comparison, run.Warning, run.AgentErrors,
		strings.Join(run.States, ","), run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, rep := range run.Reports {
		var mean, high, low sql.NullFloat64
		if rep.Summary != nil {
			mean = sql.NullFloat64{Float64: rep.Summary.MeanPrice, Valid: true}
			high = sql.NullFloat64{Float64: rep.Summary.MaxPrice, Valid: true}
			low = sql.NullFloat64{Float64: rep.Summary.MinPrice, Valid: true}
		}
		_, err = tx.Exec(`INSERT INTO symbol_reports
			(run_id, symbol, status, bars, mean_price, max_price, min_price, plot_path, error)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			run.ID, rep.Symbol, string(rep.Status), rep.Bars, mean, high, low, rep.PlotPath, rep.Err,
		)
		if err != nil {
			return fmt.Errorf("insert symbol report: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT id, timestamp, query, mode, period, symbols, comparison,
		warning, agent_errors, states, duration_ms
		FROM runs ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			run                     RunRecord
			ts, durationMS          int64
			comparison              int
			period, symbols, states string
		)
		if err := rows.Scan(&run.ID, &ts, &run.Query, &run.Mode, &period, &symbols, &comparison,
			&run.Warning, &run.AgentErrors, &states, &durationMS); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.Unix(ts, 0)
		run.Period = model.Period(period)
		run.Symbols = splitList(symbols)
		run.States = splitList(states)
		run.Comparison = comparison == 1
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
