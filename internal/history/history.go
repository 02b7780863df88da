// Package history хранит журнал прогонов в SQLite.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"hush/internal/detect"
)

// Mode режим прогона.
type Mode string

const (
	ModeFile   Mode = "file"
	ModeRecord Mode = "record"
)

// Статусы прогона.
const (
	StatusOK       = "ok"
	StatusFallback = "fallback" // видео с отметками без замены звука
	StatusFailed   = "failed"
)

// Run - один прогон цензуры.
type Run struct {
	ID         string
	Mode       Mode
	Input      string
	Output     string
	Engine     string
	Model      string
	StartedAt  time.Time
	FinishedAt time.Time
	Detections int
	Status     string
}

// Store - журнал прогонов.
type Store struct {
	db *sql.DB
}

// DefaultPath возвращает путь к базе рядом с бинарником.
func DefaultPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "hush.sqlite"
	}
	return filepath.Join(filepath.Dir(exe), "hush.sqlite")
}

// Open открывает (и при необходимости создаёт) базу.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc/sqlite не любит конкурентную запись в один файл.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys=ON;`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			input TEXT NOT NULL,
			output TEXT NOT NULL,
			engine TEXT NOT NULL,
			model TEXT NOT NULL,
			started_at REAL NOT NULL,
			finished_at REAL NOT NULL,
			detections INTEGER NOT NULL,
			status TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`,
		`CREATE TABLE IF NOT EXISTS detections (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			word TEXT NOT NULL,
			start_sec REAL NOT NULL,
			end_sec REAL NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewRunID возвращает идентификатор нового прогона.
func NewRunID() string {
	return uuid.NewString()
}

// Record сохраняет прогон и его интервалы в одной транзакции.
func (s *Store) Record(run Run, dets []detect.Detection) error {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, mode, input, output, engine, model, started_at, finished_at, detections, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, string(run.Mode), run.Input, run.Output, run.Engine, run.Model,
		unixFromTime(run.StartedAt), unixFromTime(run.FinishedAt), len(dets), run.Status)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, d := range detect.Sorted(dets) {
		if _, err := tx.Exec(`INSERT INTO detections (run_id, seq, word, start_sec, end_sec) VALUES (?, ?, ?, ?, ?)`,
			run.ID, i, d.Word, d.Start, d.End); err != nil {
			return fmt.Errorf("insert detection: %w", err)
		}
	}
	return tx.Commit()
}

// Recent возвращает последние прогоны, новые первыми.
func (s *Store) Recent(limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, mode, input, output, engine, model, started_at, finished_at, detections, status
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var mode string
		var startedAt, finishedAt float64
		if err := rows.Scan(&r.ID, &mode, &r.Input, &r.Output, &r.Engine, &r.Model,
			&startedAt, &finishedAt, &r.Detections, &r.Status); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Mode = Mode(mode)
		r.StartedAt = timeFromUnix(startedAt)
		r.FinishedAt = timeFromUnix(finishedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Detections возвращает интервалы прогона по порядку.
func (s *Store) Detections(runID string) ([]detect.Detection, error) {
	rows, err := s.db.Query(`
		SELECT word, start_sec, end_sec FROM detections WHERE run_id = ? ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query detections: %w", err)
	}
	defer rows.Close()

	var dets []detect.Detection
	for rows.Next() {
		var d detect.Detection
		if err := rows.Scan(&d.Word, &d.Start, &d.End); err != nil {
			return nil, fmt.Errorf("scan detection: %w", err)
		}
		dets = append(dets, d)
	}
	return dets, rows.Err()
}

// Delete удаляет прогон вместе с интервалами.
func (s *Store) Delete(runID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM detections WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete detections: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, runID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return tx.Commit()
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
