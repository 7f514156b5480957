// Package history keeps a local log of graded attempts so progress
// stays visible without asking the service.
package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/elysian-app/elysian/internal/model"

	_ "modernc.org/sqlite"
)

// Attempt is one graded practice attempt.
type Attempt struct {
	ID         int64
	Module     model.Module
	ExerciseID string
	Title      string
	Score      float64
	XPEarned   int
	Correct    int
	Total      int
	CreatedAt  time.Time
}

// FromResult builds the log row for a graded attempt. Speak exercises
// have no title, so the prompt stands in for one.
func FromResult(ex *model.Exercise, res *model.Result, at time.Time) Attempt {
	correct := 0
	for _, d := range res.Details {
		if d.Correct {
			correct++
		}
	}
	title := ex.Title
	if title == "" {
		title = snip(ex.Content, 60)
	}
	return Attempt{
		Module:     res.Module,
		ExerciseID: ex.ID,
		Title:      title,
		Score:      res.Score,
		XPEarned:   res.XPEarned,
		Correct:    correct,
		Total:      len(res.Details),
		CreatedAt:  at,
	}
}

func snip(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := strings.LastIndex(s[:max], " ")
	if cut <= 0 {
		cut = max
	}
	return s[:cut] + "…"
}

// ModuleSummary aggregates the log for one module.
type ModuleSummary struct {
	Module   model.Module
	Attempts int
	Best     float64
	Average  float64
	XPEarned int
}

type Store struct {
	db *sql.DB
}

// New opens (and migrates) the history database at path.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate history database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		module TEXT NOT NULL,
		exercise_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		score REAL NOT NULL DEFAULT 0,
		xp_earned INTEGER NOT NULL DEFAULT 0,
		correct INTEGER NOT NULL DEFAULT 0,
		total INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends an attempt to the log.
func (s *Store) Record(a Attempt) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO attempts (module, exercise_id, title, score, xp_earned, correct, total, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(a.Module), a.ExerciseID, a.Title, a.Score, a.XPEarned, a.Correct, a.Total, a.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Recent returns the latest attempts, newest first.
func (s *Store) Recent(limit int) ([]Attempt, error) {
	rows, err := s.db.Query(
		`SELECT id, module, exercise_id, title, score, xp_earned, correct, total, created_at
		 FROM attempts ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		var module string
		if err := rows.Scan(&a.ID, &module, &a.ExerciseID, &a.Title, &a.Score,
			&a.XPEarned, &a.Correct, &a.Total, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Module = model.Module(module)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Summary aggregates the log per module, in module name order.
func (s *Store) Summary() ([]ModuleSummary, error) {
	rows, err := s.db.Query(
		`SELECT module, COUNT(*), MAX(score), AVG(score), SUM(xp_earned)
		 FROM attempts GROUP BY module ORDER BY module`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []ModuleSummary
	for rows.Next() {
		var sum ModuleSummary
		var module string
		if err := rows.Scan(&module, &sum.Attempts, &sum.Best, &sum.Average, &sum.XPEarned); err != nil {
			return nil, err
		}
		sum.Module = model.Module(module)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}
