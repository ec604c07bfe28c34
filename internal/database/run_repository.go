package database

import (
	"database/sql"
	"fmt"
	"time"

	"suborbit/models"
)

// RunRepository persists discovery run records.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a run repository.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run record in its initial state.
func (r *RunRepository) Create(run *models.Run) error {
	_, err := r.db.Exec(`
		INSERT INTO runs (id, state, start_year, end_year, source, accepted, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.State), run.StartYear, run.EndYear, run.Source, run.Accepted, run.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Finish stamps the run's terminal state, accepted count, and finish time.
func (r *RunRepository) Finish(id string, state models.RunState, accepted int) error {
	res, err := r.db.Exec(`
		UPDATE runs SET state = ?, accepted = ?, finished_at = ?
		WHERE id = ?`,
		string(state), accepted, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: no run with id %s", id)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (r *RunRepository) List(limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`
		SELECT id, state, start_year, end_year, source, accepted, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var run models.Run
		var state string
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &state, &run.StartYear, &run.EndYear,
			&run.Source, &run.Accepted, &run.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.State = models.RunState(state)
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns one run by id, or nil when it does not exist.
func (r *RunRepository) Get(id string) (*models.Run, error) {
	var run models.Run
	var state string
	var finished sql.NullTime
	err := r.db.QueryRow(`
		SELECT id, state, start_year, end_year, source, accepted, started_at, finished_at
		FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &state, &run.StartYear, &run.EndYear,
			&run.Source, &run.Accepted, &run.StartedAt, &finished)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	run.State = models.RunState(state)
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
