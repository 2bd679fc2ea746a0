package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/xiaot623/gogo/director/internal/domain"
)

// SQLiteStore implements JobStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			job_id TEXT PRIMARY KEY,
			original_prompt TEXT NOT NULL,
			status TEXT NOT NULL,
			total_cost REAL NOT NULL DEFAULT 0,
			agent_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			executed_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS job_steps (
			job_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			agent_address TEXT NOT NULL,
			agent_id TEXT,
			agent_name TEXT NOT NULL,
			agent_prompt TEXT NOT NULL,
			cost REAL NOT NULL DEFAULT 0,
			valid INTEGER NOT NULL,
			reason TEXT,
			PRIMARY KEY (job_id, position),
			FOREIGN KEY (job_id) REFERENCES jobs(job_id)
		)`,
		`CREATE TABLE IF NOT EXISTS executions (
			execution_id INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id TEXT NOT NULL,
			status TEXT NOT NULL,
			report TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_job ON executions(job_id, execution_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveQuote records a plan and its valid and invalid steps.
func (s *SQLiteStore) SaveQuote(ctx context.Context, plan *domain.Plan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	createdAt := plan.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO jobs (job_id, original_prompt, status, total_cost, agent_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		plan.JobID, plan.OriginalPrompt, domain.JobStatusQuoted, plan.TotalCost, plan.AgentCount, createdAt); err != nil {
		return err
	}

	steps := append(append([]domain.PlanStep{}, plan.AgentSequence...), plan.InvalidSteps...)
	for i, step := range steps {
		var reason sql.NullString
		if step.Reason != "" {
			reason = sql.NullString{String: step.Reason, Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO job_steps (job_id, position, agent_address, agent_id, agent_name, agent_prompt, cost, valid, reason) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			plan.JobID, i, step.AgentAddress, step.AgentID, step.AgentName, step.AgentPrompt, step.Cost, step.Valid, reason); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveExecution records an execution report. Jobs quoted elsewhere are
// created on the fly so the ledger never rejects a report.
func (s *SQLiteStore) SaveExecution(ctx context.Context, report *domain.ExecutionReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO jobs (job_id, original_prompt, status, total_cost, agent_count, created_at, executed_at) VALUES (?, '', ?, ?, ?, ?, ?)
		 ON CONFLICT(job_id) DO UPDATE SET status = excluded.status, executed_at = excluded.executed_at`,
		report.JobID, report.Status, report.ExecutionSummary.TotalCost, report.ExecutionSummary.TotalAgents, now, now); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO executions (job_id, status, report, created_at) VALUES (?, ?, ?, ?)`,
		report.JobID, report.Status, string(data), now); err != nil {
		return err
	}
	return tx.Commit()
}

// GetJob retrieves a job with its valid steps and latest execution.
// It returns nil, nil when the job is unknown.
func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*domain.JobRecord, error) {
	var job domain.JobRecord
	var executedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT job_id, original_prompt, status, total_cost, agent_count, created_at, executed_at FROM jobs WHERE job_id = ?`,
		jobID).Scan(&job.JobID, &job.OriginalPrompt, &job.Status, &job.TotalCost, &job.AgentCount, &job.CreatedAt, &executedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if executedAt.Valid {
		job.ExecutedAt = &executedAt.Time
	}

	steps, err := s.getSteps(ctx, jobID)
	if err != nil {
		return nil, err
	}
	job.AgentSequence = steps

	var report string
	err = s.db.QueryRowContext(ctx,
		`SELECT report FROM executions WHERE job_id = ? ORDER BY execution_id DESC LIMIT 1`,
		jobID).Scan(&report)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if err == nil {
		var exec domain.ExecutionReport
		if err := json.Unmarshal([]byte(report), &exec); err != nil {
			return nil, fmt.Errorf("failed to decode report: %w", err)
		}
		job.Execution = &exec
	}
	return &job, nil
}

func (s *SQLiteStore) getSteps(ctx context.Context, jobID string) ([]domain.PlanStep, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT agent_address, agent_id, agent_name, agent_prompt, cost, valid, reason FROM job_steps WHERE job_id = ? AND valid = 1 ORDER BY position ASC`,
		jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := []domain.PlanStep{}
	for rows.Next() {
		var step domain.PlanStep
		var agentID, reason sql.NullString
		if err := rows.Scan(&step.AgentAddress, &agentID, &step.AgentName, &step.AgentPrompt, &step.Cost, &step.Valid, &reason); err != nil {
			return nil, err
		}
		step.AgentID = agentID.String
		step.Reason = reason.String
		steps = append(steps, step)
	}
	return steps, rows.Err()
}
