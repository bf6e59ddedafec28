package jobstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lehrwerk/ai-authoring-sync/internal/domain"
)

// DB provides SQLite-backed persistence for jobs and their suggestion sets.
type DB struct {
	db *sql.DB
}

// OpenDB opens (or creates) the database at the given path.
func OpenDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// UpsertJob inserts or updates a job record.
func (d *DB) UpsertJob(job domain.Job) error {
	_, err := d.db.Exec(`
		INSERT INTO jobs (id, configuration_id, job_type, status, input_prompt, input_metadata, output_data, error_message, suggestion_count, created_at, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			output_data = excluded.output_data,
			error_message = excluded.error_message,
			suggestion_count = excluded.suggestion_count,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at
	`,
		job.ID,
		job.ConfigurationID,
		string(job.Kind),
		string(job.Status),
		job.InputPrompt,
		nullableJSON(job.InputMetadata),
		nullableJSON(job.OutputData),
		nullableString(job.ErrorMessage),
		job.SuggestionCount,
		job.CreatedAt,
		nullableTime(job.StartedAt),
		nullableTime(job.CompletedAt),
	)
	return err
}

// GetJob retrieves a job by id.
func (d *DB) GetJob(id string) (domain.Job, error) {
	row := d.db.QueryRow(`
		SELECT id, configuration_id, job_type, status, input_prompt, input_metadata, output_data, error_message, suggestion_count, created_at, started_at, completed_at
		FROM jobs WHERE id = ?
	`, id)
	return scanJob(row.Scan)
}

// ListJobs returns all persisted jobs, newest first.
func (d *DB) ListJobs() ([]domain.Job, error) {
	rows, err := d.db.Query(`
		SELECT id, configuration_id, job_type, status, input_prompt, input_metadata, output_data, error_message, suggestion_count, created_at, started_at, completed_at
		FROM jobs ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// UpsertSuggestion inserts or updates a suggestion record.
func (d *DB) UpsertSuggestion(s domain.Suggestion) error {
	tags, err := json.Marshal(s.Tags)
	if err != nil {
		return err
	}
	urls, err := json.Marshal(s.SourceURLs)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		INSERT INTO suggestions (id, job_id, title, slug, content, block_type, tags, source_urls, confidence_score, rationale, status, created_block_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			created_block_id = excluded.created_block_id
	`,
		s.ID, s.JobID, s.Title, s.Slug, s.Content, s.BlockType,
		string(tags), string(urls), s.ConfidenceScore,
		nullableString(s.Rationale), string(s.Status),
		nullableString(s.CreatedBlockID), s.CreatedAt,
	)
	return err
}

// ListSuggestions returns persisted suggestions for a job.
func (d *DB) ListSuggestions(jobID string) ([]domain.Suggestion, error) {
	rows, err := d.db.Query(`
		SELECT id, job_id, title, slug, content, block_type, tags, source_urls, confidence_score, rationale, status, created_block_id, created_at
		FROM suggestions WHERE job_id = ? ORDER BY confidence_score DESC
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suggestions []domain.Suggestion
	for rows.Next() {
		var s domain.Suggestion
		var tags, urls string
		var rationale, blockID sql.NullString

		err := rows.Scan(&s.ID, &s.JobID, &s.Title, &s.Slug, &s.Content, &s.BlockType,
			&tags, &urls, &s.ConfidenceScore, &rationale, &s.Status, &blockID, &s.CreatedAt)
		if err != nil {
			return nil, err
		}

		if tags != "" && tags != "null" {
			if err := json.Unmarshal([]byte(tags), &s.Tags); err != nil {
				return nil, err
			}
		}
		if urls != "" && urls != "null" {
			if err := json.Unmarshal([]byte(urls), &s.SourceURLs); err != nil {
				return nil, err
			}
		}
		if rationale.Valid {
			s.Rationale = rationale.String
		}
		if blockID.Valid {
			s.CreatedBlockID = blockID.String
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, rows.Err()
}

func scanJob(scan func(dest ...interface{}) error) (domain.Job, error) {
	var job domain.Job
	var kind, status string
	var inputMeta, outputData, errMsg sql.NullString
	var startedAt, completedAt sql.NullTime

	err := scan(&job.ID, &job.ConfigurationID, &kind, &status, &job.InputPrompt,
		&inputMeta, &outputData, &errMsg, &job.SuggestionCount,
		&job.CreatedAt, &startedAt, &completedAt)
	if err != nil {
		return domain.Job{}, err
	}

	job.Kind = domain.JobKind(kind)
	job.Status = domain.JobStatus(status)
	if inputMeta.Valid {
		job.InputMetadata = json.RawMessage(inputMeta.String)
	}
	if outputData.Valid {
		job.OutputData = json.RawMessage(outputData.String)
	}
	if errMsg.Valid {
		job.ErrorMessage = errMsg.String
	}
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return job, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
