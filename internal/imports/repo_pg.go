package imports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const jobColumns = `id, program_id, status, source_type, source_files_json, extracted_text,
       extracted_sections_json, ai_analysis_json, generated_plan_json, reviewed_plan_json,
       total_pages, total_tokens, total_days_generated, ai_model_used, error_message, error_step,
       started_at, completed_at, created_at, updated_at`

// Create inserts a new job.
func (r *PGRepo) Create(ctx context.Context, job ImportJob) error {
	const query = `
INSERT INTO import_jobs (
	id, program_id, status, source_type, source_files_json, extracted_text,
	extracted_sections_json, ai_analysis_json, generated_plan_json, reviewed_plan_json,
	total_pages, total_tokens, total_days_generated, ai_model_used, error_message, error_step,
	started_at, completed_at, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	files, err := marshalSourceFiles(job.SourceFiles)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		job.ID,
		job.ProgramID,
		string(job.Status),
		job.SourceType,
		files,
		job.ExtractedText,
		job.ExtractedSectionsJSON,
		job.AIAnalysisJSON,
		job.GeneratedPlanJSON,
		job.ReviewedPlanJSON,
		job.TotalPages,
		job.TotalTokens,
		job.TotalDaysGenerated,
		job.AIModelUsed,
		job.ErrorMessage,
		job.ErrorStep,
		job.StartedAt,
		job.CompletedAt,
		job.CreatedAt,
		job.UpdatedAt,
	)
	return err
}

// GetByID returns a job by id.
func (r *PGRepo) GetByID(ctx context.Context, id string) (ImportJob, error) {
	query := `
SELECT ` + jobColumns + `
FROM import_jobs
WHERE id = $1
LIMIT 1`
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ImportJob{}, ErrNotFound
		}
		return ImportJob{}, err
	}
	return job, nil
}

// Update overwrites every mutable column when the stored status equals from.
func (r *PGRepo) Update(ctx context.Context, job ImportJob, from Status) error {
	const query = `
UPDATE import_jobs
SET program_id = $2,
    status = $3,
    extracted_text = $4,
    extracted_sections_json = $5,
    ai_analysis_json = $6,
    generated_plan_json = $7,
    reviewed_plan_json = $8,
    total_pages = $9,
    total_tokens = $10,
    total_days_generated = $11,
    ai_model_used = $12,
    error_message = $13,
    error_step = $14,
    started_at = $15,
    completed_at = $16,
    updated_at = $17
WHERE id = $1 AND status = $18`
	res, err := r.DB.ExecContext(ctx, query,
		job.ID,
		job.ProgramID,
		string(job.Status),
		job.ExtractedText,
		job.ExtractedSectionsJSON,
		job.AIAnalysisJSON,
		job.GeneratedPlanJSON,
		job.ReviewedPlanJSON,
		job.TotalPages,
		job.TotalTokens,
		job.TotalDaysGenerated,
		job.AIModelUsed,
		job.ErrorMessage,
		job.ErrorStep,
		job.StartedAt,
		job.CompletedAt,
		job.UpdatedAt,
		string(from),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM import_jobs WHERE id = $1)`, job.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStale
}

// List returns summaries newest first.
func (r *PGRepo) List(ctx context.Context) ([]Summary, error) {
	const query = `
SELECT id, program_id, status, source_type, total_days_generated, created_at
FROM import_jobs
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var s Summary
		var programID sql.NullString
		var status string
		if err := rows.Scan(&s.ID, &programID, &status, &s.SourceType, &s.TotalDaysGenerated, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Status = Status(status)
		if programID.Valid {
			s.ProgramID = &programID.String
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a job.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM import_jobs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (ImportJob, error) {
	var j ImportJob
	var programID sql.NullString
	var status string
	var files []byte
	var reviewed sql.NullString
	var errorMessage sql.NullString
	var errorStep sql.NullString
	var startedAt sql.NullTime
	var completedAt sql.NullTime
	if err := row.Scan(
		&j.ID,
		&programID,
		&status,
		&j.SourceType,
		&files,
		&j.ExtractedText,
		&j.ExtractedSectionsJSON,
		&j.AIAnalysisJSON,
		&j.GeneratedPlanJSON,
		&reviewed,
		&j.TotalPages,
		&j.TotalTokens,
		&j.TotalDaysGenerated,
		&j.AIModelUsed,
		&errorMessage,
		&errorStep,
		&startedAt,
		&completedAt,
		&j.CreatedAt,
		&j.UpdatedAt,
	); err != nil {
		return ImportJob{}, err
	}
	j.Status = Status(status)
	j.SourceFiles = []SourceFile{}
	if len(files) > 0 {
		if err := json.Unmarshal(files, &j.SourceFiles); err != nil {
			return ImportJob{}, err
		}
	}
	j.ProgramID = nullString(programID)
	j.ReviewedPlanJSON = nullString(reviewed)
	j.ErrorMessage = nullString(errorMessage)
	j.ErrorStep = nullString(errorStep)
	j.StartedAt = nullTime(startedAt)
	j.CompletedAt = nullTime(completedAt)
	return j, nil
}

func marshalSourceFiles(files []SourceFile) (string, error) {
	if files == nil {
		files = []SourceFile{}
	}
	b, err := json.Marshal(files)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
