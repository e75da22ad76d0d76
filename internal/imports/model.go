package imports

import (
	"path/filepath"
	"strings"
	"time"
)

// Status is the lifecycle state of an import job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusExtracting Status = "extracting"
	StatusAnalyzing  Status = "analyzing"
	StatusReviewing  Status = "reviewing"
	StatusApplying   Status = "applying"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Pipeline steps recorded on failure.
const (
	StepExtracting = "extracting"
	StepChunking   = "chunking"
	StepAnalyzing  = "analyzing"
	StepPlanning   = "planning"
	StepApplying   = "applying"
)

var forward = map[Status]Status{
	StatusPending:    StatusExtracting,
	StatusExtracting: StatusAnalyzing,
	StatusAnalyzing:  StatusReviewing,
	StatusReviewing:  StatusApplying,
	StatusApplying:   StatusCompleted,
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// CanTransition reports whether a job may move from one status to another.
// Failure is allowed from any non-terminal status and cancellation from any
// non-terminal status except applying, whose write cannot be undone. Every
// other move is one step forward.
func CanTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	switch to {
	case StatusFailed:
		return true
	case StatusCancelled:
		return from != StatusApplying
	}
	return forward[from] == to
}

// SourceFile is one input document of an import.
type SourceFile struct {
	FileName   string `json:"file_name"`
	FilePath   string `json:"file_path"`
	FileSize   int64  `json:"file_size"`
	StorageKey string `json:"storage_key,omitempty"`
}

// ImportJob is the persisted record of one import.
type ImportJob struct {
	ID                    string       `json:"id"`
	ProgramID             *string      `json:"program_id"`
	Status                Status       `json:"status"`
	SourceType            string       `json:"source_type"`
	SourceFiles           []SourceFile `json:"source_files"`
	ExtractedText         string       `json:"extracted_text"`
	ExtractedSectionsJSON string       `json:"extracted_sections_json"`
	AIAnalysisJSON        string       `json:"ai_analysis_json"`
	GeneratedPlanJSON     string       `json:"generated_plan_json"`
	ReviewedPlanJSON      *string      `json:"reviewed_plan_json"`
	TotalPages            int          `json:"total_pages"`
	TotalTokens           int          `json:"total_tokens"`
	TotalDaysGenerated    int          `json:"total_days_generated"`
	AIModelUsed           string       `json:"ai_model_used"`
	ErrorMessage          *string      `json:"error_message"`
	ErrorStep             *string      `json:"error_step"`
	StartedAt             *time.Time   `json:"started_at"`
	CompletedAt           *time.Time   `json:"completed_at"`
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
}

// Summary is the list view of a job.
type Summary struct {
	ID                 string    `json:"id"`
	ProgramID          *string   `json:"program_id"`
	Status             Status    `json:"status"`
	SourceType         string    `json:"source_type"`
	TotalDaysGenerated int       `json:"total_days_generated"`
	CreatedAt          time.Time `json:"created_at"`
}

// Summarize returns the list view of j.
func (j ImportJob) Summarize() Summary {
	return Summary{
		ID:                 j.ID,
		ProgramID:          j.ProgramID,
		Status:             j.Status,
		SourceType:         j.SourceType,
		TotalDaysGenerated: j.TotalDaysGenerated,
		CreatedAt:          j.CreatedAt,
	}
}

// SourceType names the input kind: pdf, markdown, text, or mixed.
func SourceType(files []SourceFile) string {
	kind := ""
	for _, f := range files {
		var k string
		switch strings.ToLower(filepath.Ext(f.FileName)) {
		case ".pdf":
			k = "pdf"
		case ".md", ".markdown":
			k = "markdown"
		default:
			k = "text"
		}
		if kind != "" && kind != k {
			return "mixed"
		}
		kind = k
	}
	return kind
}
