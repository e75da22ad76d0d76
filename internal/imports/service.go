// Package imports runs the curriculum import pipeline and owns the job record.
package imports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/billyribeiro-ux/build-ops/internal/analyzer"
	"github.com/billyribeiro-ux/build-ops/internal/chunker"
	"github.com/billyribeiro-ux/build-ops/internal/extract"
	"github.com/billyribeiro-ux/build-ops/internal/plan"
	"github.com/billyribeiro-ux/build-ops/internal/programs"
	"github.com/billyribeiro-ux/build-ops/internal/queue"
	"github.com/billyribeiro-ux/build-ops/internal/shared/apperr"
	"github.com/billyribeiro-ux/build-ops/internal/shared/metrics"
	"github.com/billyribeiro-ux/build-ops/internal/shared/storage/object"
	"github.com/billyribeiro-ux/build-ops/internal/shared/telemetry"
	"github.com/billyribeiro-ux/build-ops/internal/shared/util"
)

const maxErrorMessage = 500

// errStopped ends a run silently after a cancellation.
var errStopped = errors.New("import cancelled")

// Applier writes a plan into the curriculum store.
type Applier interface {
	Apply(ctx context.Context, p plan.GeneratedPlan, programID *string) (programs.Program, error)
}

// Service contains business logic for import jobs.
type Service struct {
	Repo     Repo
	Programs programs.Repo
	Store    object.ObjectStore
	Chunker  *chunker.Chunker
	Analyzer *analyzer.Analyzer
	Applier  Applier
	Queue    queue.Client
	Now      func() time.Time

	// ImportRoot confines Submit paths when set. HTTP path submission is
	// disabled without it.
	ImportRoot string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Submit validates local source paths, creates a pending job and queues it.
func (s *Service) Submit(ctx context.Context, files []string, programID *string) (ImportJob, error) {
	const op = "submit import"
	if len(files) == 0 {
		return ImportJob{}, apperr.Validation(op, "at least one file is required")
	}
	sources := make([]SourceFile, 0, len(files))
	for _, path := range files {
		name := filepath.Base(path)
		if !extract.Supported(name) {
			return ImportJob{}, apperr.Validation(op, "unsupported file type: %s", name)
		}
		if s.ImportRoot != "" {
			resolved, err := util.ResolveWithin(s.ImportRoot, path)
			if err != nil {
				return ImportJob{}, apperr.Validation(op, "file %s is not available under the import root", name)
			}
			path = resolved
		}
		var size int64
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}
		sources = append(sources, SourceFile{FileName: name, FilePath: path, FileSize: size})
	}
	return s.create(ctx, sources, programID)
}

// SubmitObjects creates a job from uploads already saved in the object store.
func (s *Service) SubmitObjects(ctx context.Context, objs []object.Object, programID *string) (ImportJob, error) {
	const op = "submit upload"
	if len(objs) == 0 {
		return ImportJob{}, apperr.Validation(op, "at least one file is required")
	}
	sources := make([]SourceFile, 0, len(objs))
	for _, o := range objs {
		if !extract.Supported(o.FileName) {
			return ImportJob{}, apperr.Validation(op, "unsupported file type: %s", o.FileName)
		}
		sources = append(sources, SourceFile{FileName: o.FileName, FilePath: o.Key, FileSize: o.Size, StorageKey: o.Key})
	}
	return s.create(ctx, sources, programID)
}

func (s *Service) create(ctx context.Context, sources []SourceFile, programID *string) (ImportJob, error) {
	if programID != nil && strings.TrimSpace(*programID) == "" {
		programID = nil
	}
	if programID != nil {
		if s.Programs == nil {
			return ImportJob{}, apperr.Internal("submit import", "program store not configured")
		}
		if _, err := s.Programs.GetByID(ctx, *programID); err != nil {
			return ImportJob{}, err
		}
	}

	now := s.now()
	job := ImportJob{
		ID:          uuid.NewString(),
		ProgramID:   programID,
		Status:      StatusPending,
		SourceType:  SourceType(sources),
		SourceFiles: sources,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, job); err != nil {
		return ImportJob{}, fmt.Errorf("create import job: %w", err)
	}
	telemetry.Info("import.status", map[string]any{
		"import_id":   job.ID,
		"status":      StatusPending,
		"source_type": job.SourceType,
		"files":       len(sources),
	})

	if s.Queue != nil {
		msg := queue.Message{ImportID: job.ID, RequestID: queue.RequestIDFrom(ctx), Version: 1}
		if err := s.Queue.Send(ctx, msg); err != nil {
			s.failJob(ctx, job, StepExtracting, err)
			return ImportJob{}, fmt.Errorf("queue import job: %w", err)
		}
	}
	return job, nil
}

// HandleMessage is the queue handler for submitted jobs.
func (s *Service) HandleMessage(ctx context.Context, msg queue.Message) error {
	if msg.ImportID == "" {
		return apperr.Validation("handle message", "missing import id")
	}
	return s.Run(ctx, msg.ImportID)
}

// Run drives a pending job through extraction, chunking, analysis and plan
// generation, leaving it in reviewing. A cancelled job stops without error and
// any other failure is recorded on the job with the step it happened in.
func (s *Service) Run(ctx context.Context, id string) (err error) {
	job, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	step := StepExtracting
	defer func() {
		if r := recover(); r != nil {
			err = s.failJob(ctx, job, step, fmt.Errorf("panic: %v", r))
		}
	}()

	startedAt := s.now()
	job.StartedAt = &startedAt
	job, err = s.advance(ctx, job, StatusExtracting)
	if err != nil {
		// Not pending any more: another worker owns the job.
		return stopped(err)
	}
	metrics.IncImportsStarted()

	doc, err := s.extractAll(ctx, job.SourceFiles)
	if err != nil {
		return s.failJob(ctx, job, step, err)
	}
	sections, err := json.Marshal(doc.Sections)
	if err != nil {
		return s.failJob(ctx, job, step, apperr.Serialization("encode sections", err))
	}
	job.ExtractedText = doc.RawText
	job.ExtractedSectionsJSON = string(sections)
	job.TotalPages = doc.TotalPages

	step = StepChunking
	if err := s.checkCancelled(ctx, id); err != nil {
		return s.halt(ctx, job, step, err)
	}
	if s.Chunker == nil {
		return s.failJob(ctx, job, step, apperr.Internal("chunk", "chunker not configured"))
	}
	chunked, err := s.Chunker.Chunk(doc)
	if err != nil {
		return s.failJob(ctx, job, step, err)
	}
	job.TotalTokens = chunked.TotalTokens

	step = StepAnalyzing
	job, err = s.advance(ctx, job, StatusAnalyzing)
	if err != nil {
		return s.halt(ctx, job, step, err)
	}
	if s.Analyzer == nil {
		return s.failJob(ctx, job, step, apperr.Internal("analyze", "analyzer not configured"))
	}
	analysis, err := s.Analyzer.WithCancelCheck(func(ctx context.Context) error {
		return s.checkCancelled(ctx, id)
	}).Analyze(ctx, chunked)
	if err != nil {
		return s.halt(ctx, job, step, err)
	}
	analysisJSON, err := analyzer.Encode(analysis)
	if err != nil {
		return s.failJob(ctx, job, step, err)
	}
	job.AIAnalysisJSON = analysisJSON
	job.AIModelUsed = s.Analyzer.Model()

	step = StepPlanning
	if err := s.checkCancelled(ctx, id); err != nil {
		return s.halt(ctx, job, step, err)
	}
	generated := plan.Generate(analysis)
	planJSON, err := plan.Encode(generated)
	if err != nil {
		return s.failJob(ctx, job, step, err)
	}
	job.GeneratedPlanJSON = planJSON
	job.TotalDaysGenerated = len(generated.DayPlans)

	if _, err := s.advance(ctx, job, StatusReviewing); err != nil {
		return s.halt(ctx, job, step, err)
	}
	metrics.IncImportsCompleted()
	metrics.ObservePipelineDurationMs(metrics.SinceMillis(startedAt))
	telemetry.Info("import.ready", map[string]any{
		"import_id":    id,
		"total_pages":  job.TotalPages,
		"total_tokens": job.TotalTokens,
		"strategy":     string(chunked.Strategy),
		"chunks":       len(chunked.Chunks),
		"days":         job.TotalDaysGenerated,
		"warnings":     len(generated.ValidationWarnings),
		"duration_ms":  metrics.SinceMillis(startedAt),
	})
	return nil
}

func stopped(err error) error {
	if errors.Is(err, errStopped) {
		return nil
	}
	return err
}

// halt ends a run at step. Cancellation stops quietly, anything else marks
// the job failed.
func (s *Service) halt(ctx context.Context, job ImportJob, step string, err error) error {
	if errors.Is(err, errStopped) {
		return nil
	}
	return s.failJob(ctx, job, step, err)
}

func (s *Service) extractAll(ctx context.Context, files []SourceFile) (extract.Document, error) {
	docs := make([]extract.Document, 0, len(files))
	for _, f := range files {
		doc, err := s.extractOne(ctx, f)
		if err != nil {
			return extract.Document{}, fmt.Errorf("%s: %w", f.FileName, err)
		}
		docs = append(docs, doc)
	}
	return extract.Merge(docs), nil
}

func (s *Service) extractOne(ctx context.Context, f SourceFile) (extract.Document, error) {
	if f.StorageKey == "" {
		return extract.ExtractAs(ctx, f.FilePath, f.FileName)
	}
	if s.Store == nil {
		return extract.Document{}, apperr.Internal("extract", "object store not configured")
	}
	path, cleanup, err := object.Materialize(ctx, s.Store, f.StorageKey, f.FileName)
	if err != nil {
		return extract.Document{}, apperr.IO("materialize upload", err)
	}
	defer cleanup()
	return extract.ExtractAs(ctx, path, f.FileName)
}

func (s *Service) checkCancelled(ctx context.Context, id string) error {
	cur, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cur.Status == StatusCancelled {
		return errStopped
	}
	return nil
}

// advance re-reads the job and moves it to status to, writing job's fields.
func (s *Service) advance(ctx context.Context, job ImportJob, to Status) (ImportJob, error) {
	cur, err := s.Repo.GetByID(ctx, job.ID)
	if err != nil {
		return job, err
	}
	if cur.Status == StatusCancelled {
		return job, errStopped
	}
	if !CanTransition(cur.Status, to) {
		return job, apperr.Conflict("import transition", "cannot move import from %s to %s", cur.Status, to)
	}
	from := cur.Status
	job.Status = to
	job.UpdatedAt = s.now()
	if to == StatusCompleted {
		completedAt := job.UpdatedAt
		job.CompletedAt = &completedAt
	}
	if err := s.Repo.Update(ctx, job, from); err != nil {
		if errors.Is(err, ErrStale) {
			if cerr := s.checkCancelled(ctx, job.ID); cerr != nil {
				return job, cerr
			}
			return job, apperr.Conflict("import transition", "import %s changed concurrently", job.ID)
		}
		return job, fmt.Errorf("update import job: %w", err)
	}
	s.logTransition(ctx, job, from, to)
	return job, nil
}

// failJob records err on the job and returns it. Terminal jobs are left alone.
func (s *Service) failJob(ctx context.Context, job ImportJob, step string, cause error) error {
	ctx = context.WithoutCancel(ctx)
	cur, err := s.Repo.GetByID(ctx, job.ID)
	if err != nil {
		telemetry.Error("import.fail_lookup", map[string]any{"import_id": job.ID, "error": err, "cause": cause})
		return cause
	}
	if cur.Status.Terminal() {
		return cause
	}
	msg := util.SanitizeError(cause, maxErrorMessage)
	now := s.now()
	job.Status = StatusFailed
	job.ErrorMessage = &msg
	job.ErrorStep = &step
	job.CompletedAt = &now
	job.UpdatedAt = now
	if err := s.Repo.Update(ctx, job, cur.Status); err != nil {
		telemetry.Error("import.fail_update", map[string]any{"import_id": job.ID, "error": err, "cause": cause})
		return cause
	}
	metrics.IncImportsFailed()
	if job.StartedAt != nil {
		metrics.ObservePipelineDurationMs(metrics.SinceMillis(*job.StartedAt))
	}
	telemetry.Error("import.status", map[string]any{
		"import_id":         job.ID,
		"status":            StatusFailed,
		"status_transition": string(cur.Status) + "->" + string(StatusFailed),
		"error_step":        step,
		"error_kind":        string(apperr.KindOf(cause)),
		"error":             msg,
	})
	return cause
}

func (s *Service) logTransition(ctx context.Context, job ImportJob, from, to Status) {
	fields := map[string]any{
		"import_id":         job.ID,
		"status":            to,
		"status_transition": string(from) + "->" + string(to),
	}
	if job.ProgramID != nil {
		fields["program_id"] = *job.ProgramID
	}
	telemetry.Info("import.status", fields)
}

// Requeue sends every pending job to the queue again. It runs at startup so
// jobs submitted before a restart still get processed.
func (s *Service) Requeue(ctx context.Context) (int, error) {
	if s.Queue == nil {
		return 0, nil
	}
	list, err := s.Repo.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, j := range list {
		if j.Status != StatusPending {
			continue
		}
		if err := s.Queue.Send(ctx, queue.Message{ImportID: j.ID, Version: 1}); err != nil {
			return n, fmt.Errorf("requeue import %s: %w", j.ID, err)
		}
		n++
	}
	return n, nil
}

// Get returns a job by id.
func (s *Service) Get(ctx context.Context, id string) (ImportJob, error) {
	return s.Repo.GetByID(ctx, id)
}

// List returns job summaries newest first.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.Repo.List(ctx)
}

// Delete removes a job record.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}

// Preview returns the generated plan of a job.
func (s *Service) Preview(ctx context.Context, id string) (plan.GeneratedPlan, error) {
	job, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return plan.GeneratedPlan{}, err
	}
	if job.GeneratedPlanJSON == "" {
		return plan.GeneratedPlan{}, apperr.NotFound("preview import", "no generated plan available")
	}
	return plan.Decode(job.GeneratedPlanJSON)
}

// Review stores a human-edited plan on a job awaiting review.
func (s *Service) Review(ctx context.Context, id string, p plan.GeneratedPlan) (ImportJob, error) {
	job, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return ImportJob{}, err
	}
	if job.Status != StatusReviewing {
		return ImportJob{}, apperr.Conflict("review import", "import is %s, not reviewing", job.Status)
	}
	if err := plan.Validate(p); err != nil {
		return ImportJob{}, err
	}
	text, err := plan.Encode(p)
	if err != nil {
		return ImportJob{}, err
	}
	job.ReviewedPlanJSON = &text
	job.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, job, StatusReviewing); err != nil {
		if errors.Is(err, ErrStale) {
			return ImportJob{}, apperr.Conflict("review import", "import %s changed concurrently", id)
		}
		return ImportJob{}, fmt.Errorf("store reviewed plan: %w", err)
	}
	return job, nil
}

// Apply writes the reviewed plan, or the generated one, into the curriculum.
func (s *Service) Apply(ctx context.Context, id string) (ImportJob, programs.Program, error) {
	const op = "apply import"
	job, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return ImportJob{}, programs.Program{}, err
	}
	switch job.Status {
	case StatusCompleted:
		return ImportJob{}, programs.Program{}, apperr.Conflict(op, "import already applied")
	case StatusReviewing:
	default:
		return ImportJob{}, programs.Program{}, apperr.Conflict(op, "import is %s, not reviewing", job.Status)
	}
	if s.Applier == nil {
		return ImportJob{}, programs.Program{}, apperr.Internal(op, "applier not configured")
	}

	text := job.GeneratedPlanJSON
	if job.ReviewedPlanJSON != nil && *job.ReviewedPlanJSON != "" {
		text = *job.ReviewedPlanJSON
	}
	p, err := plan.Decode(text)
	if err != nil {
		return ImportJob{}, programs.Program{}, err
	}

	job, err = s.advance(ctx, job, StatusApplying)
	if errors.Is(err, errStopped) {
		return ImportJob{}, programs.Program{}, apperr.Conflict(op, "import was cancelled")
	}
	if err != nil {
		return ImportJob{}, programs.Program{}, err
	}
	prog, err := s.Applier.Apply(ctx, p, job.ProgramID)
	if err != nil {
		return ImportJob{}, programs.Program{}, s.failJob(ctx, job, StepApplying, err)
	}

	job.ProgramID = &prog.ID
	job, err = s.advance(ctx, job, StatusCompleted)
	if errors.Is(err, errStopped) {
		return ImportJob{}, programs.Program{}, apperr.Conflict(op, "import was cancelled")
	}
	if err != nil {
		return ImportJob{}, programs.Program{}, err
	}
	metrics.IncImportsApplied()
	return job, prog, nil
}

// Cancel stops a job that has not finished.
func (s *Service) Cancel(ctx context.Context, id string) (ImportJob, error) {
	job, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return ImportJob{}, err
	}
	if job.Status.Terminal() {
		return ImportJob{}, apperr.Conflict("cancel import", "import is already %s", job.Status)
	}
	if !CanTransition(job.Status, StatusCancelled) {
		return ImportJob{}, apperr.Conflict("cancel import", "import is %s and can no longer be cancelled", job.Status)
	}
	from := job.Status
	now := s.now()
	job.Status = StatusCancelled
	job.CompletedAt = &now
	job.UpdatedAt = now
	if err := s.Repo.Update(ctx, job, from); err != nil {
		if errors.Is(err, ErrStale) {
			return ImportJob{}, apperr.Conflict("cancel import", "import %s changed concurrently", id)
		}
		return ImportJob{}, fmt.Errorf("cancel import job: %w", err)
	}
	s.logTransition(ctx, job, from, StatusCancelled)
	return job, nil
}
