// Package applier writes a generated plan into the curriculum tables in a
// single transaction.
package applier

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/billyribeiro-ux/build-ops/internal/plan"
	"github.com/billyribeiro-ux/build-ops/internal/programs"
	"github.com/billyribeiro-ux/build-ops/internal/shared/apperr"
	"github.com/billyribeiro-ux/build-ops/internal/shared/telemetry"
)

const op = "apply plan"

// FocusBlock is one session in a day's suggested schedule.
type FocusBlock struct {
	SessionType string `json:"session_type"`
	Minutes     int    `json:"minutes"`
}

// FocusBlocks splits a day's minutes into learn, build and review sessions.
func FocusBlocks(minutes int) []FocusBlock {
	return []FocusBlock{
		{SessionType: "learn", Minutes: minutes / 3},
		{SessionType: "build", Minutes: minutes / 2},
		{SessionType: "review", Minutes: minutes / 6},
	}
}

// Applier writes plans through DB.
type Applier struct {
	DB    *sql.DB
	NewID func() string
}

// New constructs an Applier.
func New(db *sql.DB) *Applier {
	return &Applier{DB: db, NewID: uuid.NewString}
}

// Apply creates a program, or updates programID when set, and inserts every
// entity in p. Nothing is written unless all inserts succeed.
func (a *Applier) Apply(ctx context.Context, p plan.GeneratedPlan, programID *string) (programs.Program, error) {
	if a.DB == nil {
		return programs.Program{}, apperr.Internal(op, "database not configured")
	}
	if err := plan.Validate(p); err != nil {
		return programs.Program{}, apperr.Internal(op, "%s", err.Error())
	}
	newID := a.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return programs.Program{}, apperr.IO(op, err)
	}
	defer tx.Rollback()

	w := &writer{tx: tx, newID: newID}
	id, err := w.program(ctx, p, programID)
	if err != nil {
		return programs.Program{}, err
	}
	if err := w.curriculum(ctx, id, p); err != nil {
		return programs.Program{}, err
	}
	if err := tx.Commit(); err != nil {
		return programs.Program{}, apperr.IO(op, err)
	}

	telemetry.Info("applier.complete", map[string]any{
		"program_id":   id,
		"modules":      len(p.Modules),
		"day_plans":    len(p.DayPlans),
		"tags":         len(p.ConceptTags),
		"dependencies": w.deps,
	})

	prog, err := programs.Get(ctx, a.DB, id)
	if err != nil {
		return programs.Program{}, fmt.Errorf("reload program: %w", err)
	}
	return prog, nil
}

type writer struct {
	tx    *sql.Tx
	newID func() string
	deps  int
}

func (w *writer) exec(ctx context.Context, what, query string, args ...any) (sql.Result, error) {
	res, err := w.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.IO(op, fmt.Errorf("%s: %w", what, err))
	}
	return res, nil
}

func (w *writer) program(ctx context.Context, p plan.GeneratedPlan, programID *string) (string, error) {
	if programID != nil {
		const query = `
UPDATE programs
SET title = $1, description = $2, updated_at = now()
WHERE id = $3`
		res, err := w.exec(ctx, "update program", query, p.Program.Title, p.Program.Description, *programID)
		if err != nil {
			return "", err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return "", apperr.NotFound(op, "program %s not found", *programID)
		}
		return *programID, nil
	}

	const query = `
INSERT INTO programs (id, title, description, target_days, status)
VALUES ($1, $2, $3, $4, 'active')`
	id := w.newID()
	if _, err := w.exec(ctx, "insert program", query, id, p.Program.Title, p.Program.Description, p.Program.EstimatedTotalDays); err != nil {
		return "", err
	}
	return id, nil
}

func (w *writer) curriculum(ctx context.Context, programID string, p plan.GeneratedPlan) error {
	moduleIDs := make([]string, len(p.Modules))
	for i, m := range p.Modules {
		moduleIDs[i] = w.newID()
		const query = `
INSERT INTO modules (id, program_id, title, description, order_index, color)
VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := w.exec(ctx, "insert module", query, moduleIDs[i], programID, m.Title, m.Description, m.OrderIndex, m.Color); err != nil {
			return err
		}
	}

	dayIDs := make([]string, len(p.DayPlans))
	for i, d := range p.DayPlans {
		if d.ModuleIndex < 0 || d.ModuleIndex >= len(moduleIDs) {
			return apperr.Internal(op, "day plan %d references module %d of %d", i, d.ModuleIndex, len(moduleIDs))
		}
		focus, err := json.Marshal(FocusBlocks(d.EstimatedMinutes))
		if err != nil {
			return apperr.Serialization(op, err)
		}
		dayIDs[i] = w.newID()
		const query = `
INSERT INTO day_plans (
	id, program_id, module_id, title, day_number, version, status,
	syntax_targets, implementation_brief, files_to_create, success_criteria, stretch_challenge, notes,
	estimated_minutes, memory_rebuild_minutes, min_minutes, recommended_minutes, deep_minutes,
	complexity_level, focus_blocks
)
VALUES ($1, $2, $3, $4, $5, 1, 'published', $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
		if _, err := w.exec(ctx, "insert day plan", query,
			dayIDs[i], programID, moduleIDs[d.ModuleIndex], d.Title, d.DayNumber,
			d.SyntaxTargets, d.ImplementationBrief, d.FilesToCreate, d.SuccessCriteria, d.StretchChallenge, d.Notes,
			d.EstimatedMinutes, d.MemoryRebuildMinutes, d.MinMinutes, d.RecommendedMinutes, d.DeepMinutes,
			d.ComplexityLevel, string(focus),
		); err != nil {
			return err
		}
	}

	dayID := func(what string, idx int) (string, error) {
		if idx < 0 || idx >= len(dayIDs) {
			return "", apperr.Internal(op, "%s references day %d of %d", what, idx, len(dayIDs))
		}
		return dayIDs[idx], nil
	}

	for _, c := range p.ChecklistItems {
		day, err := dayID("checklist item", c.DayIndex)
		if err != nil {
			return err
		}
		const query = `
INSERT INTO checklist_items (id, day_plan_id, label, is_required, order_index)
VALUES ($1, $2, $3, $4, $5)`
		if _, err := w.exec(ctx, "insert checklist item", query, w.newID(), day, c.Label, c.IsRequired, c.OrderIndex); err != nil {
			return err
		}
	}

	for _, q := range p.QuizQuestions {
		day, err := dayID("quiz question", q.DayIndex)
		if err != nil {
			return err
		}
		options := q.Options
		if options == nil {
			options = []string{}
		}
		optionsJSON, err := json.Marshal(options)
		if err != nil {
			return apperr.Serialization(op, err)
		}
		const query = `
INSERT INTO quiz_questions (id, day_plan_id, question_text, question_type, correct_answer, options_json, points, time_limit_seconds, order_index)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
		if _, err := w.exec(ctx, "insert quiz question", query,
			w.newID(), day, q.QuestionText, q.QuestionType, q.CorrectAnswer, string(optionsJSON), q.Points, q.TimeLimitSeconds, q.OrderIndex,
		); err != nil {
			return err
		}
	}

	tagIDs := make(map[plan.ConceptTagDraft]string, len(p.ConceptTags))
	for _, t := range p.ConceptTags {
		id, err := w.tag(ctx, t)
		if err != nil {
			return err
		}
		tagIDs[t] = id
	}
	for _, ta := range p.TagAssignments {
		day, err := dayID("tag assignment", ta.DayIndex)
		if err != nil {
			return err
		}
		tagID, ok := tagIDs[plan.ConceptTagDraft{Name: ta.TagName, Domain: ta.TagDomain}]
		if !ok {
			return apperr.Internal(op, "tag assignment references unknown tag %q (%s)", ta.TagName, ta.TagDomain)
		}
		const query = `
INSERT INTO day_plan_tags (day_plan_id, tag_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`
		if _, err := w.exec(ctx, "link tag", query, day, tagID); err != nil {
			return err
		}
	}

	byNumber := p.DayIndexByNumber()
	for _, dep := range p.Dependencies {
		day, err := dayID("dependency", dep.DayIndex)
		if err != nil {
			return err
		}
		target, ok := byNumber[dep.DependsOnDayNumber]
		if !ok {
			continue
		}
		const query = `
INSERT INTO day_dependencies (id, day_plan_id, depends_on_day_plan_id, dependency_type, minimum_score)
VALUES ($1, $2, $3, $4, $5)`
		if _, err := w.exec(ctx, "insert dependency", query, w.newID(), day, dayIDs[target], dep.DependencyType, dep.MinimumScore); err != nil {
			return err
		}
		w.deps++
	}
	return nil
}

func (w *writer) tag(ctx context.Context, t plan.ConceptTagDraft) (string, error) {
	var id string
	err := w.tx.QueryRowContext(ctx, `SELECT id FROM concept_tags WHERE name = $1 AND domain = $2`, t.Name, t.Domain).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", apperr.IO(op, fmt.Errorf("select tag: %w", err))
	}
	id = w.newID()
	const query = `
INSERT INTO concept_tags (id, name, domain, color)
VALUES ($1, $2, $3, $4)`
	if _, err := w.exec(ctx, "insert tag", query, id, t.Name, t.Domain, plan.DefaultColor); err != nil {
		return "", err
	}
	return id, nil
}
