package applier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billyribeiro-ux/build-ops/internal/plan"
	"github.com/billyribeiro-ux/build-ops/internal/programs"
	"github.com/billyribeiro-ux/build-ops/internal/shared/apperr"
)

func samplePlan() plan.GeneratedPlan {
	return plan.GeneratedPlan{
		Program: plan.ProgramDraft{Title: "Rust", Description: "Systems", EstimatedTotalDays: 2},
		Modules: []plan.ModuleDraft{{Title: "Basics", Color: "#22C55E"}},
		DayPlans: []plan.DayPlanDraft{
			{ModuleIndex: 0, DayNumber: 1, Title: "Ownership", EstimatedMinutes: 60, ComplexityLevel: 1},
			{ModuleIndex: 0, DayNumber: 2, Title: "Borrowing", EstimatedMinutes: 90, ComplexityLevel: 2},
		},
		ChecklistItems: []plan.ChecklistItemDraft{{DayIndex: 0, Label: "Write main", IsRequired: true}},
		QuizQuestions:  []plan.QuizQuestionDraft{{DayIndex: 1, QuestionText: "Why?", QuestionType: "short_answer", Points: 5, TimeLimitSeconds: 60}},
		ConceptTags:    []plan.ConceptTagDraft{{Name: "ownership", Domain: "rust"}, {Name: "borrowing", Domain: "rust"}},
		TagAssignments: []plan.TagAssignment{
			{DayIndex: 0, TagName: "ownership", TagDomain: "rust"},
			{DayIndex: 1, TagName: "borrowing", TagDomain: "rust"},
		},
		Dependencies: []plan.DependencyDraft{
			{DayIndex: 1, DependsOnDayNumber: 1, DependencyType: "prerequisite", MinimumScore: 70},
			{DayIndex: 1, DependsOnDayNumber: 42, DependencyType: "recommended"},
		},
	}
}

func newMockApplier(t *testing.T) (*Applier, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	n := 0
	a := &Applier{DB: db, NewID: func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}}
	return a, mock
}

func expectCurriculumUntilDependencies(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO programs").
		WithArgs("id-1", "Rust", "Systems", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO modules").
		WithArgs("id-2", "id-1", "Basics", "", 0, "#22C55E").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO day_plans").
		WithArgs("id-3", "id-1", "id-2", "Ownership", 1, "", "", "", "", "", "", 60, 0, 0, 0, 0, 1,
			`[{"session_type":"learn","minutes":20},{"session_type":"build","minutes":30},{"session_type":"review","minutes":10}]`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO day_plans").
		WithArgs("id-4", "id-1", "id-2", "Borrowing", 2, "", "", "", "", "", "", 90, 0, 0, 0, 0, 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO checklist_items").
		WithArgs("id-5", "id-3", "Write main", true, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO quiz_questions").
		WithArgs("id-6", "id-4", "Why?", "short_answer", "", "[]", 5, 60, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id FROM concept_tags").
		WithArgs("ownership", "rust").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("tag-existing"))
	mock.ExpectQuery("SELECT id FROM concept_tags").
		WithArgs("borrowing", "rust").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO concept_tags").
		WithArgs("id-7", "borrowing", "rust", plan.DefaultColor).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO day_plan_tags").
		WithArgs("id-3", "tag-existing").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO day_plan_tags").
		WithArgs("id-4", "id-7").
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestApplyWritesEverythingInOneTransaction(t *testing.T) {
	a, mock := newMockApplier(t)
	expectCurriculumUntilDependencies(mock)
	mock.ExpectExec("INSERT INTO day_dependencies").
		WithArgs("id-8", "id-4", "id-3", "prerequisite", 70).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	now := time.Now().UTC()
	mock.ExpectQuery("FROM programs").
		WithArgs("id-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "target_days", "status", "created_at", "updated_at"}).
			AddRow("id-1", "Rust", "Systems", 2, "active", now, now))

	prog, err := a.Apply(context.Background(), samplePlan(), nil)
	require.NoError(t, err)

	assert.Equal(t, "id-1", prog.ID)
	assert.Equal(t, "active", prog.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRollsBackWhenLastInsertFails(t *testing.T) {
	a, mock := newMockApplier(t)
	expectCurriculumUntilDependencies(mock)
	mock.ExpectExec("INSERT INTO day_dependencies").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := a.Apply(context.Background(), samplePlan(), nil)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindIO))
	assert.Contains(t, err.Error(), "insert dependency")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyUpdatesExistingProgram(t *testing.T) {
	a, mock := newMockApplier(t)
	p := plan.GeneratedPlan{Program: plan.ProgramDraft{Title: "Renamed", Description: "New"}}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE programs").
		WithArgs("Renamed", "New", "prog-9").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	now := time.Now().UTC()
	mock.ExpectQuery("FROM programs").
		WithArgs("prog-9").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "target_days", "status", "created_at", "updated_at"}).
			AddRow("prog-9", "Renamed", "New", 10, "active", now, now))

	id := "prog-9"
	prog, err := a.Apply(context.Background(), p, &id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", prog.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMissingProgramIsNotFound(t *testing.T) {
	a, mock := newMockApplier(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE programs").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	id := "ghost"
	_, err := a.Apply(context.Background(), samplePlan(), &id)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRejectsInvalidPlanBeforeWriting(t *testing.T) {
	a, mock := newMockApplier(t)
	p := samplePlan()
	p.DayPlans[0].ModuleIndex = 5

	_, err := a.Apply(context.Background(), p, nil)
	assert.True(t, apperr.Is(err, apperr.KindInternal))

	p = samplePlan()
	p.Program.Title = ""
	_, err = a.Apply(context.Background(), p, nil)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFocusBlocks(t *testing.T) {
	assert.Equal(t, []FocusBlock{{"learn", 40}, {"build", 60}, {"review", 20}}, FocusBlocks(120))
}

func TestMemoryApplier(t *testing.T) {
	repo := programs.NewMemoryRepo()
	m := NewMemory(repo)
	ctx := context.Background()

	prog, err := m.Apply(ctx, samplePlan(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, prog.TargetDays)
	assert.Len(t, m.Plans(prog.ID), 1)

	stored, err := repo.GetByID(ctx, prog.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rust", stored.Title)

	ghost := "ghost"
	_, err = m.Apply(ctx, samplePlan(), &ghost)
	assert.ErrorIs(t, err, programs.ErrNotFound)

	bad := samplePlan()
	bad.TagAssignments[0].TagName = "missing"
	_, err = m.Apply(ctx, bad, nil)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
}
