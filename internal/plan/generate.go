// Package plan converts an unvalidated analysis into a normalized import plan.
package plan

import (
	"fmt"

	"github.com/billyribeiro-ux/build-ops/internal/analyzer"
)

type tagKey struct{ name, domain string }

// Generate normalizes an analysis. Problems become warnings, never errors.
func Generate(a analyzer.Analysis) GeneratedPlan {
	p := GeneratedPlan{
		Program: ProgramDraft{
			Title:              a.ProgramTitle,
			Description:        a.ProgramDescription,
			EstimatedTotalDays: a.EstimatedTotalDays,
		},
		Modules:            []ModuleDraft{},
		DayPlans:           []DayPlanDraft{},
		ChecklistItems:     []ChecklistItemDraft{},
		QuizQuestions:      []QuizQuestionDraft{},
		ConceptTags:        []ConceptTagDraft{},
		TagAssignments:     []TagAssignment{},
		Dependencies:       []DependencyDraft{},
		ValidationWarnings: []string{},
	}
	warn := func(format string, args ...any) {
		p.ValidationWarnings = append(p.ValidationWarnings, fmt.Sprintf(format, args...))
	}
	if trim(p.Program.Title) == "" {
		warn("Program title is missing, using %q", DefaultTitle)
		p.Program.Title = DefaultTitle
	}

	seenTags := map[tagKey]bool{}
	dayIndex := map[int]int{}

	for mi, m := range a.Modules {
		color, ok := NormalizeColor(m.Color)
		if !ok {
			warn("Module %q has unknown color %q, using %s", m.Title, m.Color, DefaultColor)
		}
		p.Modules = append(p.Modules, ModuleDraft{
			Title:       m.Title,
			Description: m.Description,
			OrderIndex:  m.OrderIndex,
			Color:       color,
		})

		for _, d := range m.Days {
			idx := len(p.DayPlans)
			if _, dup := dayIndex[d.DayNumber]; dup {
				warn("Day number %d appears more than once", d.DayNumber)
			} else {
				dayIndex[d.DayNumber] = idx
			}

			est, changed := ClampMinutes(d.EstimatedMinutes)
			if changed {
				warn("Day %d estimated minutes %d out of range, clamped to %d", d.DayNumber, d.EstimatedMinutes, est)
			}
			rebuild, changed := ClampMinutes(d.MemoryRebuildMinutes)
			if changed {
				warn("Day %d memory rebuild minutes %d out of range, clamped to %d", d.DayNumber, d.MemoryRebuildMinutes, rebuild)
			}

			p.DayPlans = append(p.DayPlans, DayPlanDraft{
				ModuleIndex:          mi,
				DayNumber:            d.DayNumber,
				Title:                d.Title,
				SyntaxTargets:        d.SyntaxTargets,
				ImplementationBrief:  d.ImplementationBrief,
				FilesToCreate:        d.FilesToCreate,
				SuccessCriteria:      d.SuccessCriteria,
				StretchChallenge:     d.StretchChallenge,
				Notes:                d.Notes,
				EstimatedMinutes:     est,
				MemoryRebuildMinutes: rebuild,
				MinMinutes:           est * 3 / 4,
				RecommendedMinutes:   est,
				DeepMinutes:          est * 3 / 2,
				ComplexityLevel:      Complexity(d.SyntaxTargets, d.ImplementationBrief, est),
			})

			if len(d.ChecklistItems) == 0 {
				warn("Day %d has no checklist items, adding default", d.DayNumber)
				p.ChecklistItems = append(p.ChecklistItems, ChecklistItemDraft{
					DayIndex: idx, Label: defaultChecklistLabel, IsRequired: true,
				})
			}
			for i, item := range d.ChecklistItems {
				p.ChecklistItems = append(p.ChecklistItems, ChecklistItemDraft{
					DayIndex: idx, Label: item.Label, IsRequired: item.IsRequired, OrderIndex: i,
				})
			}

			if len(d.QuizQuestions) == 0 {
				warn("Day %d has no quiz questions, adding default", d.DayNumber)
				p.QuizQuestions = append(p.QuizQuestions, QuizQuestionDraft{
					DayIndex:         idx,
					QuestionText:     fmt.Sprintf("What did you learn in %s?", d.Title),
					QuestionType:     QuestionReflection,
					Options:          []string{},
					Points:           reflectionPoints,
					TimeLimitSeconds: reflectionSeconds,
				})
			}
			for i, q := range d.QuizQuestions {
				opts := q.Options
				if opts == nil {
					opts = []string{}
				}
				p.QuizQuestions = append(p.QuizQuestions, QuizQuestionDraft{
					DayIndex:         idx,
					QuestionText:     q.QuestionText,
					QuestionType:     questionType(q.QuestionType),
					CorrectAnswer:    q.CorrectAnswer,
					Options:          opts,
					Points:           max(q.Points, 1),
					TimeLimitSeconds: max(q.TimeLimitSeconds, minQuizSeconds),
					OrderIndex:       i,
				})
			}

			assigned := map[tagKey]bool{}
			for _, tag := range d.ConceptTags {
				key := tagKey{name: NormalizeTagName(tag.Name), domain: trim(tag.Domain)}
				if key.name == "" {
					warn("Day %d has a concept tag with an empty name, dropping it", d.DayNumber)
					continue
				}
				if !seenTags[key] {
					seenTags[key] = true
					p.ConceptTags = append(p.ConceptTags, ConceptTagDraft{Name: key.name, Domain: key.domain})
				}
				if assigned[key] {
					continue
				}
				assigned[key] = true
				p.TagAssignments = append(p.TagAssignments, TagAssignment{DayIndex: idx, TagName: key.name, TagDomain: key.domain})
			}

			for _, dep := range d.Dependencies {
				p.Dependencies = append(p.Dependencies, DependencyDraft{
					DayIndex:           idx,
					DependsOnDayNumber: dep.DependsOnDayNumber,
					DependencyType:     dependencyType(dep.Type),
					MinimumScore:       clampScore(dep.MinimumScore),
				})
			}
		}
	}

	for _, dep := range p.Dependencies {
		target, ok := dayIndex[dep.DependsOnDayNumber]
		if !ok {
			warn("Dependency references non-existent day %d", dep.DependsOnDayNumber)
			continue
		}
		if target >= dep.DayIndex {
			warn("Circular or forward dependency detected: day %d depends on day %d",
				p.DayPlans[dep.DayIndex].DayNumber, dep.DependsOnDayNumber)
		}
	}
	return p
}
