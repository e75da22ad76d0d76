package plan

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/billyribeiro-ux/build-ops/internal/shared/apperr"
)

// Validate checks that every index and tag reference resolves inside p.
func Validate(p GeneratedPlan) error {
	const op = "validate plan"
	if strings.TrimSpace(p.Program.Title) == "" {
		return apperr.Validation(op, "program title is required")
	}
	days := len(p.DayPlans)
	for i, d := range p.DayPlans {
		if d.ModuleIndex < 0 || d.ModuleIndex >= len(p.Modules) {
			return apperr.Validation(op, "day plan %d references module %d of %d", i, d.ModuleIndex, len(p.Modules))
		}
	}
	for i, c := range p.ChecklistItems {
		if c.DayIndex < 0 || c.DayIndex >= days {
			return apperr.Validation(op, "checklist item %d references day %d of %d", i, c.DayIndex, days)
		}
	}
	for i, q := range p.QuizQuestions {
		if q.DayIndex < 0 || q.DayIndex >= days {
			return apperr.Validation(op, "quiz question %d references day %d of %d", i, q.DayIndex, days)
		}
	}
	tags := make(map[tagKey]bool, len(p.ConceptTags))
	for _, t := range p.ConceptTags {
		tags[tagKey{t.Name, t.Domain}] = true
	}
	for i, a := range p.TagAssignments {
		if a.DayIndex < 0 || a.DayIndex >= days {
			return apperr.Validation(op, "tag assignment %d references day %d of %d", i, a.DayIndex, days)
		}
		if !tags[tagKey{a.TagName, a.TagDomain}] {
			return apperr.Validation(op, "tag assignment %d references unknown tag %q (%s)", i, a.TagName, a.TagDomain)
		}
	}
	for i, d := range p.Dependencies {
		if d.DayIndex < 0 || d.DayIndex >= days {
			return apperr.Validation(op, "dependency %d references day %d of %d", i, d.DayIndex, days)
		}
	}
	return nil
}

// Encode serializes a plan for the job record.
func Encode(p GeneratedPlan) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", apperr.Serialization("encode plan", err)
	}
	return string(b), nil
}

// Decode reads a plan stored by Encode. Unknown fields are rejected.
func Decode(text string) (GeneratedPlan, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()
	var p GeneratedPlan
	if err := dec.Decode(&p); err != nil {
		return GeneratedPlan{}, apperr.Serialization("decode plan", err)
	}
	return p, nil
}
