package analyzer

// Analysis is the structured curriculum proposed by the generative service.
// Values are unvalidated; the plan generator normalizes them.
type Analysis struct {
	ProgramTitle       string   `json:"program_title"`
	ProgramDescription string   `json:"program_description"`
	EstimatedTotalDays int      `json:"estimated_total_days"`
	Modules            []Module `json:"modules"`
}

type Module struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index"`
	Color       string `json:"color"`
	Days        []Day  `json:"days"`
}

type Day struct {
	DayNumber            int             `json:"day_number"`
	Title                string          `json:"title"`
	SyntaxTargets        string          `json:"syntax_targets"`
	ImplementationBrief  string          `json:"implementation_brief"`
	FilesToCreate        string          `json:"files_to_create"`
	SuccessCriteria      string          `json:"success_criteria"`
	StretchChallenge     string          `json:"stretch_challenge"`
	Notes                string          `json:"notes"`
	EstimatedMinutes     int             `json:"estimated_minutes"`
	MemoryRebuildMinutes int             `json:"memory_rebuild_minutes"`
	ChecklistItems       []ChecklistItem `json:"checklist_items"`
	QuizQuestions        []QuizQuestion  `json:"quiz_questions"`
	ConceptTags          []ConceptTag    `json:"concept_tags"`
	Dependencies         []Dependency    `json:"dependencies"`
}

type ChecklistItem struct {
	Label      string `json:"label"`
	IsRequired bool   `json:"is_required"`
}

type QuizQuestion struct {
	QuestionText     string   `json:"question_text"`
	QuestionType     string   `json:"question_type"`
	CorrectAnswer    string   `json:"correct_answer"`
	Options          []string `json:"options"`
	Points           int      `json:"points"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
}

type ConceptTag struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

type Dependency struct {
	DependsOnDayNumber int    `json:"depends_on_day_number"`
	Type               string `json:"type"`
	MinimumScore       int    `json:"minimum_score"`
}

// DayCount returns the number of days across all modules.
func (a Analysis) DayCount() int {
	n := 0
	for _, m := range a.Modules {
		n += len(m.Days)
	}
	return n
}
