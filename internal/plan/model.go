package plan

// GeneratedPlan is the normalized, database-shaped import plan. Every index and
// tag reference resolves inside the plan.
type GeneratedPlan struct {
	Program            ProgramDraft         `json:"program"`
	Modules            []ModuleDraft        `json:"modules"`
	DayPlans           []DayPlanDraft       `json:"day_plans"`
	ChecklistItems     []ChecklistItemDraft `json:"checklist_items"`
	QuizQuestions      []QuizQuestionDraft  `json:"quiz_questions"`
	ConceptTags        []ConceptTagDraft    `json:"concept_tags"`
	TagAssignments     []TagAssignment      `json:"tag_assignments"`
	Dependencies       []DependencyDraft    `json:"dependencies"`
	ValidationWarnings []string             `json:"validation_warnings"`
}

type ProgramDraft struct {
	Title              string `json:"title"`
	Description        string `json:"description"`
	EstimatedTotalDays int    `json:"estimated_total_days"`
}

type ModuleDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index"`
	Color       string `json:"color"`
}

type DayPlanDraft struct {
	ModuleIndex          int    `json:"module_index"`
	DayNumber            int    `json:"day_number"`
	Title                string `json:"title"`
	SyntaxTargets        string `json:"syntax_targets"`
	ImplementationBrief  string `json:"implementation_brief"`
	FilesToCreate        string `json:"files_to_create"`
	SuccessCriteria      string `json:"success_criteria"`
	StretchChallenge     string `json:"stretch_challenge"`
	Notes                string `json:"notes"`
	EstimatedMinutes     int    `json:"estimated_minutes"`
	MemoryRebuildMinutes int    `json:"memory_rebuild_minutes"`
	MinMinutes           int    `json:"min_minutes"`
	RecommendedMinutes   int    `json:"recommended_minutes"`
	DeepMinutes          int    `json:"deep_minutes"`
	ComplexityLevel      int    `json:"complexity_level"`
}

type ChecklistItemDraft struct {
	DayIndex   int    `json:"day_index"`
	Label      string `json:"label"`
	IsRequired bool   `json:"is_required"`
	OrderIndex int    `json:"order_index"`
}

type QuizQuestionDraft struct {
	DayIndex         int      `json:"day_index"`
	QuestionText     string   `json:"question_text"`
	QuestionType     string   `json:"question_type"`
	CorrectAnswer    string   `json:"correct_answer"`
	Options          []string `json:"options"`
	Points           int      `json:"points"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
	OrderIndex       int      `json:"order_index"`
}

type ConceptTagDraft struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// TagAssignment links a day to a tag by its normalized name and domain.
type TagAssignment struct {
	DayIndex  int    `json:"day_index"`
	TagName   string `json:"tag_name"`
	TagDomain string `json:"tag_domain"`
}

type DependencyDraft struct {
	DayIndex           int    `json:"day_index"`
	DependsOnDayNumber int    `json:"depends_on_day_number"`
	DependencyType     string `json:"dependency_type"`
	MinimumScore       int    `json:"minimum_score"`
}

// DayIndexByNumber maps day numbers to positions. The first occurrence wins.
func (p GeneratedPlan) DayIndexByNumber() map[int]int {
	out := make(map[int]int, len(p.DayPlans))
	for i, d := range p.DayPlans {
		if _, ok := out[d.DayNumber]; !ok {
			out[d.DayNumber] = i
		}
	}
	return out
}
