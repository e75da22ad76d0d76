package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPrompt = `You are a curriculum architect. Given educational content, you produce a structured learning plan as JSON.

Analyze the provided content and generate a complete learning program with the following structure:

{
  "program_title": "string",
  "program_description": "string",
  "estimated_total_days": number,
  "modules": [
    {
      "title": "string",
      "description": "string",
      "order_index": number,
      "color": "hex string",
      "days": [
        {
          "day_number": number,
          "title": "string, specific and actionable",
          "syntax_targets": "markdown: exact syntax and concepts to master",
          "implementation_brief": "markdown: what to build, specific deliverables",
          "files_to_create": "markdown: list of files the learner should create",
          "success_criteria": "markdown: measurable criteria for completion",
          "stretch_challenge": "markdown: optional advanced extension",
          "notes": "markdown: tips, gotchas, references",
          "estimated_minutes": number,
          "memory_rebuild_minutes": number,
          "checklist_items": [
            { "label": "string, specific task", "is_required": boolean }
          ],
          "quiz_questions": [
            {
              "question_text": "string",
              "question_type": "short_answer | multiple_choice | code_prompt | reflection",
              "correct_answer": "string",
              "options": ["string"],
              "points": number,
              "time_limit_seconds": number
            }
          ],
          "concept_tags": [
            { "name": "string", "domain": "string" }
          ],
          "dependencies": [
            { "depends_on_day_number": number, "type": "prerequisite | recommended", "minimum_score": number }
          ]
        }
      ]
    }
  ]
}

Rules:
- Each day should take 45-120 minutes for a focused learner.
- Day titles must be specific (not "Learn CSS" but "CSS Grid Layout + Template Areas").
- Syntax targets must include exact code patterns the learner should memorize.
- Implementation briefs must describe a concrete build output, not vague exercises.
- Every day gets 3-8 checklist items that are individually verifiable.
- Every day gets 2-5 quiz questions covering the day's core concepts.
- Concept tags use granular names (not "CSS" but "grid-template-columns", "async/await").
- Dependencies should be set when a day requires knowledge from an earlier day.
- Group days into logical modules (5-10 days each).
- Assign module colors from this palette: #6366F1, #EC4899, #F59E0B, #22C55E, #3B82F6, #A855F7, #EF4444, #14B8A6.
- Stretch challenges should be genuinely harder, not just more of the same.
- Quiz questions should test understanding, not just recall.
- Respond with ONLY the JSON object. No markdown fences, no preamble.`

// SystemPrompt returns the fixed instructions sent with every request.
func SystemPrompt() string { return systemPrompt }

func chunkPrompt(content string) string {
	return "Analyze this curriculum content and generate a structured learning plan:\n\n" + content
}

// Summary renders the one-line description of a partial result used in the merge request.
func Summary(i int, a Analysis) string {
	return fmt.Sprintf("Chunk %d: %s (%d days, %d modules)", i, a.ProgramTitle, a.EstimatedTotalDays, len(a.Modules))
}

func mergePrompt(results []Analysis) (string, error) {
	summaries := make([]string, 0, len(results))
	for i, r := range results {
		summaries = append(summaries, Summary(i+1, r))
	}
	full, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("Given these separately analyzed curriculum sections, produce a unified program. ")
	b.WriteString("Deduplicate overlapping content, ensure day numbering is sequential, ")
	b.WriteString("resolve cross-chunk dependencies, and ensure logical module grouping.\n\n")
	b.WriteString("Summaries:\n")
	b.WriteString(strings.Join(summaries, "\n"))
	b.WriteString("\n\nFull results:\n")
	b.Write(full)
	return b.String(), nil
}
