package testplan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PlanSystemInstruction is the system prompt shared by all LLM generators.
const PlanSystemInstruction = `You are a senior QA engineer. Your role is to read a user story and produce a structured test plan that a tester can execute step by step.

Cover the happy path, edge cases and negative cases. Every step must be an action a tester performs, with the observable result they should expect.`

// ErrEmptyPlan is returned when a generated response contains no test cases.
var ErrEmptyPlan = errors.New("generated plan contains no test cases")

// BuildPlanPrompt creates the user prompt asking a model for a test plan.
func BuildPlanPrompt(story Story) string {
	var sb strings.Builder

	sb.WriteString("<story>\n")
	fmt.Fprintf(&sb, "Key: %s\n", story.Key)
	fmt.Fprintf(&sb, "Title: %s\n", story.Title)
	if story.Description != "" {
		fmt.Fprintf(&sb, "Description:\n%s\n", story.Description)
	}
	sb.WriteString("</story>\n\n")

	sb.WriteString("## Task\n\n")
	sb.WriteString("Write the test plan for this story.\n\n")
	sb.WriteString("Respond with JSON matching this schema:\n")
	sb.WriteString(`{
  "test_cases": [{
    "title": "Short imperative title",
    "description": "What the test verifies",
    "preconditions": "State required before the first step",
    "expected_result": "Overall outcome",
    "priority": "High|Medium|Low",
    "test_type": "functional|negative|edge|integration",
    "tags": ["..."],
    "steps": [{"step_number": 1, "action": "...", "expected_result": "...", "test_data": "..."}]
  }]
}
`)
	sb.WriteString("\nRules:\n")
	sb.WriteString("- step_number starts at 1 within each test case\n")
	sb.WriteString("- every test case has at least one step\n")

	return sb.String()
}

// generatedPlan is the JSON envelope models are asked to produce.
type generatedPlan struct {
	TestCases []TestCase `json:"test_cases"`
}

// ParsePlan extracts test cases from a model response. Markdown code fences
// around the JSON are tolerated.
func ParsePlan(text string) ([]TestCase, error) {
	body := stripFence(strings.TrimSpace(text))

	var plan generatedPlan
	if err := json.Unmarshal([]byte(body), &plan); err != nil {
		return nil, fmt.Errorf("failed to parse generated plan: %w", err)
	}
	if len(plan.TestCases) == 0 {
		return nil, ErrEmptyPlan
	}
	for i := range plan.TestCases {
		for j := range plan.TestCases[i].Steps {
			if plan.TestCases[i].Steps[j].Number == 0 {
				plan.TestCases[i].Steps[j].Number = j + 1
			}
		}
	}
	return plan.TestCases, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		s = s[nl+1:] // drop the language tag line
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
