package testplan

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// stepLine matches the first line of a numbered step: "3. Click save".
var stepLine = regexp.MustCompile(`^(\d+)\.\s*(.+)$`)

// EncodeSteps renders structured steps as the free-text block shown in the
// editor. Each step is "<n>. <action>", followed by an indented
// "Expected: <result>" line when the step has an expected result.
//
// DecodeSteps recovers every step with a non-blank action. A step with an
// empty action encodes as a bare "<n>." line, which decodes as no step.
// A zero step number is written as the step's 1-based position, so it
// comes back as that position.
func EncodeSteps(steps []Step) string {
	var sb strings.Builder
	for i, s := range steps {
		if i > 0 {
			sb.WriteString("\n")
		}
		n := s.Number
		if n == 0 {
			n = i + 1
		}
		fmt.Fprintf(&sb, "%d. %s", n, s.Action)
		if s.ExpectedResult != "" {
			fmt.Fprintf(&sb, "\n   Expected: %s", s.ExpectedResult)
		}
	}
	return sb.String()
}

// DecodeSteps parses a free-text step block back into structured steps.
//
// Numbered lines start a new step and the number is kept as written, even if
// out of order. A line starting with "expected" and containing ':' sets the
// expected result of the current step. Other lines continue the current
// step's action. Blank lines are ignored. Text without numbered lines yields
// no steps.
func DecodeSteps(text string) []Step {
	var steps []Step
	var current *Step

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := stepLine.FindStringSubmatch(line); m != nil {
			if current != nil {
				steps = append(steps, *current)
			}
			n, err := strconv.Atoi(m[1])
			if err != nil {
				// Overflowing step numbers are treated as prose.
				current = appendAction(current, line)
				continue
			}
			current = &Step{Number: n, Action: strings.TrimSpace(m[2])}
			continue
		}

		if strings.HasPrefix(strings.ToLower(line), "expected") {
			if _, result, ok := strings.Cut(line, ":"); ok {
				if current != nil {
					current.ExpectedResult = strings.TrimSpace(result)
				}
				continue
			}
		}

		current = appendAction(current, line)
	}

	if current != nil {
		steps = append(steps, *current)
	}
	return steps
}

func appendAction(current *Step, line string) *Step {
	if current == nil {
		return nil
	}
	if current.Action == "" {
		current.Action = line
	} else {
		current.Action += " " + line
	}
	return current
}

// RederiveSteps returns the structured steps for newly edited text. If the
// text yields no steps the previous steps are returned unchanged. Test data,
// which the text form does not carry, is kept for steps whose number still
// exists.
func RederiveSteps(previous []Step, text string) []Step {
	decoded := DecodeSteps(text)
	if len(decoded) == 0 {
		return previous
	}
	data := make(map[int]string, len(previous))
	for _, s := range previous {
		if s.TestData != "" {
			data[s.Number] = s.TestData
		}
	}
	for i := range decoded {
		if d, ok := data[decoded[i].Number]; ok {
			decoded[i].TestData = d
		}
	}
	return decoded
}
