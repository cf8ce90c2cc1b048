package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/marcusreed/propforge/model"
)

// depFields decodes a dependency's AgentOutput.Fields into T by round-
// tripping through JSON, since Fields is an opaque map[string]any once it
// has been through statestore's json.Marshal/Unmarshal.
func depFields[T any](in model.AgentInput, kind model.TaskKind) (T, error) {
	var out T
	output, ok := in.DependencyOutputs[kind]
	if !ok {
		return out, fmt.Errorf("agents: missing dependency output %q", kind)
	}
	raw, err := json.Marshal(output.Fields)
	if err != nil {
		return out, fmt.Errorf("agents: re-encoding %q fields: %w", kind, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("agents: decoding %q fields: %w", kind, err)
	}
	return out, nil
}

// toFields round-trips v through JSON into a map[string]any, the shape
// model.AgentOutput.Fields requires.
func toFields(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// splitLines splits LLM output into non-empty, trimmed lines, stripping a
// leading bullet marker ("-", "*", or "1.") agents commonly produce when
// asked for a list.
func splitLines(text string) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		line = strings.TrimPrefix(line, "-")
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if dot := strings.IndexByte(line, '.'); dot > 0 && dot <= 3 {
			if _, err := fmt.Sscanf(line[:dot], "%d", new(int)); err == nil {
				line = strings.TrimSpace(line[dot+1:])
			}
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func keyPointsList(points []string) string {
	if len(points) == 0 {
		return "(none provided)"
	}
	return "- " + strings.Join(points, "\n- ")
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
