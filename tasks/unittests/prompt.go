package unittests

import (
	"fmt"
	"strings"
)

// DefaultSystemPrompt frames the model as a test writer that answers with code only.
const DefaultSystemPrompt = "You are a professional test case generator. Reply with source code only."

// BuildPrompt asks for tests covering functions declared in code. The subject
// module is imported relative to the test directory.
func BuildPrompt(framework string, moduleName string, functions []string, code string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generate comprehensive %s unit tests ONLY for these functions in %s:\n", framework, moduleName))
	sb.WriteString(strings.Join(functions, ", "))
	sb.WriteString("\n\nCode:\n")
	sb.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("\nRules:\n")
	sb.WriteString(fmt.Sprintf("- Output runnable %s code only.\n", framework))
	sb.WriteString("- No explanations and no markdown code fences.\n")
	sb.WriteString("- Overwrite previous tests (do NOT keep tests for deleted functions).\n")
	sb.WriteString(fmt.Sprintf("- Import from \"../%s\".\n", moduleName))
	sb.WriteString("- Cover edge cases and input variations.\n")
	return sb.String()
}
