// Package identify finds probable function names in JavaScript-like source text.
//
// The scan is a best-effort regular expression match and knows nothing about
// syntax: names inside comments, strings, or nested scopes are reported too.
// Callers use the result as a hint, not as an inventory.
package identify

import "regexp"

// declarationPattern matches `function name` (generators included, with the
// star on either side of the space) and `const|let|var name =` bound to an
// arrow function, an async arrow, or a function expression.
var declarationPattern = regexp.MustCompile(
	`\bfunction\b\s*\*?\s*([A-Za-z_$][A-Za-z0-9_$]*)` +
		`|(?:const|let|var)\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*(?:async\s*)?(?:\(|function\b|[A-Za-z_$][A-Za-z0-9_$]*\s*=>)`,
)

// Functions returns candidate names in first-seen order without duplicates.
func Functions(code string) []string {
	matches := declarationPattern.FindAllStringSubmatch(code, -1)
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		name := firstGroup(match)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func firstGroup(match []string) string {
	for _, group := range match[1:] {
		if group != "" {
			return group
		}
	}
	return ""
}
