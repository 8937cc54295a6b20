// Package sanitize neutralizes instruction-like content in user briefs
// before they reach the LLM.
// Reference: OWASP LLM Prompt Injection Prevention Cheat Sheet
// https://cheatsheetseries.owasp.org/cheatsheets/LLM_Prompt_Injection_Prevention_Cheat_Sheet.html
package sanitize

import (
	"regexp"
)

// instructionPatterns detects instruction-like content embedded in briefs.
var instructionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+|the\s+)?(previous|prior|above)\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+|the\s+)?(previous|prior|above)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|in)\b`),
	regexp.MustCompile(`(?i)act\s+as\s+(if\s+you\s+are|a|an)\b`),
	regexp.MustCompile(`(?i)(reveal|print|show|output)\s+(your\s+)?(system\s+prompt|instructions)`),
	regexp.MustCompile(`(?i)developer\s+mode`),
	regexp.MustCompile(`(?i)jailbreak`),
	regexp.MustCompile("(?s)```.*?```"),
	regexp.MustCompile(`(?i)</?(system|assistant|instruction)>`),
}

// Brief neutralizes instruction-like patterns by wrapping them in brackets.
// The bracketed content signals to the LLM that this is quoted audience
// description, not an instruction.
func Brief(brief string) string {
	result := brief
	for _, pattern := range instructionPatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			return "[quoted: " + match + "]"
		})
	}
	return result
}
