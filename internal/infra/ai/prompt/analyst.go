package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior data-recovery and hardware repair technician. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- "analysis" is a technical diagnosis of two to four sentences, written in Brazilian Portuguese.
- Describe the probable failure and the recovery or repair procedure. Do not promise success.
- Stay within the category given: logical (file system, sectors, partitions), physical (mechanical or connector damage), electronic (board, controller, firmware).

Schema (example with empty values):
{
  "analysis": "<string>"
}`
}

// GetUserPrompt builds a compact user message around the draft fields.
func GetUserPrompt(f domain.Fields) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Device: %s\n", f.Device)
	if f.DamageType != "" {
		fmt.Fprintf(&b, "Damage type: %s\n", f.DamageType)
	}
	fmt.Fprintf(&b, "Category: %s\n", f.Category)
	if f.Severity != "" {
		fmt.Fprintf(&b, "Severity: %s\n", f.Severity)
	}
	if notes := strings.TrimSpace(f.Analysis); notes != "" {
		fmt.Fprintf(&b, "Technician notes: %s\n", notes)
	}
	b.WriteString("Write the diagnosis and respond with the JSON per schema.")
	return b.String()
}

// Suggestion matches the schema used by the system prompt.
type Suggestion struct {
	Analysis string `json:"analysis"`
}

// ParseSuggestion extracts the diagnosis from a model reply.
func ParseSuggestion(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var s Suggestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &s); err != nil {
		return "", fmt.Errorf("failed to parse suggestion: %w", err)
	}
	text := strings.TrimSpace(s.Analysis)
	if text == "" {
		return "", fmt.Errorf("empty suggestion")
	}
	return text, nil
}
