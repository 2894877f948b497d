package adk

import (
	_ "embed"
)

//go:embed prompts/system_prompt.md
var systemPrompt string

// GetSystemPrompt returns the triage prompt every provider sends first
func GetSystemPrompt() string {
	return systemPrompt
}
