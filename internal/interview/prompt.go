package interview

import (
	"strings"

	_ "embed"
)

//go:embed prompt.md
var instructionsTemplate string

// startDirective is the user message that opens every interview.
const startDirective = "Start the interview with your first question."

func buildInstructions(jobTitle, jobDescription string) string {
	template := instructionsTemplate
	if strings.TrimSpace(template) == "" {
		template = "You are a mock interview conductor for the position: {{JOB_TITLE}}\n\nJob description:\n{{JOB_DESCRIPTION}}\n\nAsk one question at a time and give feedback on each answer."
	}

	instructions := strings.ReplaceAll(template, "{{JOB_TITLE}}", jobTitle)
	instructions = strings.ReplaceAll(instructions, "{{JOB_DESCRIPTION}}", jobDescription)

	return instructions
}
