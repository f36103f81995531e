package ai

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxPromptChars bounds how much assignment text is sent to the model
	MaxPromptChars = 8000
	// Temperature used for breakdown completions
	Temperature = 0.7

	// SystemPrompt frames every breakdown request
	SystemPrompt = "You are a helpful educational assistant that analyzes academic assignments and breaks them down into manageable parts."
)

// BreakdownSections are the Markdown headings the model is asked to produce, in order
var BreakdownSections = []string{
	"Assignment Overview",
	"Tasks Breakdown",
	"Key Concepts",
	"Time Estimate",
	"Approach Strategy",
	"Resources Needed",
}

var sectionInstructions = map[string]string{
	"Assignment Overview": "Start with a brief summary of what the assignment is about.",
	"Tasks Breakdown":     "Provide a detailed breakdown of all questions or tasks that need to be completed, with each task clearly numbered.",
	"Key Concepts":        "List the important concepts, terms, and references mentioned that will be helpful for completing the assignment.",
	"Time Estimate":       "Provide an estimated time to complete each part (in hours).",
	"Approach Strategy":   "Suggest a step-by-step approach for tackling the assignment efficiently.",
	"Resources Needed":    "List any specific resources, references, or tools that would be helpful.",
}

// TruncateText keeps at most maxChars characters from the start of text
func TruncateText(text string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i]
		}
		n++
	}
	return text
}

// BuildBreakdownPrompt builds the user prompt for an assignment. text is truncated to MaxPromptChars.
func BuildBreakdownPrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are an educational assistant analyzing an assignment document.\n")
	b.WriteString("Analyze the following assignment text and provide a structured breakdown with these clearly labeled sections:\n\n")
	for _, section := range BreakdownSections {
		b.WriteString("# ")
		b.WriteString(section)
		b.WriteString("\n")
		b.WriteString(sectionInstructions[section])
		b.WriteString("\n\n")
	}
	b.WriteString("Format your response using proper Markdown with headings, lists, and emphasis. ")
	b.WriteString("Keep it concise, well-structured, and student-friendly.\n\n")
	b.WriteString("Here is the assignment text:\n")
	b.WriteString(TruncateText(text, MaxPromptChars))
	return b.String()
}
