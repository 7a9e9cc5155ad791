// Package prompt renders system and user prompts from agent identity, output
// style, workflow-level instructions, meeting topic and message history. All
// functions are pure and deterministic so prompts can be tested as strings;
// the dispatch layer stays free of formatting concerns.
package prompt

import (
	"fmt"
	"strings"

	"github.com/kaigi-ai/kaigi/core"
)

// EmptyHistorySentinel is rendered in place of an empty message history so
// prompts never contain an ambiguous blank section.
const EmptyHistorySentinel = "(no messages yet)"

// unknownRole is the fallback for transcript records predating the role field.
const unknownRole = "unknown"

// SpeakerSystemPrompt renders the system prompt for a speaking turn. Sections
// appear in fixed order; missing persona or extra instructions are omitted
// rather than replaced with placeholder text.
func SpeakerSystemPrompt(agent *core.Agent, style *core.OutputStyle, startPrompt string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a meeting participant named %q.\n", agent.Name)

	writeSection(&b, "Your role", agent.Role)
	writeSection(&b, "Your character", agent.Persona)
	writeSection(&b, "Additional instructions", agent.Prompt)
	writeSection(&b, "Instructions from the organizer", startPrompt)
	writeSection(&b, "Output format and style", style.PromptSegment)

	b.WriteString("\n---\nFollow all of the above while contributing to the discussion. There is no upper limit on the length of your answer.")
	return b.String()
}

// SpeakerUserMessage renders the user message for a speaking turn: topic,
// full formatted history, then an instruction framed by the agent's role.
func SpeakerUserMessage(topic string, history []core.Message, role string) string {
	var b strings.Builder
	writeSection(&b, "Meeting topic", topic)
	writeSection(&b, "Discussion history", FormatMessageHistory(history))
	fmt.Fprintf(&b, "\n---\nAs the %q, review the flow of the discussion and state the opinion or question you should voice next.", role)
	return b.String()
}

// SummarySystemPrompt renders the system prompt for the summarizing turn. It
// has the same shape as the speaker prompt but frames the agent as the
// meeting's summarizer and injects the effective end instructions.
func SummarySystemPrompt(agent *core.Agent, style *core.OutputStyle, endPrompt string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %q, the summarizer of this meeting.\n", agent.Name)

	writeSection(&b, "Your role", agent.Role)
	writeSection(&b, "Your character", agent.Persona)
	writeSection(&b, "Additional instructions", agent.Prompt)
	writeSection(&b, "Instructions for the final summary", endPrompt)
	writeSection(&b, "Output format and style", style.PromptSegment)

	b.WriteString("\n---\nStay neutral and produce a logical, constructive synthesis that the participants can act on.")
	return b.String()
}

// SummaryUserMessage renders the user message for the summarizing turn: topic
// plus full history, with no next-speaker framing.
func SummaryUserMessage(topic string, history []core.Message) string {
	var b strings.Builder
	writeSection(&b, "Meeting topic", topic)
	writeSection(&b, "Full discussion history", FormatMessageHistory(history))
	b.WriteString("\n---\nBased on the discussion above, produce the final conclusion summary for this meeting.")
	return b.String()
}

// FormatMessageHistory renders the transcript as speaker name, role, step
// index and content per message, separated by blank lines. Records predating
// the role or step fields fall back to "unknown" and "?" respectively. An
// empty history renders EmptyHistorySentinel.
func FormatMessageHistory(messages []core.Message) string {
	if len(messages) == 0 {
		return EmptyHistorySentinel
	}
	entries := make([]string, len(messages))
	for i, m := range messages {
		role := m.AgentRole
		if role == "" {
			role = unknownRole
		}
		step := "?"
		if m.StepNumber > 0 {
			step = fmt.Sprintf("%d", m.StepNumber)
		}
		entries[i] = fmt.Sprintf("[%s | %s | step %s]\n%s", m.AgentName, role, step, m.Content)
	}
	return strings.Join(entries, "\n\n")
}

// writeSection emits a markdown section when body is non-empty.
func writeSection(b *strings.Builder, heading, body string) {
	if body == "" {
		return
	}
	fmt.Fprintf(b, "\n## %s\n%s\n", heading, body)
}
