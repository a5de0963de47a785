// Package llm provides generation backends for documentation drafting.
//
// Backend interface - the abstract interface for generation backends.
// Each backend implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Provider-specific error handling
package llm

import (
	"context"
	"fmt"
)

// Mode selects the documentation style a backend is asked to produce.
type Mode string

const (
	// ModeTask documents a unit of work: what changed, how, and why.
	ModeTask Mode = "task"
	// ModeArchitecture documents system structure and design decisions.
	ModeArchitecture Mode = "architecture"
	// ModeMeeting turns discussion notes into structured minutes.
	ModeMeeting Mode = "meeting"
)

// Valid reports whether the mode is one of the supported styles.
func (m Mode) Valid() bool {
	switch m {
	case ModeTask, ModeArchitecture, ModeMeeting:
		return true
	}
	return false
}

// Request carries the source context to document and the style to produce.
type Request struct {
	Context string
	Mode    Mode
}

// Backend generates markdown documentation from source context.
// Implementations hide provider-specific details while exposing a
// consistent interface for the router.
type Backend interface {
	// Name returns the backend name (for logging and failure reporting).
	Name() string

	// Generate produces a markdown document for the request.
	Generate(ctx context.Context, req Request) (string, error)
}

// systemInstructions maps each mode onto the system prompt handed to a
// backend. The instructions stay deliberately short; structure comes from
// the markdown pipeline downstream, not from prompt engineering here.
var systemInstructions = map[Mode]string{
	ModeTask: "You are a technical writer. Produce concise markdown " +
		"documentation for a completed piece of work: a summary, the key " +
		"changes, and any follow-ups. Use headings, lists, and fenced code " +
		"blocks where they help. Return only the markdown document.",
	ModeArchitecture: "You are a technical writer. Produce markdown " +
		"architecture documentation: the components involved, how they " +
		"interact, and the decisions taken with their trade-offs. Use " +
		"headings, lists, and fenced code blocks where they help. Return " +
		"only the markdown document.",
	ModeMeeting: "You are a technical writer. Turn the following notes " +
		"into markdown meeting minutes: attendees if known, discussion " +
		"points, decisions, and action items. Return only the markdown " +
		"document.",
}

// systemInstruction returns the instruction for a mode. Callers validate
// the mode first; an unknown mode falls back to the task instruction.
func systemInstruction(mode Mode) string {
	if instruction, ok := systemInstructions[mode]; ok {
		return instruction
	}
	return systemInstructions[ModeTask]
}

// userPrompt assembles the user-role message for a request.
func userPrompt(req Request) string {
	return fmt.Sprintf("Document the following context as %s documentation:\n\n%s", req.Mode, req.Context)
}
