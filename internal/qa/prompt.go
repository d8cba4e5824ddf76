package qa

import (
	"fmt"
	"strings"

	"github.com/beagleboard/beaglemind/internal/llm"
	"github.com/beagleboard/beaglemind/internal/retrieval"
	"github.com/beagleboard/beaglemind/internal/tools"
)

// SystemPrompt assembles the system message: assistant identity,
// grounding documents, host info, and tool guidance tuned per backend.
func SystemPrompt(contextDocs []retrieval.ContextDocument, backend llm.Kind, toolsEnabled bool) string {
	var b strings.Builder

	b.WriteString("You are BeagleMind, an expert assistant for the BeagleBoard ecosystem: ")
	b.WriteString("BeagleBone boards, BeagleY-AI, device trees, cape interfaces, Linux images, and related embedded development.\n\n")

	if len(contextDocs) > 0 {
		b.WriteString("Use the following retrieved documents to ground your answer. ")
		b.WriteString("Prefer information from these documents over general knowledge, and say so when they do not cover the question.\n\n")
		b.WriteString(ContextBlock(contextDocs))
		b.WriteString("\n")
	} else {
		b.WriteString("No reference documents were retrieved for this question. ")
		b.WriteString("Answer from general BeagleBoard knowledge and be explicit about uncertainty.\n\n")
	}

	b.WriteString("Environment: ")
	b.WriteString(tools.FormatMachineInfo())
	b.WriteString("\n\n")

	if toolsEnabled {
		b.WriteString("You have tools for reading, writing and editing files, listing and searching directories, ")
		b.WriteString("running shell commands, and analyzing code. Use them when the question asks you to inspect ")
		b.WriteString("or change something on this machine. Call tools with well-formed JSON arguments.\n")
		if backend != llm.Ollama {
			b.WriteString("When the retrieved documents are insufficient, call retrieve_context with a refined query ")
			b.WriteString("to fetch more references before answering.\n")
		}
	} else {
		b.WriteString("Answer directly; no tools are available in this mode.\n")
	}

	return b.String()
}

// ContextBlock renders retrieved documents as numbered prompt text.
func ContextBlock(contextDocs []retrieval.ContextDocument) string {
	var b strings.Builder
	for i, doc := range contextDocs {
		fmt.Fprintf(&b, "Document %d:\n", i+1)
		fmt.Fprintf(&b, "File: %s", doc.FileInfo.Name)
		if doc.FileInfo.Language != "" && doc.FileInfo.Language != "unknown" {
			fmt.Fprintf(&b, " (%s)", doc.FileInfo.Language)
		}
		b.WriteString("\n")
		if source := sourceLink(doc.Metadata); source != "" {
			fmt.Fprintf(&b, "Source: %s\n", source)
		}
		fmt.Fprintf(&b, "Content:\n%s\n\n", strings.TrimSpace(doc.Text))
	}
	return b.String()
}

// FallbackPrompt is the single-string prompt used on the non-tool path
// and for backends driven through plain completion.
func FallbackPrompt(question, historyText string, contextDocs []retrieval.ContextDocument) string {
	var b strings.Builder

	b.WriteString("You are BeagleMind, an expert assistant for the BeagleBoard ecosystem.\n\n")

	if len(contextDocs) > 0 {
		b.WriteString("Reference documents:\n\n")
		b.WriteString(ContextBlock(contextDocs))
	}

	if historyText != "" {
		b.WriteString("Conversation so far:\n")
		b.WriteString(historyText)
		b.WriteString("\n")
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer concisely and accurately.")

	return b.String()
}

var questionMarkers = []string{
	"how", "what", "why", "when", "where", "which", "who",
	"can", "could", "should", "would", "is", "are", "does", "do",
	"explain", "describe", "tell me", "show me", "help",
}

var actionMarkers = []string{
	"create a file", "write a file", "make a file", "save to",
	"run the command", "execute", "list the files", "edit",
}

// ShouldRetrieve decides whether a question warrants hitting the
// retrieval backend. Pure action requests (create this file, run that
// command) skip retrieval; informational questions use it.
func ShouldRetrieve(question string) bool {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return false
	}

	for _, marker := range actionMarkers {
		if strings.Contains(q, marker) {
			return false
		}
	}

	if strings.Contains(q, "?") {
		return true
	}
	for _, marker := range questionMarkers {
		if strings.HasPrefix(q, marker+" ") || q == marker {
			return true
		}
	}

	// Mentions of the platform are worth grounding even without an
	// interrogative form.
	for _, term := range []string{"beagle", "pocketbeagle", "am335", "am62", "device tree", "cape"} {
		if strings.Contains(q, term) {
			return true
		}
	}

	return false
}

// WantsFileCreation detects prompts that ask for a file to be produced,
// used to nudge tool-capable backends toward write_file.
func WantsFileCreation(question string) bool {
	q := strings.ToLower(question)
	for _, marker := range []string{"create a file", "write a file", "make a file", "save it to", "save to a file", "write it to"} {
		if strings.Contains(q, marker) {
			return true
		}
	}
	return false
}

func sourceLink(metadata map[string]any) string {
	for _, key := range []string{"source_link", "raw_url", "github_url", "url"} {
		if value, ok := metadata[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}
