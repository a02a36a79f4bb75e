package tutor

import (
	"fmt"
	"strings"

	"github.com/fabfab/learning-assistant/documents"
)

const (
	// NoContext replaces the context block when no document matched.
	NoContext = "No relevant content found."
	// Fallback is the exact reply the model must give when the context does
	// not contain the answer.
	Fallback = "Not available in current documents."
)

const promptTemplate = `You are a patient tutor who explains AI, Machine Learning and Generative AI.

Audience:
%s

Answer the learner's question using ONLY the context below.
If the answer is not in the context, reply exactly:
"%s"

Context:
%s

Question:
%s

Your answer must include:
1. A clear explanation.
2. A short example or analogy.
3. Two or three related topics the learner could study next.

Answer:
`

// BuildContext renders the selected documents as "[name]\ncontent" blocks
// separated by blank lines.
func BuildContext(store *documents.Store, names []string) string {
	if len(names) == 0 {
		return NoContext
	}

	blocks := make([]string, 0, len(names))
	for _, name := range names {
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", name, store.Content(name)))
	}
	return strings.Join(blocks, "\n\n")
}

func BuildPrompt(question, tone, context string) string {
	return fmt.Sprintf(promptTemplate, tone, Fallback, context, question)
}

// StripEcho removes a verbatim copy of the prompt that some models emit
// before their continuation. Only an exact copy is recognised; partial or
// rephrased echoes are returned as generated.
func StripEcho(prompt, output string) string {
	if prompt != "" {
		if idx := strings.Index(output, prompt); idx >= 0 {
			return strings.TrimSpace(output[idx+len(prompt):])
		}
	}
	return strings.TrimSpace(output)
}
