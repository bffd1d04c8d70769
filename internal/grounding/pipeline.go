// Package grounding builds document-constrained prompts, invokes the model
// backend, and validates answers against the document before they reach the
// user.
package grounding

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/pdfchat/pdfchat/internal/adapter/ollama"
)

// Refusal is the exact sentence the assistant must use when the answer is
// not in the document. Validation overrides ungrounded answers with it.
const Refusal = "I don't have that information in the uploaded PDF document."

// contextWindow is the character budget for document text in a single
// prompt. Longer documents keep only the trailing window.
const contextWindow = 6000

// refusalPhrases mark an answer as a self-declared refusal; such answers
// skip all further validation.
var refusalPhrases = []string{
	"don't have that information",
	"not in the pdf",
	"not mentioned",
}

// stopWords are excluded from the lexical grounding score: common English
// function words plus terms every answer about an uploaded document tends
// to contain.
var stopWords = map[string]struct{}{
	"the": {}, "is": {}, "at": {}, "which": {}, "on": {}, "a": {}, "an": {},
	"and": {}, "or": {}, "but": {}, "in": {}, "with": {}, "to": {}, "for": {},
	"of": {}, "as": {}, "by": {}, "from": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "it": {}, "be": {}, "are": {}, "was": {},
	"were": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "should": {},
	"could": {}, "may": {}, "might": {}, "can": {}, "must": {}, "shall": {},
	"i": {}, "you": {}, "he": {}, "she": {}, "we": {}, "they": {},
	"what": {}, "when": {}, "where": {}, "why": {}, "how": {},
	"document": {}, "pdf": {}, "information": {}, "uploaded": {},
}

// structureKeywords identify questions about the document itself. Summaries
// legitimately use different words than the source, so such questions are
// exempt from the grounding-score override.
var structureKeywords = []string{
	"summarize", "summary", "about", "topic", "main point",
	"overview", "describe", "explain the document", "what is this document",
}

// Pipeline answers questions restricted to a supplied document text.
type Pipeline struct {
	backend ollama.Backend
	model   string
}

// New creates a Pipeline that generates answers with the given backend and
// model name.
func New(backend ollama.Backend, model string) *Pipeline {
	return &Pipeline{backend: backend, model: model}
}

// Answer generates an answer to the question from the document text. The
// raw model output is validated and, when it cannot be traced back to the
// document, replaced with the canonical refusal sentence.
func (p *Pipeline) Answer(ctx context.Context, question, documentText string) (string, error) {
	truncated := truncateContext(documentText)

	req := &ollama.GenerateRequest{
		Model:  p.model,
		Prompt: buildUserPrompt(question),
		System: buildSystemPrompt(truncated),
		Options: ollama.Options{
			Temperature: 0.1,
			TopP:        0.5,
			TopK:        20,
			NumPredict:  800,
			Stop:        []string{"User question:", "Human:", "Question:"},
		},
	}

	answer, err := p.backend.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "I encountered an error processing your request.", nil
	}

	if IsRefusal(answer) {
		return answer, nil
	}

	if !isGrounded(answer, truncated) && !isStructuralQuestion(question) {
		return Refusal, nil
	}
	return answer, nil
}

// IsRefusal reports whether the answer already declares that the
// information is not in the document.
func IsRefusal(answer string) bool {
	lower := strings.ToLower(answer)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// truncateContext keeps the trailing window of the document text, prefixed
// with an ellipsis when content was cut.
func truncateContext(documentText string) string {
	if len(documentText) <= contextWindow {
		return documentText
	}
	return "..." + documentText[len(documentText)-contextWindow:]
}

// isGrounded scores the answer's lexical overlap with the (truncated)
// document: of the first 10 content words, at least max(2, 30%) must occur
// in the document for the answer to count as coming from it.
func isGrounded(answer, documentText string) bool {
	words := contentWords(answer, 10)
	if len(words) == 0 {
		return false
	}

	docLower := strings.ToLower(documentText)
	matches := 0
	for _, w := range words {
		if strings.Contains(docLower, strings.ToLower(w)) {
			matches++
		}
	}

	return float64(matches) >= math.Max(2, float64(len(words))*0.3)
}

// contentWords splits the answer on word boundaries and returns up to max
// words longer than three characters that are not stop words.
func contentWords(answer string, max int) []string {
	fields := strings.FieldsFunc(answer, func(r rune) bool {
		switch r {
		case ' ', '.', ',', '!', '?', '\n', '\r':
			return true
		}
		return false
	})

	var words []string
	for _, f := range fields {
		if len(f) <= 3 {
			continue
		}
		if _, stop := stopWords[strings.ToLower(f)]; stop {
			continue
		}
		words = append(words, f)
		if len(words) == max {
			break
		}
	}
	return words
}

// isStructuralQuestion reports whether the question asks about the document
// itself rather than its content.
func isStructuralQuestion(question string) bool {
	lower := strings.ToLower(question)
	for _, kw := range structureKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// buildSystemPrompt embeds the (possibly truncated) document text between
// unambiguous delimiters along with the grounding rules.
func buildSystemPrompt(documentText string) string {
	return fmt.Sprintf(`You are a PDF Document Assistant. Your ONLY job is to answer questions based STRICTLY on the provided PDF content.

CRITICAL RULES:
1. ONLY use information from the PDF content below
2. If the answer is NOT in the PDF, you MUST respond EXACTLY with: "%s"
3. DO NOT use any external knowledge, training data, or general information
4. DO NOT make assumptions or provide general answers
5. DO NOT answer questions about topics not mentioned in the PDF

PDF DOCUMENT CONTENT:
---START OF PDF---
%s
---END OF PDF---

RESPONSE FORMATTING GUIDELINES:
- Use clear paragraphs with proper spacing
- Use bullet points (•) for lists
- Use numbered lists (1., 2., 3.) for steps or sequences
- Use **bold** for emphasis on key terms
- Keep responses well-structured and easy to read
- If referencing specific sections, mention the page or section
- Break long responses into digestible paragraphs

Remember: If the information is not in the PDF content above, you MUST say you don't have that information. Do not make up or infer answers.`, Refusal, documentText)
}

// buildUserPrompt restates the grounding rule next to the question.
func buildUserPrompt(question string) string {
	return fmt.Sprintf("User question: %s\n\nProvide a well-formatted answer based ONLY on the PDF content. If not found in PDF, say you don't have that information.", question)
}
