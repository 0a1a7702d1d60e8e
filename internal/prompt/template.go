package prompt

import (
	"errors"
	"fmt"
	"strings"
)

var ErrTemplate = errors.New("invalid prompt template")

// Placeholders are literal, case-sensitive tokens; a template must contain
// exactly one of each.
const (
	ContextPlaceholder = "{context}"
	QueryPlaceholder   = "{query}"
)

const defaultTemplate = `Use the following context to answer the question. If the context does not contain the answer, say so instead of guessing.

Context:
{context}

Question: {query}
Answer:`

// Template is a parsed prompt template with exactly one context slot and one
// query slot. Parsing up front means a malformed template fails before any
// retrieval work is wasted.
type Template struct {
	raw string
}

func Parse(raw string) (*Template, error) {
	if n := strings.Count(raw, ContextPlaceholder); n != 1 {
		return nil, fmt.Errorf("%w: expected exactly one %s placeholder, found %d", ErrTemplate, ContextPlaceholder, n)
	}
	if n := strings.Count(raw, QueryPlaceholder); n != 1 {
		return nil, fmt.Errorf("%w: expected exactly one %s placeholder, found %d", ErrTemplate, QueryPlaceholder, n)
	}
	return &Template{raw: raw}, nil
}

// Default returns the built-in answer template.
func Default() *Template {
	return &Template{raw: defaultTemplate}
}

// Render substitutes the context and query into the template.
func (t *Template) Render(contextText, query string) string {
	out := strings.Replace(t.raw, ContextPlaceholder, contextText, 1)
	return strings.Replace(out, QueryPlaceholder, query, 1)
}
