package assemble

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rajdeep108/smartifyLLM/internal/vector"
)

var ErrBudgetConfig = errors.New("invalid context budget")

// TokenCounter converts text to an approximate token count. It must be
// deterministic; the default counts whitespace-separated words.
type TokenCounter func(text string) int

func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Context is the assembled, length-bounded context for one query, plus the
// sources actually included in consumption order.
type Context struct {
	Text    string
	Sources []string
}

// Assembler merges ranked candidates into one context string bounded by a
// token budget. Pure with respect to its inputs: identical candidates and
// budget always produce an identical result.
type Assembler struct {
	counter TokenCounter
}

func NewAssembler(counter TokenCounter) *Assembler {
	if counter == nil {
		counter = WordCount
	}
	return &Assembler{counter: counter}
}

// Assemble consumes candidates in the given (descending score) order,
// greedily appending whole candidates while the running total stays within
// maxTokens-buffer. The first candidate that would overflow is truncated to
// fit; iteration then stops.
func (a *Assembler) Assemble(candidates []vector.Candidate, maxTokens, buffer int) (Context, error) {
	if maxTokens <= 0 {
		return Context{}, fmt.Errorf("%w: max tokens must be positive, got %d", ErrBudgetConfig, maxTokens)
	}
	if buffer < 0 {
		return Context{}, fmt.Errorf("%w: buffer must be non-negative, got %d", ErrBudgetConfig, buffer)
	}
	budget := maxTokens - buffer
	if budget <= 0 {
		return Context{}, fmt.Errorf("%w: buffer %d leaves no usable tokens out of %d", ErrBudgetConfig, buffer, maxTokens)
	}

	var parts []string
	var sources []string
	used := 0
	for _, c := range candidates {
		n := a.counter(c.Text)
		if n == 0 {
			continue
		}
		if used+n <= budget {
			parts = append(parts, c.Text)
			sources = append(sources, c.Source)
			used += n
			if used == budget {
				break
			}
			continue
		}
		if remaining := budget - used; remaining > 0 {
			parts = append(parts, a.truncate(c.Text, remaining))
			sources = append(sources, c.Source)
		}
		break
	}

	return Context{Text: strings.Join(parts, "\n\n"), Sources: sources}, nil
}

// truncate returns the longest word prefix of text whose count stays within
// limit, found by binary search so it holds for any counter implementation.
func (a *Assembler) truncate(text string, limit int) string {
	words := strings.Fields(text)
	lo, hi := 0, len(words)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if a.counter(strings.Join(words[:mid], " ")) <= limit {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return strings.Join(words[:lo], " ")
}
