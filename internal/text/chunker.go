package text

import (
	"errors"
	"fmt"
	"regexp"
)

var ErrChunkConfig = errors.New("invalid chunking configuration")

// tokenPattern splits text into word tokens, keeping punctuation marks as
// their own tokens so sentence boundaries count toward window sizes.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+(?:'[\p{L}\p{N}_]+)*|[^\p{L}\p{N}\s]`)

// Tokenize returns the word-level tokens of text.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(text, -1)
}

// Split cuts text into overlapping windows of chunkSize tokens, with
// chunkOverlap tokens repeated between consecutive windows. Each chunk is a
// substring of the input, sliced between the byte offsets of its first and
// last token, so the original wording and punctuation survive verbatim. It
// is pure and deterministic: the same input always yields the same ordered
// chunks. The last chunk may be shorter than chunkSize; input of at most
// chunkSize tokens yields a single chunk equal to the input (minus
// surrounding whitespace).
func Split(text string, chunkSize, chunkOverlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrChunkConfig, chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrChunkConfig, chunkOverlap, chunkSize)
	}

	spans := tokenPattern.FindAllStringIndex(text, -1)
	if len(spans) == 0 {
		return nil, nil
	}
	if len(spans) <= chunkSize {
		return []string{text[spans[0][0]:spans[len(spans)-1][1]]}, nil
	}

	step := chunkSize - chunkOverlap
	var chunks []string
	for start := 0; start < len(spans); start += step {
		end := start + chunkSize
		if end > len(spans) {
			end = len(spans)
		}
		chunks = append(chunks, text[spans[start][0]:spans[end-1][1]])
		if end == len(spans) {
			break
		}
	}
	return chunks, nil
}
