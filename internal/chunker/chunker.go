package chunker

import "strings"

// DefaultMaxChars is used when a caller passes a non-positive bound.
const DefaultMaxChars = 3000

// Chunk splits text into ordered pieces of at most maxChars characters
// (runes, not bytes). A piece prefers to end at the last newline inside
// its window, then the last space, and is force-split at maxChars only
// when the window has neither. Pieces are trimmed; pieces that trim to
// nothing are not emitted.
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	runes := []rune(text)
	length := len(runes)
	if length == 0 {
		return nil
	}
	if length <= maxChars {
		if s := strings.TrimSpace(text); s != "" {
			return []string{s}
		}
		return nil
	}

	var chunks []string
	start := 0
	for start < length {
		end := start + maxChars
		split := length
		if end < length {
			split = lastIndex(runes, '\n', start, end)
			if split <= start {
				split = lastIndex(runes, ' ', start, end)
			}
			if split <= start {
				split = end
			}
		}

		if s := strings.TrimSpace(string(runes[start:split])); s != "" {
			chunks = append(chunks, s)
		}
		start = split
	}
	return chunks
}

// lastIndex returns the index of the last r in runes[start:end], or -1.
func lastIndex(runes []rune, r rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
