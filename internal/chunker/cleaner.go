package chunker

import "strings"

// NormalizeWhitespace collapses runs of spaces, normalizes line
// endings, and trims excessive blank lines from parser output before
// it reaches the chunker, so break-point search isn't thrown off by
// artifacts like trailing PDF-extraction whitespace.
func NormalizeWhitespace(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		for strings.Contains(line, "  ") {
			line = strings.ReplaceAll(line, "  ", " ")
		}
		lines[i] = strings.TrimSpace(line)
	}
	content = strings.Join(lines, "\n")

	for strings.Contains(content, "\n\n\n") {
		content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(content)
}

// DeduplicateChunks drops chunks whose normalized content exactly
// matches one already seen, guarding against a parser that emits the
// same boilerplate block (e.g. a PDF running header) on every page.
func DeduplicateChunks(chunks []string, minLength int) []string {
	if len(chunks) <= 1 {
		return chunks
	}

	seen := make(map[string]bool, len(chunks))
	result := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk) < minLength {
			result = append(result, chunk)
			continue
		}
		normalized := strings.TrimSpace(strings.ToLower(chunk))
		if !seen[normalized] {
			seen[normalized] = true
			result = append(result, chunk)
		}
	}
	return result
}
