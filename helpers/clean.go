package helpers

import (
	"regexp"
	"strings"
)

var (
	invisibleSpacePattern = regexp.MustCompile(`[\x{00A0}\x{2000}-\x{200B}\x{202F}\x{205F}\x{3000}\x{FEFF}]`)

	// Dateline and byline boilerplate emitted by the supported sources
	boilerplatePattern = regexp.MustCompile(`(?i)` +
		`Jakarta, CNBC Indonesia|` +
		`IDXChannel—|KONTAN\.CO\.ID JAKARTA\.?|` +
		`Bisnis\.com , JAKARTA|Bisnis\.com, JAKARTA|` +
		`JAKARTA, investor\.id|Pasardana\.id|KONTAN\.CO\.ID|` +
		`IQPlus,*\s*\(\d+/\d+\)`)

	leadingPunctPattern = regexp.MustCompile(`^[^\p{L}\p{N}_\s]+`)
	dashPattern         = regexp.MustCompile(`\s*[-–—]\s*`)
	multiSpacePattern   = regexp.MustCompile(`\s+`)
)

// maxCleanPasses bounds CleanText; every pass is length non-increasing so
// the text settles long before this.
const maxCleanPasses = 8

// CleanText normalizes article text: invisible whitespace becomes a plain
// space, source boilerplate is removed, leading punctuation and dash
// artifacts are stripped and runs of whitespace collapse to one space.
// The result is a fixed point: CleanText(CleanText(s)) == CleanText(s).
func CleanText(text string) string {
	for i := 0; i < maxCleanPasses; i++ {
		next := cleanPass(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

func cleanPass(text string) string {
	text = strings.TrimSpace(invisibleSpacePattern.ReplaceAllString(text, " "))
	text = strings.TrimSpace(boilerplatePattern.ReplaceAllString(text, " "))
	text = leadingPunctPattern.ReplaceAllString(text, "")
	text = dashPattern.ReplaceAllString(text, " ")
	text = multiSpacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// JoinParagraphs joins non-empty trimmed paragraphs with a single space
func JoinParagraphs(paragraphs []string) string {
	parts := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
