package document

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	pageNumberLine = regexp.MustCompile(`(?m)^[ \t]*\d+[ \t]*$`)
	pageMarker     = regexp.MustCompile(`--- Page \d+ ---`)
	disallowedRune = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s.,!?;:\-()\[\]{}"'/%$@#&*+=]`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// CleanText normalizes extracted text for prompting. Invalid UTF-8 is
// dropped and the text is NFC-normalized. Lines holding only a page number
// and "--- Page N ---" markers are removed. Characters outside letters,
// digits, and common punctuation are stripped. Every whitespace run becomes
// a single space.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ToValidUTF8(text, "")
	text = norm.NFC.String(text)
	text = pageNumberLine.ReplaceAllString(text, "")
	text = pageMarker.ReplaceAllString(text, " ")
	text = disallowedRune.ReplaceAllString(text, "")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
