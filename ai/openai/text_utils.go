package openai

import (
	"regexp"
	"strings"
)

// summaryBlocklist flags boilerplate lines that appear in scraped article
// bodies: subscription prompts, app download banners, alert signups.
var summaryBlocklist = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bsubscribe\b`),
	regexp.MustCompile(`(?i)\bsign up\b`),
	regexp.MustCompile(`(?i)\bdownload\b`),
	regexp.MustCompile(`(?i)\balert\b`),
}

var bulletMarkers = regexp.MustCompile(`[*\-•]+`)

var keywordCleaner = regexp.MustCompile(`[^a-zA-Z0-9 ]`)

// cleanArticleText strips navigation fragments and boilerplate from scraped
// article text. Lines of 40 characters or fewer are treated as navigation
// noise and dropped, as are lines matching the blocklist.
func cleanArticleText(text string) string {
	var useful []string
	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if len(stripped) <= 40 {
			continue
		}
		blocked := false
		for _, re := range summaryBlocklist {
			if re.MatchString(stripped) {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}
		useful = append(useful, stripped)
	}
	return strings.Join(useful, "\n")
}

// flattenSummary removes bullet markers and collapses a multi-line summary
// into a single line of prose.
func flattenSummary(summary string) string {
	summary = bulletMarkers.ReplaceAllString(summary, "")
	var lines []string
	for _, line := range strings.Split(summary, "\n") {
		if stripped := strings.TrimSpace(line); stripped != "" {
			lines = append(lines, stripped)
		}
	}
	return strings.Join(lines, " ")
}

// normalizeKeyword reduces a keyword to its lowercase alphanumeric form for
// deduplication. Returns "" for keywords with no alphanumeric content.
func normalizeKeyword(kw string) string {
	cleaned := keywordCleaner.ReplaceAllString(strings.ToLower(kw), "")
	return strings.TrimSpace(cleaned)
}

// stripCodeFences removes markdown code fences that some models wrap around
// JSON output despite JSON mode.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
