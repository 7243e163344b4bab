package textproc

import "strings"

// Common boilerplate that adds noise to scraped page text.
var noisePatterns = []string{
	"Cookie Policy",
	"Accept Cookies",
	"Privacy Policy",
	"Terms of Service",
}

// Clean collapses whitespace and removes common page boilerplate.
func Clean(text string) string {
	text = strings.Join(strings.Fields(text), " ")

	for _, pattern := range noisePatterns {
		text = strings.ReplaceAll(text, pattern, "")
	}

	return strings.TrimSpace(text)
}

// Truncate caps text at max characters, preferring to cut at a sentence
// boundary so the tail is not mid-word garbage fed to the oracle.
func Truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}

	cut := text[:max]
	if i := lastSentenceEnd(cut); i > max/2 {
		return strings.TrimSpace(cut[:i+1])
	}
	if i := strings.LastIndex(cut, " "); i > 0 {
		return strings.TrimSpace(cut[:i])
	}
	return cut
}

func lastSentenceEnd(text string) int {
	last := -1
	for _, ender := range []string{". ", "! ", "? "} {
		if i := strings.LastIndex(text, ender); i > last {
			last = i
		}
	}
	if last == -1 {
		for _, r := range []byte{'.', '!', '?'} {
			if i := strings.LastIndexByte(text, r); i > last {
				last = i
			}
		}
	}
	return last
}
