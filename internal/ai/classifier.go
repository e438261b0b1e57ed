package ai

import "strings"

// crisisKeywords flags self-harm risk language. Matching is plain
// case-insensitive substring search, no tokenization; a keyword hiding
// inside a longer unrelated word is an accepted false positive.
var crisisKeywords = []string{
	"suicide",
	"kill myself",
	"end my life",
	"want to die",
	"hurt myself",
}

// IsCrisis reports whether the message contains crisis language.
func IsCrisis(message string) bool {
	lowered := strings.ToLower(message)
	for _, keyword := range crisisKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
