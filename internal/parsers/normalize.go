package parsers

import "strings"

// Normalize trims surrounding whitespace and lowercases a component name
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizePhrase is Normalize with inner whitespace runs collapsed, used
// only for matching
func normalizePhrase(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

var determiners = map[string]bool{
	"the": true, "a": true, "an": true,
	"this": true, "that": true, "these": true, "those": true,
	"our": true, "their": true, "its": true, "my": true, "your": true, "his": true, "her": true,
	"each": true, "every": true, "some": true, "any": true,
}

// stripDeterminers drops leading determiners and possessives
func stripDeterminers(words []string) []string {
	for len(words) > 0 && determiners[words[0]] {
		words = words[1:]
	}
	return words
}
