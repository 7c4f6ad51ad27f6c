package nlp

import (
	"regexp"
	"strings"
)

var pathToken = regexp.MustCompile(`^/[a-zA-Z0-9_\-]+$`)

var (
	beForms   = setOf("be", "is", "are", "was", "were", "been", "being", "am", "'s", "'re")
	haveForms = setOf("have", "has", "had", "having")
	doForms   = setOf("do", "does", "did")

	relativePronouns = setOf("which", "that", "who", "whom")

	subordinators = setOf("because", "if", "while", "when", "although", "though",
		"unless", "since", "whereas", "before", "after", "until", "once")
)

func setOf(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// coarsePOS maps a Penn Treebank tag to a coarse tag
func coarsePOS(tag, text string) string {
	switch tag {
	case "NN", "NNS":
		return POSNoun
	case "NNP", "NNPS":
		return POSProper
	case "VB", "VBD", "VBG", "VBN", "VBP", "VBZ":
		return POSVerb
	case "MD":
		return POSAux
	case "DT", "PDT":
		return POSDet
	case "WDT", "WP", "WP$", "PRP", "PRP$", "EX":
		return POSPron
	case "JJ", "JJR", "JJS":
		return POSAdj
	case "RB", "RBR", "RBS", "WRB":
		return POSAdv
	case "IN":
		if subordinators[strings.ToLower(text)] {
			return POSSConj
		}
		return POSAdp
	case "TO", "RP":
		return POSAdp
	case "POS":
		return POSPart
	case "CD":
		return POSNum
	case "CC":
		return POSCConj
	case ".", ",", ":", "(", ")", "``", "''", "\"", "-LRB-", "-RRB-":
		return POSPunct
	case "$", "#", "SYM":
		return POSSym
	default:
		return POSOther
	}
}

func isVerbTag(tag string) bool {
	return strings.HasPrefix(tag, "VB")
}

func isBe(text string) bool {
	return beForms[strings.ToLower(text)]
}

func isAuxWord(text string) bool {
	w := strings.ToLower(text)
	return beForms[w] || haveForms[w] || doForms[w]
}

func isRelativePronoun(t Token) bool {
	if !relativePronouns[strings.ToLower(t.Text)] {
		return false
	}
	switch t.Tag {
	case "WDT", "WP", "IN", "DT":
		return true
	}
	return false
}

// mergePaths joins a lone "/" token with the word that follows it when the
// sentence text shows them written together, so "/login" stays one token.
func mergePaths(text string, tokens []Token) []Token {
	merged := make([]Token, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.Text == "/" && i+1 < len(tokens) && strings.Contains(text, "/"+tokens[i+1].Text) {
			t.Text = "/" + tokens[i+1].Text
			i++
		}
		merged = append(merged, t)
	}
	return merged
}

// assignPOS fills in coarse tags, treating path-like tokens as nouns and
// be/have/do followed by another verb as auxiliaries.
func assignPOS(tokens []Token) {
	for i := range tokens {
		t := &tokens[i]
		if pathToken.MatchString(t.Text) {
			t.Tag = "NN"
		}
		t.POS = coarsePOS(t.Tag, t.Text)
	}

	for i := range tokens {
		t := &tokens[i]
		if t.POS == POSAux || !isAuxWord(t.Text) {
			continue
		}
		for j := i + 1; j < len(tokens) && j <= i+3; j++ {
			next := tokens[j]
			if next.POS == POSAdv || next.POS == POSPart || strings.EqualFold(next.Text, "not") {
				continue
			}
			if isVerbTag(next.Tag) {
				t.POS = POSAux
			}
			break
		}
	}
}
