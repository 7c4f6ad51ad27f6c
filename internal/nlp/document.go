// Package nlp turns free text into sentences of tagged tokens with shallow
// dependency labels and noun chunks. The extraction rules only depend on the
// Document shape, so the tagger behind Parser can be swapped.
package nlp

import "strings"

// Coarse part-of-speech tags
const (
	POSNoun   = "NOUN"
	POSProper = "PROPN"
	POSVerb   = "VERB"
	POSAux    = "AUX"
	POSDet    = "DET"
	POSAdj    = "ADJ"
	POSAdv    = "ADV"
	POSAdp    = "ADP"
	POSPron   = "PRON"
	POSNum    = "NUM"
	POSPunct  = "PUNCT"
	POSCConj  = "CCONJ"
	POSSConj  = "SCONJ"
	POSPart   = "PART"
	POSSym    = "SYM"
	POSOther  = "X"
)

// Dependency labels
const (
	DepRoot      = "ROOT"
	DepSubj      = "nsubj"
	DepSubjPass  = "nsubjpass"
	DepObj       = "dobj"
	DepPObj      = "pobj"
	DepAttr      = "attr"
	DepPrep      = "prep"
	DepAux       = "aux"
	DepAuxPass   = "auxpass"
	DepDet       = "det"
	DepPoss      = "poss"
	DepCompound  = "compound"
	DepAmod      = "amod"
	DepNummod    = "nummod"
	DepRelcl     = "relcl"
	DepConj      = "conj"
	DepPunct     = "punct"
	DepUnlabeled = "dep"
)

// Token is a single word or punctuation mark within a sentence
type Token struct {
	Text string
	Tag  string // Penn Treebank tag
	POS  string // coarse tag
	Dep  string // dependency label
	Head int    // index of the syntactic head within the sentence; equal to own index for ROOT
	Ref  int    // antecedent index for relative pronouns, -1 otherwise
}

// Chunk is a noun phrase spanning tokens [Start, End) with its head noun
type Chunk struct {
	Start int
	End   int
	Head  int
	Text  string
}

// Sentence is one segmented sentence of the input
type Sentence struct {
	Text   string
	Tokens []Token
	Chunks []Chunk
}

// ChunkAt returns the chunk containing token i
func (s Sentence) ChunkAt(i int) (Chunk, bool) {
	for _, c := range s.Chunks {
		if i >= c.Start && i < c.End {
			return c, true
		}
	}
	return Chunk{}, false
}

// Children returns the indices of tokens whose head is i
func (s Sentence) Children(i int) []int {
	var children []int
	for j, t := range s.Tokens {
		if j != i && t.Head == i {
			children = append(children, j)
		}
	}
	return children
}

// Verbs returns the indices of tokens tagged as verbs
func (s Sentence) Verbs() []int {
	var verbs []int
	for i, t := range s.Tokens {
		if t.POS == POSVerb {
			verbs = append(verbs, i)
		}
	}
	return verbs
}

// Document is the parsed form of a whole text
type Document struct {
	Text      string
	Sentences []Sentence
}

// NounChunks returns the text of every noun chunk in document order
func (d *Document) NounChunks() []string {
	var chunks []string
	for _, s := range d.Sentences {
		for _, c := range s.Chunks {
			chunks = append(chunks, c.Text)
		}
	}
	return chunks
}

// Parser produces a Document from raw text
type Parser interface {
	Parse(text string) (*Document, error)
}

func joinTokens(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}
