package nlp

import "strings"

// Analyze completes a tokenized, PTB-tagged sentence: path tokens are merged,
// coarse tags assigned, noun chunks found and dependency labels attached.
// Only Text and Tag need to be set on the input tokens.
func Analyze(text string, tokens []Token) Sentence {
	tokens = mergePaths(text, tokens)
	assignPOS(tokens)
	chunks := nounChunks(tokens)
	newLabeller(tokens, chunks).run()

	return Sentence{
		Text:   text,
		Tokens: tokens,
		Chunks: chunks,
	}
}

// labeller attaches a shallow dependency structure around each verb. It is
// not a parser: it only finds the subject to the left of a verb and the
// objects to its right, which is what flow extraction consumes.
type labeller struct {
	tokens  []Token
	chunks  []Chunk
	chunkOf []int
}

func newLabeller(tokens []Token, chunks []Chunk) *labeller {
	l := &labeller{
		tokens:  tokens,
		chunks:  chunks,
		chunkOf: make([]int, len(tokens)),
	}
	for i := range tokens {
		tokens[i].Dep = ""
		tokens[i].Head = i
		tokens[i].Ref = -1
		l.chunkOf[i] = -1
	}
	for ci, c := range chunks {
		for j := c.Start; j < c.End; j++ {
			l.chunkOf[j] = ci
		}
	}
	return l
}

func (l *labeller) run() {
	l.labelChunks()

	for i, t := range l.tokens {
		if t.POS == POSVerb {
			l.labelSubject(i)
			l.labelObjects(i)
		}
	}

	root := l.labelRoot()
	for i := range l.tokens {
		t := &l.tokens[i]
		if t.Dep != "" {
			continue
		}
		switch t.POS {
		case POSVerb:
			t.Dep = DepConj
			t.Head = root
		case POSAux:
			l.labelAux(i)
		case POSPunct:
			t.Dep = DepPunct
			t.Head = root
		}
		if t.Dep == "" {
			t.Dep = DepUnlabeled
			t.Head = root
		}
	}
}

// labelChunks attaches modifiers and determiners to their chunk head.
func (l *labeller) labelChunks() {
	for _, c := range l.chunks {
		for j := c.Start; j < c.Head; j++ {
			t := &l.tokens[j]
			t.Head = c.Head
			switch t.POS {
			case POSAdj:
				t.Dep = DepAmod
			case POSNum:
				t.Dep = DepNummod
			default:
				t.Dep = DepCompound
			}
		}
		for j := c.Start - 1; j >= 0 && l.isDeterminer(j); j-- {
			t := &l.tokens[j]
			t.Head = c.Head
			if t.Tag == "PRP$" {
				t.Dep = DepPoss
			} else {
				t.Dep = DepDet
			}
		}
	}
}

func (l *labeller) isDeterminer(i int) bool {
	t := l.tokens[i]
	return t.POS == POSDet || t.Tag == "PRP$"
}

func (l *labeller) labelSubject(v int) {
	verb := l.tokens[v]
	subj := DepSubj

	for j := v - 1; j >= 0; {
		t := l.tokens[j]
		switch {
		case t.POS == POSAux:
			if isBe(t.Text) && verb.Tag == "VBN" {
				subj = DepSubjPass
			}
			j--
		case t.POS == POSAdv || t.POS == POSPart:
			j--
		case isRelativePronoun(t):
			l.labelRelative(j, v, subj)
			return
		case l.chunkOf[j] >= 0:
			c := l.chunks[l.chunkOf[j]]
			k := c.Start - 1
			for k >= 0 && l.isDeterminer(k) {
				k--
			}
			if k >= 0 && l.tokens[k].POS == POSAdp && !relativePronouns[strings.ToLower(l.tokens[k].Text)] {
				// "from the client" before the verb is not its subject
				l.attach(c.Head, k, DepPObj)
				l.attach(k, v, DepPrep)
				j = k - 1
				continue
			}
			l.attach(c.Head, v, subj)
			return
		case t.Tag == "PRP":
			l.attach(j, v, subj)
			return
		default:
			return
		}
	}
}

// labelRelative makes the relative pronoun at j the subject of verb v and
// links it to the noun it stands for.
func (l *labeller) labelRelative(j, v int, subj string) {
	l.attach(j, v, subj)

	k := j - 1
	for k >= 0 && l.tokens[k].Text == "," {
		k--
	}
	if k < 0 || l.chunkOf[k] < 0 {
		return
	}
	antecedent := l.chunks[l.chunkOf[k]].Head
	l.tokens[j].Ref = antecedent
	l.attach(v, antecedent, DepRelcl)
}

func (l *labeller) labelObjects(v int) {
	obj := DepObj
	if isBe(l.tokens[v].Text) {
		obj = DepAttr
	}

	seenObj := false
	for j := v + 1; j < len(l.tokens); j++ {
		t := l.tokens[j]
		switch {
		case t.POS == POSAdv || t.POS == POSPart || l.isDeterminer(j):
			continue
		case isRelativePronoun(t):
			return
		case l.chunkOf[j] >= 0:
			if seenObj {
				return
			}
			seenObj = true
			c := l.chunks[l.chunkOf[j]]
			l.attach(c.Head, v, obj)
			j = c.End - 1
		case t.POS == POSAdp:
			k := j + 1
			for k < len(l.tokens) && (l.isDeterminer(k) || l.tokens[k].POS == POSAdv) {
				k++
			}
			if k >= len(l.tokens) || l.chunkOf[k] < 0 {
				return
			}
			c := l.chunks[l.chunkOf[k]]
			l.attach(j, v, DepPrep)
			l.attach(c.Head, v, DepPObj)
			j = c.End - 1
		case t.Tag == "PRP":
			l.attach(j, v, obj)
			seenObj = true
		default:
			return
		}
	}
}

// labelRoot picks the first unattached verb, falling back to an auxiliary.
func (l *labeller) labelRoot() int {
	root := -1
	for i, t := range l.tokens {
		if t.POS == POSVerb && t.Dep == "" {
			root = i
			break
		}
	}
	if root < 0 {
		for i, t := range l.tokens {
			if t.POS == POSAux && t.Dep == "" {
				root = i
				break
			}
		}
	}
	if root < 0 {
		return 0
	}
	l.tokens[root].Dep = DepRoot
	l.tokens[root].Head = root
	return root
}

func (l *labeller) labelAux(i int) {
	for j := i + 1; j < len(l.tokens); j++ {
		if l.tokens[j].POS != POSVerb {
			continue
		}
		dep := DepAux
		if isBe(l.tokens[i].Text) && l.tokens[j].Tag == "VBN" {
			dep = DepAuxPass
		}
		l.attach(i, j, dep)
		return
	}
}

// attach labels token i unless an earlier rule already did.
func (l *labeller) attach(i, head int, dep string) {
	t := &l.tokens[i]
	if t.Dep != "" {
		return
	}
	t.Dep = dep
	t.Head = head
}
