package nlp

// nounChunks finds maximal runs of adjective, number and noun tokens that end
// in a noun. Determiners and possessive pronouns in front of the run are not
// part of the chunk.
func nounChunks(tokens []Token) []Chunk {
	var chunks []Chunk

	i := 0
	for i < len(tokens) {
		if !isChunkPart(tokens[i]) {
			i++
			continue
		}

		j := i
		lastNoun := -1
		for j < len(tokens) && isChunkPart(tokens[j]) {
			if isNominal(tokens[j]) {
				lastNoun = j
			}
			j++
		}

		if lastNoun < 0 {
			i = j
			continue
		}

		chunks = append(chunks, Chunk{
			Start: i,
			End:   lastNoun + 1,
			Head:  lastNoun,
			Text:  joinTokens(tokens[i : lastNoun+1]),
		})
		i = lastNoun + 1
	}

	return chunks
}

func isNominal(t Token) bool {
	return t.POS == POSNoun || t.POS == POSProper
}

func isChunkPart(t Token) bool {
	switch t.POS {
	case POSNoun, POSProper, POSAdj, POSNum:
		return true
	}
	return false
}
