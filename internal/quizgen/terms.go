package quizgen

import "sort"

// ExtractKeyTerms ranks single-word terms of the full text by frequency
// descending, then alphabetically. Stopwords and tokens shorter than three
// characters are dropped. Single-document salience only; no corpus TF-IDF.
func ExtractKeyTerms(text string, maxTerms int) []string {
	freq := make(map[string]int)
	for _, w := range Tokenize(text) {
		if stopwords[w] || runeLen(w) < 3 {
			continue
		}
		freq[w]++
	}
	return rankByFrequency(freq, maxTerms)
}

// ExtractKeyPhrases ranks adjacent-token bigrams the same way, excluding any
// pair touching a stopword or a short token.
func ExtractKeyPhrases(text string, maxTerms int) []string {
	toks := Tokenize(text)
	freq := make(map[string]int)
	for i := 0; i+1 < len(toks); i++ {
		a, b := toks[i], toks[i+1]
		if stopwords[a] || stopwords[b] {
			continue
		}
		if runeLen(a) < 3 || runeLen(b) < 3 {
			continue
		}
		freq[a+" "+b]++
	}
	return rankByFrequency(freq, maxTerms)
}

func rankByFrequency(freq map[string]int, limit int) []string {
	ranked := make([]string, 0, len(freq))
	for w := range freq {
		ranked = append(ranked, w)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if freq[ranked[i]] != freq[ranked[j]] {
			return freq[ranked[i]] > freq[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
