package quizgen

import (
	"regexp"
	"strings"
)

// Language tables, pt-BR only. All entries are stored in normalized form so
// they compare cleanly against Tokenize/Normalize output.
var (
	stopwords   = normalizedSet(rawStopwords)
	verbMarkers = normalizedSet(rawVerbMarkers)
)

var rawStopwords = []string{
	"a", "o", "as", "os", "de", "da", "do", "das", "dos", "em", "no", "na", "nos", "nas",
	"um", "uma", "uns", "umas", "e", "ou", "para", "por", "com", "sem", "se", "que",
	"como", "mais", "menos", "muito", "muita", "muitos", "muitas",
	"é", "são", "ser", "está", "estão", "foi", "foram", "será", "serão",
	"ao", "à", "às", "aos", "sobre", "entre", "pela", "pelo", "pelas", "pelos",
	"também", "até", "após", "antes", "porque", "pois", "onde", "quando", "qual", "quais",
}

var rawVerbMarkers = []string{
	"é", "são", "foi", "foram", "era", "eram", "será", "serão",
	"tem", "têm", "haver", "há", "faz", "fazem", "pode", "podem",
	"deve", "devem", "representa", "consiste", "refere", "indica",
}

// badTokens are HTML/UI/URL/file artifacts that disqualify a sentence and may
// never leak into an emitted question.
var badTokens = []string{
	"http", "https", "www", "window", "onclick", "href", "src",
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".mp3", ".mp4", ".pdf",
}

func normalizedSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[Normalize(w)] = true
	}
	return set
}

var digitRe = regexp.MustCompile(`\d`)

// ContainsVerb reports whether the sentence carries one of the fixed pt-BR
// verb/copula markers. A keyword proxy for "this is a real sentence", not a
// POS tagger.
func ContainsVerb(s string) bool {
	for _, tok := range Tokenize(s) {
		if verbMarkers[tok] {
			return true
		}
	}
	return false
}

// LooksLikeHeading flags title-shaped fragments: a colon with no verb, or a
// short run of mostly-capitalized words with no verb.
func LooksLikeHeading(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if strings.Contains(s, ":") && !ContainsVerb(s) {
		return true
	}
	words := strings.Fields(s)
	if len(words) > 1 && len(words) <= 8 {
		caps := 0
		for _, w := range words {
			r := []rune(w)
			if len(r) > 0 && isUpper(r[0]) {
				caps++
			}
		}
		if float64(caps)/float64(len(words)) >= 0.5 && !ContainsVerb(s) {
			return true
		}
	}
	return false
}

func isUpper(r rune) bool {
	return strings.ToUpper(string(r)) == string(r) && strings.ToLower(string(r)) != string(r)
}

// IsValidSentence applies the quiz-source sentence filter, short-circuiting on
// the first failure: length window, banned tokens, heading shape, verb marker
// presence, and a digit cap that rejects list/code-like fragments.
func IsValidSentence(s string, minLen, maxLen int) bool {
	s = CleanText(s)
	n := runeLen(s)
	if n < minLen || n > maxLen {
		return false
	}
	ns := Normalize(s)
	for _, tok := range badTokens {
		if strings.Contains(ns, tok) {
			return false
		}
	}
	if LooksLikeHeading(s) {
		return false
	}
	if !ContainsVerb(s) {
		return false
	}
	if len(digitRe.FindAllString(s, -1)) >= 5 {
		return false
	}
	return true
}

// FilterSentences splits, cleans and repairs the text's sentences, keeps the
// valid ones and deduplicates by normalized form, preserving order.
func FilterSentences(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range SplitSentences(text) {
		s = CleanText(s)
		s = TrimNoiseBeforeCopula(s)
		if s == "" || !IsValidSentence(s, 50, 200) {
			continue
		}
		key := Normalize(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// PickGoodSentence returns the first already-filtered sentence within the
// length window, or "" when none qualifies.
func PickGoodSentence(sentences []string, minLen, maxLen int) string {
	for _, s := range sentences {
		s = strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
		n := runeLen(s)
		if n >= minLen && n <= maxLen {
			return s
		}
	}
	return ""
}
