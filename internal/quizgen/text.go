// Package quizgen implements the rule-based weekly quiz generator: text
// normalization, sentence validation, key-term extraction, five question
// generators with distractor builders, deterministic per-(user,week)
// shuffling, and an optional invariant-preserving LLM polish pass.
//
// Everything operates on Portuguese (pt-BR) lesson text. The heuristics are
// deliberately shallow (keyword and regex based, no POS tagging); they trade
// precision for zero external NLP dependencies and fully deterministic output.
package quizgen

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	bulletRe     = regexp.MustCompile(`[\x{2022}\-–—•]+`)
	markdownRe   = regexp.MustCompile("\\*\\*|__|\\*|_|`")
	sentenceRe   = regexp.MustCompile(`[^.!?]+[.!?]`)
	nonTokenRe   = regexp.MustCompile(`[^a-z0-9\s-]`)
	trailColonRe = regexp.MustCompile(`[:\s]+$`)
	terminalRe   = regexp.MustCompile(`[.!?]$`)
	wordRunRe    = regexp.MustCompile(`[\p{L}\p{N}_-]+`)
	capWordRe    = regexp.MustCompile(`[A-ZÁ-Ú][0-9A-Za-z_Á-ú-]*`)
	copulaRe     = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_-])(é|são)(?:[^\p{L}\p{N}_-]|$)`)
)

// StripHTML replaces every tag with a space so adjacent text stays separated.
func StripHTML(s string) string {
	return htmlTagRe.ReplaceAllString(s, " ")
}

// CleanText strips HTML, flattens bullet/dash markers and collapses whitespace.
func CleanText(s string) string {
	s = StripHTML(s)
	s = bulletRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Normalize lowercases, strips diacritics (NFD + mark removal) and collapses
// whitespace. Used for all fuzzy/duplicate comparisons, never for display.
func Normalize(s string) string {
	s = strings.ToLower(s)
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(b.String(), " "))
}

// Tokenize normalizes and splits into lowercase ascii word tokens.
func Tokenize(s string) []string {
	s = Normalize(s)
	s = nonTokenRe.ReplaceAllString(s, " ")
	return strings.Fields(s)
}

// SplitSentences splits on ./!/? boundaries. Text with no boundary at all is
// returned as a single sentence; empty input yields nil.
func SplitSentences(s string) []string {
	s = strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
	if s == "" {
		return nil
	}
	matches := sentenceRe.FindAllString(s, -1)
	if matches == nil {
		return []string{s}
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m))
	}
	return out
}

// Sanitize removes stray HTML and simple markdown markers from display text.
func Sanitize(s string) string {
	s = strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
	return markdownRe.ReplaceAllString(s, "")
}

// FinalizeQuestionText normalizes whitespace, drops a dangling colon and
// guarantees terminal punctuation.
func FinalizeQuestionText(s string) string {
	s = strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
	s = trailColonRe.ReplaceAllString(s, "")
	if !terminalRe.MatchString(s) {
		s += "."
	}
	return s
}

// DedupeOptionsCasefold drops options that repeat an earlier entry under
// case-fold comparison, preserving first occurrences.
func DedupeOptionsCasefold(options []string) []string {
	seen := make(map[string]bool, len(options))
	out := make([]string, 0, len(options))
	for _, o := range options {
		k := strings.ToLower(strings.TrimSpace(o))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, o)
	}
	return out
}

// TrimNoiseBeforeCopula repairs heading-like run-ons: when a copula ("é" or
// "são") is found, the subject clause before it is cut down to its last
// capitalized token, turning "Capítulo 2 Resumo Clorofila é ..." into
// "Clorofila é ...". Best effort; sentences without a copula pass through.
func TrimNoiseBeforeCopula(s string) string {
	loc := copulaRe.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}
	start := loc[2]
	caps := capWordRe.FindAllString(s[:start], -1)
	if len(caps) == 0 {
		return s
	}
	subject := caps[len(caps)-1]
	tail := strings.TrimLeft(s[start:], " ")
	return subject + " " + tail
}

// FindOriginalCasedTerm recovers the display form (casing and accents) of a
// normalized term inside a sentence. Longer words are preferred so short
// substrings do not shadow the real match.
func FindOriginalCasedTerm(s, termNorm string) string {
	words := wordRunRe.FindAllString(s, -1)
	best := ""
	for _, w := range words {
		if Normalize(w) != termNorm {
			continue
		}
		if utf8.RuneCountInString(w) > utf8.RuneCountInString(best) {
			best = w
		}
	}
	return best
}

// wordPattern compiles a whole-word matcher tolerant of accented neighbors;
// Go's \b is ASCII-only, which mishandles words like "país".
func wordPattern(term string, caseInsensitive bool) *regexp.Regexp {
	flags := ""
	if caseInsensitive {
		flags = "(?i)"
	}
	return regexp.MustCompile(flags + `(^|[^\p{L}\p{N}_-])(` + regexp.QuoteMeta(term) + `)($|[^\p{L}\p{N}_-])`)
}

// replaceWord swaps every whole-word occurrence of term for repl.
func replaceWord(s, term, repl string, caseInsensitive bool) string {
	re := wordPattern(term, caseInsensitive)
	return re.ReplaceAllString(s, "${1}"+repl+"${3}")
}

// containsNormWord reports whether the normalized text contains term as a
// whole word. Both sides must already be normalized (ascii), so \b is safe.
func containsNormWord(ns, term string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
	return re.MatchString(ns)
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
