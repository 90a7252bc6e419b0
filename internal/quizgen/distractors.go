package quizgen

import (
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strings"
)

// negationPairs drive the antonym/negation falsification of true/false items.
// Order matters: the first left-hand word found in the sentence wins.
var negationPairs = [][2]string{
	{"sempre", "às vezes"},
	{"nunca", "às vezes"},
	{"aumenta", "diminui"},
	{"diminui", "aumenta"},
	{"maior", "menor"},
	{"menor", "maior"},
	{"verdadeiro", "falso"},
	{"correto", "incorreto"},
}

// NumericDistractors perturbs a numeric value by fixed ratios, formatted as
// an integer when large enough and with a decimal comma otherwise.
func NumericDistractors(value float64) []string {
	deltas := []float64{0.8, 0.9, 1.1, 1.25}
	var outs []string
	seen := make(map[string]bool)
	for _, d := range deltas {
		v := value * d
		var s string
		if v >= 10 {
			s = fmt.Sprintf("%d", int(math.Round(v)))
		} else {
			s = strings.Replace(fmt.Sprintf("%.1f", v), ".", ",", 1)
		}
		if !seen[s] {
			seen[s] = true
			outs = append(outs, s)
		}
	}
	return outs
}

// TermDistractors picks up to k pool terms whose length is within two runes
// of the target (same rough "shape"), backfilling with the rest of the pool.
func TermDistractors(term string, pool []string, k int) []string {
	var sameLen, others []string
	for _, p := range pool {
		if p == term {
			continue
		}
		diff := runeLen(p) - runeLen(term)
		if diff >= -2 && diff <= 2 {
			sameLen = append(sameLen, p)
		} else {
			others = append(others, p)
		}
	}
	out := make([]string, 0, k)
	out = append(out, firstN(sameLen, k)...)
	if len(out) < k {
		out = append(out, firstN(others, k-len(out))...)
	}
	out = DedupeOptionsCasefold(out)
	return firstN(out, k)
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

var enumSplitRe = regexp.MustCompile(`,|;|\be\b|\bou\b`)
var enumConjRe = regexp.MustCompile(`\b(e|ou)\b`)
var leadMarkerRe = regexp.MustCompile(`^[\s\-–—•]+`)

// ExtractEnumerations finds "A, B, C e D" style lists (or semicolon runs) of
// short items, skipping heading-shaped sentences.
func ExtractEnumerations(text string, minItems, maxItems int) [][]string {
	var cands [][]string
	for _, s := range SplitSentences(text) {
		s = CleanText(s)
		if s == "" || LooksLikeHeading(s) {
			continue
		}
		hasListShape := (strings.Count(s, ",") >= minItems-2 && enumConjRe.MatchString(s)) || strings.Contains(s, ";")
		if !hasListShape {
			continue
		}
		var items []string
		for _, p := range enumSplitRe.Split(s, -1) {
			p = leadMarkerRe.ReplaceAllString(p, "")
			p = strings.Trim(p, " .:;")
			if n := runeLen(p); n < 2 || n > 40 {
				continue
			}
			if len(strings.Fields(p)) > 6 {
				continue
			}
			items = append(items, p)
		}
		if len(items) >= minItems && len(items) <= maxItems {
			cands = append(cands, items)
		}
	}
	return cands
}

// PerturbOrders derives k plausible wrong orderings: adjacent swaps, a
// reversal of the first three, a rotation, then random swaps until k distinct
// non-identical permutations exist.
func PerturbOrders(items []string, k int, rng *rand.Rand) [][]string {
	n := len(items)
	var outs [][]string
	tried := make(map[string]bool)

	add := func(v []string) {
		key := strings.Join(v, "\x00")
		if tried[key] || equalSeq(v, items) {
			return
		}
		tried[key] = true
		outs = append(outs, v)
	}

	for i := 0; i+1 < n; i++ {
		v := append([]string(nil), items...)
		v[i], v[i+1] = v[i+1], v[i]
		add(v)
	}
	if n >= 3 {
		v := append([]string(nil), items...)
		v[0], v[2] = v[2], v[0]
		add(v)
	}
	if n >= 2 {
		v := append([]string(nil), items[1:]...)
		v = append(v, items[0])
		add(v)
	}

	for attempts := 0; len(outs) < k && attempts < 50; attempts++ {
		v := append([]string(nil), items...)
		i, j := rng.Intn(n), rng.Intn(n)
		if i == j {
			continue
		}
		v[i], v[j] = v[j], v[i]
		add(v)
	}

	if len(outs) > k {
		outs = outs[:k]
	}
	return outs
}

func equalSeq(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
