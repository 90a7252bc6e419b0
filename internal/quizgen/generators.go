package quizgen

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
)

var (
	leadArticleRe = regexp.MustCompile(`(?i)^(a|o|um|uma)\s+`)
	numberRe      = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	hasDigitRe    = regexp.MustCompile(`\d`)
	causalRe      = regexp.MustCompile(`(?i)^(.+?)\s+(porque|pois|portanto|logo)\s+(.+)$`)
)

// clozeBlacklist holds overly generic terms that make useless blanks.
var clozeBlacklist = map[string]bool{
	"brasil":     true,
	"brasileira": true,
	"portugues":  true,
	"matematica": true,
}

var assertionReasonOptions = []string{
	"A) As assertivas I e II são verdadeiras, e a II justifica corretamente a I.",
	"B) As assertivas I e II são verdadeiras, mas a II não justifica a I.",
	"C) A assertiva I é verdadeira, e a II é falsa.",
	"D) A assertiva I é falsa, e a II é verdadeira.",
	"E) As assertivas I e II são falsas.",
}

// makeMCQDefinition scans for a "term é/são/refere-se/..." definition pattern
// and turns the predicate clause into the correct option. First term and
// first matching sentence win; there is deliberately no best-match search.
func (g *Generator) makeMCQDefinition(text string, terms []string, source int64) *Item {
	sentences := SplitSentences(text)
	normSentences := make([]string, len(sentences))
	for i, s := range sentences {
		normSentences[i] = Normalize(s)
	}
	phrases := ExtractKeyPhrases(text, 6)
	candidates := append(append([]string{}, terms...), phrases...)

	for _, t := range candidates {
		defRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(t) + `\b\s+(e|sao|refere-se|representa|consiste|define-se)`)
		extractRe := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(t) + `[^.]*?(é|são|refere-se|representa|consiste|define-se)([^.]+)`)
		for i, ns := range normSentences {
			if !defRe.MatchString(ns) {
				continue
			}
			s := TrimNoiseBeforeCopula(sentences[i])
			m := extractRe.FindStringSubmatch(s)
			if m == nil {
				continue
			}
			answerText := Sanitize(leadArticleRe.ReplaceAllString(strings.TrimSpace(m[2]), ""))
			if len(strings.Fields(answerText)) < 3 {
				continue
			}

			pool := DedupeOptionsCasefold(append(append([]string{}, terms...), phrases...))
			options := []string{answerText}
			for _, d := range TermDistractors(t, pool, 3) {
				options = append(options, fmt.Sprintf("Está relacionado a %s.", d))
			}
			options = DedupeOptionsCasefold(options)
			for len(options) < 4 {
				filler := "Nenhuma das anteriores."
				if len(options) > 0 && strings.EqualFold(options[len(options)-1], filler) {
					filler = "Nenhuma das alternativas."
				}
				options = append(options, filler)
			}

			rng := g.newRNG()
			rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
			answerIdx := indexOf(options, answerText)

			hasNum := hasDigitRe.MatchString(s)
			rare := !inFirstN(terms, t, 3)
			return &Item{
				ID:          itemID("mcq", source, t),
				Type:        TypeMCQ,
				Question:    FinalizeQuestionText(fmt.Sprintf("O que é <b>%s</b>?", Sanitize(t))),
				Options:     options,
				Answer:      IndexAnswer(answerIdx),
				Explanation: fmt.Sprintf("Trecho base: “%s”", Sanitize(s)),
				Difficulty:  difficultyOfSentence(s, hasNum, rare),
				Source:      source,
			}
		}
	}
	return nil
}

// makeAssertionReason splits a causal sentence into assertion I and reason
// II. Connective decides the canonical key: porque/pois mean II justifies I
// (option A); portanto/logo mean both are true but II does not justify I
// (option B).
func (g *Generator) makeAssertionReason(text string, source int64) *Item {
	for _, s := range SplitSentences(text) {
		s = CleanText(s)
		if runeLen(s) < 60 || LooksLikeHeading(s) {
			continue
		}
		m := causalRe.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		assertion := strings.Trim(m[1], " .")
		conn := strings.ToLower(m[2])
		reason := strings.Trim(m[3], " .")
		if runeLen(assertion) < 30 || runeLen(reason) < 30 {
			continue
		}

		answerIdx := 1
		if conn == "porque" || conn == "pois" {
			answerIdx = 0
		}

		return &Item{
			ID:     itemID("ar", source, assertion+reason),
			Type:   TypeMCQ,
			Format: FormatAssertionReason,
			Question: FinalizeQuestionText(fmt.Sprintf(
				"<b>I.</b> %s<br/><b>PORQUE</b><br/><b>II.</b> %s", assertion, reason)),
			Options:     append([]string{}, assertionReasonOptions...),
			Answer:      IndexAnswer(answerIdx),
			Explanation: fmt.Sprintf("Conectivo identificado: “%s”.", conn),
			Difficulty:  difficultyOfSentence(s, hasDigitRe.MatchString(s), false),
			Source:      source,
		}
	}
	return nil
}

// makeOrderingMCQ detects an enumeration and asks for the correct order,
// with perturbed orderings as distractors.
func (g *Generator) makeOrderingMCQ(text string, source int64) *Item {
	rng := g.newRNG()
	enums := ExtractEnumerations(text, 4, 6)
	if len(enums) == 0 {
		return nil
	}
	items := enums[0]

	sequences := append([][]string{items}, PerturbOrders(items, 3, rng)...)
	rng.Shuffle(len(sequences), func(i, j int) { sequences[i], sequences[j] = sequences[j], sequences[i] })

	options := make([]string, len(sequences))
	answerIdx := 0
	for i, seq := range sequences {
		options[i] = strings.Join(seq, " → ")
		if equalSeq(seq, items) {
			answerIdx = i
		}
	}

	difficulty := DifficultyMedium
	if len(items) > 4 {
		difficulty = DifficultyHard
	}

	return &Item{
		ID:          itemID("ord", source, strings.Join(items, " ")),
		Type:        TypeMCQ,
		Format:      FormatOrdering,
		Question:    FinalizeQuestionText("Qual é a <b>ordem correta</b> do processo descrito no texto?"),
		Options:     options,
		Answer:      IndexAnswer(answerIdx),
		Explanation: fmt.Sprintf("Itens detectados: %s.", strings.Join(items, ", ")),
		Difficulty:  difficulty,
		Source:      source,
	}
}

// makeCloze blanks the first non-generic key term found in the sentence.
// When shape-matched distractors exist the item is emitted as an mcq variant;
// otherwise it stays an open cloze with the term as free-text answer.
func (g *Generator) makeCloze(sent string, terms []string, source int64) *Item {
	if sent == "" {
		return nil
	}
	s := CleanText(sent)
	ns := Normalize(s)

	term := ""
	for _, t := range terms {
		if clozeBlacklist[t] {
			continue
		}
		if containsNormWord(ns, t) {
			term = t
			break
		}
	}
	if term == "" {
		return nil
	}

	orig := FindOriginalCasedTerm(s, term)
	if orig == "" {
		orig = term
	}
	blanked := replaceWord(s, orig, "_____", false)
	hasNum := hasDigitRe.MatchString(s)
	rare := !inFirstN(terms, term, 3)
	difficulty := difficultyOfSentence(s, hasNum, rare)
	explanation := fmt.Sprintf("Sentença original: “%s”", s)

	if distractors := TermDistractors(term, terms, 3); len(distractors) > 0 {
		options := DedupeOptionsCasefold(append([]string{term}, distractors...))
		rng := g.newRNG()
		rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
		answerIdx := 0
		for i, o := range options {
			if Normalize(o) == term {
				answerIdx = i
				break
			}
		}
		return &Item{
			ID:          itemID("cloze-mcq", source, blanked),
			Type:        TypeMCQ,
			Question:    FinalizeQuestionText(blanked + "<br/><small>Complete a lacuna.</small>"),
			Options:     options,
			Answer:      IndexAnswer(answerIdx),
			Explanation: explanation,
			Difficulty:  difficulty,
			Source:      source,
		}
	}

	return &Item{
		ID:          itemID("cloze-open", source, blanked),
		Type:        TypeCloze,
		Question:    FinalizeQuestionText(blanked),
		Answer:      TextAnswer(term),
		Explanation: explanation,
		Difficulty:  difficulty,
		Source:      source,
	}
}

// makeTF emits up to two validated sentences verbatim as true items, each
// with a derived false variant when one of the falsification strategies
// (numeric perturbation, antonym swap, term swap) actually changes the text.
func (g *Generator) makeTF(text string, terms []string, source int64) []Item {
	var out []Item
	sentences := FilterSentences(text)
	if len(sentences) > 2 {
		sentences = sentences[:2]
	}
	rng := g.newRNG()

	for _, s := range sentences {
		ns := Normalize(s)
		hasNum := hasDigitRe.MatchString(s)
		rare := false
		for _, t := range terms[min(3, len(terms)):] {
			if strings.Contains(ns, t) {
				rare = true
				break
			}
		}
		difficulty := difficultyOfSentence(s, hasNum, rare)

		out = append(out, Item{
			ID:         itemID("tf-true", source, s),
			Type:       TypeTF,
			Question:   FinalizeQuestionText(s),
			Answer:     BoolAnswer(true),
			Difficulty: difficulty,
			Source:     source,
		})

		falseQ := falsifySentence(s, ns, terms, rng)
		if falseQ == s {
			continue
		}
		out = append(out, Item{
			ID:          itemID("tf-false", source, falseQ),
			Type:        TypeTF,
			Question:    FinalizeQuestionText(falseQ),
			Answer:      BoolAnswer(false),
			Explanation: "Altere números/termos para validar o senso crítico.",
			Difficulty:  difficulty,
			Source:      source,
		})
	}
	return out
}

func falsifySentence(s, ns string, terms []string, rng *rand.Rand) string {
	// 1) perturb the first numeric literal
	if loc := numberRe.FindStringIndex(s); loc != nil {
		raw := strings.Replace(s[loc[0]:loc[1]], ",", ".", 1)
		if val, err := strconv.ParseFloat(raw, 64); err == nil {
			choices := NumericDistractors(val)
			if len(choices) > 0 {
				candidate := s[:loc[0]] + choices[rng.Intn(len(choices))] + s[loc[1]:]
				if candidate != s {
					return candidate
				}
			}
		}
	}

	// 2) antonym/negation substitution
	for _, pair := range negationPairs {
		re := regexp.MustCompile(`(?i)\b` + pair[0] + `\b`)
		if re.MatchString(ns) {
			if candidate := re.ReplaceAllString(s, pair[1]); candidate != s {
				return candidate
			}
		}
	}

	// 3) swap a present key term for another extracted term
	for _, t := range terms {
		if !containsNormWord(ns, t) {
			continue
		}
		for _, swap := range terms {
			if swap == t {
				continue
			}
			re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(t) + `\b`)
			if candidate := re.ReplaceAllString(s, swap); candidate != s {
				return candidate
			}
			break
		}
		break
	}
	return s
}

func indexOf(options []string, target string) int {
	for i, o := range options {
		if o == target {
			return i
		}
	}
	return 0
}

func inFirstN(terms []string, t string, n int) bool {
	for i, x := range terms {
		if i >= n {
			break
		}
		if x == t {
			return true
		}
	}
	return false
}
