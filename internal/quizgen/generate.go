package quizgen

import (
	"math/rand"
	"sort"
	"time"
)

// Content is one piece of study material to derive questions from. Text may
// contain HTML as stored by the content editor.
type Content struct {
	ID      int64
	Subject string
	Title   string
	Text    string
}

// Generator produces a deterministic weekly quiz for one user. The same
// user and week always yield the same items for the same inputs.
type Generator struct {
	userID    int64
	weekStart time.Time
}

// New builds a generator keyed to the Monday of weekStart's week, so any
// timestamp within the week maps to the same quiz.
func New(userID int64, weekStart time.Time) *Generator {
	return &Generator{
		userID:    userID,
		weekStart: WeekStart(weekStart),
	}
}

// newRNG returns a fresh seeded source. Each generator call reseeds so the
// outcome of one generator never shifts the stream consumed by another.
func (g *Generator) newRNG() *rand.Rand {
	return rngFor(g.userID, g.weekStart)
}

// Generate runs every question generator over each content, then selects up
// to perContent items per content favoring generator diversity, dedupes
// near-identical questions across contents and shuffles the final order.
func (g *Generator) Generate(contents []Content, perContent int) []Item {
	if perContent <= 0 {
		perContent = 5
	}

	var selected []Item
	for _, c := range contents {
		bucket := g.candidatesFor(c)
		selected = append(selected, pickDiverse(bucket, perContent)...)
	}

	var out []Item
	seen := make(map[string]bool)
	for _, it := range selected {
		key := Normalize(it.Question)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}

	rng := g.newRNG()
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// candidatesFor collects every candidate item for one content, ordered by
// generator priority then difficulty so that selection is stable. Contents
// whose sentences are all invalid (titles, lists, scrape artifacts) yield
// nothing.
func (g *Generator) candidatesFor(c Content) []Item {
	text := CleanText(c.Text)
	sentences := FilterSentences(text)
	if len(sentences) == 0 {
		return nil
	}
	terms := ExtractKeyTerms(text, 12)

	var bucket []Item
	if it := g.makeMCQDefinition(text, terms, c.ID); it != nil {
		bucket = append(bucket, *it)
	}
	if it := g.makeAssertionReason(text, c.ID); it != nil {
		bucket = append(bucket, *it)
	}
	if it := g.makeOrderingMCQ(text, c.ID); it != nil {
		bucket = append(bucket, *it)
	}
	if sent := PickGoodSentence(sentences, 60, 180); sent != "" {
		if it := g.makeCloze(sent, terms, c.ID); it != nil {
			bucket = append(bucket, *it)
		}
	}
	tfs := g.makeTF(text, terms, c.ID)
	if len(tfs) > 2 {
		tfs = tfs[:2]
	}
	bucket = append(bucket, tfs...)

	sort.SliceStable(bucket, func(i, j int) bool {
		pi, pj := generatorPriority[generatorTag(bucket[i])], generatorPriority[generatorTag(bucket[j])]
		if pi != pj {
			return pi < pj
		}
		return difficultyRank(bucket[i].Difficulty) < difficultyRank(bucket[j].Difficulty)
	})
	return bucket
}

// pickDiverse takes at most one item per generator kind first, then fills
// the remaining slots from the ordered bucket.
func pickDiverse(bucket []Item, n int) []Item {
	var picked []Item
	taken := make(map[int]bool)
	usedTag := make(map[string]bool)

	for i, it := range bucket {
		if len(picked) >= n {
			break
		}
		tag := generatorTag(it)
		if usedTag[tag] {
			continue
		}
		usedTag[tag] = true
		taken[i] = true
		picked = append(picked, it)
	}
	for i, it := range bucket {
		if len(picked) >= n {
			break
		}
		if taken[i] {
			continue
		}
		picked = append(picked, it)
	}
	return picked
}
