package quizgen

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
)

type Type string

const (
	TypeMCQ   Type = "mcq"
	TypeTF    Type = "tf"
	TypeCloze Type = "cloze"
)

type Format string

const (
	FormatDefault         Format = "default"
	FormatAssertionReason Format = "assertion_reason"
	FormatOrdering        Format = "ordering"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Answer is the tagged union behind QuizItem.answer: an option index for mcq,
// a boolean for tf, free text for open cloze. It marshals to the bare JSON
// value (int, bool or string) and decodes-or-rejects on the way in.
type Answer struct {
	kind    answerKind
	index   int
	boolean bool
	text    string
}

type answerKind int

const (
	answerNone answerKind = iota
	answerIndex
	answerBool
	answerText
)

func IndexAnswer(i int) Answer  { return Answer{kind: answerIndex, index: i} }
func BoolAnswer(b bool) Answer  { return Answer{kind: answerBool, boolean: b} }
func TextAnswer(s string) Answer { return Answer{kind: answerText, text: s} }

func (a Answer) Index() (int, bool)   { return a.index, a.kind == answerIndex }
func (a Answer) Bool() (bool, bool)   { return a.boolean, a.kind == answerBool }
func (a Answer) Text() (string, bool) { return a.text, a.kind == answerText }

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case answerIndex:
		return json.Marshal(a.index)
	case answerBool:
		return json.Marshal(a.boolean)
	case answerText:
		return json.Marshal(a.text)
	}
	return []byte("null"), nil
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*a = IndexAnswer(n)
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*a = BoolAnswer(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = TextAnswer(s)
		return nil
	}
	*a = Answer{}
	return nil
}

// Item is a single generated quiz question.
type Item struct {
	ID          string     `json:"id"`
	Type        Type       `json:"type"`
	Format      Format     `json:"format,omitempty"`
	Question    string     `json:"question"`
	Options     []string   `json:"options,omitempty"`
	Answer      Answer     `json:"answer"`
	Explanation string     `json:"explanation,omitempty"`
	Difficulty  Difficulty `json:"difficulty"`
	Source      int64      `json:"source"`
}

// itemID derives a stable id from generator tag, content id and question
// text. FNV keeps it cheap and collision-tolerant; nothing security-relevant
// hangs off these ids.
func itemID(tag string, source int64, seed string) string {
	h := fnv.New32a()
	h.Write([]byte(seed))
	return fmt.Sprintf("%s-%d-%d", tag, source, h.Sum32()%100000)
}

// difficultyOfSentence scores length, numeric content and term rarity into
// the three difficulty buckets.
func difficultyOfSentence(s string, hasNumber, rareTerm bool) Difficulty {
	score := 0
	switch n := runeLen(s); {
	case n >= 140:
		score += 2
	case n >= 90:
		score++
	}
	if hasNumber {
		score++
	}
	if rareTerm {
		score++
	}
	switch {
	case score >= 3:
		return DifficultyHard
	case score >= 1:
		return DifficultyMedium
	}
	return DifficultyEasy
}

func difficultyRank(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return 0
	case DifficultyHard:
		return 2
	}
	return 1
}

// generatorTag classifies an item back to the generator that produced it,
// used for selection priority and type diversity.
func generatorTag(it Item) string {
	switch {
	case it.Format == FormatAssertionReason:
		return "ar"
	case it.Format == FormatOrdering:
		return "ord"
	case it.Type == TypeCloze:
		return "cloze"
	case it.Type == TypeTF:
		return "tf"
	}
	return "mcq_def"
}

var generatorPriority = map[string]int{
	"mcq_def": 0,
	"ar":      1,
	"ord":     2,
	"cloze":   3,
	"tf":      4,
}
