package quizgen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// TextGenerator is the slice of the LLM client the polish step needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

const polishBatchSize = 8

// IsPolishEnabled honors QUIZ_POLISH_WITH_GEMINI when set, otherwise falls
// back to whether a Google API key is configured at all.
func IsPolishEnabled() bool {
	if v, ok := os.LookupEnv("QUIZ_POLISH_WITH_GEMINI"); ok {
		return isTruthy(v)
	}
	return os.Getenv("GOOGLE_API_KEY") != ""
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

var awkwardTokens = []string{"window", "http", "www", "onclick"}

// NeedsPolish flags questions that read poorly: too short, missing terminal
// punctuation (cloze blanks excepted), a token echoed four or more times, or
// leftover markup noise that slipped past sanitization.
func NeedsPolish(it Item) bool {
	q := strings.TrimSpace(it.Question)
	if runeLen(q) < 40 {
		return true
	}
	if !strings.Contains(q, "_____") &&
		!strings.HasSuffix(q, ".") && !strings.HasSuffix(q, "?") && !strings.HasSuffix(q, "!") {
		return true
	}
	nq := Normalize(q)
	counts := make(map[string]int)
	for _, tok := range Tokenize(nq) {
		counts[tok]++
		if counts[tok] >= 4 {
			return true
		}
	}
	for _, bad := range awkwardTokens {
		if strings.Contains(nq, bad) {
			return true
		}
	}
	return false
}

type polishRequest struct {
	ID          string   `json:"id"`
	Type        Type     `json:"type"`
	Question    string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

type polishResponse struct {
	Question    string          `json:"question"`
	Options     []string        `json:"options"`
	Answer      json.RawMessage `json:"answer"`
	Explanation string          `json:"explanation"`
}

// Polish asks the LLM to rewrite awkward questions in batches and merges the
// rewrites back without letting the model change answers, option counts or
// question types. Any batch that errors or comes back malformed is skipped
// whole, leaving those items byte-identical to the input.
func Polish(ctx context.Context, llm TextGenerator, items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	if llm == nil {
		return out
	}

	var idxs []int
	for i := range items {
		if NeedsPolish(items[i]) {
			idxs = append(idxs, i)
		}
	}

	for start := 0; start < len(idxs); start += polishBatchSize {
		batch := idxs[start:min(start+polishBatchSize, len(idxs))]
		polished, err := polishBatch(ctx, llm, items, batch)
		if err != nil {
			continue
		}
		for k, i := range batch {
			out[i] = mergeOne(items[i], polished[k])
		}
	}
	return out
}

func polishBatch(ctx context.Context, llm TextGenerator, items []Item, idxs []int) ([]polishResponse, error) {
	reqs := make([]polishRequest, len(idxs))
	for k, i := range idxs {
		reqs[k] = polishRequest{
			ID:          items[i].ID,
			Type:        items[i].Type,
			Question:    items[i].Question,
			Options:     items[i].Options,
			Explanation: items[i].Explanation,
		}
	}
	payload, err := json.Marshal(reqs)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Você revisa questões de quiz em português do Brasil.
Reescreva cada enunciado para ficar claro e gramatical, SEM mudar o significado,
o tipo da questão, a resposta correta nem a quantidade de alternativas.
Preserve marcadores de lacuna "_____" exatamente como estão.
Responda SOMENTE com um array JSON na mesma ordem, cada elemento com os campos
"question", "options", "answer" e "explanation".

Questões:
%s`, payload)

	raw, err := llm.GenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var polished []polishResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &polished); err != nil {
		return nil, err
	}
	if len(polished) != len(idxs) {
		return nil, fmt.Errorf("polish: expected %d items, got %d", len(idxs), len(polished))
	}
	return polished, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// mergeOne applies a rewrite to a copy of the original item. Anything that
// would break an invariant of the item's type falls back to the original.
func mergeOne(orig Item, p polishResponse) Item {
	question := strings.TrimSpace(p.Question)
	if question == "" {
		return orig
	}
	it := orig
	it.Question = FinalizeQuestionText(question)

	switch orig.Type {
	case TypeMCQ:
		opts := p.Options
		if len(opts) == 0 {
			opts = orig.Options
		}
		opts = DedupeOptionsCasefold(opts)
		if len(opts) != len(orig.Options) || len(opts) < 2 {
			opts = append([]string(nil), orig.Options...)
		}
		it.Options = opts
		it.Answer = IndexAnswer(mergedMCQAnswer(orig, p, opts))

	case TypeTF:
		var b bool
		if p.Answer != nil && json.Unmarshal(p.Answer, &b) == nil {
			it.Answer = BoolAnswer(b)
		}

	case TypeCloze:
		if !strings.Contains(question, "_____") {
			return orig
		}
		if len(p.Options) > 0 {
			opts := DedupeOptionsCasefold(p.Options)
			if len(opts) < 2 {
				return orig
			}
			newIdx := answerIndexFromResponse(p, len(opts))
			if newIdx < 0 {
				term, _ := orig.Answer.Text()
				for i, o := range opts {
					if Normalize(o) == Normalize(term) {
						newIdx = i
						break
					}
				}
			}
			if newIdx < 0 {
				return orig
			}
			it.Type = TypeMCQ
			it.Options = opts
			it.Answer = IndexAnswer(newIdx)
		} else if p.Answer != nil {
			var ans string
			if json.Unmarshal(p.Answer, &ans) == nil {
				if ans = strings.TrimSpace(ans); ans != "" {
					it.Answer = TextAnswer(ans)
				}
			}
		}
	}

	if exp := strings.TrimSpace(p.Explanation); exp != "" {
		it.Explanation = Sanitize(exp)
	}
	return it
}

// answerIndexFromResponse decodes the rewrite's answer as an option index,
// returning -1 unless it is an integer within [0, n).
func answerIndexFromResponse(p polishResponse, n int) int {
	if p.Answer == nil {
		return -1
	}
	var idx int
	if json.Unmarshal(p.Answer, &idx) != nil || idx < 0 || idx >= n {
		return -1
	}
	return idx
}

// mergedMCQAnswer keeps the rewrite's answer index when it is valid for the
// merged option list. Otherwise it re-derives the index by matching the
// original correct option text case-insensitively, keeping the original
// index when no option matches and it still fits, and 0 as a last resort.
func mergedMCQAnswer(orig Item, p polishResponse, opts []string) int {
	if idx := answerIndexFromResponse(p, len(opts)); idx >= 0 {
		return idx
	}

	origIdx, ok := orig.Answer.Index()
	if !ok || origIdx < 0 || origIdx >= len(orig.Options) {
		return 0
	}
	correct := strings.TrimSpace(orig.Options[origIdx])
	for i, o := range opts {
		if strings.EqualFold(strings.TrimSpace(o), correct) {
			return i
		}
	}
	if origIdx < len(opts) {
		return origIdx
	}
	return 0
}
