package quizgen

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"
)

type fakeLLM struct {
	resp  string
	err   error
	calls int
}

func (f *fakeLLM) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.resp, nil
}

func awkwardMCQ() Item {
	return Item{
		ID:       "mcq-1-1",
		Type:     TypeMCQ,
		Question: "O que é x",
		Options:  []string{"a correta", "b", "c", "d"},
		Answer:   IndexAnswer(0),
		Source:   1,
	}
}

func TestNeedsPolish(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want bool
	}{
		{"too short", Item{Question: "O que é x"}, true},
		{
			"clean long question",
			Item{Question: "Qual é a função principal da clorofila nas plantas verdes?"},
			false,
		},
		{
			"missing terminal punctuation",
			Item{Question: "Uma pergunta longa o suficiente mas sem pontuação final nenhuma"},
			true,
		},
		{
			"cloze blank excuses punctuation",
			Item{Question: "A _____ transforma luz solar em energia química dentro das plantas"},
			false,
		},
		{
			"repeated token",
			Item{Question: "O gato viu o gato e o gato perseguiu o gato pelo telhado."},
			true,
		},
		{
			"markup artifact",
			Item{Question: "Para responder é preciso considerar o evento onclick do navegador atual."},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsPolish(tt.item); got != tt.want {
				t.Errorf("NeedsPolish(%q) = %v, want %v", tt.item.Question, got, tt.want)
			}
		})
	}
}

func TestPolishKeepsItemsOnFailure(t *testing.T) {
	items := []Item{awkwardMCQ()}
	tests := []struct {
		name string
		llm  *fakeLLM
	}{
		{"llm error", &fakeLLM{err: errors.New("rate limited")}},
		{"malformed json", &fakeLLM{resp: "isto não é json"}},
		{"fenced garbage", &fakeLLM{resp: "```json\n{\"nota\": 1}\n```"}},
		{"wrong length", &fakeLLM{resp: `[]`}},
		{
			"empty question",
			&fakeLLM{resp: `[{"question":"","options":["a","b","c","d"],"answer":0}]`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Polish(context.Background(), tt.llm, items)
			if !reflect.DeepEqual(got, items) {
				t.Errorf("items should be untouched, got %+v", got)
			}
			if tt.llm.calls != 1 {
				t.Errorf("expected one llm call, got %d", tt.llm.calls)
			}
		})
	}
}

func TestPolishMergesRewrite(t *testing.T) {
	items := []Item{awkwardMCQ()}
	// No answer supplied: the index is re-derived by matching the original
	// correct option text against the reordered list.
	llm := &fakeLLM{resp: `[{"question":"Qual é a definição correta do termo estudado?","options":["b","c","a correta","d"],"explanation":"Nova explicação."}]`}

	got := Polish(context.Background(), llm, items)
	if got[0].Question != "Qual é a definição correta do termo estudado?" {
		t.Errorf("question not rewritten: %q", got[0].Question)
	}
	idx, _ := got[0].Answer.Index()
	if idx != 2 {
		t.Errorf("answer should follow the original correct text, got index %d", idx)
	}
	if got[0].Explanation != "Nova explicação." {
		t.Errorf("explanation not merged: %q", got[0].Explanation)
	}
	if got[0].Type != TypeMCQ || got[0].ID != items[0].ID || got[0].Source != items[0].Source {
		t.Error("identity fields must not change during polish")
	}
}

func TestPolishOptionCountMismatchKeepsOriginalOptions(t *testing.T) {
	items := []Item{awkwardMCQ()}
	llm := &fakeLLM{resp: `[{"question":"Pergunta reescrita com clareza suficiente para o aluno.","options":["só uma"],"answer":0}]`}

	got := Polish(context.Background(), llm, items)
	if !reflect.DeepEqual(got[0].Options, items[0].Options) {
		t.Errorf("count mismatch must fall back to the original options, got %v", got[0].Options)
	}
	if got[0].Question == items[0].Question {
		t.Error("the rewritten question should still be applied")
	}
	if idx, ok := got[0].Answer.Index(); !ok || idx != 0 {
		t.Errorf("answer must stay on the original correct option, got %+v", got[0].Answer)
	}
}

func TestPolishDedupesRewrittenOptions(t *testing.T) {
	items := []Item{awkwardMCQ()}
	// Two options collide under case-fold, so the deduped list no longer
	// matches the original count and the original options must win.
	llm := &fakeLLM{resp: `[{"question":"Qual é a definição correta do termo estudado?","options":["a correta","A Correta","c","d"],"answer":0}]`}

	got := Polish(context.Background(), llm, items)
	if !reflect.DeepEqual(got[0].Options, items[0].Options) {
		t.Errorf("duplicated options must fall back to the originals, got %v", got[0].Options)
	}
	seen := make(map[string]bool)
	for _, o := range got[0].Options {
		k := strings.ToLower(strings.TrimSpace(o))
		if seen[k] {
			t.Fatalf("polished item carries case-fold duplicate option %q", o)
		}
		seen[k] = true
	}
	if idx, ok := got[0].Answer.Index(); !ok || idx != 0 {
		t.Errorf("answer must stay on the original correct option, got %+v", got[0].Answer)
	}
}

func TestPolishHonorsRewrittenAnswerIndex(t *testing.T) {
	items := []Item{{
		ID:       "mcq-2-1",
		Type:     TypeMCQ,
		Question: "Qual capital",
		Options:  []string{"Paris", "Berlim", "Londres", "Roma"},
		Answer:   IndexAnswer(0),
		Source:   2,
	}}
	// The rewrite rewords the correct option and moves it, supplying a
	// coherent index. That index must win over text-matching the old option.
	llm := &fakeLLM{resp: `[{"question":"Qual é a capital da França entre as cidades listadas?","options":["Berlim","Londres","Roma","Paris, a capital francesa"],"answer":3}]`}

	got := Polish(context.Background(), llm, items)
	if !reflect.DeepEqual(got[0].Options, []string{"Berlim", "Londres", "Roma", "Paris, a capital francesa"}) {
		t.Errorf("rewritten options should be kept, got %v", got[0].Options)
	}
	idx, ok := got[0].Answer.Index()
	if !ok || idx != 3 {
		t.Errorf("valid rewritten answer index must be honored, got %+v", got[0].Answer)
	}
}

func TestPolishTFAnswerGuard(t *testing.T) {
	items := []Item{{
		ID:       "tf-1-1",
		Type:     TypeTF,
		Question: "Curta demais",
		Answer:   BoolAnswer(true),
	}}
	llm := &fakeLLM{resp: `[{"question":"Afirmação reescrita de maneira bem mais clara e completa.","answer":"talvez"}]`}

	got := Polish(context.Background(), llm, items)
	if got[0].Question == items[0].Question {
		t.Error("question should have been rewritten")
	}
	if b, ok := got[0].Answer.Bool(); !ok || !b {
		t.Errorf("non-boolean rewrite must keep the original answer, got %+v", got[0].Answer)
	}
}

func TestPolishClozeKeepsBlank(t *testing.T) {
	items := []Item{{
		ID:       "cloze-1-1",
		Type:     TypeCloze,
		Question: "A _____ é verde",
		Answer:   TextAnswer("clorofila"),
	}}
	llm := &fakeLLM{resp: `[{"question":"Uma frase reescrita que perdeu a lacuna original do enunciado."}]`}

	got := Polish(context.Background(), llm, items)
	if !reflect.DeepEqual(got, items) {
		t.Errorf("rewrite without blank must be rejected, got %+v", got)
	}
}

func TestPolishClozeAnswerRewrite(t *testing.T) {
	items := []Item{{
		ID:       "cloze-2-1",
		Type:     TypeCloze,
		Question: "A _____ é verde",
		Answer:   TextAnswer("clorofila"),
	}}
	llm := &fakeLLM{resp: `[{"question":"A _____ dá a cor verde às folhas das plantas.","answer":"a clorofila"}]`}

	got := Polish(context.Background(), llm, items)
	if got[0].Type != TypeCloze {
		t.Errorf("open cloze must stay cloze, got %s", got[0].Type)
	}
	if text, ok := got[0].Answer.Text(); !ok || text != "a clorofila" {
		t.Errorf("rewritten answer text should replace the original, got %+v", got[0].Answer)
	}
	if !strings.Contains(got[0].Question, "_____") {
		t.Errorf("blank marker lost: %q", got[0].Question)
	}
}

func TestPolishSkipsCleanItems(t *testing.T) {
	items := []Item{{
		Type:     TypeMCQ,
		Question: "Qual é a função principal da clorofila nas plantas verdes?",
		Options:  []string{"a", "b"},
		Answer:   IndexAnswer(0),
	}}
	llm := &fakeLLM{resp: `[]`}

	got := Polish(context.Background(), llm, items)
	if llm.calls != 0 {
		t.Errorf("clean items should not reach the llm, calls=%d", llm.calls)
	}
	if !reflect.DeepEqual(got, items) {
		t.Errorf("items changed without polish: %+v", got)
	}
}

func TestIsPolishEnabled(t *testing.T) {
	tests := []struct {
		name   string
		flag   string
		apiKey string
		want   bool
	}{
		{"explicit on", "true", "", true},
		{"y shorthand", "y", "", true},
		{"unrecognized word beats api key", "sim", "abc", false},
		{"explicit off beats api key", "0", "abc", false},
		{"unset with key", "", "abc", true},
		{"unset without key", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setenv registers the restore, Unsetenv emulates absence
			t.Setenv("QUIZ_POLISH_WITH_GEMINI", tt.flag)
			if tt.flag == "" {
				os.Unsetenv("QUIZ_POLISH_WITH_GEMINI")
			}
			t.Setenv("GOOGLE_API_KEY", tt.apiKey)
			if got := IsPolishEnabled(); got != tt.want {
				t.Errorf("IsPolishEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}
