package quizgen

import (
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"
)

var testWeek = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

var testContents = []Content{
	{
		ID:      1,
		Subject: "Geografia",
		Title:   "Brasil",
		Text:    "O Brasil é um país localizado na América do Sul, conhecido por sua grande diversidade cultural.",
	},
	{
		ID:      2,
		Subject: "Biologia",
		Title:   "Digestão",
		Text: "A Digestão é um processo contínuo que transforma os alimentos em nutrientes essenciais para o corpo. " +
			"Esse processo percorre quatro fases distintas chamadas ingestão, digestão, absorção, assimilação e excreção.",
	},
	{
		ID:      3,
		Subject: "Física",
		Title:   "Velocidade da luz",
		Text:    "A Luz é capaz de percorrer aproximadamente 300 mil quilômetros por segundo no vácuo do espaço sideral.",
	},
}

func TestGenerateDeterministic(t *testing.T) {
	a := New(42, testWeek).Generate(testContents, 5)
	b := New(42, testWeek).Generate(testContents, 5)
	if !reflect.DeepEqual(a, b) {
		t.Error("same user and week must produce identical quizzes")
	}
	if len(a) == 0 {
		t.Fatal("expected items from test contents")
	}
}

func TestGenerateInvariants(t *testing.T) {
	items := New(7, testWeek).Generate(testContents, 5)
	if len(items) == 0 {
		t.Fatal("expected items")
	}

	seen := map[string]bool{}
	for _, it := range items {
		if it.ID == "" {
			t.Errorf("item without id: %+v", it)
		}
		key := Normalize(it.Question)
		if seen[key] {
			t.Errorf("duplicate question: %q", it.Question)
		}
		seen[key] = true

		q := strings.TrimSpace(it.Question)
		if !strings.HasSuffix(q, ".") && !strings.HasSuffix(q, "?") && !strings.HasSuffix(q, "!") {
			t.Errorf("question missing terminal punctuation: %q", q)
		}
		nq := Normalize(q)
		for _, bad := range []string{"http", "www", "onclick", "window"} {
			if strings.Contains(nq, bad) {
				t.Errorf("artifact %q leaked into question %q", bad, q)
			}
		}

		switch it.Type {
		case TypeMCQ:
			idx, ok := it.Answer.Index()
			if !ok || idx < 0 || idx >= len(it.Options) {
				t.Errorf("mcq answer out of range: idx=%d options=%d", idx, len(it.Options))
			}
			if len(it.Options) < 2 {
				t.Errorf("mcq with too few options: %v", it.Options)
			}
		case TypeTF:
			if _, ok := it.Answer.Bool(); !ok {
				t.Errorf("tf item without boolean answer: %+v", it)
			}
		case TypeCloze:
			if _, ok := it.Answer.Text(); !ok {
				t.Errorf("cloze item without text answer: %+v", it)
			}
			if !strings.Contains(it.Question, "_____") {
				t.Errorf("cloze item without blank: %q", it.Question)
			}
		}

		switch it.Difficulty {
		case DifficultyEasy, DifficultyMedium, DifficultyHard:
		default:
			t.Errorf("unknown difficulty %q", it.Difficulty)
		}
	}
}

func TestGenerateDefinitionMCQ(t *testing.T) {
	items := New(1, testWeek).Generate(testContents[:1], 5)

	var def *Item
	for i := range items {
		if items[i].Question == "O que é <b>brasil</b>?" {
			def = &items[i]
			break
		}
	}
	if def == nil {
		t.Fatalf("definition MCQ not generated, items: %+v", items)
	}
	if len(def.Options) != 4 {
		t.Fatalf("expected 4 options, got %v", def.Options)
	}
	idx, ok := def.Answer.Index()
	if !ok {
		t.Fatal("definition MCQ must carry an index answer")
	}
	want := "país localizado na América do Sul, conhecido por sua grande diversidade cultural"
	if def.Options[idx] != want {
		t.Errorf("correct option = %q, want %q", def.Options[idx], want)
	}
	if def.Source != 1 {
		t.Errorf("source = %d, want 1", def.Source)
	}
}

func TestGenerateOrderingMCQ(t *testing.T) {
	items := New(1, testWeek).Generate(testContents[1:2], 5)

	var ord *Item
	for i := range items {
		if items[i].Format == FormatOrdering {
			ord = &items[i]
			break
		}
	}
	if ord == nil {
		t.Fatalf("ordering MCQ not generated, items: %+v", items)
	}
	idx, _ := ord.Answer.Index()
	if idx < 0 || idx >= len(ord.Options) {
		t.Fatalf("answer index %d out of range for %d options", idx, len(ord.Options))
	}
	want := "digestão → absorção → assimilação → excreção"
	if ord.Options[idx] != want {
		t.Errorf("correct ordering option = %q, want %q", ord.Options[idx], want)
	}
	seen := map[string]bool{}
	for _, o := range ord.Options {
		if seen[o] {
			t.Errorf("duplicate ordering option %q", o)
		}
		seen[o] = true
	}
	if ord.Difficulty != DifficultyMedium {
		t.Errorf("four items should rate medium, got %q", ord.Difficulty)
	}
}

func TestGenerateTrueFalsePair(t *testing.T) {
	items := New(1, testWeek).Generate(testContents[2:3], 5)

	var trueItem, falseItem *Item
	for i := range items {
		if items[i].Type != TypeTF {
			continue
		}
		if b, _ := items[i].Answer.Bool(); b {
			trueItem = &items[i]
		} else {
			falseItem = &items[i]
		}
	}
	if trueItem == nil {
		t.Fatal("true item not generated")
	}
	wantTrue := "Luz é capaz de percorrer aproximadamente 300 mil quilômetros por segundo no vácuo do espaço sideral."
	if trueItem.Question != wantTrue {
		t.Errorf("true item = %q, want verbatim sentence %q", trueItem.Question, wantTrue)
	}

	if falseItem == nil {
		t.Fatal("numeric falsification did not produce a false item")
	}
	perturbed := regexp.MustCompile(`aproximadamente (240|270|330|375) mil`)
	if !perturbed.MatchString(falseItem.Question) {
		t.Errorf("false item should perturb the number, got %q", falseItem.Question)
	}
	if falseItem.Question == trueItem.Question {
		t.Error("false item equals the true item")
	}
}

func TestGenerateSkipsInvalidContent(t *testing.T) {
	contents := []Content{
		{ID: 9, Text: "Capítulo 1: Introdução"},
		{ID: 10, Text: "<ul><li>item.png</li><li>outro.jpg</li></ul>"},
	}
	if items := New(1, testWeek).Generate(contents, 5); len(items) != 0 {
		t.Errorf("expected no items from heading/artifact content, got %+v", items)
	}
	if items := New(1, testWeek).Generate(nil, 5); len(items) != 0 {
		t.Errorf("expected no items from empty input, got %+v", items)
	}
}

func TestGeneratePerContentLimit(t *testing.T) {
	items := New(3, testWeek).Generate(testContents[2:3], 1)
	if len(items) != 1 {
		t.Fatalf("perContent=1 should keep a single item per content, got %d", len(items))
	}
}
