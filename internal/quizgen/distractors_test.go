package quizgen

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestNumericDistractors(t *testing.T) {
	tests := []struct {
		value float64
		want  []string
	}{
		{300, []string{"240", "270", "330", "375"}},
		{100, []string{"80", "90", "110", "125"}},
		{4, []string{"3,2", "3,6", "4,4", "5,0"}},
	}
	for _, tt := range tests {
		got := NumericDistractors(tt.value)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("NumericDistractors(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestTermDistractors(t *testing.T) {
	pool := []string{"energia", "massa", "velocidade", "calor", "entropia", "energia"}
	got := TermDistractors("energia", pool, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 distractors, got %v", got)
	}
	for _, d := range got {
		if d == "energia" {
			t.Errorf("target term leaked into distractors: %v", got)
		}
	}
	// similar-length terms come first: entropia (8) is closer to energia (7)
	// than velocidade (10)
	if got[0] != "massa" && got[0] != "calor" && got[0] != "entropia" {
		t.Errorf("expected shape-matched distractor first, got %v", got)
	}
}

func TestTermDistractorsSmallPool(t *testing.T) {
	got := TermDistractors("energia", []string{"energia"}, 3)
	if len(got) != 0 {
		t.Errorf("expected no distractors from singleton pool, got %v", got)
	}
}

func TestExtractEnumerations(t *testing.T) {
	text := "Esse processo percorre quatro fases distintas chamadas ingestão, digestão, absorção, assimilação e excreção."
	got := ExtractEnumerations(text, 4, 6)
	if len(got) != 1 {
		t.Fatalf("expected 1 enumeration, got %v", got)
	}
	want := []string{"digestão", "absorção", "assimilação", "excreção"}
	if !reflect.DeepEqual(got[0], want) {
		t.Errorf("got %v, want %v", got[0], want)
	}

	if got := ExtractEnumerations("Frase comum sem lista nenhuma aqui dentro.", 4, 6); len(got) != 0 {
		t.Errorf("expected no enumerations, got %v", got)
	}
}

func TestPerturbOrders(t *testing.T) {
	items := []string{"um", "dois", "três", "quatro"}
	rng := rand.New(rand.NewSource(7))
	got := PerturbOrders(items, 3, rng)
	if len(got) != 3 {
		t.Fatalf("expected 3 perturbations, got %d", len(got))
	}
	seen := map[string]bool{}
	for _, seq := range got {
		if equalSeq(seq, items) {
			t.Errorf("perturbation equals the original order: %v", seq)
		}
		if len(seq) != len(items) {
			t.Errorf("perturbation changed length: %v", seq)
		}
		key := seq[0] + "|" + seq[1] + "|" + seq[2] + "|" + seq[3]
		if seen[key] {
			t.Errorf("duplicate perturbation: %v", seq)
		}
		seen[key] = true
	}
}

func TestNegationPairsFirstMatchWins(t *testing.T) {
	s := "A pressão sempre aumenta com a profundidade."
	got := falsifySentence(s, Normalize(s), nil, rand.New(rand.NewSource(1)))
	want := "A pressão às vezes aumenta com a profundidade."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
