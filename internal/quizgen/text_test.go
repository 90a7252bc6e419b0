package quizgen

import (
	"reflect"
	"testing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips tags", "<p>A fotossíntese é <b>vital</b>.</p>", "A fotossíntese é vital ."},
		{"flattens bullets", "• primeiro — segundo - terceiro", "primeiro segundo terceiro"},
		{"collapses whitespace", "um   dois\n\ttrês", "um dois três"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"São Paulo é ÓTIMO", "sao paulo e otimo"},
		{"Física  Quântica", "fisica quantica"},
		{"coração", "coracao"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("Primeira frase. Segunda frase! Terceira?")
	want := []string{"Primeira frase.", "Segunda frase!", "Terceira?"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if got := SplitSentences("sem pontuação final"); !reflect.DeepEqual(got, []string{"sem pontuação final"}) {
		t.Errorf("unterminated text should come back whole, got %v", got)
	}
	if got := SplitSentences("   "); got != nil {
		t.Errorf("blank input should yield nil, got %v", got)
	}
}

func TestFinalizeQuestionText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"O que é fotossíntese", "O que é fotossíntese."},
		{"Complete a frase:", "Complete a frase."},
		{"Já termina bem?", "Já termina bem?"},
		{"espaços   extras  ", "espaços extras."},
	}
	for _, tt := range tests {
		if got := FinalizeQuestionText(tt.in); got != tt.want {
			t.Errorf("FinalizeQuestionText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTrimNoiseBeforeCopula(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"heading prefix removed",
			"Capítulo 2 Resumo Clorofila é o pigmento verde das plantas.",
			"Clorofila é o pigmento verde das plantas.",
		},
		{
			"article dropped",
			"O Brasil é um país da América do Sul.",
			"Brasil é um país da América do Sul.",
		},
		{
			"no copula passes through",
			"Texto sem marcador relevante aqui.",
			"Texto sem marcador relevante aqui.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimNoiseBeforeCopula(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReplaceWordAccentedBoundaries(t *testing.T) {
	got := replaceWord("O país cresce e o país muda.", "país", "_____", false)
	want := "O _____ cresce e o _____ muda."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// accented continuation letters still count as part of the word
	got = replaceWord("A programação usa o programa.", "programa", "_____", false)
	want = "A programação usa o _____."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFindOriginalCasedTerm(t *testing.T) {
	if got := FindOriginalCasedTerm("A Absorção ocorre no intestino.", "absorcao"); got != "Absorção" {
		t.Errorf("got %q, want %q", got, "Absorção")
	}
	if got := FindOriginalCasedTerm("Nada aqui combina.", "absorcao"); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

func TestDedupeOptionsCasefold(t *testing.T) {
	got := DedupeOptionsCasefold([]string{"Energia", "energia", "Massa", "", "MASSA", "Tempo"})
	want := []string{"Energia", "Massa", "Tempo"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
