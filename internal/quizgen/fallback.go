package quizgen

import (
	"fmt"
	"strings"
)

type tfTemplate struct {
	question    string
	answer      bool
	explanation string
}

// areaTemplates maps subject areas to ready-made true/false questions used
// when the LLM topic quiz is unavailable.
var areaTemplates = []struct {
	area      string
	templates []tfTemplate
}{
	{"Matemática", []tfTemplate{
		{"A soma dos ângulos internos de um triângulo é igual a 180°?", true, "No plano euclidiano, a soma é 180°."},
		{"O número π é aproximadamente igual a 3,14?", true, "Valor aproximado de π."},
		{"A raiz quadrada de 16 é 5?", false, "A raiz quadrada de 16 é 4."},
	}},
	{"História", []tfTemplate{
		{"A Proclamação da República no Brasil ocorreu em 1889?", true, "Data correta do evento."},
		{"Dom Pedro II foi o primeiro presidente do Brasil?", false, "Dom Pedro II foi imperador, não presidente."},
		{"A escravidão foi abolida em 1888?", true, "A Lei Áurea foi assinada em 1888."},
	}},
	{"Química", []tfTemplate{
		{"O benzeno é um hidrocarboneto aromático?", true, "Benzeno é aromático."},
		{"A água é composta por hidrogênio e oxigênio?", true, "Fórmula H2O."},
		{"O sal de cozinha é cloreto de sódio?", true, "Fórmula NaCl."},
	}},
	{"Física", []tfTemplate{
		{"A velocidade da luz no vácuo é de aproximadamente 300.000 km/s?", true, "Valor aproximado da velocidade da luz."},
		{"A gravidade na Terra é cerca de 9,8 m/s²?", true, "Valor padrão da gravidade."},
		{"A energia potencial depende da altura?", true, "Energia potencial gravitacional depende da altura."},
	}},
}

// FallbackTF builds deterministic true/false items from the user's study
// topics, used when no content yields questions and the LLM is unavailable.
// Topics matching a known subject area draw from that area's templates; the
// rest get a generic pair of questions about the topic itself.
func FallbackTF(topics []string, n int) []Item {
	var items []Item
	for i, topic := range topics {
		if len(items) >= n {
			break
		}

		var base []tfTemplate
		for _, at := range areaTemplates {
			if strings.Contains(strings.ToLower(topic), strings.ToLower(at.area)) {
				base = at.templates
				break
			}
		}

		if base != nil {
			for j, tpl := range base {
				if len(items) >= n {
					break
				}
				items = append(items, Item{
					ID:          fmt.Sprintf("vf-%d-%d", i, j),
					Type:        TypeTF,
					Question:    tpl.question,
					Answer:      BoolAnswer(tpl.answer),
					Explanation: tpl.explanation,
					Difficulty:  DifficultyEasy,
				})
			}
			continue
		}

		items = append(items, Item{
			ID:          fmt.Sprintf("vf-%d-gen", i),
			Type:        TypeTF,
			Question:    fmt.Sprintf("Sobre '%s': este tema é relevante para sua prova?", topic),
			Answer:      BoolAnswer(true),
			Explanation: "Este tópico é parte do seu plano de estudos.",
			Difficulty:  DifficultyEasy,
		})
		if len(items) < n {
			items = append(items, Item{
				ID:          fmt.Sprintf("vf-%d-genf", i),
				Type:        TypeTF,
				Question:    fmt.Sprintf("'%s' não será cobrado na sua prova?", topic),
				Answer:      BoolAnswer(false),
				Explanation: "Na verdade, este tema pode ser cobrado.",
				Difficulty:  DifficultyEasy,
			})
		}
	}
	if len(items) > n {
		items = items[:n]
	}
	return items
}
