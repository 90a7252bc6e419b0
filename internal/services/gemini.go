package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/redis/go-redis/v9"

	"google.golang.org/api/option"

	"estudai-backend/internal/models"
	"estudai-backend/internal/quizgen"
)

type GeminiService struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	redis     *redis.Client
	rateChan  chan struct{} // Token bucket
}

func NewGeminiService(
	apiKey string,
	modelName string,
	concurrentReqs int,
	redisClient *redis.Client,
) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.15)
	model.SetTopP(0.3)
	model.SetTopK(32)

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:    client,
		model:     model,
		modelName: modelName,
		redis:     redisClient,
		rateChan:  rateChan,
	}, nil
}

func (s *GeminiService) ModelName() string {
	return s.modelName
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// PublishUpdate sends a quiz lifecycle event via Redis pub/sub
func (s *GeminiService) PublishUpdate(ctx context.Context, userID int64, ev models.QuizReadyEvent) {
	data, _ := json.Marshal(ev)
	s.redis.Publish(ctx, fmt.Sprintf("user_updates:%d", userID), string(data))
}

// GenerateText runs a single free-form prompt and returns the raw model text
// with any code fence stripped.
func (s *GeminiService) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	rawText := strings.TrimSpace(extractText(resp))
	rawText = strings.TrimPrefix(rawText, "```json")
	rawText = strings.TrimPrefix(rawText, "```")
	rawText = strings.TrimSuffix(rawText, "```")
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return "", fmt.Errorf("empty Gemini response")
	}
	return rawText, nil
}

// Healthy probes the model with a trivial prompt.
func (s *GeminiService) Healthy(ctx context.Context) error {
	_, err := s.GenerateText(ctx, `Responda apenas com a palavra "ok".`)
	return err
}

// topicItem is the wire shape the model is asked to produce for topic quizzes.
type topicItem struct {
	Type        string          `json:"type"`
	Question    string          `json:"question"`
	Options     []string        `json:"options,omitempty"`
	Answer      json.RawMessage `json:"answer"`
	Explanation string          `json:"explanation"`
	Difficulty  string          `json:"difficulty"`
	Format      string          `json:"format"`
	Topic       string          `json:"topic,omitempty"`
}

// GenerateTopicQuiz asks the model for true/false items about the given
// topics, validates each one, gives rejected items a single rewrite round and
// dedupes near-identical questions. The model is oversampled at 2n so the
// validation pass can afford to drop items. On any failure it falls back to
// the deterministic template quiz.
func (s *GeminiService) GenerateTopicQuiz(ctx context.Context, topics []string, n int) []quizgen.Item {
	if n <= 0 {
		n = 8
	}
	raw, err := s.generateTopicItems(ctx, topics, n*2)
	if err != nil {
		log.Printf("topic quiz generation failed, using fallback: %v", err)
		return quizgen.FallbackTF(topics, n)
	}

	now := time.Now().Unix()
	var items []quizgen.Item
	for i, it := range raw {
		item, reason := buildTopicItem(it, fmt.Sprintf("wk-%d-%d", now, i))
		if reason != "" {
			fixed, ok := s.refineTopicItem(ctx, it, reason)
			if !ok {
				continue
			}
			item, reason = buildTopicItem(fixed, fmt.Sprintf("wk-%d-%d", now, i))
			if reason != "" {
				continue
			}
		}
		items = append(items, item)
	}

	// Dedupe near-duplicates by token overlap.
	var filtered []quizgen.Item
	for _, it := range items {
		dup := false
		for _, prev := range filtered {
			if jaccard(it.Question, prev.Question) >= 0.8 {
				dup = true
				break
			}
		}
		if !dup {
			filtered = append(filtered, it)
		}
	}

	rng := rand.New(rand.NewSource(now))
	rng.Shuffle(len(filtered), func(i, j int) {
		filtered[i], filtered[j] = filtered[j], filtered[i]
	})
	if len(filtered) > n {
		filtered = filtered[:n]
	}
	if len(filtered) == 0 {
		return quizgen.FallbackTF(topics, n)
	}
	return filtered
}

func (s *GeminiService) generateTopicItems(ctx context.Context, topics []string, count int) ([]topicItem, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	prompt := buildTopicQuizPrompt(topics, count)
	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	rawText := extractText(resp)
	rawText = strings.TrimSpace(rawText)
	rawText = strings.TrimPrefix(rawText, "```json")
	rawText = strings.TrimPrefix(rawText, "```")
	rawText = strings.TrimSuffix(rawText, "```")
	rawText = strings.TrimSpace(rawText)

	var envelope struct {
		Items []topicItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(rawText), &envelope); err == nil && len(envelope.Items) > 0 {
		return envelope.Items, nil
	}

	// Try a bare array, possibly buried in prose.
	var items []topicItem
	if err := json.Unmarshal([]byte(rawText), &items); err == nil && len(items) > 0 {
		return items, nil
	}
	start := strings.Index(rawText, "[")
	end := strings.LastIndex(rawText, "]")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(rawText[start:end+1]), &items); err == nil && len(items) > 0 {
			return items, nil
		}
	}
	return nil, fmt.Errorf("unparseable quiz response")
}

// refineTopicItem asks the model to rewrite a rejected item, naming the
// validation failure. The rewrite must keep the same type.
func (s *GeminiService) refineTopicItem(ctx context.Context, it topicItem, reason string) (topicItem, bool) {
	original, _ := json.Marshal(it)

	var b strings.Builder
	b.WriteString("Reescreva o item de prova abaixo mantendo o MESMO TIPO e formato, corrigindo o problema: ")
	b.WriteString(reason)
	b.WriteString("\n\nRegras: Português (Brasil); sem duplicações de texto; sem palavras de interface; o enunciado sempre termina com '?'.\n")
	b.WriteString("Responda APENAS com o objeto JSON corrigido, no mesmo schema do item original.\n\nItem original:\n")
	b.Write(original)

	rawText, err := s.GenerateText(ctx, b.String())
	if err != nil {
		return topicItem{}, false
	}

	var fixed topicItem
	if err := json.Unmarshal([]byte(rawText), &fixed); err != nil {
		start := strings.Index(rawText, "{")
		end := strings.LastIndex(rawText, "}")
		if start < 0 || end <= start {
			return topicItem{}, false
		}
		if err := json.Unmarshal([]byte(rawText[start:end+1]), &fixed); err != nil {
			return topicItem{}, false
		}
	}
	if fixed.Type != it.Type || fixed.Question == "" {
		return topicItem{}, false
	}
	return fixed, true
}

func buildTopicQuizPrompt(topics []string, count int) string {
	var b strings.Builder

	b.WriteString("Você é um professor universitário de didática em Português (Brasil).\n")
	b.WriteString("Gere ITENS DE PROVA curtos, objetivos, sem ambiguidade.\n")
	b.WriteString("CRITICAL: responda APENAS com JSON válido no schema {\"items\": [...]}. Sem preâmbulo, sem markdown, sem crases.\n")
	b.WriteString("NUNCA invente termos como 'window', 'lorem' ou trechos de interface.\n\n")

	b.WriteString("Gere apenas perguntas do tipo VERDADEIRO/FALSO (tf), curtas, objetivas e SEMPRE citando explicitamente o tópico em cada enunciado. ")
	b.WriteString("Evite frases genéricas, perguntas sobre o plano de estudos ou afirmações vagas. ")
	b.WriteString("Cada pergunta deve trazer um fato, conceito ou evento relevante do tópico. ")
	b.WriteString("Sempre inclua explicação didática e detalhada para cada item. ")
	b.WriteString("Varie o grau de dificuldade e evite perguntas óbvias. NÃO repita perguntas ou explicações.\n\n")

	b.WriteString("Exemplo de pergunta ruim: 'O tema X faz parte do seu plano de estudos?'\n")
	b.WriteString("Exemplo de pergunta boa: 'A Proclamação da República no Brasil ocorreu em 1889?' (tópico: História do Brasil)\n")
	b.WriteString("Exemplo de pergunta boa: 'O benzeno é um hidrocarboneto aromático?' (tópico: Química Orgânica)\n")
	b.WriteString("Exemplo de pergunta boa: 'A energia potencial depende da altura?' (tópico: Física Moderna)\n\n")

	b.WriteString(`Schema por item:
{"type": "tf", "question": "string", "answer": true|false, "explanation": "string", "difficulty": "easy"|"medium"|"hard", "format": "default", "topic": "string"}

`)

	b.WriteString("Resumo dos tópicos estudados (PT-BR):\n")
	for _, t := range topics {
		b.WriteString("- ")
		b.WriteString(t)
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\nGere %d itens do tipo verdadeiro/falso, equilibrados, didáticos, relevantes e sempre contextualizados para os tópicos. Use Português (Brasil).\n", count))

	return b.String()
}

// buildTopicItem validates a raw model item and converts it into a quiz item.
// The returned reason is empty on success and names the failed rule otherwise.
func buildTopicItem(it topicItem, id string) (quizgen.Item, string) {
	question := strings.Join(strings.Fields(strings.ReplaceAll(it.Question, "window", "")), " ")
	if !saneLen(question, 240) || !looksLikeQuestion(question) {
		return quizgen.Item{}, "enunciado_fraco"
	}

	item := quizgen.Item{
		ID:          id,
		Question:    question,
		Format:      quizgen.FormatDefault,
		Difficulty:  parseDifficulty(it.Difficulty),
		Explanation: strings.TrimSpace(it.Explanation),
	}

	var ansText string
	switch it.Type {
	case "mcq":
		opts := make([]string, 0, len(it.Options))
		for _, o := range it.Options {
			opts = append(opts, strings.Join(strings.Fields(o), " "))
		}
		var idx int
		if err := json.Unmarshal(it.Answer, &idx); err != nil || idx < 0 || idx >= len(opts) {
			return quizgen.Item{}, "mcq_sem_resposta"
		}
		if !optionsOK(opts) {
			return quizgen.Item{}, "mcq_opcoes_invalidas"
		}
		item.Type = quizgen.TypeMCQ
		item.Options = opts
		item.Answer = quizgen.IndexAnswer(idx)
		ansText = quizgen.Normalize(opts[idx])
	case "tf":
		var v bool
		if err := json.Unmarshal(it.Answer, &v); err != nil {
			return quizgen.Item{}, "tf_sem_bool"
		}
		item.Type = quizgen.TypeTF
		item.Answer = quizgen.BoolAnswer(v)
		if v {
			ansText = "verdadeiro"
		} else {
			ansText = "falso"
		}
	case "cloze":
		var v string
		if err := json.Unmarshal(it.Answer, &v); err != nil || !saneLen(v, 80) {
			return quizgen.Item{}, "cloze_resposta_ruim"
		}
		item.Type = quizgen.TypeCloze
		item.Answer = quizgen.TextAnswer(v)
		ansText = quizgen.Normalize(v)
	default:
		return quizgen.Item{}, "tipo_desconhecido"
	}

	if !explanationOK(item.Explanation, ansText) {
		return quizgen.Item{}, "explicacao_fraca"
	}
	return item, ""
}

func saneLen(s string, max int) bool {
	n := len([]rune(strings.TrimSpace(s)))
	return n >= 1 && n <= max
}

func looksLikeQuestion(q string) bool {
	q = strings.TrimSpace(q)
	return strings.HasSuffix(q, "?") && len(strings.Fields(q)) >= 5
}

func optionsOK(opts []string) bool {
	if len(opts) < 3 {
		return false
	}
	seen := make(map[string]bool, len(opts))
	for _, o := range opts {
		if !saneLen(o, 160) {
			return false
		}
		key := quizgen.Normalize(o)
		if seen[key] {
			return false
		}
		seen[key] = true
	}
	return true
}

// explanationOK rejects explanations that are too short or merely restate the
// answer text.
func explanationOK(exp, ansText string) bool {
	norm := quizgen.Normalize(exp)
	if len(strings.Fields(norm)) < 6 {
		return false
	}
	prefix := []rune(ansText)
	if len(prefix) > 20 {
		prefix = prefix[:20]
	}
	return len(prefix) == 0 || !strings.HasPrefix(norm, string(prefix))
}

func parseDifficulty(s string) quizgen.Difficulty {
	switch s {
	case "easy":
		return quizgen.DifficultyEasy
	case "hard":
		return quizgen.DifficultyHard
	}
	return quizgen.DifficultyMedium
}

// jaccard measures token overlap between two normalized questions.
func jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for tok := range setA {
		if setB[tok] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(quizgen.Normalize(s)) {
		set[tok] = true
	}
	return set
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
