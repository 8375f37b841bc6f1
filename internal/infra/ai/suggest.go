// Package ai предлагает позиции сметы по описанию работ через Gemini.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"google.golang.org/genai"

	"github.com/Spok95/smeta-bot/internal/domain/estimate"
)

var (
	ErrDisabled   = errors.New("ai: suggestions are disabled")
	ErrEmptyQuery = errors.New("ai: job description is empty")
	ErrBadReply   = errors.New("ai: model reply is not a list of items")
)

const systemPrompt = `Ты помощник сметчика-строителя в России. По описанию работ составь список позиций сметы:
работы и необходимые материалы. Цены в рублях, средние по рынку. Ответь только JSON-массивом объектов
вида {"name": string, "quantity": number, "unit": string, "price": number} без пояснений.`

// generator is the text-in, text-out part of the model client.
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Suggester struct {
	gen generator
}

// New returns a disabled Suggester when apiKey is empty.
func New(ctx context.Context, apiKey, model string) (*Suggester, error) {
	if apiKey == "" {
		return &Suggester{}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("ai: client: %w", err)
	}
	return &Suggester{gen: &gemini{client: client, model: model}}, nil
}

func (s *Suggester) Enabled() bool { return s != nil && s.gen != nil }

// Suggest returns draft items (quantity, unit, price filled, no id). Drafts
// become work items when the session adds them.
func (s *Suggester) Suggest(ctx context.Context, job string) ([]estimate.Item, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	job = strings.TrimSpace(job)
	if job == "" {
		return nil, ErrEmptyQuery
	}
	reply, err := s.gen.Generate(ctx, "Описание работ: "+job)
	if err != nil {
		return nil, fmt.Errorf("ai: generate: %w", err)
	}
	return ParseDrafts(reply)
}

type draft struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Price    float64 `json:"price"`
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseDrafts accepts the raw model reply, with or without a ```json fence.
// Entries without a name are dropped.
func ParseDrafts(reply string) ([]estimate.Item, error) {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")
	reply = strings.TrimSpace(reply)

	var drafts []draft
	if err := json.Unmarshal([]byte(reply), &drafts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadReply, err)
	}
	out := make([]estimate.Item, 0, len(drafts))
	for _, d := range drafts {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			continue
		}
		out = append(out, estimate.Item{
			Name:     name,
			Quantity: finite(d.Quantity),
			Unit:     strings.TrimSpace(d.Unit),
			Price:    finite(d.Price),
			Type:     estimate.ItemWork,
		})
	}
	return out, nil
}

type gemini struct {
	client *genai.Client
	model  string
}

func (g *gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
