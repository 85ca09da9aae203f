package rewrite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// #region prompt
const systemPrompt = `You are a counterfactual historian with expert knowledge of how causes and consequences reverberate through history. You will receive:
- changedId: the id of the event that was edited,
- newText: the edited headline, if any,
- timeline: events with id, year, text and influences (ids of later events it affects).

Return JSON of the form {"updates": [...]} and nothing else. Each update has:
- id (string)
- newText (string)
- confidence (number between 0 and 1, optional)
- reason (one short sentence, optional)
- severity ("major" or "minor", optional)

Guidelines:
- Include the changed event first, with newText.
- For events reachable through influences, decide whether they should be rewritten or left unchanged; omit unchanged events.
- Rewrite conservatively when an outcome has many independent causes and more radically when the edit removes a clear prerequisite.`

// #endregion prompt

// #region openai-rewriter
// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIRewriter asks a chat completion model for headline updates.
type OpenAIRewriter struct {
	client      chatClient
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAIRewriter creates a rewriter using the public OpenAI endpoint.
func NewOpenAIRewriter(apiKey, model string) (*OpenAIRewriter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	return NewOpenAIRewriterWithConfig(openai.DefaultConfig(apiKey), model), nil
}

// NewOpenAIRewriterWithConfig creates a rewriter for any OpenAI-compatible endpoint.
func NewOpenAIRewriterWithConfig(cfg openai.ClientConfig, model string) *OpenAIRewriter {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIRewriter{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: 0.6,
		maxTokens:   1200,
	}
}

// SetTemperature overrides the sampling temperature.
func (o *OpenAIRewriter) SetTemperature(t float32) { o.temperature = t }

// Rewrite sends the request as JSON and parses the model's answer.
func (o *OpenAIRewriter) Rewrite(ctx context.Context, req Request) ([]Update, error) {
	if req.ChangedID == "" {
		return nil, fmt.Errorf("rewrite: missing changed id")
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal rewrite request: %w", err)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Data:\n" + string(data) + "\n\nRespond with JSON."},
		},
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: %w: no choices", ErrMalformed)
	}
	return ParseUpdates(resp.Choices[0].Message.Content)
}

// #endregion openai-rewriter

// #region parse
// ParseUpdates reads {"updates": [...]} from raw model output. When the
// whole text is not JSON, the span from the first '{' to the last '}' is
// tried instead.
func ParseUpdates(raw string) ([]Update, error) {
	doc, err := decodeUpdates(raw)
	if err != nil {
		first := strings.Index(raw, "{")
		last := strings.LastIndex(raw, "}")
		if first == -1 || last <= first {
			return nil, fmt.Errorf("%w: no JSON object", ErrMalformed)
		}
		doc, err = decodeUpdates(raw[first : last+1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	updates, ok := doc["updates"]
	if !ok || !strings.HasPrefix(strings.TrimSpace(string(updates)), "[") {
		return nil, fmt.Errorf("%w: missing updates array", ErrMalformed)
	}
	var out []Update
	if err := json.Unmarshal(updates, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return out, nil
}

func decodeUpdates(s string) (map[string]json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// #endregion parse
