package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"google.golang.org/genai"
)

// LangChainChatModel adapts any langchaingo model, such as llms/ollama.
type LangChainChatModel struct {
	llm         llms.Model
	temperature float64
}

// NewLangChainChatModel wraps llm. A zero temperature keeps the model default.
func NewLangChainChatModel(llm llms.Model, temperature float64) *LangChainChatModel {
	return &LangChainChatModel{llm: llm, temperature: temperature}
}

// Chat sends the system and user prompts and returns the first choice.
func (m *LangChainChatModel) Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	var opts []llms.CallOption
	if m.temperature > 0 {
		opts = append(opts, llms.WithTemperature(m.temperature))
	}

	resp, err := m.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}

// GeminiChatModel sends one-shot requests to the Gemini API.
type GeminiChatModel struct {
	client      *genai.Client
	model       string
	temperature float64
}

// NewGeminiChatModel returns a chat model for the named Gemini model.
func NewGeminiChatModel(client *genai.Client, model string, temperature float64) *GeminiChatModel {
	return &GeminiChatModel{client: client, model: model, temperature: temperature}
}

// Chat sends userPrompt with systemPrompt as the system instruction and
// joins the text parts of the first candidate.
func (m *GeminiChatModel) Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.Text(systemPrompt)[0],
	}
	if m.temperature > 0 {
		t := float32(m.temperature)
		config.Temperature = &t
	}

	result, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(userPrompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini api call failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var responseText strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		if p.Text != "" {
			responseText.WriteString(p.Text)
		}
	}
	return responseText.String(), nil
}
