package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// ChatModel is a single-shot chat completion backend.
type ChatModel interface {
	Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Synthesizer turns retrieved passages into an answer constrained to them.
type Synthesizer struct {
	model  ChatModel
	logger *zap.Logger
}

// NewSynthesizer returns a Synthesizer answering with model.
func NewSynthesizer(model ChatModel, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{model: model, logger: logger.Named("synthesizer")}
}

// Synthesize answers query from passages. With no passages the model is not
// called and NoContextAnswer is returned.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, passages []string) (string, error) {
	if len(passages) == 0 {
		return NoContextAnswer, nil
	}

	userPrompt := BuildUserPrompt(strings.Join(passages, "\n"), query)
	s.logger.Debug("sending prompt", zap.Int("passages", len(passages)), zap.Int("prompt_len", len(userPrompt)))

	answer, err := s.model.Chat(ctx, GetSystemPrompt(), userPrompt)
	if err != nil {
		return "", &SynthesisError{Err: err}
	}
	return answer, nil
}
