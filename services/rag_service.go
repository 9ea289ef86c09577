package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/RosShpakovskiy/bc2-as3/models"
)

// Answer is the result of one resolved query.
type Answer struct {
	Text    string
	Source  string
	Article string
}

// Assistant runs the per-turn pipeline: exact-phrase lookup first, then
// semantic retrieval and synthesis.
type Assistant struct {
	corpus      *Corpus
	retriever   *Retriever
	synthesizer *Synthesizer
	topK        int
	logger      *zap.Logger

	// one turn at a time
	mu sync.Mutex
}

// NewAssistant wires the turn pipeline. topK defaults to 4 when not positive.
func NewAssistant(corpus *Corpus, retriever *Retriever, synthesizer *Synthesizer, topK int, logger *zap.Logger) *Assistant {
	if topK <= 0 {
		topK = 4
	}
	return &Assistant{
		corpus:      corpus,
		retriever:   retriever,
		synthesizer: synthesizer,
		topK:        topK,
		logger:      logger.Named("assistant"),
	}
}

// Answer resolves a single query.
func (a *Assistant) Answer(ctx context.Context, query string) (Answer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.answer(ctx, query)
}

func (a *Assistant) answer(ctx context.Context, query string) (Answer, error) {
	if passages := a.corpus.Passages(); len(passages) > 0 {
		if phrase, ok := QuotedPhrase(query); ok {
			if match, found := ResolvePhrase(phrase, passages); found {
				a.logger.Info("phrase match", zap.String("phrase", phrase), zap.String("article", match.Article))
				return Answer{
					Text:    fmt.Sprintf("Article %s states:\n\n%s", match.Article, match.Text),
					Source:  models.SourcePhrase,
					Article: match.Article,
				}, nil
			}
		}
	}

	article, _ := ExtractArticleNumber(query)
	texts, err := a.retriever.Retrieve(ctx, query, a.topK)
	if err != nil {
		return Answer{}, err
	}
	if len(texts) == 0 {
		a.logger.Info("no context retrieved", zap.String("article", article))
		return Answer{Text: NoContextAnswer, Source: models.SourceNone, Article: article}, nil
	}

	text, err := a.synthesizer.Synthesize(ctx, query, texts)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Text: text, Source: models.SourceSemantic, Article: article}, nil
}

// HandleTurn records the query and its answer in session. Failures become the
// turn's answer so the conversation can continue.
func (a *Assistant) HandleTurn(ctx context.Context, session *models.Session, query string) models.AskResponse {
	a.mu.Lock()
	defer a.mu.Unlock()

	session.Append(models.RoleUser, query)

	resp := models.AskResponse{SessionID: session.ID}
	ans, err := a.answer(ctx, query)
	if err != nil {
		a.logger.Warn("turn failed", zap.Error(err))
		resp.Answer = TurnErrorMessage(err)
		resp.Source = models.SourceNone
		resp.Error = err.Error()
	} else {
		resp.Answer = ans.Text
		resp.Source = ans.Source
		resp.Article = ans.Article
	}

	session.Append(models.RoleAssistant, resp.Answer)
	return resp
}
