package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RosShpakovskiy/bc2-as3/models"
	"github.com/RosShpakovskiy/bc2-as3/store"
)

type assistantFixture struct {
	assistant *Assistant
	model     *fakeChatModel
	embedder  *hashEmbedder
	corpus    *Corpus
}

func newAssistantFixture(t *testing.T, model *fakeChatModel) assistantFixture {
	t.Helper()
	path := writeFixture(t, constitutionFixture)
	embedder := newHashEmbedder()
	s := store.NewMemoryStore()
	corpus := &Corpus{}

	ingest := NewIngestService(path, NewChunker(90, 0), NewIndexer(embedder, s, 100, zap.NewNop()), s, corpus, zap.NewNop())
	res, err := ingest.Ingest(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 4, res.Passages)

	assistant := NewAssistant(corpus, NewRetriever(embedder, s, zap.NewNop()), NewSynthesizer(model, zap.NewNop()), 4, zap.NewNop())
	return assistantFixture{assistant: assistant, model: model, embedder: embedder, corpus: corpus}
}

// quotingModel answers from the first article in the context, the way the
// system prompt instructs.
func quotingModel() *fakeChatModel {
	return &fakeChatModel{reply: func(_, user string) string {
		ctxText := strings.TrimPrefix(user, "CONTEXT:\n")
		ctxText = ctxText[:strings.Index(ctxText, "\n\nQUERY: ")]
		first := strings.SplitN(ctxText, "\n", 2)[0]
		article := ArticleOf(first)
		body := strings.TrimSpace(first[strings.Index(first, ".")+1:])
		return "Article " + article + " states: " + body
	}}
}

func TestAssistant_QuoteArticle(t *testing.T) {
	f := newAssistantFixture(t, quotingModel())

	ans, err := f.assistant.Answer(context.Background(), "Quote Article 12")
	require.NoError(t, err)
	assert.Equal(t, "Article 12 states: Citizens have the right to life and dignity.", ans.Text)
	assert.Equal(t, models.SourceSemantic, ans.Source)
	assert.Equal(t, "12", ans.Article)

	require.Equal(t, 1, f.model.Calls())
	assert.Contains(t, f.model.prompts[0], "Article 12.")
	assert.NotContains(t, f.model.prompts[0], "Article 77.")
}

func TestAssistant_QuotedPhraseShortCircuits(t *testing.T) {
	f := newAssistantFixture(t, quotingModel())

	ans, err := f.assistant.Answer(context.Background(), `What does "the right to a fair trial" mean`)
	require.NoError(t, err)
	assert.Equal(t, "Article 77 states:\n\nArticle 77. Everyone has the right to a fair trial by an independent court.", ans.Text)
	assert.Equal(t, models.SourcePhrase, ans.Source)
	assert.Equal(t, 0, f.model.Calls())
}

func TestAssistant_UnmatchedPhraseFallsBack(t *testing.T) {
	f := newAssistantFixture(t, &fakeChatModel{reply: func(_, _ string) string { return "Not found in Constitution" }})

	ans, err := f.assistant.Answer(context.Background(), `Where is "freedom of the press" guaranteed?`)
	require.NoError(t, err)
	assert.Equal(t, "Not found in Constitution", ans.Text)
	assert.Equal(t, 1, f.model.Calls())
}

func TestAssistant_AbsentTopic(t *testing.T) {
	f := newAssistantFixture(t, quotingModel())

	ans, err := f.assistant.Answer(context.Background(), "What does Article 200 say about space travel?")
	require.NoError(t, err)
	assert.Equal(t, "No relevant constitutional text found for this query.", ans.Text)
	assert.Equal(t, models.SourceNone, ans.Source)
	assert.Equal(t, 0, f.model.Calls())
}

func TestAssistant_EmptyCorpusSkipsPhraseLookup(t *testing.T) {
	model := &fakeChatModel{}
	embedder := newHashEmbedder()
	a := NewAssistant(&Corpus{}, NewRetriever(embedder, store.NewMemoryStore(), zap.NewNop()), NewSynthesizer(model, zap.NewNop()), 4, zap.NewNop())

	ans, err := a.Answer(context.Background(), `"the right to a fair trial"`)
	require.NoError(t, err)
	assert.Equal(t, NoContextAnswer, ans.Text)
	assert.Equal(t, 1, embedder.calls)
}

func TestAssistant_HandleTurn(t *testing.T) {
	f := newAssistantFixture(t, quotingModel())
	sessions := NewSessionStore()
	session := sessions.GetOrCreate("")

	resp := f.assistant.HandleTurn(context.Background(), session, "Quote Article 12")
	assert.Equal(t, session.ID, resp.SessionID)
	assert.Empty(t, resp.Error)

	f.embedder.err = errUnreachable
	resp = f.assistant.HandleTurn(context.Background(), session, "Quote Article 77")
	assert.Equal(t, "Search error: connection refused", resp.Answer)
	assert.NotEmpty(t, resp.Error)

	f.embedder.err = nil
	f.model.err = errUnreachable
	resp = f.assistant.HandleTurn(context.Background(), session, "Quote Article 78")
	assert.Equal(t, "Model error: connection refused", resp.Answer)

	turns, ok := sessions.Transcript(session.ID)
	require.True(t, ok)
	require.Len(t, turns, 6)
	assert.Equal(t, models.ChatTurn{Role: models.RoleUser, Content: "Quote Article 12"}, turns[0])
	assert.Equal(t, models.RoleAssistant, turns[1].Role)
	assert.Equal(t, "Article 12 states: Citizens have the right to life and dignity.", turns[1].Content)
	assert.Equal(t, "Model error: connection refused", turns[5].Content)
}
