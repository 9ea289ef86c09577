package services

import (
	"context"
	"regexp"

	"github.com/tmc/langchaingo/embeddings"
	"go.uber.org/zap"

	"github.com/RosShpakovskiy/bc2-as3/models"
	"github.com/RosShpakovskiy/bc2-as3/store"
)

// Tried in order; the first match wins.
var articleQueryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)article (\d+)`),
	regexp.MustCompile(`(?i)art\.? (\d+)`),
	regexp.MustCompile(`(?i)\b(\d+)(?:th|st|nd|rd) article`),
}

// ExtractArticleNumber finds an explicit article reference in a query.
func ExtractArticleNumber(query string) (string, bool) {
	for _, p := range articleQueryPatterns {
		if m := p.FindStringSubmatch(query); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// Retriever embeds queries and searches the vector store.
type Retriever struct {
	embedder embeddings.Embedder
	store    store.VectorStore
	logger   *zap.Logger
}

// NewRetriever returns a Retriever over vectorStore. The embedder must be the
// one the store was indexed with.
func NewRetriever(embedder embeddings.Embedder, vectorStore store.VectorStore, logger *zap.Logger) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    vectorStore,
		logger:   logger.Named("retriever"),
	}
}

// Retrieve returns up to k passage texts nearest to query. When the query
// names an article the search is restricted to that article.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	var filter *store.Filter
	if article, ok := ExtractArticleNumber(query); ok {
		filter = &store.Filter{Key: models.MetaArticle, Value: article}
	}
	return r.RetrieveFiltered(ctx, query, filter, k)
}

// RetrieveFiltered runs the search with an explicit filter (nil searches everything).
func (r *Retriever) RetrieveFiltered(ctx context.Context, query string, filter *store.Filter, k int) ([]string, error) {
	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, &RetrievalError{Op: "embed query", Err: err}
	}

	matches, err := r.store.Query(ctx, queryEmbedding, k, filter)
	if err != nil {
		return nil, &RetrievalError{Op: "search store", Err: err}
	}

	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		texts = append(texts, m.Document)
	}

	if filter != nil {
		r.logger.Debug("retrieved passages", zap.String("article", filter.Value), zap.Int("count", len(texts)))
	} else {
		r.logger.Debug("retrieved passages", zap.Int("count", len(texts)))
	}
	return texts, nil
}
