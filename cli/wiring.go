package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/RosShpakovskiy/bc2-as3/config"
	"github.com/RosShpakovskiy/bc2-as3/services"
	"github.com/RosShpakovskiy/bc2-as3/store"
)

// app holds every wired component for one command invocation.
type app struct {
	store     store.VectorStore
	corpus    *services.Corpus
	indexer   *services.Indexer
	ingest    *services.IngestService
	assistant *services.Assistant
	sessions  *services.SessionStore
}

// Close releases the vector store.
func (a *app) Close() error {
	return a.store.Close()
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	configurePDFLicense(cfg.Document, logger)

	vectorStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(ctx, cfg.Embedding)
	if err != nil {
		vectorStore.Close()
		return nil, err
	}

	chatModel, err := newChatModel(ctx, cfg.LLM)
	if err != nil {
		vectorStore.Close()
		return nil, err
	}

	corpus := &services.Corpus{}
	chunker := services.NewChunker(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	indexer := services.NewIndexer(embedder, vectorStore, cfg.Index.BatchSize, logger)
	retriever := services.NewRetriever(embedder, vectorStore, logger)
	synthesizer := services.NewSynthesizer(chatModel, logger)

	return &app{
		store:     vectorStore,
		corpus:    corpus,
		indexer:   indexer,
		ingest:    services.NewIngestService(cfg.Document.Path, chunker, indexer, vectorStore, corpus, logger),
		assistant: services.NewAssistant(corpus, retriever, synthesizer, cfg.Retrieve.TopK, logger),
		sessions:  services.NewSessionStore(),
	}, nil
}

func configurePDFLicense(doc config.DocumentConfig, logger *zap.Logger) {
	if strings.ToLower(filepath.Ext(doc.Path)) != ".pdf" {
		return
	}
	if err := services.SetPDFLicense(os.Getenv(doc.LicenseKeyEnv)); err != nil {
		logger.Warn("PDF extraction may fail", zap.String("env", doc.LicenseKeyEnv), zap.Error(err))
	}
}

func openStore(ctx context.Context, sc config.StoreConfig) (store.VectorStore, error) {
	switch sc.Type {
	case "chroma":
		return store.OpenChromaStore(ctx, sc.ChromaURL, sc.Collection)
	case "bolt":
		return store.OpenBoltStore(sc.BoltPath)
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %q", sc.Type)
	}
}

func newGeminiClient(ctx context.Context, apiKeyEnv string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  os.Getenv(apiKeyEnv),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w. Make sure %s is set", err, apiKeyEnv)
	}
	return client, nil
}

func newEmbedder(ctx context.Context, ec config.EmbeddingConfig) (embeddings.Embedder, error) {
	var client embeddings.EmbedderClient
	switch ec.Provider {
	case "ollama":
		httpClient := &http.Client{Timeout: config.Timeout(ec.TimeoutSecs)}
		client = services.NewOllamaEmbedder(httpClient, ec.BaseURL, ec.Model)
	case "gemini":
		gc, err := newGeminiClient(ctx, ec.APIKeyEnv)
		if err != nil {
			return nil, err
		}
		client = services.NewGeminiEmbedder(gc, ec.Model)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", ec.Provider)
	}
	return services.NewEmbedder(client, ec.BatchSize)
}

func newChatModel(ctx context.Context, lc config.LLMConfig) (services.ChatModel, error) {
	switch lc.Provider {
	case "ollama":
		llm, err := ollama.New(
			ollama.WithModel(lc.Model),
			ollama.WithServerURL(lc.BaseURL),
			ollama.WithHTTPClient(&http.Client{Timeout: config.Timeout(lc.TimeoutSecs)}),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return services.NewLangChainChatModel(llm, lc.Temperature), nil
	case "gemini":
		gc, err := newGeminiClient(ctx, lc.APIKeyEnv)
		if err != nil {
			return nil, err
		}
		return services.NewGeminiChatModel(gc, lc.Model, lc.Temperature), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", lc.Provider)
	}
}
