package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/tmc/langchaingo/embeddings"
	"go.uber.org/zap"

	"github.com/RosShpakovskiy/bc2-as3/models"
	"github.com/RosShpakovskiy/bc2-as3/store"
)

// ProgressFunc is called after every batch written to the store.
type ProgressFunc func(done, total int)

// Indexer embeds passages and writes them to the vector store.
type Indexer struct {
	embedder  embeddings.Embedder
	store     store.VectorStore
	batchSize int
	logger    *zap.Logger

	// Source metadata attached to every entry.
	SourceFile string
	FileHash   string
	Progress   ProgressFunc
}

// NewIndexer returns an Indexer writing batchSize entries per store call.
// A non-positive batchSize falls back to 100.
func NewIndexer(embedder embeddings.Embedder, vectorStore store.VectorStore, batchSize int, logger *zap.Logger) *Indexer {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Indexer{
		embedder:  embedder,
		store:     vectorStore,
		batchSize: batchSize,
		logger:    logger.Named("indexer"),
	}
}

// EntryID is the store id of a passage.
func EntryID(p models.Passage) string {
	article := p.Article
	if article == "" {
		article = models.ArticleUnknown
	}
	return fmt.Sprintf("art_%s_%d", article, p.Sequence)
}

// Index embeds every passage in one request and stores the results.
// It is not idempotent: indexing the same passages twice collides on ids.
func (ix *Indexer) Index(ctx context.Context, passages []models.Passage) error {
	if len(passages) == 0 {
		return nil
	}

	// the embedder may rewrite its input in place
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}

	vectors, err := ix.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return &IndexError{Op: "embed passages", Err: err}
	}
	if len(vectors) != len(passages) {
		return &IndexError{Op: "embed passages", Err: fmt.Errorf("got %d embeddings for %d passages", len(vectors), len(passages))}
	}

	entries := make([]models.IndexEntry, len(passages))
	for i, p := range passages {
		if len(vectors[i]) == 0 {
			return &IndexError{Op: "embed passages", Err: fmt.Errorf("empty embedding for passage %d", p.Sequence)}
		}
		article := p.Article
		if article == "" {
			article = models.ArticleUnknown
		}
		metadata := map[string]string{models.MetaArticle: article}
		if ix.SourceFile != "" {
			metadata[models.MetaSourceFile] = ix.SourceFile
		}
		if ix.FileHash != "" {
			metadata[models.MetaFileHash] = ix.FileHash
		}
		entries[i] = models.IndexEntry{
			ID:        EntryID(p),
			Embedding: vectors[i],
			Metadata:  metadata,
			Document:  p.Text,
		}
	}

	for start := 0; start < len(entries); start += ix.batchSize {
		end := min(start+ix.batchSize, len(entries))
		if err := ix.store.Add(ctx, entries[start:end]); err != nil {
			return &IndexError{Op: "write store", Err: err}
		}
		if ix.Progress != nil {
			ix.Progress(end, len(entries))
		}
	}

	ix.logger.Info("indexed passages", zap.Int("count", len(entries)), zap.String("source", ix.SourceFile))
	return nil
}

// Corpus holds the passages of the loaded document for exact-phrase lookup.
type Corpus struct {
	mu       sync.RWMutex
	passages []models.Passage
}

// Set replaces the passages. A nil slice empties the corpus.
func (c *Corpus) Set(passages []models.Passage) {
	c.mu.Lock()
	c.passages = passages
	c.mu.Unlock()
}

// Passages returns the current passages. The slice must not be modified.
func (c *Corpus) Passages() []models.Passage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.passages
}

// Len returns the number of passages held.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.passages)
}

// IngestResult summarises one ingestion run.
type IngestResult struct {
	Passages int
	Indexed  bool
	Skipped  bool
}

// IngestService loads, chunks and indexes the source document.
type IngestService struct {
	path    string
	chunker *Chunker
	indexer *Indexer
	store   store.VectorStore
	corpus  *Corpus
	logger  *zap.Logger

	mu sync.Mutex
}

// NewIngestService returns a service for the document at path. The path is
// made absolute so relative and absolute spellings share one index state.
func NewIngestService(path string, chunker *Chunker, indexer *Indexer, vectorStore store.VectorStore, corpus *Corpus, logger *zap.Logger) *IngestService {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &IngestService{
		path:    path,
		chunker: chunker,
		indexer: indexer,
		store:   vectorStore,
		corpus:  corpus,
		logger:  logger.Named("indexer"),
	}
}

// Path is the source document being ingested.
func (s *IngestService) Path() string { return s.path }

// Ingest loads the document and brings the index up to date. The corpus is
// published before indexing so phrase lookup works when indexing fails.
// A store built from this exact path and hash is skipped unless force is set.
// Anything else, including entries left by another path, is cleared and rebuilt.
func (s *IngestService) Ingest(ctx context.Context, force bool) (IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pages, err := LoadDocumentPages(s.path)
	if err != nil {
		s.corpus.Set(nil)
		return IngestResult{}, err
	}

	passages := s.chunker.Chunk(pages)
	s.corpus.Set(passages)
	s.logger.Info("split document", zap.String("path", s.path), zap.Int("pages", len(pages)), zap.Int("passages", len(passages)))
	result := IngestResult{Passages: len(passages)}

	hash, err := calculateFileHash(s.path)
	if err != nil {
		return result, &LoadError{Path: s.path, Err: err}
	}

	current, err := s.isCurrent(ctx, hash)
	if err != nil {
		return result, &IndexError{Op: "read index state", Err: err}
	}

	if current && !force {
		s.logger.Info("document unchanged, skipping index", zap.String("path", s.path))
		result.Skipped = true
		return result, nil
	}
	s.logger.Info("clearing previous entries", zap.String("path", s.path), zap.Bool("force", force))
	if err := s.clearIndex(ctx); err != nil {
		return result, &IndexError{Op: "clear previous entries", Err: err}
	}

	s.indexer.SourceFile = s.path
	s.indexer.FileHash = hash
	if err := s.indexer.Index(ctx, passages); err != nil {
		// drop partial batches so the next run does not mistake them for a complete build
		if derr := s.clearIndex(ctx); derr != nil {
			s.logger.Warn("could not roll back partial index", zap.Error(derr))
		}
		return result, err
	}
	result.Indexed = true
	return result, nil
}

// isCurrent reports whether every stored entry comes from one build of this
// path with the given file hash.
func (s *IngestService) isCurrent(ctx context.Context, hash string) (bool, error) {
	sources, err := s.store.MetadataValues(ctx, models.MetaSourceFile)
	if err != nil {
		return false, err
	}
	if !slices.Equal(sources, []string{s.path}) {
		return false, nil
	}

	hashes, err := s.store.MetadataValues(ctx, models.MetaFileHash)
	if err != nil {
		return false, err
	}
	return slices.Equal(hashes, []string{hash}), nil
}

// clearIndex removes every entry in the store. Each entry carries an article
// tag, so deleting per article value empties the collection.
func (s *IngestService) clearIndex(ctx context.Context) error {
	count, err := s.store.Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	articles, err := s.store.MetadataValues(ctx, models.MetaArticle)
	if err != nil {
		return err
	}
	for _, article := range articles {
		if err := s.store.DeleteWhere(ctx, models.MetaArticle, article); err != nil {
			return err
		}
	}
	return nil
}

// Clear empties the corpus and the store.
func (s *IngestService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corpus.Set(nil)
	if err := s.clearIndex(ctx); err != nil {
		return &IndexError{Op: "clear entries", Err: err}
	}
	return nil
}

// Watch re-ingests the document whenever it is written or created and clears
// its entries when it is removed. It blocks until ctx is cancelled.
func (s *IngestService) Watch(ctx context.Context) error {
	logger := s.logger.Named("watcher")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("watching document", zap.String("path", s.path))

	target := filepath.Clean(s.path)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			logger.Debug("file event", zap.String("event", event.String()))

			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				logger.Info("document modified, re-indexing", zap.String("path", event.Name))
				if _, err := s.Ingest(ctx, true); err != nil {
					logger.Warn("re-index failed", zap.Error(err))
				}
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				logger.Info("document removed, clearing index", zap.String("path", event.Name))
				if err := s.Clear(ctx); err != nil {
					logger.Warn("clear failed", zap.Error(err))
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))

		case <-ctx.Done():
			logger.Info("context cancelled, shutting down watcher")
			return nil
		}
	}
}

func calculateFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
