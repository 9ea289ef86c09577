package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/RosShpakovskiy/bc2-as3/models"
)

// ChromaStore keeps entries in a Chroma collection.
//
// Chroma ignores adds whose id already exists instead of failing, so
// re-indexing into a populated collection is a silent no-op per entry.
type ChromaStore struct {
	client     chromago.Client
	collection chromago.Collection
}

var _ VectorStore = (*ChromaStore)(nil)

// errPrecomputed is returned when chroma asks the collection to embed text.
var errPrecomputed = errors.New("embeddings are computed by the indexer")

// precomputedEmbeddings satisfies chroma's embedding function contract
// without a local model. Every add and query carries its own vectors.
type precomputedEmbeddings struct{}

func (precomputedEmbeddings) EmbedDocuments(context.Context, []string) ([]embeddings.Embedding, error) {
	return nil, errPrecomputed
}

func (precomputedEmbeddings) EmbedQuery(context.Context, string) (embeddings.Embedding, error) {
	return nil, errPrecomputed
}

// OpenChromaStore connects to the Chroma server at baseURL and gets or
// creates the named collection.
func OpenChromaStore(ctx context.Context, baseURL, collectionName string) (*ChromaStore, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}

	collection, err := client.GetOrCreateCollection(
		ctx,
		collectionName,
		chromago.WithEmbeddingFunctionCreate(precomputedEmbeddings{}),
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "Constitution passages with article metadata"),
				chromago.NewStringAttribute("created_by", "constitution_indexer"),
				chromago.NewStringAttribute("hnsw:space", "cosine"),
			),
		),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get or create collection %q: %w", collectionName, err)
	}

	return &ChromaStore{client: client, collection: collection}, nil
}

// Add writes entries with their precomputed vectors.
func (s *ChromaStore) Add(ctx context.Context, entries []models.IndexEntry) error {
	if err := validateEntries(entries); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	ids := make([]chromago.DocumentID, 0, len(entries))
	texts := make([]string, 0, len(entries))
	vectors := make([]embeddings.Embedding, 0, len(entries))
	metadatas := make([]chromago.DocumentMetadata, 0, len(entries))

	for _, e := range entries {
		ids = append(ids, chromago.DocumentID(e.ID))
		texts = append(texts, e.Document)
		vectors = append(vectors, embeddings.NewEmbeddingFromFloat32(e.Embedding))
		metadatas = append(metadatas, toChromaMetadata(e.Metadata))
	}

	err := s.collection.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(vectors...),
		chromago.WithMetadatas(metadatas...),
	)
	if err != nil {
		return fmt.Errorf("failed to add %d entries to chromadb: %w", len(entries), err)
	}
	return nil
}

// Query returns the k nearest entries. Score is 1 minus the chroma distance.
func (s *ChromaStore) Query(ctx context.Context, embedding []float32, k int, filter *Filter) ([]Match, error) {
	if k <= 0 {
		return []Match{}, nil
	}

	count, err := s.collection.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count items in collection: %w", err)
	}
	if count == 0 {
		return []Match{}, nil
	}

	opts := []chromago.CollectionQueryOption{
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(embedding)),
		chromago.WithNResults(k),
	}
	if filter != nil {
		opts = append(opts, chromago.WithWhereQuery(chromago.EqString(filter.Key, filter.Value)))
	}

	results, err := s.collection.Query(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromadb: %w", err)
	}

	matches := []Match{}
	documentGroups := results.GetDocumentsGroups()
	if len(documentGroups) == 0 {
		return matches, nil
	}
	idGroups := results.GetIDGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()

	for i, doc := range documentGroups[0] {
		text := doc.ContentString()
		if text == "" {
			continue
		}
		match := Match{Document: text}
		if len(idGroups) > 0 && i < len(idGroups[0]) {
			match.ID = string(idGroups[0][i])
		}
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
			match.Metadata = fromChromaMetadata(metadataGroups[0][i])
		}
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			match.Score = 1 - float64(distanceGroups[0][i])
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// Count returns the number of entries in the collection.
func (s *ChromaStore) Count(ctx context.Context) (int, error) {
	count, err := s.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count items in collection: %w", err)
	}
	return count, nil
}

// DeleteWhere removes every entry whose metadata key equals value.
func (s *ChromaStore) DeleteWhere(ctx context.Context, key, value string) error {
	where := chromago.EqString(key, value)
	if err := s.collection.Delete(ctx, chromago.WithWhereDelete(where)); err != nil {
		return fmt.Errorf("failed to delete entries where %s=%s: %w", key, value, err)
	}
	return nil
}

// MetadataValues lists the distinct sorted values of key across the collection.
func (s *ChromaStore) MetadataValues(ctx context.Context, key string) ([]string, error) {
	results, err := s.collection.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents from chromadb: %w", err)
	}

	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, meta := range results.GetMetadatas() {
		v, ok := fromChromaMetadata(meta)[key]
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}

// Close releases the client, including any local embedding functions it holds.
func (s *ChromaStore) Close() error {
	return s.client.Close()
}

func toChromaMetadata(metadata map[string]string) chromago.DocumentMetadata {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]*chromago.MetaAttribute, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, chromago.NewStringAttribute(k, metadata[k]))
	}
	return chromago.NewDocumentMetadata(attrs...)
}

// fromChromaMetadata flattens chroma metadata into string values.
// DocumentMetadata has no public accessor for all values, so it goes through JSON.
func fromChromaMetadata(meta chromago.DocumentMetadata) map[string]string {
	out := make(map[string]string)
	if meta == nil {
		return out
	}
	jsonBytes, err := json.Marshal(meta)
	if err != nil {
		return out
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &raw); err != nil {
		return out
	}
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
