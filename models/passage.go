package models

// Article tags used when a passage carries no "Article <N>" marker.
const (
	ArticlePreamble = "preamble"
	ArticleUnknown  = "unknown"
)

// Metadata keys written alongside every index entry.
const (
	MetaArticle    = "article"
	MetaSourceFile = "source_file"
	MetaFileHash   = "file_hash"
)

// Passage is a chunk of the constitution tagged with the article it belongs to.
type Passage struct {
	Text     string `json:"text"`
	Article  string `json:"article"`
	Sequence int    `json:"sequence"`
}

// IndexEntry is a single record in the vector store.
type IndexEntry struct {
	ID        string            `json:"id"`
	Embedding []float32         `json:"embedding"`
	Metadata  map[string]string `json:"metadata"`
	Document  string            `json:"document"`
}

// PhraseMatch is the passage that contains a quoted phrase.
type PhraseMatch struct {
	Article string `json:"article"`
	Text    string `json:"text"`
}

// GetPassagesResponse is the structure for the response of the GET /passages endpoint.
type GetPassagesResponse struct {
	Count    int       `json:"count"`
	Passages []Passage `json:"passages"`
}
