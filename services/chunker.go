package services

import (
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/RosShpakovskiy/bc2-as3/models"
)

// Structural markers come first so windows break at article, section and
// chapter boundaries before falling back to paragraphs, lines and words.
var passageSeparators = []string{
	"\nArticle ",
	"\nSection ",
	"\nCHAPTER ",
	"\n\n",
	"\n",
	" ",
	"",
}

var articlePattern = regexp.MustCompile(`(?i)Article (\d+)`)

// Chunker splits the constitution into overlapping, article-tagged passages.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

// NewChunker returns a Chunker producing passages of at most chunkSize
// characters that share chunkOverlap characters with their neighbour.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(passageSeparators),
			textsplitter.WithKeepSeparator(true),
		),
	}
}

// Chunk concatenates the pages and returns passages in document order.
func (c *Chunker) Chunk(pages []string) []models.Passage {
	text := strings.Join(pages, "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// RecursiveCharacter only errors from nested splitters, which are not configured.
	windows, _ := c.splitter.SplitText(text)

	passages := make([]models.Passage, 0, len(windows))
	for _, w := range windows {
		if strings.TrimSpace(w) == "" {
			continue
		}
		passages = append(passages, models.Passage{
			Text:     w,
			Article:  ArticleOf(w),
			Sequence: len(passages),
		})
	}
	return passages
}

// ArticleOf returns the first article number mentioned in text, or "preamble".
func ArticleOf(text string) string {
	if m := articlePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return models.ArticlePreamble
}
