package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RosShpakovskiy/bc2-as3/models"
)

const preambleText = "We, the people, united by a common historical destiny, adopt this Constitution."

func articleText(n int) string {
	return fmt.Sprintf("Article %d. %s", n, strings.Repeat("The state guarantees these rights. ", 17))
}

func TestChunker_TagsPassagesByArticle(t *testing.T) {
	chunker := NewChunker(1000, 200)

	pages := []string{preambleText, articleText(1), articleText(2), articleText(3)}
	passages := chunker.Chunk(pages)

	require.Len(t, passages, 3)
	assert.Equal(t, "1", passages[0].Article)
	assert.True(t, strings.HasPrefix(passages[0].Text, preambleText))
	assert.Equal(t, "2", passages[1].Article)
	assert.True(t, strings.HasPrefix(passages[1].Text, "Article 2."))
	assert.Equal(t, "3", passages[2].Article)

	for i, p := range passages {
		assert.Equal(t, i, p.Sequence)
		assert.LessOrEqual(t, len([]rune(p.Text)), 1000)
	}
}

func TestChunker_MarkersStayWithTheirArticle(t *testing.T) {
	chunker := NewChunker(1000, 200)

	text := preambleText + "\n" + articleText(7) + "\n" + articleText(8) + "\n" + articleText(9)
	passages := chunker.Chunk([]string{text})

	require.Len(t, passages, 3)
	for i, p := range passages {
		assert.Equal(t, fmt.Sprint(7+i), p.Article)
		assert.Contains(t, p.Text, "Article "+p.Article+".")
	}
	// later articles open their passage
	assert.True(t, strings.HasPrefix(passages[1].Text, "Article 8."))
	assert.True(t, strings.HasPrefix(passages[2].Text, "Article 9."))
}

func TestChunker_NoMarkersDegradesToPreamble(t *testing.T) {
	chunker := NewChunker(1000, 200)

	words := make([]string, 500)
	for i := range words {
		words[i] = fmt.Sprintf("w%04d", i)
	}
	source := strings.Join(words, " ")

	passages := chunker.Chunk([]string{source})
	require.Greater(t, len(passages), 1)

	for _, p := range passages {
		assert.Equal(t, models.ArticlePreamble, p.Article)
		assert.LessOrEqual(t, len(p.Text), 1000)
		assert.Contains(t, source, p.Text)
	}
}

func TestChunker_ReconstructsTextModuloOverlap(t *testing.T) {
	chunker := NewChunker(1000, 200)

	words := make([]string, 500)
	for i := range words {
		words[i] = fmt.Sprintf("w%04d", i)
	}
	source := strings.Join(words, " ")

	passages := chunker.Chunk([]string{source})
	require.NotEmpty(t, passages)

	rebuilt := passages[0].Text
	for _, p := range passages[1:] {
		overlap := 0
		for k := len(p.Text); k > 0; k-- {
			if strings.HasSuffix(rebuilt, p.Text[:k]) {
				overlap = k
				break
			}
		}
		assert.LessOrEqual(t, overlap, 200)
		if overlap == 0 {
			rebuilt += " " + p.Text
			continue
		}
		rebuilt += p.Text[overlap:]
	}

	assert.Equal(t, source, rebuilt)
}

func TestChunker_EmptyDocument(t *testing.T) {
	chunker := NewChunker(1000, 200)

	assert.Empty(t, chunker.Chunk(nil))
	assert.Empty(t, chunker.Chunk([]string{"", "   \n"}))
}

func TestArticleOf(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Article 12. Citizens have the right to...", "12"},
		{"as set out in ARTICLE 44 of this text", "44"},
		{"Article 3 refers to Article 4", "3"},
		{"Articles 3 and 4 are repealed", models.ArticlePreamble},
		{"Article XII uses roman numerals", models.ArticlePreamble},
		{"The people of Kazakhstan", models.ArticlePreamble},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ArticleOf(tt.text))
		})
	}
}
