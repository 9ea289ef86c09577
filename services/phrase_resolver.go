package services

import (
	"regexp"
	"strings"

	"github.com/RosShpakovskiy/bc2-as3/models"
)

var quotedPhrasePattern = regexp.MustCompile(`"([^"]+)"`)

// QuotedPhrase returns the first double-quoted span of query.
func QuotedPhrase(query string) (string, bool) {
	m := quotedPhrasePattern.FindStringSubmatch(query)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ResolvePhrase scans passages in sequence order for a case-insensitive
// occurrence of phrase and returns the first owning passage.
func ResolvePhrase(phrase string, passages []models.Passage) (models.PhraseMatch, bool) {
	needle := strings.ToLower(phrase)
	for _, p := range passages {
		if !strings.Contains(strings.ToLower(p.Text), needle) {
			continue
		}
		article := p.Article
		if article == "" {
			article = models.ArticleUnknown
		}
		return models.PhraseMatch{Article: article, Text: p.Text}, true
	}
	return models.PhraseMatch{}, false
}
