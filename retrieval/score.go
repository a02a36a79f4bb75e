// Package retrieval ranks documents against a question by keyword overlap.
package retrieval

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fabfab/learning-assistant/documents"
)

// DefaultTopN is the number of documents selected as answer context.
const DefaultTopN = 2

// minKeywordLen is the longest word still treated as a stop word.
const minKeywordLen = 3

type Scored struct {
	Name  string
	Score int
}

// Keywords lowercases the question and keeps the words longer than three
// characters, in question order. Repeated words are kept.
func Keywords(question string) []string {
	words := strings.Fields(lower(question))
	keywords := make([]string, 0, len(words))
	for _, word := range words {
		if utf8.RuneCountInString(word) > minKeywordLen {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

// Rank scores every document by the total number of substring occurrences of
// the question keywords in its lowercased content. Documents scoring zero are
// dropped; the rest are ordered by descending score, ties keeping input order.
func Rank(question string, docs []documents.Document) []Scored {
	keywords := Keywords(question)
	if len(keywords) == 0 {
		return nil
	}

	ranked := make([]Scored, 0, len(docs))
	for _, doc := range docs {
		content := lower(doc.Content)
		score := 0
		for _, word := range keywords {
			score += strings.Count(content, word)
		}
		if score > 0 {
			ranked = append(ranked, Scored{Name: doc.Name, Score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Score returns the names of at most topN documents relevant to question.
func Score(question string, docs []documents.Document, topN int) []string {
	if topN <= 0 {
		return []string{}
	}

	ranked := Rank(question, docs)
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.Name
	}
	return names
}

// lower builds a fresh Caser per call; casers are not safe for concurrent use.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}
