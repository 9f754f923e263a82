package extract

import (
	"regexp"
	"strings"

	"github.com/team-sakkal/caoscan/internal/model"
)

// percentPattern matches a percentage literal: a digit, optional digits
// with thousand/decimal punctuation, optional space, percent sign.
var percentPattern = regexp.MustCompile(`\d[\d.,]*\s?%`)

var whitespacePattern = regexp.MustCompile(`\s+`)

// SentenceExtractor finds sentences that plausibly describe a wage
// increase: a wage-domain keyword and a percentage literal in the same
// sentence. It is a recall-oriented filter; false positives are expected
// and weeded out by the classifier downstream.
type SentenceExtractor struct {
	keywords []string
}

// NewSentenceExtractor creates an extractor with the given keyword set.
// An empty set falls back to the default wage-domain keywords.
func NewSentenceExtractor(keywords []string) *SentenceExtractor {
	if len(keywords) == 0 {
		keywords = model.DefaultKeywords
	}
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &SentenceExtractor{keywords: lowered}
}

// Candidates returns the candidate sentences of text, in order of
// appearance. Empty input yields an empty result, not an error.
func (e *SentenceExtractor) Candidates(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	normalized := strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))

	var candidates []string
	for _, sentence := range splitSentences(normalized) {
		lower := strings.ToLower(sentence)

		hasKeyword := false
		for _, kw := range e.keywords {
			if strings.Contains(lower, kw) {
				hasKeyword = true
				break
			}
		}
		if !hasKeyword {
			continue
		}
		if !percentPattern.MatchString(lower) {
			continue
		}
		candidates = append(candidates, strings.TrimSpace(sentence))
	}
	return candidates
}

// splitSentences splits normalized text into sentence-like units at
// boundaries following '.', '?' or '!'. The input has whitespace already
// collapsed, so a boundary is terminator-then-space.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)

		if r == '.' || r == '?' || r == '!' {
			if i+1 >= len(runes) || runes[i+1] == ' ' {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
