// Package snippet picks the sentences of a text most relevant to a query.
package snippet

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLength is the excerpt length used when the caller passes none.
const DefaultMaxLength = 200

// minSentenceLen drops headings and fragments; only longer sentences compete.
const minSentenceLen = 20

var sentenceSplitRe = regexp.MustCompile(`[.!?]+`)

type scored struct {
	text  string
	score int
}

// Extract returns an excerpt of text of at most maxLength runes (plus an
// ellipsis when shortened). Sentences are ranked by whole-word occurrences of
// query words longer than two characters; without any hit the excerpt is the
// head of the text. Empty text yields "".
func Extract(text, query string, maxLength int) string {
	if text == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	var sentences []scored
	for _, s := range sentenceSplitRe.Split(text, -1) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > minSentenceLen {
			sentences = append(sentences, scored{text: s})
		}
	}
	if len(sentences) == 0 {
		return head(text, maxLength)
	}

	keywords := keywordPatterns(query)
	for i := range sentences {
		lower := strings.ToLower(sentences[i].text)
		for _, re := range keywords {
			sentences[i].score += len(re.FindAllStringIndex(lower, -1))
		}
	}
	sort.SliceStable(sentences, func(i, j int) bool {
		return sentences[i].score > sentences[j].score
	})

	var b strings.Builder
	length := 0
	for _, s := range sentences {
		if s.score == 0 {
			break
		}
		n := utf8.RuneCountInString(s.text)
		if length+n >= maxLength {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s.text)
		length += n
	}
	if b.Len() == 0 {
		return head(text, maxLength)
	}
	return withEllipsis(b.String(), text)
}

func head(text string, maxLength int) string {
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	return string([]rune(text)[:maxLength]) + "..."
}

func withEllipsis(excerpt, text string) string {
	if utf8.RuneCountInString(excerpt) < utf8.RuneCountInString(text) {
		return excerpt + "..."
	}
	return excerpt
}

func keywordPatterns(query string) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(w) <= 2 {
			continue
		}
		out = append(out, regexp.MustCompile(`\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return out
}
