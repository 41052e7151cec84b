// Package redact removes personally identifying information from résumé text
// and shapes documents for the caller's role.
package redact

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/talentrag/internal/domain/document"
)

// Placeholders substituted for redacted spans. None contains a digit or '@',
// so a redacted text never matches a pattern again.
const (
	EmailPlaceholder   = "[EMAIL REDACTED]"
	PhonePlaceholder   = "[PHONE REDACTED]"
	AddressPlaceholder = "[ADDRESS REDACTED]"
	SSNPlaceholder     = "[SSN REDACTED]"
	DOBPlaceholder     = "[DOB REDACTED]"
	NamePlaceholder    = "[NAME REDACTED]"
)

var (
	placeholderRe = regexp.MustCompile(`\[[A-Z]+ REDACTED\]`)

	emailRe   = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phoneRe   = regexp.MustCompile(`(\+\d{1,3}[\s-]?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`)
	addressRe = regexp.MustCompile(`(?i)\d+\s+[\w\s]+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Drive|Dr|Court|Ct|Lane|Ln|Way|Place|Pl)[\w\s,]*\d{5}`)
	ssnRe     = regexp.MustCompile(`\b\d{3}-?\d{2}-?\d{4}\b`)
	dobRe     = regexp.MustCompile(`\b(?:\d{1,2}[/.]\d{1,2}[/.]\d{4}|\d{4}-\d{2}-\d{2})\b`)
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

// Text replaces PII spans with placeholders. The literal email, phone and
// date of birth from info go first, then generic patterns, then name parts
// longer than two characters as whole words.
func Text(text string, info document.PersonalInfo) string {
	if text == "" {
		return ""
	}
	var rules []rule
	if r, ok := literal(info.Email, EmailPlaceholder); ok {
		rules = append(rules, r)
	}
	rules = append(rules, rule{emailRe, EmailPlaceholder})
	if r, ok := literal(info.Phone, PhonePlaceholder); ok {
		rules = append(rules, r)
	}
	rules = append(rules,
		rule{phoneRe, PhonePlaceholder},
		rule{addressRe, AddressPlaceholder},
		rule{ssnRe, SSNPlaceholder},
	)
	if r, ok := literal(info.DateOfBirth, DOBPlaceholder); ok {
		rules = append(rules, r)
	}
	rules = append(rules, rule{dobRe, DOBPlaceholder})
	for _, part := range strings.Fields(info.Name) {
		if len([]rune(part)) <= 2 {
			continue
		}
		rules = append(rules, rule{
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(part) + `\b`),
			repl: NamePlaceholder,
		})
	}

	out := text
	for _, r := range rules {
		out = replaceOutsidePlaceholders(out, r)
	}
	return out
}

func literal(value, placeholder string) (rule, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return rule{}, false
	}
	return rule{regexp.MustCompile(`(?i)` + regexp.QuoteMeta(value)), placeholder}, true
}

// replaceOutsidePlaceholders applies r only to the spans between existing
// placeholders, so a name like "Name" never rewrites "[NAME REDACTED]".
func replaceOutsidePlaceholders(text string, r rule) string {
	locs := placeholderRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return r.re.ReplaceAllLiteralString(text, r.repl)
	}
	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for _, loc := range locs {
		b.WriteString(r.re.ReplaceAllLiteralString(text[prev:loc[0]], r.repl))
		b.WriteString(text[loc[0]:loc[1]])
		prev = loc[1]
	}
	b.WriteString(r.re.ReplaceAllLiteralString(text[prev:], r.repl))
	return b.String()
}
