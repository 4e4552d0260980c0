// Package segment splits flat translatable text into ordered sentence
// segments using locale-selected break rules.
//
// Rule sets follow the SRX idea without the XML: an ordered list of
// (break, before, after) triples, where before is matched against the text
// ending at a candidate boundary and after against the text starting there.
// The first rule whose both contexts match decides break or no-break; no
// matching rule means no break. Rule sets are bound to locales by regex
// patterns over the canonical language tag, first match wins:
//
//	segmentation:
//	  - locales: ["en.*", "de"]
//	    rules:
//	      - break: false
//	        before: '\b(?:Mr|Mrs|Dr)\.'
//	        after: '\s'
//	      - break: true
//	        before: '[.!?]'
//	        after: '\s+[A-Z]'
//
// Locales with no matching set fall back to a built-in minimal English set.
// Splitting is a pure function: identical text, locale and rules always
// yield identical boundaries.
package segment

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
)

// Rule is one ordered break decision. Before and After are regular
// expressions over the boundary context; an empty pattern matches anywhere.
type Rule struct {
	Break  bool   `yaml:"break"`
	Before string `yaml:"before,omitempty"`
	After  string `yaml:"after,omitempty"`
}

// RuleSet binds an ordered rule list to the locales it serves. Locale
// patterns are regular expressions matched case-insensitively against the
// whole canonical language tag.
type RuleSet struct {
	Locales []string `yaml:"locales"`
	Rules   []Rule   `yaml:"rules"`
}

// A Segment is one sentence-level piece of the input text. Start and End are
// byte offsets of the trimmed piece in the original text, so callers can
// recover the whitespace between segments later.
type Segment struct {
	Text  string
	Start int
	End   int
}

// builtinRules segments reasonably for English-like text when no configured
// rule set matches the locale: break after sentence punctuation followed by
// whitespace and an uppercase letter or digit, except after common
// abbreviations.
var builtinRules = []Rule{
	{Break: false, Before: `\b(?:Mr|Mrs|Ms|Dr|Prof|St|vs|etc|e\.g|i\.e|No)\.`, After: `\s`},
	{Break: true, Before: `[.!?;]`, After: `\s+[\p{Lu}\p{N}]`},
}

type compiledRule struct {
	brk    bool
	before *regexp.Regexp // anchored to the end of the left context
	after  *regexp.Regexp // anchored to the start of the right context
}

// Segmenter holds the compiled rule list for one locale. Build one per
// (locale, config) pair and reuse it across units; Split is safe for
// concurrent use.
type Segmenter struct {
	rules []compiledRule
}

// New resolves the rule set for locale and compiles it. Rules with invalid
// patterns are skipped individually and reported in the returned error
// slice; an unresolvable locale or an empty match falls back to the built-in
// set and is not an error.
func New(locale string, sets []RuleSet) (*Segmenter, []error) {
	rules, errs := matchRuleSet(locale, sets)
	if rules == nil {
		rules = builtinRules
	}

	s := &Segmenter{}
	for _, r := range rules {
		before, err := regexp.Compile("(?:" + r.Before + `)\z`)
		if err != nil {
			errs = append(errs, fmt.Errorf("skipping segmentation rule: before pattern %q: %w", r.Before, err))
			continue
		}
		after, err := regexp.Compile(`\A(?:` + r.After + ")")
		if err != nil {
			errs = append(errs, fmt.Errorf("skipping segmentation rule: after pattern %q: %w", r.After, err))
			continue
		}
		s.rules = append(s.rules, compiledRule{brk: r.Break, before: before, after: after})
	}
	if len(s.rules) == 0 && len(rules) > 0 {
		// Every configured rule was invalid: better the built-in set than
		// never breaking at all.
		fallback, _ := New(locale, nil)
		s.rules = fallback.rules
	}
	return s, errs
}

// matchRuleSet returns the first rule set whose locale patterns match the
// canonical form of locale, or nil.
func matchRuleSet(locale string, sets []RuleSet) ([]Rule, []error) {
	if tag, err := language.Parse(locale); err == nil {
		locale = tag.String()
	}
	var errs []error
	for _, set := range sets {
		for _, pat := range set.Locales {
			re, err := regexp.Compile(`(?i)\A(?:` + pat + `)\z`)
			if err != nil {
				errs = append(errs, fmt.Errorf("skipping locale pattern %q: %w", pat, err))
				continue
			}
			if re.MatchString(locale) {
				return set.Rules, errs
			}
		}
	}
	return nil, errs
}

// Split cuts text into ordered, non-overlapping, whitespace-trimmed
// segments covering it. Whitespace-only pieces are dropped; if nothing
// survives, the whole text is returned as a single segment.
func (s *Segmenter) Split(text string) []Segment {
	if text == "" {
		return []Segment{{Text: "", Start: 0, End: 0}}
	}

	var breaks []int
	for i := 1; i < len(text); i++ {
		if !utf8.RuneStart(text[i]) {
			continue
		}
		for _, r := range s.rules {
			if !r.before.MatchString(text[:i]) || !r.after.MatchString(text[i:]) {
				continue
			}
			if r.brk {
				breaks = append(breaks, i)
			}
			break
		}
	}

	var segs []Segment
	start := 0
	for _, b := range append(breaks, len(text)) {
		if from, to := trimOffsets(text, start, b); from < to {
			segs = append(segs, Segment{Text: text[from:to], Start: from, End: to})
		}
		start = b
	}
	if len(segs) == 0 {
		return []Segment{{Text: text, Start: 0, End: len(text)}}
	}
	return segs
}

// trimOffsets narrows [start,end) past leading and trailing whitespace.
func trimOffsets(text string, start, end int) (int, int) {
	for start < end {
		r, size := utf8.DecodeRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	return start, end
}
