// Package protect masks non-translatable substrings (printf/brace style
// placeholders and the variable-bearing leaves of ICU plural/select blocks)
// as opaque tokens before text is handed to translators, and restores them
// afterwards.
//
// Tokens look like {{t1}}, {{t2}}, … and are unique within one masking call.
// The surrounding ICU keyword structure (plural, select, category names like
// "one"/"other") stays literal so translators can see and preserve it; only
// the leaf brace groups are hidden:
//
//	{count, plural, one {1 file} other {# files}}
//	→ {count, plural, one {{t1}} other {{t2}}}
//
// Restoration is forgiving: a token the translator deleted is simply absent
// from the output, and a token with no map entry is left as literal text.
// Both cases surface as validation findings, never as errors.
package protect

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// tokenShape matches the masking token syntax.
var tokenShape = regexp.MustCompile(`\{\{t(\d+)\}\}`)

// icuHead matches the start of an ICU plural/select block up to its second
// comma; the block body is then brace-scanned, not regex-matched.
var icuHead = regexp.MustCompile(`\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*,\s*(plural|select)\s*,`)

// Protector holds a compiled, ordered inline-code pattern set. Build one per
// configuration and reuse it across units; Mask and Unmask are safe for
// concurrent use.
type Protector struct {
	patterns []*regexp.Regexp
}

// New compiles the given patterns in order. Invalid patterns are skipped
// individually and reported in the returned error slice; they never fail the
// whole set.
func New(patterns []string) (*Protector, []error) {
	p := &Protector{}
	var errs []error
	for _, pat := range patterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			errs = append(errs, fmt.Errorf("skipping placeholder pattern %q: %w", pat, err))
			continue
		}
		p.patterns = append(p.patterns, re)
	}
	return p, errs
}

// Mask replaces every protected substring in text with a unique token and
// returns the masked text plus the token → original-literal map. ICU leaf
// masking runs first, then each configured pattern in order; earlier masks
// are never re-scanned by later patterns, and a token is never nested inside
// another token.
func (p *Protector) Mask(text string) (string, map[string]string) {
	r := p.Run(text)
	return r.Mask(text), r.Tokens()
}

// A Run masks several related text pieces with one shared token sequence,
// so tokens stay unique across all pieces of a single segment even when
// inline markup splits the segment text. Not safe for concurrent use.
type Run struct {
	p      *Protector
	next   int
	tokens map[string]string
}

// Run starts a masking run. Token numbering starts above any token-shaped
// substring already present in seed.
func (p *Protector) Run(seed string) *Run {
	return &Run{p: p, next: nextTokenNumber(seed), tokens: make(map[string]string)}
}

// Mask masks one piece, continuing the run's token numbering.
func (r *Run) Mask(piece string) string {
	piece = maskSpans(piece, icuLeaves(piece), &r.next, r.tokens)

	for _, re := range r.p.patterns {
		var spans [][2]int
		for _, m := range re.FindAllStringIndex(piece, -1) {
			spans = append(spans, [2]int{m[0], m[1]})
		}
		piece = maskSpans(piece, dropTokenOverlaps(piece, spans), &r.next, r.tokens)
	}
	return piece
}

// Tokens returns the token map accumulated over the run so far.
func (r *Run) Tokens() map[string]string {
	return r.tokens
}

// Unmask substitutes every token in text with its original literal. Tokens
// missing from the map are kept as literal text.
func Unmask(text string, tokens map[string]string) string {
	if len(tokens) == 0 {
		return text
	}
	return tokenShape.ReplaceAllStringFunc(text, func(tok string) string {
		if lit, ok := tokens[tok]; ok {
			return lit
		}
		return tok
	})
}

// Tokens returns every masking token occurring in text, in order. Used by
// validation to compare source and target token multisets.
func Tokens(text string) []string {
	return tokenShape.FindAllString(text, -1)
}

// Blocks returns one descriptor per ICU plural/select block in text, in
// order: "kind:variable:categories", e.g. "plural:count:one,other".
// Validation compares source and target descriptors to catch destroyed
// blocks and altered category keywords. The descriptor is the same for
// masked and unmasked text, since masking only hides leaf content.
// Unbalanced blocks are skipped, matching the masking behavior.
func Blocks(text string) []string {
	var blocks []string
	from := 0
	for from < len(text) {
		loc := icuHead.FindStringSubmatchIndex(text[from:])
		if loc == nil {
			break
		}
		start := from + loc[0]
		headEnd := from + loc[1]
		variable := text[from+loc[2] : from+loc[3]]
		kind := text[from+loc[4] : from+loc[5]]
		end, _ := braceGroups(text, start)
		if end < 0 {
			from = start + 1
			continue
		}
		cats := blockCategories(text[headEnd : end-1])
		blocks = append(blocks, kind+":"+variable+":"+strings.Join(cats, ","))
		from = end
	}
	return blocks
}

// blockCategories collects the keyword preceding each top-level brace
// group of an ICU block body: "one", "other", "=1", "male". Words not
// followed by a group (like "offset:1") are passed over.
func blockCategories(body string) []string {
	var cats []string
	var current, last string
	depth := 0
	for i := 0; i < len(body); i++ {
		switch c := body[i]; c {
		case '{':
			if depth == 0 {
				cat := current
				if cat == "" {
					cat = last
				}
				if cat != "" {
					cats = append(cats, cat)
				}
				current, last = "", ""
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ' ', '\t', '\n', '\r':
			if depth == 0 && current != "" {
				last, current = current, ""
			}
		default:
			if depth == 0 {
				current += string(c)
			}
		}
	}
	return cats
}

// nextTokenNumber picks the first token number that cannot collide with a
// token-shaped substring already present in the source text.
func nextTokenNumber(text string) int {
	next := 1
	for _, m := range tokenShape.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= next {
			next = n + 1
		}
	}
	return next
}

// maskSpans replaces the given half-open spans of text with fresh tokens,
// left to right. Spans must be non-overlapping and sorted.
func maskSpans(text string, spans [][2]int, next *int, tokens map[string]string) string {
	if len(spans) == 0 {
		return text
	}
	var b []byte
	last := 0
	for _, sp := range spans {
		tok := "{{t" + strconv.Itoa(*next) + "}}"
		*next++
		tokens[tok] = text[sp[0]:sp[1]]
		b = append(b, text[last:sp[0]]...)
		b = append(b, tok...)
		last = sp[1]
	}
	b = append(b, text[last:]...)
	return string(b)
}

// dropTokenOverlaps filters out candidate spans that overlap an existing
// token occurrence, keeping first-pattern-first-match precedence intact.
func dropTokenOverlaps(text string, spans [][2]int) [][2]int {
	if len(spans) == 0 {
		return nil
	}
	existing := tokenShape.FindAllStringIndex(text, -1)
	if len(existing) == 0 {
		return spans
	}
	var out [][2]int
	for _, sp := range spans {
		overlaps := false
		for _, ex := range existing {
			if sp[0] < ex[1] && ex[0] < sp[1] {
				overlaps = true
				break
			}
		}
		if !overlaps {
			out = append(out, sp)
		}
	}
	return out
}

// icuLeaves locates the leaf brace groups of every ICU plural/select block in
// text, returned as sorted non-overlapping spans. A leaf is a brace group
// with no nested brace group, e.g. {# files} inside a plural block. Blocks
// with unbalanced braces are left alone.
func icuLeaves(text string) [][2]int {
	var leaves [][2]int
	from := 0
	for from < len(text) {
		loc := icuHead.FindStringIndex(text[from:])
		if loc == nil {
			break
		}
		start := from + loc[0]
		end, groups := braceGroups(text, start)
		if end < 0 {
			// Unbalanced block: skip the opening brace and keep scanning.
			from = start + 1
			continue
		}
		for _, g := range groups {
			if g.leaf {
				leaves = append(leaves, [2]int{g.start, g.end})
			}
		}
		from = end
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i][0] < leaves[j][0] })
	return leaves
}

type braceGroup struct {
	start, end int
	leaf       bool
}

// braceGroups scans the brace-balanced block opening at text[open] and
// returns its end offset (exclusive) plus every nested brace group, marking
// groups that contain no deeper group as leaves. Returns end = -1 when the
// block never closes.
func braceGroups(text string, open int) (int, []braceGroup) {
	var (
		groups []braceGroup
		stack  []int // indexes into groups
	)
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
			if depth > 1 {
				if len(stack) > 0 {
					groups[stack[len(stack)-1]].leaf = false
				}
				groups = append(groups, braceGroup{start: i, leaf: true})
				stack = append(stack, len(groups)-1)
			}
		case '}':
			depth--
			if depth < 0 {
				return -1, nil
			}
			if depth >= 1 {
				groups[stack[len(stack)-1]].end = i + 1
				stack = stack[:len(stack)-1]
			}
			if depth == 0 {
				return i + 1, groups
			}
		}
	}
	return -1, nil
}
