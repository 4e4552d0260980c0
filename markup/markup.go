// Package markup decomposes mixed cell content (HTML fragments, plain text)
// into three parallel parts: a block-level skeleton, a table of inline spans,
// and flat translatable text.
//
// The skeleton is a sequence of tagged pieces rather than a marker-bearing
// string, so literal cell text can never collide with a marker:
//
//	Literal("<p>") TextSlot(0) SpanOpen(1) TextSlot(1) SpanClose(1) Literal("</p>")
//
// Inline tags (bold, links, code and friends) become numbered spans whose
// original opening and closing tag text is captured byte-for-byte, including
// attribute order and quoting. Block tags and whitespace-only text nodes stay
// verbatim in the skeleton. Everything else is concatenated, in document
// order, into the flat text that translators actually see.
//
// Decompose never fails: input that does not tokenize into balanced markup
// degrades to a single opaque text block, so the pipeline falls back to
// plain-text behavior instead of rejecting the cell.
package markup

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// PieceKind identifies what a skeleton piece stands for.
type PieceKind int

const (
	// PieceLiteral is verbatim non-translatable markup: block tags,
	// comments, whitespace-only text nodes.
	PieceLiteral PieceKind = iota
	// PieceText marks where a translatable text chunk is reinserted.
	PieceText
	// PieceOpen marks the opening boundary of an inline span.
	PieceOpen
	// PieceClose marks the closing boundary of an inline span.
	PieceClose
	// PieceSelf marks a standalone inline span (void elements like <br>).
	PieceSelf
)

// Piece is one element of the skeleton sequence.
type Piece struct {
	Kind PieceKind `json:"k"`
	// Text is the verbatim markup for PieceLiteral pieces.
	Text string `json:"t,omitempty"`
	// Slot is the text chunk index for PieceText pieces.
	Slot int `json:"n,omitempty"`
	// Span is the span table id for PieceOpen/PieceClose/PieceSelf pieces.
	Span int `json:"s,omitempty"`
}

// Attr is a single parsed attribute. Values are entity-unescaped; the
// byte-exact form lives in the owning span's RawOpen.
type Attr struct {
	Name  string `json:"n"`
	Value string `json:"v"`
}

// Span is one inline element tracked across decomposition and reassembly.
// Ids start at 1 and increase in document order; they are never reused even
// when the same tag repeats.
type Span struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	// Attrs holds the parsed attributes in source order.
	Attrs []Attr `json:"attrs,omitempty"`
	// RawOpen is the exact opening tag text, e.g. `<a href="/shop" class=x>`.
	RawOpen string `json:"open"`
	// RawClose is the exact closing tag text; empty for standalone spans.
	RawClose string `json:"close,omitempty"`
	// Standalone is true for void elements (<br>, <img ...>): the span has
	// no closing tag and wraps no text.
	Standalone bool `json:"standalone,omitempty"`
	// Start and End are the span's boundary offsets in the flat text.
	// Start == End for standalone spans.
	Start int `json:"start"`
	End   int `json:"end"`
}

// Slot records where one text chunk lives inside the flat text.
type Slot struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Decomposition is the full result of decomposing one cell. The JSON form
// is what travels in interchange-file notes.
type Decomposition struct {
	Skeleton []Piece `json:"skeleton"`
	Spans    []Span  `json:"spans,omitempty"`
	// Text is the flat translatable text: every non-whitespace text node's
	// literal content concatenated in document order, with no markup.
	Text  string `json:"text"`
	Slots []Slot `json:"slots,omitempty"`
	// Opaque is true when the input did not tokenize into balanced markup
	// and the whole cell degraded to a single plain-text chunk.
	Opaque bool `json:"opaque,omitempty"`
}

// Chunk returns the source text of one slot.
func (d *Decomposition) Chunk(slot int) string {
	if slot < 0 || slot >= len(d.Slots) {
		return ""
	}
	s := d.Slots[slot]
	return d.Text[s.Start:s.End]
}

// SpanByID returns the span table entry for id, or nil.
func (d *Decomposition) SpanByID(id int) *Span {
	if id < 1 || id > len(d.Spans) {
		return nil
	}
	return &d.Spans[id-1]
}

// Options configures decomposition. The zero value uses the default inline
// tag set.
type Options struct {
	// InlineTags overrides the set of tag names treated as inline spans.
	// Nil means DefaultInlineTags. Names are matched lower-cased.
	InlineTags map[string]bool
}

func (o Options) inline(name string) bool {
	if o.InlineTags != nil {
		return o.InlineTags[name]
	}
	return DefaultInlineTags[name]
}

// DefaultInlineTags is the built-in inline element set: emphasis, anchors,
// code and span-like tags. Everything else is treated as block-level.
var DefaultInlineTags = map[string]bool{
	"a":      true,
	"abbr":   true,
	"b":      true,
	"bdi":    true,
	"bdo":    true,
	"br":     true,
	"code":   true,
	"em":     true,
	"i":      true,
	"img":    true,
	"kbd":    true,
	"mark":   true,
	"q":      true,
	"s":      true,
	"samp":   true,
	"small":  true,
	"span":   true,
	"strong": true,
	"sub":    true,
	"sup":    true,
	"u":      true,
	"wbr":    true,
}

// voidTags are HTML elements that never take a closing tag.
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// openElem is a stack entry for an element awaiting its closing tag.
type openElem struct {
	name   string
	inline bool
	span   int // span id when inline
}

// Decompose splits src into skeleton, span table and flat text.
// It never fails: malformed markup (unterminated or mismatched tags,
// tokenizer errors) yields an opaque single-chunk decomposition covering the
// whole literal input.
func Decompose(src string, opts Options) *Decomposition {
	if src == "" {
		return &Decomposition{}
	}
	if !strings.ContainsRune(src, '<') {
		return plainText(src, false)
	}

	d := &Decomposition{}
	var (
		text  strings.Builder
		stack []openElem
	)

	addChunk := func(raw string) {
		d.Skeleton = append(d.Skeleton, Piece{Kind: PieceText, Slot: len(d.Slots)})
		d.Slots = append(d.Slots, Slot{Start: text.Len(), End: text.Len() + len(raw)})
		text.WriteString(raw)
	}

	z := html.NewTokenizer(strings.NewReader(src))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return plainText(src, true)
			}
			if len(stack) > 0 {
				// Unterminated tags: degrade rather than guess.
				return plainText(src, true)
			}
			d.Text = text.String()
			return d

		case html.TextToken:
			raw := string(z.Raw())
			if n := len(d.Skeleton); n > 0 && d.Skeleton[n-1].Kind == PieceText {
				// The tokenizer splits one text run at stray '<' boundaries;
				// keep it a single chunk.
				d.Slots[d.Skeleton[n-1].Slot].End += len(raw)
				text.WriteString(raw)
				continue
			}
			if strings.TrimSpace(raw) == "" {
				// Whitespace-only nodes are structure, not content: kept
				// verbatim in the skeleton, invisible to translators.
				d.Skeleton = append(d.Skeleton, Piece{Kind: PieceLiteral, Text: raw})
				continue
			}
			addChunk(raw)

		case html.StartTagToken:
			raw := string(z.Raw())
			name, attrs := tagNameAttrs(z)
			if voidTags[name] {
				d.startStandalone(raw, name, attrs, opts, text.Len())
				continue
			}
			if opts.inline(name) {
				id := len(d.Spans) + 1
				d.Spans = append(d.Spans, Span{
					ID: id, Name: name, Attrs: attrs,
					RawOpen: raw, Start: text.Len(),
				})
				d.Skeleton = append(d.Skeleton, Piece{Kind: PieceOpen, Span: id})
				stack = append(stack, openElem{name: name, inline: true, span: id})
				continue
			}
			d.Skeleton = append(d.Skeleton, Piece{Kind: PieceLiteral, Text: raw})
			stack = append(stack, openElem{name: name})

		case html.SelfClosingTagToken:
			raw := string(z.Raw())
			name, attrs := tagNameAttrs(z)
			d.startStandalone(raw, name, attrs, opts, text.Len())

		case html.EndTagToken:
			raw := string(z.Raw())
			name, _ := tagNameAttrs(z)
			if len(stack) == 0 || stack[len(stack)-1].name != name {
				// Mismatched nesting: degrade rather than guess.
				return plainText(src, true)
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.inline {
				sp := &d.Spans[top.span-1]
				sp.RawClose = raw
				sp.End = text.Len()
				d.Skeleton = append(d.Skeleton, Piece{Kind: PieceClose, Span: top.span})
				continue
			}
			d.Skeleton = append(d.Skeleton, Piece{Kind: PieceLiteral, Text: raw})

		case html.CommentToken, html.DoctypeToken:
			d.Skeleton = append(d.Skeleton, Piece{Kind: PieceLiteral, Text: string(z.Raw())})
		}
	}
}

// startStandalone records a void or self-closed element: an inline one becomes
// a standalone span, a block-level one stays a skeleton literal.
func (d *Decomposition) startStandalone(raw, name string, attrs []Attr, opts Options, at int) {
	if !opts.inline(name) {
		d.Skeleton = append(d.Skeleton, Piece{Kind: PieceLiteral, Text: raw})
		return
	}
	id := len(d.Spans) + 1
	d.Spans = append(d.Spans, Span{
		ID: id, Name: name, Attrs: attrs,
		RawOpen: raw, Standalone: true, Start: at, End: at,
	})
	d.Skeleton = append(d.Skeleton, Piece{Kind: PieceSelf, Span: id})
}

// tagNameAttrs reads the current tag token's lower-cased name and its
// attributes in source order. Must be called after copying z.Raw().
func tagNameAttrs(z *html.Tokenizer) (string, []Attr) {
	nameBytes, hasAttr := z.TagName()
	name := string(nameBytes)
	var attrs []Attr
	for hasAttr {
		k, v, more := z.TagAttr()
		attrs = append(attrs, Attr{Name: string(k), Value: string(v)})
		hasAttr = more
	}
	return name, attrs
}

// plainText builds the degenerate decomposition for markup-free or
// unparseable input: one text chunk covering everything.
func plainText(src string, opaque bool) *Decomposition {
	if strings.TrimSpace(src) == "" {
		// Pure whitespace stays structural even in the degenerate case.
		return &Decomposition{
			Skeleton: []Piece{{Kind: PieceLiteral, Text: src}},
			Opaque:   opaque,
		}
	}
	return &Decomposition{
		Skeleton: []Piece{{Kind: PieceText, Slot: 0}},
		Slots:    []Slot{{Start: 0, End: len(src)}},
		Text:     src,
		Opaque:   opaque,
	}
}
