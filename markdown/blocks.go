// Package markdown converts free-form markdown into a neutral block tree.
//
// The tree is target-agnostic: the notion package maps blocks onto the
// Notion block API and the confluence package renders them as storage
// format. Both targets therefore share one line-classification pass and
// one inline-span parser.
package markdown

// DefaultMaxSpanLength is the per-span character cap applied when an
// Options value leaves MaxSpanLength unset. It matches the rich-text
// limit of the strictest export target.
const DefaultMaxSpanLength = 2000

// BlockType tags the closed set of block variants.
type BlockType int

const (
	BlockHeading BlockType = iota
	BlockParagraph
	BlockCode
	BlockBulletItem
	BlockNumberedItem
	BlockQuote
	BlockDivider
	BlockTable
)

// String returns the block type name.
func (t BlockType) String() string {
	switch t {
	case BlockHeading:
		return "heading"
	case BlockParagraph:
		return "paragraph"
	case BlockCode:
		return "code"
	case BlockBulletItem:
		return "bullet_item"
	case BlockNumberedItem:
		return "numbered_item"
	case BlockQuote:
		return "quote"
	case BlockDivider:
		return "divider"
	case BlockTable:
		return "table"
	default:
		return "unknown"
	}
}

// Span is an inline run of text plus its formatting annotations. Span text
// never exceeds the configured per-span cap: long runs are pre-split by
// SplitText before annotation, never truncated.
type Span struct {
	Text          string
	Bold          bool
	Italic        bool
	Code          bool
	Strikethrough bool
	LinkURL       string
}

// Plain reports whether the span carries no annotations.
func (s Span) Plain() bool {
	return !s.Bold && !s.Italic && !s.Code && !s.Strikethrough && s.LinkURL == ""
}

// Row is one table row: an ordered list of cells, each cell its own span
// sequence. Rows are normalized at parse time so that every row's cell
// count equals the owning table's column count.
type Row [][]Span

// Block is one structural unit of converted markdown. Which fields are
// meaningful depends on Type:
//
//	Heading               Level (1..3) and Spans
//	Paragraph/Bullet/
//	Numbered/Quote        Spans
//	Code                  Language and Text (raw, unparsed)
//	Divider               nothing
//	Table                 Columns and Rows (Rows[0] is the header row)
//
// Blocks are ordered; slice order is document order and is preserved
// through export.
type Block struct {
	Type     BlockType
	Level    int
	Spans    []Span
	Language string
	Text     string
	Columns  int
	Rows     []Row
}

// Heading builds a heading block.
func Heading(level int, spans []Span) Block {
	return Block{Type: BlockHeading, Level: level, Spans: spans}
}

// Paragraph builds a paragraph block.
func Paragraph(spans []Span) Block {
	return Block{Type: BlockParagraph, Spans: spans}
}

// CodeBlock builds a code block from raw fence content.
func CodeBlock(language, text string) Block {
	return Block{Type: BlockCode, Language: language, Text: text}
}

// Divider builds a divider block.
func Divider() Block {
	return Block{Type: BlockDivider}
}
