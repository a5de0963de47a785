// Notion wire block model and the mapping from parsed markdown.
//
// Information Hiding:
// - JSON shapes of the Notion block API stay inside this package
// - Callers hand over markdown blocks and get opaque Nodes back
package notion

import (
	"github.com/richinex/scribe/markdown"
)

// MaxRichTextLength is Notion's per-rich-text character cap.
const MaxRichTextLength = 2000

// Annotations carries Notion rich-text formatting flags.
type Annotations struct {
	Bold          bool `json:"bold,omitempty"`
	Italic        bool `json:"italic,omitempty"`
	Strikethrough bool `json:"strikethrough,omitempty"`
	Code          bool `json:"code,omitempty"`
}

// TextLink wraps a link target.
type TextLink struct {
	URL string `json:"url"`
}

// TextContent is the inner text object of a rich-text item.
type TextContent struct {
	Content string    `json:"content"`
	Link    *TextLink `json:"link,omitempty"`
}

// RichText is one item of a Notion rich_text array.
type RichText struct {
	Type        string       `json:"type"`
	Text        TextContent  `json:"text"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

// RichTextBody is the payload for blocks that only carry rich text.
type RichTextBody struct {
	RichText []RichText `json:"rich_text"`
}

// CodeBody is the payload of a code block.
type CodeBody struct {
	RichText []RichText `json:"rich_text"`
	Language string     `json:"language"`
}

// TableBody is the payload of a table block. Children are never
// serialized with the table itself; rows travel as pending children and
// are appended under the table's server-assigned id.
type TableBody struct {
	TableWidth      int  `json:"table_width"`
	HasColumnHeader bool `json:"has_column_header"`
	HasRowHeader    bool `json:"has_row_header"`
}

// TableRowBody is the payload of a table_row block.
type TableRowBody struct {
	Cells [][]RichText `json:"cells"`
}

// Block is one Notion block in wire form. Exactly one payload field is
// set, matching Type.
type Block struct {
	Object           string        `json:"object"`
	Type             string        `json:"type"`
	Paragraph        *RichTextBody `json:"paragraph,omitempty"`
	Heading1         *RichTextBody `json:"heading_1,omitempty"`
	Heading2         *RichTextBody `json:"heading_2,omitempty"`
	Heading3         *RichTextBody `json:"heading_3,omitempty"`
	BulletedListItem *RichTextBody `json:"bulleted_list_item,omitempty"`
	NumberedListItem *RichTextBody `json:"numbered_list_item,omitempty"`
	Quote            *RichTextBody `json:"quote,omitempty"`
	Code             *CodeBody     `json:"code,omitempty"`
	Divider          *struct{}     `json:"divider,omitempty"`
	Table            *TableBody    `json:"table,omitempty"`
	TableRow         *TableRowBody `json:"table_row,omitempty"`
}

// Node pairs one transmissible block with the children that can only be
// delivered after the block's server id is known. Children never ride
// along in the block payload itself.
type Node struct {
	Block    Block
	Children []Node
}

// BlocksFrom maps parsed markdown onto Notion nodes, preserving document
// order. Table rows become pending children of their table node; code
// text is split across multiple rich-text items at the platform cap.
func BlocksFrom(blocks []markdown.Block) []Node {
	nodes := make([]Node, 0, len(blocks))
	for _, block := range blocks {
		nodes = append(nodes, nodeFrom(block))
	}
	return nodes
}

func nodeFrom(block markdown.Block) Node {
	switch block.Type {
	case markdown.BlockHeading:
		body := &RichTextBody{RichText: richTextFrom(block.Spans)}
		wire := Block{Object: "block"}
		switch block.Level {
		case 1:
			wire.Type, wire.Heading1 = "heading_1", body
		case 2:
			wire.Type, wire.Heading2 = "heading_2", body
		default:
			wire.Type, wire.Heading3 = "heading_3", body
		}
		return Node{Block: wire}

	case markdown.BlockCode:
		return Node{Block: Block{
			Object: "block",
			Type:   "code",
			Code: &CodeBody{
				RichText: codeRichText(block.Text),
				Language: block.Language,
			},
		}}

	case markdown.BlockBulletItem:
		return Node{Block: Block{
			Object:           "block",
			Type:             "bulleted_list_item",
			BulletedListItem: &RichTextBody{RichText: richTextFrom(block.Spans)},
		}}

	case markdown.BlockNumberedItem:
		return Node{Block: Block{
			Object:           "block",
			Type:             "numbered_list_item",
			NumberedListItem: &RichTextBody{RichText: richTextFrom(block.Spans)},
		}}

	case markdown.BlockQuote:
		return Node{Block: Block{
			Object: "block",
			Type:   "quote",
			Quote:  &RichTextBody{RichText: richTextFrom(block.Spans)},
		}}

	case markdown.BlockDivider:
		return Node{Block: Block{
			Object:  "block",
			Type:    "divider",
			Divider: &struct{}{},
		}}

	case markdown.BlockTable:
		node := Node{Block: Block{
			Object: "block",
			Type:   "table",
			Table: &TableBody{
				TableWidth:      block.Columns,
				HasColumnHeader: true,
			},
		}}
		for _, row := range block.Rows {
			cells := make([][]RichText, 0, len(row))
			for _, cell := range row {
				cells = append(cells, richTextFrom(cell))
			}
			node.Children = append(node.Children, Node{Block: Block{
				Object:   "block",
				Type:     "table_row",
				TableRow: &TableRowBody{Cells: cells},
			}})
		}
		return node

	default:
		return Node{Block: Block{
			Object:    "block",
			Type:      "paragraph",
			Paragraph: &RichTextBody{RichText: richTextFrom(block.Spans)},
		}}
	}
}

// richTextFrom converts spans one-to-one. Span text is already under the
// platform cap; annotations are attached only when a span carries any.
func richTextFrom(spans []markdown.Span) []RichText {
	items := make([]RichText, 0, len(spans))
	for _, span := range spans {
		item := RichText{Type: "text", Text: TextContent{Content: span.Text}}
		if span.LinkURL != "" {
			item.Text.Link = &TextLink{URL: span.LinkURL}
		}
		if span.Bold || span.Italic || span.Code || span.Strikethrough {
			item.Annotations = &Annotations{
				Bold:          span.Bold,
				Italic:        span.Italic,
				Strikethrough: span.Strikethrough,
				Code:          span.Code,
			}
		}
		items = append(items, item)
	}
	return items
}

// codeRichText splits raw code into rich-text items at the platform cap.
// Unlike prose, code is cut at exact rune offsets: the word-boundary
// chunker drops the boundary character, and losing a newline inside code
// would corrupt it. Notion renders adjacent items seamlessly, so exact
// cuts reconstruct the source verbatim.
func codeRichText(text string) []RichText {
	runes := []rune(text)
	if len(runes) == 0 {
		return []RichText{{Type: "text"}}
	}
	items := make([]RichText, 0, len(runes)/MaxRichTextLength+1)
	for start := 0; start < len(runes); start += MaxRichTextLength {
		end := start + MaxRichTextLength
		if end > len(runes) {
			end = len(runes)
		}
		items = append(items, RichText{Type: "text", Text: TextContent{Content: string(runes[start:end])}})
	}
	return items
}
