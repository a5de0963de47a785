// Confluence storage-format rendering.
//
// Information Hiding:
// - XHTML tag and macro shapes stay inside this package
// - List grouping is a rendering concern; parsed blocks stay flat
package confluence

import (
	"fmt"
	"html"
	"strings"

	"github.com/richinex/scribe/markdown"
)

// Render converts parsed markdown blocks into Confluence storage format.
// Contiguous runs of the same list-marker family are grouped under one
// ul/ol element here; the block slice itself keeps every item as its own
// block.
func Render(blocks []markdown.Block) string {
	var out strings.Builder
	for i := 0; i < len(blocks); {
		block := blocks[i]
		switch block.Type {
		case markdown.BlockBulletItem, markdown.BlockNumberedItem:
			i = renderList(&out, blocks, i)
			continue
		case markdown.BlockHeading:
			level := block.Level
			if level < 1 || level > 3 {
				level = 3
			}
			fmt.Fprintf(&out, "<h%d>%s</h%d>", level, renderSpans(block.Spans), level)
		case markdown.BlockParagraph:
			fmt.Fprintf(&out, "<p>%s</p>", renderSpans(block.Spans))
		case markdown.BlockQuote:
			fmt.Fprintf(&out, "<blockquote><p>%s</p></blockquote>", renderSpans(block.Spans))
		case markdown.BlockDivider:
			out.WriteString("<hr/>")
		case markdown.BlockCode:
			renderCode(&out, block)
		case markdown.BlockTable:
			renderTable(&out, block)
		}
		i++
	}
	return out.String()
}

// renderList consumes the contiguous run of list items of the same family
// starting at blocks[start] and returns the index after the run.
func renderList(out *strings.Builder, blocks []markdown.Block, start int) int {
	family := blocks[start].Type
	tag := "ul"
	if family == markdown.BlockNumberedItem {
		tag = "ol"
	}
	fmt.Fprintf(out, "<%s>", tag)
	i := start
	for ; i < len(blocks) && blocks[i].Type == family; i++ {
		fmt.Fprintf(out, "<li>%s</li>", renderSpans(blocks[i].Spans))
	}
	fmt.Fprintf(out, "</%s>", tag)
	return i
}

func renderCode(out *strings.Builder, block markdown.Block) {
	out.WriteString(`<ac:structured-macro ac:name="code">`)
	fmt.Fprintf(out, `<ac:parameter ac:name="language">%s</ac:parameter>`, html.EscapeString(macroLanguage(block.Language)))
	fmt.Fprintf(out, `<ac:plain-text-body><![CDATA[%s]]></ac:plain-text-body>`, escapeCDATA(block.Text))
	out.WriteString(`</ac:structured-macro>`)
}

func renderTable(out *strings.Builder, block markdown.Block) {
	out.WriteString("<table><tbody>")
	for rowIndex, row := range block.Rows {
		cell := "td"
		if rowIndex == 0 {
			cell = "th"
		}
		out.WriteString("<tr>")
		for _, spans := range row {
			fmt.Fprintf(out, "<%s><p>%s</p></%s>", cell, renderSpans(spans), cell)
		}
		out.WriteString("</tr>")
	}
	out.WriteString("</tbody></table>")
}

// renderSpans emits escaped span text wrapped in its formatting tags.
// Formatting nests inside the link when a span carries both.
func renderSpans(spans []markdown.Span) string {
	var out strings.Builder
	for _, span := range spans {
		text := html.EscapeString(span.Text)
		if span.Code {
			text = "<code>" + text + "</code>"
		}
		if span.Bold {
			text = "<strong>" + text + "</strong>"
		}
		if span.Italic {
			text = "<em>" + text + "</em>"
		}
		if span.Strikethrough {
			text = "<s>" + text + "</s>"
		}
		if span.LinkURL != "" {
			text = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(span.LinkURL), text)
		}
		out.WriteString(text)
	}
	return out.String()
}

// macroLanguage maps the shared language names onto what the Confluence
// code macro accepts; the parser's plain-text sentinel has no macro
// equivalent.
func macroLanguage(language string) string {
	if language == "" || language == "plain text" {
		return "text"
	}
	return language
}

// escapeCDATA keeps a literal "]]>" inside code from terminating the
// CDATA section by splitting it across two sections.
func escapeCDATA(text string) string {
	return strings.ReplaceAll(text, "]]>", "]]]]><![CDATA[>")
}
