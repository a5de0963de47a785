package markdown

import (
	"regexp"
	"strings"
)

// Options adjusts parsing limits. The zero value is usable.
type Options struct {
	// MaxSpanLength caps individual span text length. Zero means
	// DefaultMaxSpanLength.
	MaxSpanLength int
}

func (o Options) spanCap() int {
	if o.MaxSpanLength < 1 {
		return DefaultMaxSpanLength
	}
	return o.MaxSpanLength
}

var (
	numberedRe  = regexp.MustCompile(`^\d+\.\s+`)
	separatorRe = regexp.MustCompile(`^:?-{3,}:?$`)
)

// Parse converts markdown source into an ordered block slice. Conversion
// is line-oriented: each line is classified by prefix, with fenced code
// and tables consuming their run of lines. Anything unrecognized becomes
// a paragraph, so Parse never fails. Blank lines outside code fences
// separate blocks and produce nothing themselves.
func Parse(source string, opts Options) []Block {
	maxSpan := opts.spanCap()
	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	var blocks []Block

	for i := 0; i < len(lines); {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == "":
			i++

		case strings.HasPrefix(line, "```"):
			block, next := scanFence(lines, i)
			blocks = append(blocks, block)
			i = next

		case strings.HasPrefix(line, "# "):
			blocks = append(blocks, Heading(1, ParseInline(line[2:], maxSpan)))
			i++

		case strings.HasPrefix(line, "## "):
			blocks = append(blocks, Heading(2, ParseInline(line[3:], maxSpan)))
			i++

		case strings.HasPrefix(line, "### "):
			blocks = append(blocks, Heading(3, ParseInline(line[4:], maxSpan)))
			i++

		case line == "---" || line == "***" || line == "___":
			blocks = append(blocks, Divider())
			i++

		case strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* "):
			blocks = append(blocks, Block{Type: BlockBulletItem, Spans: ParseInline(line[2:], maxSpan)})
			i++

		case numberedRe.MatchString(line):
			text := numberedRe.ReplaceAllString(line, "")
			blocks = append(blocks, Block{Type: BlockNumberedItem, Spans: ParseInline(text, maxSpan)})
			i++

		case strings.HasPrefix(line, "> "):
			blocks = append(blocks, Block{Type: BlockQuote, Spans: ParseInline(line[2:], maxSpan)})
			i++

		case isTableStart(lines, i):
			block, next := scanTable(lines, i, maxSpan)
			blocks = append(blocks, block)
			i = next

		default:
			// Includes #### and deeper headings, which fall through
			// to paragraphs like any other unrecognized prefix.
			blocks = append(blocks, Paragraph(ParseInline(line, maxSpan)))
			i++
		}
	}
	return blocks
}

// scanFence consumes a fenced code block starting at lines[start] and
// returns the block plus the index of the first line after the closing
// fence. An unclosed fence runs to end of input. The fence's info string
// is normalized through the language table; fence content is kept raw
// and is never inline-parsed.
func scanFence(lines []string, start int) (Block, int) {
	lang := NormalizeLanguage(strings.TrimPrefix(strings.TrimSpace(lines[start]), "```"))
	var body []string
	i := start + 1
	for ; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "```" {
			i++
			break
		}
		body = append(body, lines[i])
	}
	return CodeBlock(lang, strings.Join(body, "\n")), i
}

// isTableStart reports whether lines[i] opens a table: a |-prefixed row
// with at least two cells followed by a separator row of matching width
// whose cells are all dashes with optional alignment colons.
func isTableStart(lines []string, i int) bool {
	if i+1 >= len(lines) {
		return false
	}
	header := strings.TrimSpace(lines[i])
	sep := strings.TrimSpace(lines[i+1])
	if !strings.HasPrefix(header, "|") || !strings.HasPrefix(sep, "|") {
		return false
	}
	headerCells := splitRow(header)
	sepCells := splitRow(sep)
	if len(headerCells) < 2 || len(headerCells) != len(sepCells) {
		return false
	}
	for _, cell := range sepCells {
		if !separatorRe.MatchString(cell) {
			return false
		}
	}
	return true
}

// scanTable consumes the table starting at lines[start] and returns the
// table block plus the index of the first non-table line. The separator
// row is dropped; Rows[0] is the header. Row widths are normalized to
// the header's column count: extra cells are cut, missing cells padded
// with an empty span.
func scanTable(lines []string, start, maxSpan int) (Block, int) {
	header := splitRow(strings.TrimSpace(lines[start]))
	columns := len(header)
	rows := []Row{parseRow(header, columns, maxSpan)}

	i := start + 2
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "|") {
			break
		}
		rows = append(rows, parseRow(splitRow(line), columns, maxSpan))
	}
	return Block{Type: BlockTable, Columns: columns, Rows: rows}, i
}

// splitRow breaks a |-delimited line into trimmed cell strings, ignoring
// the outer pipes.
func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// parseRow inline-parses each cell and normalizes the row to the table's
// column count.
func parseRow(cells []string, columns, maxSpan int) Row {
	row := make(Row, 0, columns)
	for i := 0; i < columns; i++ {
		if i < len(cells) {
			row = append(row, ParseInline(cells[i], maxSpan))
		} else {
			row = append(row, ParseInline("", maxSpan))
		}
	}
	return row
}
