package markdown

import "regexp"

// Inline recognizers in priority order. Scanning is leftmost-wins: the
// recognizer whose next match starts earliest claims the text, and on a
// shared start offset the earlier entry in this table wins. That ordering
// is what keeps `**bold**` from being half-claimed as italic. Spans do
// not nest; the inner text of a match is stored verbatim.
var inlineRules = []struct {
	pattern *regexp.Regexp
	make    func(text string, loc []int) Span
}{
	{
		pattern: regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`),
		make: func(text string, loc []int) Span {
			return Span{Text: text[loc[2]:loc[3]], LinkURL: text[loc[4]:loc[5]]}
		},
	},
	{
		pattern: regexp.MustCompile("`([^`]+)`"),
		make: func(text string, loc []int) Span {
			return Span{Text: text[loc[2]:loc[3]], Code: true}
		},
	},
	{
		pattern: regexp.MustCompile(`\*\*([^*]+)\*\*`),
		make: func(text string, loc []int) Span {
			return Span{Text: text[loc[2]:loc[3]], Bold: true}
		},
	},
	{
		pattern: regexp.MustCompile(`__([^_]+)__`),
		make: func(text string, loc []int) Span {
			return Span{Text: text[loc[2]:loc[3]], Bold: true}
		},
	},
	{
		pattern: regexp.MustCompile(`\*([^*]+)\*`),
		make: func(text string, loc []int) Span {
			return Span{Text: text[loc[2]:loc[3]], Italic: true}
		},
	},
	{
		pattern: regexp.MustCompile(`~~([^~]+)~~`),
		make: func(text string, loc []int) Span {
			return Span{Text: text[loc[2]:loc[3]], Strikethrough: true}
		},
	},
	{
		pattern: regexp.MustCompile(`_([^_]+)_`),
		make: func(text string, loc []int) Span {
			return Span{Text: text[loc[2]:loc[3]], Italic: true}
		},
	},
}

// ParseInline parses one line of markdown into an ordered span sequence.
// Unrecognized or malformed markers stay in the output as literal text;
// the parser never fails. Input longer than maxSpanLen is first split by
// SplitText and each segment is parsed independently, so no returned span
// exceeds the cap. Empty input yields a single empty, unannotated span.
func ParseInline(text string, maxSpanLen int) []Span {
	if maxSpanLen < 1 {
		maxSpanLen = DefaultMaxSpanLength
	}
	if text == "" {
		return []Span{{}}
	}
	var spans []Span
	for _, segment := range SplitText(text, maxSpanLen) {
		spans = append(spans, parseSegment(segment)...)
	}
	return spans
}

func parseSegment(text string) []Span {
	var spans []Span
	rest := text
	for rest != "" {
		ruleIdx := -1
		var best []int
		for i, rule := range inlineRules {
			loc := rule.pattern.FindStringSubmatchIndex(rest)
			if loc == nil {
				continue
			}
			if ruleIdx == -1 || loc[0] < best[0] {
				ruleIdx, best = i, loc
			}
		}
		if ruleIdx == -1 {
			spans = append(spans, Span{Text: rest})
			break
		}
		if best[0] > 0 {
			spans = append(spans, Span{Text: rest[:best[0]]})
		}
		spans = append(spans, inlineRules[ruleIdx].make(rest, best))
		rest = rest[best[1]:]
	}
	return spans
}
