// Package optimize analyzes generation input size and reduces oversized
// context before it reaches a backend.
//
// Reduction is lossy but structure-preserving: code blocks are summarized
// line-by-line instead of truncated, salient tokens (ticket IDs, dates,
// metrics, flagged lines, headings) are extracted verbatim, and prose is
// cut per-section rather than from the tail.
package optimize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Size thresholds in characters.
const (
	safeLimit    = 20000
	cautionLimit = 25000
	warningLimit = 30000

	warningTarget  = 25000
	criticalTarget = 20000
)

// Level classifies input size against the thresholds.
type Level int

const (
	LevelSafe Level = iota
	LevelCaution
	LevelWarning
	LevelCritical
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelSafe:
		return "safe"
	case LevelCaution:
		return "caution"
	case LevelWarning:
		return "warning"
	case LevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Analysis reports how large an input is and whether it needs reduction.
type Analysis struct {
	CharCount         int
	TokenEstimate     int
	Level             Level
	NeedsOptimization bool
}

// Result is the outcome of an Optimize call. When WasOptimized is false,
// Context is the original input unchanged, byte for byte.
type Result struct {
	Context          string
	WasOptimized     bool
	OriginalSize     int
	OptimizedSize    int
	ReductionPercent float64
}

// Analyze measures text and classifies it: ≤20k chars is safe, ≤25k is
// caution (no action), ≤30k is warning, above that critical. The token
// estimate is ceil(charCount · 1.25).
func Analyze(text string) Analysis {
	count := utf8.RuneCountInString(text)
	level := LevelSafe
	switch {
	case count > warningLimit:
		level = LevelCritical
	case count > cautionLimit:
		level = LevelWarning
	case count > safeLimit:
		level = LevelCaution
	}
	return Analysis{
		CharCount:         count,
		TokenEstimate:     (count*5 + 3) / 4,
		Level:             level,
		NeedsOptimization: level >= LevelWarning,
	}
}

// Optimize reduces text toward the level's target size: ≈25k characters
// at warning, ≈20k at critical. Inputs that do not need optimization pass
// through untouched. The mode string only decorates the size banner.
func Optimize(text, mode string) Result {
	analysis := Analyze(text)
	if !analysis.NeedsOptimization {
		return Result{
			Context:       text,
			OriginalSize:  analysis.CharCount,
			OptimizedSize: analysis.CharCount,
		}
	}

	target := warningTarget
	if analysis.Level == LevelCritical {
		target = criticalTarget
	}

	prose, codeBlocks := extractCodeBlocks(text)
	keyInfo := extractKeyInfo(prose)
	summary := summarizeProse(prose, target/2)

	codeBudget := target / 4
	kept := codeBlocks
	if len(kept) > maxCodeBlocks {
		kept = kept[:maxCodeBlocks]
	}
	var codeParts []string
	if len(kept) > 0 {
		perBlock := codeBudget / (len(kept) * approxCharsPerLine)
		for i, block := range kept {
			codeParts = append(codeParts, fmt.Sprintf("Code block %d (%s):\n%s", i+1, block.language, summarizeCode(block.body, perBlock)))
		}
	}
	if extra := len(codeBlocks) - len(kept); extra > 0 {
		codeParts = append(codeParts, fmt.Sprintf("(%d additional code blocks omitted)", extra))
	}

	var out strings.Builder
	fmt.Fprintf(&out, "[Context optimized for %s: %d characters reduced toward %d]\n", modeLabel(mode), analysis.CharCount, target)
	if len(keyInfo) > 0 {
		out.WriteString("\nKey information:\n")
		for _, item := range keyInfo {
			out.WriteString("- " + item + "\n")
		}
	}
	if summary != "" {
		out.WriteString("\n" + summary + "\n")
	}
	if len(codeParts) > 0 {
		out.WriteString("\n" + strings.Join(codeParts, "\n\n") + "\n")
	}

	optimized := out.String()
	reduced := utf8.RuneCountInString(optimized)
	percent := 0.0
	if analysis.CharCount > 0 {
		percent = float64(analysis.CharCount-reduced) / float64(analysis.CharCount) * 100
	}
	return Result{
		Context:          optimized,
		WasOptimized:     true,
		OriginalSize:     analysis.CharCount,
		OptimizedSize:    reduced,
		ReductionPercent: percent,
	}
}

const (
	maxCodeBlocks      = 3
	approxCharsPerLine = 40
	minKeptLines       = 8
)

func modeLabel(mode string) string {
	if mode == "" {
		return "generation"
	}
	return mode
}

type codeBlock struct {
	language string
	body     string
}

// extractCodeBlocks removes fenced code from text, leaving a numbered
// placeholder where each block stood, and returns the prose remainder
// plus the blocks in document order.
func extractCodeBlocks(text string) (string, []codeBlock) {
	lines := strings.Split(text, "\n")
	var prose []string
	var blocks []codeBlock

	for i := 0; i < len(lines); {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "```") {
			prose = append(prose, lines[i])
			i++
			continue
		}
		language := strings.TrimPrefix(trimmed, "```")
		if language == "" {
			language = "text"
		}
		var body []string
		i++
		for i < len(lines) && strings.TrimSpace(lines[i]) != "```" {
			body = append(body, lines[i])
			i++
		}
		if i < len(lines) {
			i++ // closing fence
		}
		blocks = append(blocks, codeBlock{language: language, body: strings.Join(body, "\n")})
		prose = append(prose, fmt.Sprintf("[code block %d]", len(blocks)))
	}
	return strings.Join(prose, "\n"), blocks
}

var keyInfoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Z][A-Z0-9]+-\d+\b`),                          // ticket IDs
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),                           // ISO dates
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s?(?:ms|s|%|kb|mb|gb|tb)\b`),  // metrics
	regexp.MustCompile(`(?im)^(?:error|warning|critical|important|note|todo):.*$`),
	regexp.MustCompile(`(?m)^#{1,3} .+$`),
}

// extractKeyInfo pulls salient tokens and lines out of prose, in pattern
// order, de-duplicated.
func extractKeyInfo(prose string) []string {
	seen := make(map[string]struct{})
	var items []string
	for _, pattern := range keyInfoPatterns {
		for _, match := range pattern.FindAllString(prose, -1) {
			match = strings.TrimSpace(match)
			if match == "" {
				continue
			}
			if _, dup := seen[match]; dup {
				continue
			}
			seen[match] = struct{}{}
			items = append(items, match)
		}
	}
	return items
}

var sectionLabelRe = regexp.MustCompile(`^(?:#{1,6} .+|[A-Z][A-Z0-9 /_-]{3,}:?)$`)

// summarizeProse splits prose on blank lines into sections, starting a
// new section whenever a paragraph opens with a heading or an all-caps
// label, then spends an equal character budget on each section. An
// oversized section keeps its leading header line and is truncated with
// an ellipsis.
func summarizeProse(prose string, budget int) string {
	paragraphs := strings.Split(prose, "\n\n")
	var sections []string
	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		first := strings.SplitN(paragraph, "\n", 2)[0]
		if len(sections) == 0 || sectionLabelRe.MatchString(strings.TrimSpace(first)) {
			sections = append(sections, paragraph)
		} else {
			sections[len(sections)-1] += "\n\n" + paragraph
		}
	}
	if len(sections) == 0 {
		return ""
	}

	perSection := budget / len(sections)
	if perSection < 80 {
		perSection = 80
	}
	var out []string
	for _, section := range sections {
		out = append(out, truncateSection(section, perSection))
	}
	return strings.Join(out, "\n\n")
}

// truncateSection cuts a section to the budget while keeping its first
// line whole, so a truncated section still announces what it was about.
func truncateSection(section string, budget int) string {
	if utf8.RuneCountInString(section) <= budget {
		return section
	}
	header, rest, found := strings.Cut(section, "\n")
	if !found {
		return string([]rune(section)[:budget]) + "..."
	}
	remaining := budget - utf8.RuneCountInString(header)
	if remaining <= 0 {
		return header
	}
	restRunes := []rune(rest)
	if len(restRunes) <= remaining {
		return section
	}
	return header + "\n" + string(restRunes[:remaining]) + "..."
}

var codeSignalRe = regexp.MustCompile(`(?i)^\s*(?:import|from|package|def|class|func|fn|export|const|type|interface|public|private|return)\b|\b(?:select|insert|update|delete|create|alter|join)\b`)

// summarizeCode keeps the highest-scoring lines of a code block up to
// lineBudget, restores them to original order, and marks every gap with
// an elision line. Declaration and SQL keyword lines score highest;
// lines near the top and bottom of the block and mid-length lines get a
// bonus.
func summarizeCode(body string, lineBudget int) string {
	if lineBudget < minKeptLines {
		lineBudget = minKeptLines
	}
	lines := strings.Split(body, "\n")
	if len(lines) <= lineBudget {
		return body
	}

	type scored struct {
		index int
		score int
	}
	ranked := make([]scored, len(lines))
	for i, line := range lines {
		score := 0
		if codeSignalRe.MatchString(line) {
			score += 10
		}
		if i < 5 || i >= len(lines)-5 {
			score += 5
		}
		if n := len(strings.TrimSpace(line)); n >= 20 && n <= 80 {
			score += 2
		}
		ranked[i] = scored{index: i, score: score}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].score != ranked[b].score {
			return ranked[a].score > ranked[b].score
		}
		return ranked[a].index < ranked[b].index
	})

	keep := make([]int, 0, lineBudget)
	for _, entry := range ranked[:lineBudget] {
		keep = append(keep, entry.index)
	}
	sort.Ints(keep)

	var out []string
	previous := -1
	for _, index := range keep {
		if previous >= 0 && index > previous+1 {
			out = append(out, "// ...")
		}
		out = append(out, lines[index])
		previous = index
	}
	return strings.Join(out, "\n")
}
