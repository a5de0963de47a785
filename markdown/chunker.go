package markdown

import "unicode"

// breakWindow is the fraction of maxLen that bounds how far back from the
// cap SplitText will look for a natural break before falling back to a
// hard cut.
const breakWindow = 0.8

// SplitText splits text into segments of at most maxLen characters,
// preferring to cut at a line break, then at a space, inside the window
// [breakWindow*maxLen, maxLen]. When the window holds neither, the
// segment is cut hard at maxLen. Lengths are measured in runes, so
// multi-byte input is never split mid-character.
//
// Text at or under the cap is returned as a single segment untouched,
// including empty input.
func SplitText(text string, maxLen int) []string {
	if maxLen < 1 {
		maxLen = 1
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return []string{text}
	}

	var segments []string
	for len(runes) > maxLen {
		cut, skip := findBreak(runes, maxLen)
		segments = append(segments, string(runes[:cut]))
		runes = runes[cut+skip:]
		for len(runes) > 0 && unicode.IsSpace(runes[0]) {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 {
		segments = append(segments, string(runes))
	}
	return segments
}

// findBreak returns the cut position for the next segment and how many
// boundary runes to drop between segments. A natural break excludes the
// break character itself; a hard cut drops nothing.
func findBreak(runes []rune, maxLen int) (cut, skip int) {
	lo := int(breakWindow * float64(maxLen))
	for i := maxLen; i >= lo; i-- {
		if runes[i] == '\n' {
			if i == 0 {
				break
			}
			return i, 1
		}
	}
	for i := maxLen; i >= lo; i-- {
		if runes[i] == ' ' {
			if i == 0 {
				break
			}
			return i, 1
		}
	}
	return maxLen, 0
}
