package markdown

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestShortTextSingleSegment(t *testing.T) {
	got := SplitText("hello world", 100)
	if !reflect.DeepEqual(got, []string{"hello world"}) {
		t.Errorf("expected single untouched segment, got %v", got)
	}
}

func TestEmptyTextSingleSegment(t *testing.T) {
	got := SplitText("", 100)
	if len(got) != 1 || got[0] != "" {
		t.Errorf("expected one empty segment, got %v", got)
	}
}

func TestBreaksAtNewlineBeforeSpace(t *testing.T) {
	// Window [8,10] holds both a space (index 8) and a newline (index 9);
	// the newline must win.
	got := SplitText("abcdefgh \nxyzw", 10)
	want := []string{"abcdefgh ", "xyzw"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestBreaksAtSpace(t *testing.T) {
	got := SplitText("abcdefghi jklmnop", 10)
	want := []string{"abcdefghi", "jklmnop"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestHardCutWithoutBoundary(t *testing.T) {
	got := SplitText("abcdefghijklmno", 10)
	want := []string{"abcdefghij", "klmno"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSpaceOutsideWindowMeansHardCut(t *testing.T) {
	// The only space sits at index 2, below the [8,10] window, so the
	// cut may not travel back to it.
	got := SplitText("ab cdefghijklm", 10)
	want := []string{"ab cdefghi", "jklm"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSegmentsRespectCapAndReassemble(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("alpha beta gamma ", 40))
	got := SplitText(text, 100)
	if len(got) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(got))
	}
	for i, seg := range got {
		if seg == "" {
			t.Errorf("segment %d is empty", i)
		}
		if utf8.RuneCountInString(seg) > 100 {
			t.Errorf("segment %d exceeds cap: %d runes", i, utf8.RuneCountInString(seg))
		}
	}
	if rejoined := strings.Join(got, " "); rejoined != text {
		t.Errorf("space-joined segments do not reproduce input:\n%q\nvs\n%q", rejoined, text)
	}
}

func TestMultibyteNeverSplitMidRune(t *testing.T) {
	text := strings.Repeat("日本語のテキスト ", 30)
	for _, seg := range SplitText(text, 20) {
		if !utf8.ValidString(seg) {
			t.Fatalf("segment is not valid UTF-8: %q", seg)
		}
		if utf8.RuneCountInString(seg) > 20 {
			t.Errorf("segment exceeds rune cap: %q", seg)
		}
	}
}

func TestTinyCapStillMakesProgress(t *testing.T) {
	got := SplitText("abc", 1)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestZeroCapCoercedToOne(t *testing.T) {
	got := SplitText("ab", 0)
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}
