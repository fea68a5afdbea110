package grading

import (
	"strings"
	"unicode"

	"github.com/aryann/difflib"
)

// TokenizeWords splits text into runs of word characters, whitespace, and
// punctuation, preserving everything so a diff can be re-joined verbatim.
func TokenizeWords(s string) []string {
	var out []string
	var cur []rune
	kind := -1 // 0=space,1=word,2=punct
	flush := func() {
		if len(cur) == 0 {
			return
		}
		out = append(out, string(cur))
		cur = cur[:0]
	}
	for _, r := range s {
		k := 2
		switch {
		case unicode.IsSpace(r):
			k = 0
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || r == '\'':
			k = 1
		}
		if kind == -1 {
			kind = k
		}
		if k != kind {
			flush()
			kind = k
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

// WordDelta is one diff hunk: Op is -1 for words only in the expected
// text, +1 for words only in the answer, 0 for common words.
type WordDelta struct {
	Op   int
	Text string
}

// DiffWords compares two strings word by word.
func DiffWords(expected, got string) []WordDelta {
	at := TokenizeWords(expected)
	bt := TokenizeWords(got)
	recs := difflib.Diff(at, bt)
	out := make([]WordDelta, 0, len(recs))
	for _, r := range recs {
		switch r.Delta {
		case difflib.Common:
			out = append(out, WordDelta{Op: 0, Text: r.Payload})
		case difflib.LeftOnly:
			out = append(out, WordDelta{Op: -1, Text: r.Payload})
		case difflib.RightOnly:
			out = append(out, WordDelta{Op: +1, Text: r.Payload})
		}
	}
	return out
}

// Hint renders a near-miss correction: words missing from the answer in
// [brackets], stray words in {braces}. Whitespace hunks stay unmarked so
// the sentence reads naturally.
func Hint(expected, got string) string {
	deltas := DiffWords(strings.ToLower(expected), strings.ToLower(got))

	var b strings.Builder
	b.WriteString("Hampir! (惜しい！) Bandingkan: ")
	for _, d := range deltas {
		if strings.TrimSpace(d.Text) == "" {
			b.WriteString(d.Text)
			continue
		}
		switch d.Op {
		case -1:
			b.WriteString("[" + d.Text + "]")
		case +1:
			b.WriteString("{" + d.Text + "}")
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}
