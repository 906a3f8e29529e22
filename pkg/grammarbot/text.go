package grammarbot

import (
	"sort"
	"unicode/utf16"
)

// Position returns the 1-based line and column of the UTF-16 offset in text.
// Columns count runes. Offsets past the end of text point after its last rune.
func Position(text string, offset int) (line, column int) {
	line, column = 1, 1
	units := 0
	for _, r := range text {
		if units >= offset {
			break
		}
		units += utf16.RuneLen(r)
		if r == '\n' {
			line++
			column = 1

			continue
		}
		column++
	}

	return line, column
}

// Span returns the part of text covered by the match.
func (m Match) Span(text string) string {
	units := utf16.Encode([]rune(text))
	start, end := m.Offset, m.Offset+m.Length
	if start < 0 || end > len(units) || start > end {
		return ""
	}

	return string(utf16.Decode(units[start:end]))
}

// Correct applies the first replacement of every match to text. Matches without
// replacement, outside of text, or overlapping a match already applied are skipped.
func (r *Response) Correct(text string) string {
	if !r.HasIssues() {
		return text
	}

	matches := make([]Match, len(r.Matches))
	copy(matches, r.Matches)
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Offset < matches[j].Offset })

	units := utf16.Encode([]rune(text))
	out := make([]uint16, 0, len(units))
	last := 0
	for _, m := range matches {
		replacement, ok := m.Replacement()
		if !ok || m.Offset < last || m.Length < 0 || m.Offset+m.Length > len(units) {
			continue
		}
		out = append(out, units[last:m.Offset]...)
		out = append(out, utf16.Encode([]rune(replacement))...)
		last = m.Offset + m.Length
	}
	out = append(out, units[last:]...)

	return string(utf16.Decode(out))
}
