// Package chunker splits long transcripts into bounded pieces for model input.
package chunker

import (
	"unicode"
	"unicode/utf8"
)

// DefaultMaxChars keeps a chunk comfortably inside a small model context.
const DefaultMaxChars = 3500

type span struct {
	start int
	end   int
}

// Split breaks text into chunks of at most maxChars runes. Paragraphs are kept
// whole when they fit; longer paragraphs are broken into sentences. A single
// sentence longer than maxChars is emitted as its own chunk.
//
// Every chunk is an exact substring of text and the text between consecutive
// chunks is the original separator, so the input can be rebuilt from the
// pieces. Text that already fits is returned unchanged as the only chunk.
func Split(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if utf8.RuneCountInString(text) <= maxChars {
		return []string{text}
	}

	spans := pack(text, units(text, maxChars), maxChars)
	if len(spans) == 0 {
		return []string{text}
	}

	chunks := make([]string, len(spans))
	for i, s := range spans {
		chunks[i] = text[s.start:s.end]
	}
	return chunks
}

// pack greedily merges units until the next one would overflow maxChars.
func pack(text string, units []span, maxChars int) []span {
	var (
		chunks []span
		cur    = span{start: -1}
		curLen int
	)

	for _, u := range units {
		unitLen := utf8.RuneCountInString(text[u.start:u.end])
		if cur.start < 0 {
			cur, curLen = u, unitLen
			continue
		}

		joined := curLen + utf8.RuneCountInString(text[cur.end:u.start]) + unitLen
		if joined > maxChars {
			chunks = append(chunks, cur)
			cur, curLen = u, unitLen
			continue
		}
		cur.end = u.end
		curLen = joined
	}

	if cur.start >= 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}

func units(text string, maxChars int) []span {
	var out []span
	for _, p := range paragraphs(text) {
		if utf8.RuneCountInString(text[p.start:p.end]) > maxChars {
			out = append(out, sentences(text, p)...)
			continue
		}
		out = append(out, p)
	}
	return out
}

// paragraphs returns the trimmed, non-blank lines of text.
func paragraphs(text string) []span {
	var out []span
	lineStart := 0
	for i := 0; i <= len(text); i++ {
		if i < len(text) && text[i] != '\n' {
			continue
		}
		if s, ok := trim(text, span{start: lineStart, end: i}); ok {
			out = append(out, s)
		}
		lineStart = i + 1
	}
	return out
}

// sentences splits a paragraph after '.', '!' or '?' when the following
// whitespace is followed by an uppercase letter or a digit.
func sentences(text string, p span) []span {
	var out []span
	cur := p.start

	for i := p.start; i < p.end; {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		j := i
		for j < p.end {
			ws, wsize := utf8.DecodeRuneInString(text[j:])
			if !unicode.IsSpace(ws) {
				break
			}
			j += wsize
		}
		if j == i || j >= p.end {
			continue
		}

		next, _ := utf8.DecodeRuneInString(text[j:])
		if unicode.IsUpper(next) || unicode.IsDigit(next) {
			out = append(out, span{start: cur, end: i})
			cur = j
			i = j
		}
	}

	if cur < p.end {
		out = append(out, span{start: cur, end: p.end})
	}
	return out
}

func trim(text string, s span) (span, bool) {
	for s.start < s.end {
		r, size := utf8.DecodeRuneInString(text[s.start:])
		if !unicode.IsSpace(r) {
			break
		}
		s.start += size
	}
	for s.end > s.start {
		r, size := utf8.DecodeLastRuneInString(text[:s.end])
		if !unicode.IsSpace(r) {
			break
		}
		s.end -= size
	}
	return s, s.end > s.start
}
