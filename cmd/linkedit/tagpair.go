package main

import (
	"context"
	"fmt"
	"unicode"

	"github.com/dshills/linkedit/internal/text"
)

// tagPairProvider is an in-process stand-in for a language server: it
// pairs HTML open and close tag names so the demo works without
// spawning an external process.
type tagPairProvider struct {
	buffers bufferSet
}

// tagSpan is the byte range of a tag name, excluding the angle
// brackets and slash.
type tagSpan struct {
	start, end text.ByteOffset
	name       string
	closing    bool
}

func (p *tagPairProvider) LinkedRanges(ctx context.Context, id text.BufferID, pos text.ByteOffset) ([]text.AnchorRange, error) {
	buf, ok := p.buffers.Buffer(id)
	if !ok {
		return nil, fmt.Errorf("buffer %s: not found", id)
	}
	snap := buf.Snapshot()

	spans := scanTags(snap.Text())
	hit := -1
	for i, s := range spans {
		if pos >= s.start && pos <= s.end {
			hit = i
			break
		}
	}
	if hit == -1 {
		return nil, nil
	}

	mate, ok := matchTag(spans, hit)
	if !ok {
		return nil, nil
	}

	out := make([]text.AnchorRange, 0, 2)
	for _, s := range []tagSpan{spans[hit], spans[mate]} {
		ar, err := snap.AnchorRange(s.start, s.end)
		if err != nil {
			return nil, err
		}
		out = append(out, ar)
	}
	return out, nil
}

// scanTags finds every tag name span in content in document order.
func scanTags(content string) []tagSpan {
	var spans []tagSpan
	for i := 0; i < len(content); i++ {
		if content[i] != '<' {
			continue
		}
		j := i + 1
		closing := false
		if j < len(content) && content[j] == '/' {
			closing = true
			j++
		}
		start := j
		for j < len(content) && isTagNameByte(content[j]) {
			j++
		}
		if j == start {
			continue
		}
		spans = append(spans, tagSpan{
			start:   text.ByteOffset(start),
			end:     text.ByteOffset(j),
			name:    content[start:j],
			closing: closing,
		})
		i = j - 1
	}
	return spans
}

// matchTag returns the index of the tag paired with spans[hit] using
// depth counting, so nested same-name tags pair correctly.
func matchTag(spans []tagSpan, hit int) (int, bool) {
	target := spans[hit]
	depth := 0
	if target.closing {
		for i := hit - 1; i >= 0; i-- {
			if spans[i].name != target.name {
				continue
			}
			if spans[i].closing {
				depth++
				continue
			}
			if depth == 0 {
				return i, true
			}
			depth--
		}
		return 0, false
	}
	for i := hit + 1; i < len(spans); i++ {
		if spans[i].name != target.name {
			continue
		}
		if !spans[i].closing {
			depth++
			continue
		}
		if depth == 0 {
			return i, true
		}
		depth--
	}
	return 0, false
}

func isTagNameByte(b byte) bool {
	return b == '-' || unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b))
}
