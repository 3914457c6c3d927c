package lsp

// PositionConverter translates between byte offsets in UTF-8 content
// and LSP positions, which are 0-based line numbers with UTF-16 code
// unit columns.
type PositionConverter struct {
	content string
	lines   []lineInfo
}

// lineInfo records where a line starts and how long it is, excluding
// the trailing newline.
type lineInfo struct {
	byteOffset int
	byteLen    int
}

// NewPositionConverter creates a converter for the given content.
func NewPositionConverter(content string) *PositionConverter {
	pc := &PositionConverter{content: content}
	pc.buildLineIndex()
	return pc
}

func (pc *PositionConverter) buildLineIndex() {
	lineStart := 0
	for i := 0; i < len(pc.content); i++ {
		if pc.content[i] == '\n' {
			pc.lines = append(pc.lines, lineInfo{
				byteOffset: lineStart,
				byteLen:    i - lineStart,
			})
			lineStart = i + 1
		}
	}
	pc.lines = append(pc.lines, lineInfo{
		byteOffset: lineStart,
		byteLen:    len(pc.content) - lineStart,
	})
}

// ByteOffsetToPosition converts a byte offset to an LSP Position.
// Offsets outside the content are clamped.
func (pc *PositionConverter) ByteOffsetToPosition(byteOffset int) Position {
	if byteOffset < 0 {
		return Position{}
	}
	if byteOffset > len(pc.content) {
		byteOffset = len(pc.content)
	}

	lineNum := len(pc.lines) - 1
	for i, line := range pc.lines {
		if byteOffset <= line.byteOffset+line.byteLen {
			lineNum = i
			break
		}
	}

	line := pc.lines[lineNum]
	charOffset := byteOffset - line.byteOffset
	if charOffset > line.byteLen {
		charOffset = line.byteLen
	}

	lineContent := pc.content[line.byteOffset : line.byteOffset+line.byteLen]
	return Position{
		Line:      lineNum,
		Character: byteToUTF16Offset(lineContent, charOffset),
	}
}

// PositionToByteOffset converts an LSP Position to a byte offset.
// Positions past the end of the content are clamped.
func (pc *PositionConverter) PositionToByteOffset(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(pc.lines) {
		return len(pc.content)
	}

	line := pc.lines[pos.Line]
	lineContent := pc.content[line.byteOffset : line.byteOffset+line.byteLen]
	return line.byteOffset + utf16ToByteOffset(lineContent, pos.Character)
}

// RangeToByteOffsets converts an LSP Range to start and end byte offsets.
func (pc *PositionConverter) RangeToByteOffsets(rng Range) (start, end int) {
	return pc.PositionToByteOffset(rng.Start), pc.PositionToByteOffset(rng.End)
}

// ByteOffsetsToRange converts start and end byte offsets to an LSP Range.
func (pc *PositionConverter) ByteOffsetsToRange(start, end int) Range {
	return Range{
		Start: pc.ByteOffsetToPosition(start),
		End:   pc.ByteOffsetToPosition(end),
	}
}

// LineCount returns the number of lines.
func (pc *PositionConverter) LineCount() int {
	return len(pc.lines)
}

// byteToUTF16Offset converts a byte offset within a line to a UTF-16
// code unit offset.
func byteToUTF16Offset(s string, byteOff int) int {
	utf16Off := 0
	for i, r := range s {
		if i >= byteOff {
			break
		}
		if r >= 0x10000 {
			utf16Off += 2
		} else {
			utf16Off++
		}
	}
	return utf16Off
}

// utf16ToByteOffset converts a UTF-16 code unit offset within a line
// to a byte offset.
func utf16ToByteOffset(s string, utf16Off int) int {
	if utf16Off <= 0 {
		return 0
	}

	utf16Count := 0
	for i, r := range s {
		if utf16Count >= utf16Off {
			return i
		}
		if r >= 0x10000 {
			utf16Count += 2
		} else {
			utf16Count++
		}
	}
	return len(s)
}
