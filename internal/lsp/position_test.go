package lsp

import "testing"

func TestByteOffsetToPositionASCII(t *testing.T) {
	pc := NewPositionConverter("hello\nworld\n")

	tests := []struct {
		name   string
		offset int
		want   Position
	}{
		{"start", 0, Position{Line: 0, Character: 0}},
		{"mid first line", 3, Position{Line: 0, Character: 3}},
		{"end of first line", 5, Position{Line: 0, Character: 5}},
		{"start of second line", 6, Position{Line: 1, Character: 0}},
		{"end of second line", 11, Position{Line: 1, Character: 5}},
		{"past end clamps", 100, Position{Line: 2, Character: 0}},
		{"negative clamps", -1, Position{Line: 0, Character: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pc.ByteOffsetToPosition(tt.offset)
			if got != tt.want {
				t.Errorf("ByteOffsetToPosition(%d) = %+v, want %+v", tt.offset, got, tt.want)
			}
		})
	}
}

func TestPositionToByteOffsetASCII(t *testing.T) {
	pc := NewPositionConverter("hello\nworld")

	tests := []struct {
		name string
		pos  Position
		want int
	}{
		{"start", Position{Line: 0, Character: 0}, 0},
		{"second line", Position{Line: 1, Character: 2}, 8},
		{"column past line end clamps", Position{Line: 0, Character: 99}, 5},
		{"line past end clamps", Position{Line: 9, Character: 0}, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pc.PositionToByteOffset(tt.pos)
			if got != tt.want {
				t.Errorf("PositionToByteOffset(%+v) = %d, want %d", tt.pos, got, tt.want)
			}
		})
	}
}

func TestPositionConversionMultibyte(t *testing.T) {
	// "héllo" has a 2-byte é; "wörld" likewise.
	pc := NewPositionConverter("héllo\nwörld")

	// Byte offset of 'l' in "héllo" is 3, UTF-16 column is 2.
	got := pc.ByteOffsetToPosition(3)
	want := Position{Line: 0, Character: 2}
	if got != want {
		t.Errorf("ByteOffsetToPosition(3) = %+v, want %+v", got, want)
	}

	if off := pc.PositionToByteOffset(want); off != 3 {
		t.Errorf("PositionToByteOffset(%+v) = %d, want 3", want, off)
	}
}

func TestPositionConversionSurrogatePairs(t *testing.T) {
	// U+1F600 is 4 bytes in UTF-8 and 2 UTF-16 code units.
	pc := NewPositionConverter("a\U0001F600b")

	tests := []struct {
		offset int
		want   Position
	}{
		{0, Position{Line: 0, Character: 0}},
		{1, Position{Line: 0, Character: 1}},
		{5, Position{Line: 0, Character: 3}},
		{6, Position{Line: 0, Character: 4}},
	}

	for _, tt := range tests {
		got := pc.ByteOffsetToPosition(tt.offset)
		if got != tt.want {
			t.Errorf("ByteOffsetToPosition(%d) = %+v, want %+v", tt.offset, got, tt.want)
		}
		if back := pc.PositionToByteOffset(tt.want); back != tt.offset {
			t.Errorf("PositionToByteOffset(%+v) = %d, want %d", tt.want, back, tt.offset)
		}
	}
}

func TestRangeConversionRoundTrip(t *testing.T) {
	pc := NewPositionConverter("<div>\n  text\n</div>")

	rng := pc.ByteOffsetsToRange(1, 4)
	start, end := pc.RangeToByteOffsets(rng)
	if start != 1 || end != 4 {
		t.Errorf("round trip gave [%d,%d), want [1,4)", start, end)
	}

	if pc.LineCount() != 3 {
		t.Errorf("LineCount() = %d, want 3", pc.LineCount())
	}
}

func TestPositionConverterEmptyContent(t *testing.T) {
	pc := NewPositionConverter("")

	if pc.LineCount() != 1 {
		t.Errorf("LineCount() = %d, want 1", pc.LineCount())
	}
	if got := pc.ByteOffsetToPosition(0); got != (Position{}) {
		t.Errorf("ByteOffsetToPosition(0) = %+v, want zero", got)
	}
	if got := pc.PositionToByteOffset(Position{Line: 0, Character: 5}); got != 0 {
		t.Errorf("PositionToByteOffset = %d, want 0", got)
	}
}
