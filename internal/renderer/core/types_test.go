package core

import "testing"

func TestAttributeHas(t *testing.T) {
	a := AttrBold | AttrDim
	if !a.Has(AttrBold) {
		t.Error("Has(AttrBold) should be true")
	}
	if a.Has(AttrItalic) {
		t.Error("Has(AttrItalic) should be false")
	}
}

func TestColorBlend(t *testing.T) {
	black := ColorFromRGB(0, 0, 0)
	white := ColorFromRGB(255, 255, 255)

	if got := black.Blend(white, 0); got != black {
		t.Errorf("Blend(0) = %v, want %v", got, black)
	}
	if got := black.Blend(white, 1); got != white {
		t.Errorf("Blend(1) = %v, want %v", got, white)
	}

	mid := black.Blend(white, 0.5)
	if mid.R < 100 || mid.R > 155 {
		t.Errorf("Blend(0.5).R = %d, want near 127", mid.R)
	}

	// Default colors snap instead of blending.
	if got := ColorDefault.Blend(white, 0.4); !got.IsDefault() {
		t.Errorf("Blend from default at 0.4 = %v, want default", got)
	}
	if got := ColorDefault.Blend(white, 0.6); got != white {
		t.Errorf("Blend from default at 0.6 = %v, want white", got)
	}
}

func TestStyleBuilders(t *testing.T) {
	s := NewStyle(ColorFromRGB(10, 20, 30)).
		WithBackground(ColorFromRGB(1, 2, 3)).
		Italic().
		Strikethrough()

	if !s.Attributes.Has(AttrItalic) || !s.Attributes.Has(AttrStrikethrough) {
		t.Error("builder attributes missing")
	}
	if s.Foreground != ColorFromRGB(10, 20, 30) {
		t.Errorf("Foreground = %v", s.Foreground)
	}
	if s.Background != ColorFromRGB(1, 2, 3) {
		t.Errorf("Background = %v", s.Background)
	}
}

func TestStyleMerge(t *testing.T) {
	base := NewStyle(ColorFromRGB(1, 1, 1))
	over := DefaultStyle().Bold()

	merged := base.Merge(over)
	if merged.Foreground != ColorFromRGB(1, 1, 1) {
		t.Error("default overlay foreground should not clobber base")
	}
	if !merged.Attributes.Has(AttrBold) {
		t.Error("attributes should accumulate")
	}
}

func TestStringWidth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{"héllo", 5},
		{"世界", 4},
	}
	for _, tt := range tests {
		if got := StringWidth(tt.in); got != tt.want {
			t.Errorf("StringWidth(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCellsFromString(t *testing.T) {
	cells := CellsFromString("a世", DefaultStyle())
	if len(cells) != 2 {
		t.Fatalf("len(cells) = %d, want 2", len(cells))
	}
	if cells[0].Width != 1 || cells[1].Width != 2 {
		t.Errorf("widths = %d,%d, want 1,2", cells[0].Width, cells[1].Width)
	}
}
