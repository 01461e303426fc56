package textutil

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"history", 10, "history"},
		{"history", 7, "history"},
		{"history", 5, "hist…"},
		{"history", 1, "…"},
		{"history", 0, ""},
		{"日本語テキスト", 5, "日本…"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestPadRightVisual(t *testing.T) {
	if got := PadRightVisual("SPC g", 8); got != "SPC g   " {
		t.Errorf("PadRightVisual = %q", got)
	}
	if got := PadRightVisual("日本", 6); VisualWidth(got) != 6 {
		t.Errorf("PadRightVisual wide runes width = %d, want 6", VisualWidth(got))
	}
	if got := PadRightVisual("workspace", 4); got != "wor…" {
		t.Errorf("PadRightVisual truncation = %q", got)
	}
}
