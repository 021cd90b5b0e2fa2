package layout

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

func TestWidth(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultWidth},
		{-5, DefaultWidth},
		{20, MinWidth},
		{100, 100},
		{500, MaxWidth},
	}
	for _, tt := range tests {
		if got := Width(tt.in); got != tt.want {
			t.Errorf("Width(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRenderHeader(t *testing.T) {
	out := RenderHeader("Fractions", "thread-1", 60)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if w := lipgloss.Width(lines[0]); w != 60 {
		t.Errorf("title line width = %d, want 60", w)
	}
	plain := ansi.Strip(lines[0])
	if !strings.HasPrefix(plain, "Fractions") || !strings.HasSuffix(plain, "thread-1") {
		t.Errorf("title line = %q", plain)
	}
	if got := ansi.Strip(lines[1]); got != strings.Repeat("─", 60) {
		t.Errorf("divider = %q", got)
	}
}

func TestKeyValue(t *testing.T) {
	got := ansi.Strip(KeyValue("Skill", "Add fractions"))
	want := "Skill:      Add fractions"
	if got != want {
		t.Errorf("KeyValue = %q, want %q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"much too long", 8, "much to…"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
