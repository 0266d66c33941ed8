package layout

import (
	"strings"
	"testing"
)

func TestPlain(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no escapes", "unread", "unread"},
		{"bold", "\x1b[1mreading\x1b[0m", "reading"},
		{"mixed", "a \x1b[1;4mmatch\x1b[0m here", "a match here"},
		{"only escapes", "\x1b[1m\x1b[0m", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Plain(tt.input); got != tt.want {
				t.Errorf("Plain(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWidth(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"ascii", "youtube", 7},
		{"styled", "\x1b[31mdone\x1b[0m", 4},
		{"accented", "äö", 2},
		{"cjk is double width", "日本", 4},
		{"emoji is double width", "🚀 Go", 5},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Width(tt.input); got != tt.want {
				t.Errorf("Width(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncateText(t *testing.T) {
	cfg := DefaultConfig().Text

	tests := []struct {
		name      string
		text      string
		maxWidth  int
		want      string
		truncated bool
	}{
		{"fits", "Go Concurrency", 20, "Go Concurrency", false},
		{"exact", "Go", 2, "Go", false},
		{"cut", "Go Concurrency Patterns", 8, "Go Co...", true},
		{"only ellipsis fits", "Patterns", 3, "...", true},
		{"narrower than ellipsis", "Patterns", 2, "..", true},
		{"zero width", "Patterns", 0, "", true},
		{"empty", "", 5, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := TruncateText(tt.text, tt.maxWidth, cfg)
			if got != tt.want || truncated != tt.truncated {
				t.Errorf("TruncateText(%q, %d) = (%q, %v), want (%q, %v)",
					tt.text, tt.maxWidth, got, truncated, tt.want, tt.truncated)
			}
		})
	}
}

func TestTruncateText_WideRunes(t *testing.T) {
	cfg := DefaultConfig().Text
	for _, limit := range []int{4, 5, 6, 7} {
		got, truncated := TruncateText("🚀 Launch notes", limit, cfg)
		if !truncated {
			t.Errorf("limit %d: expected truncation", limit)
		}
		if w := Width(got); w > limit {
			t.Errorf("limit %d: %q is %d cells wide", limit, got, w)
		}
	}
}

func TestFitLabel(t *testing.T) {
	cfg := DefaultConfig().Text

	tests := []struct {
		name      string
		prefix    string
		text      string
		suffix    string
		maxWidth  int
		want      string
		truncated bool
	}{
		{"fits", "> ", "blog", " 3", 10, "> blog 3", false},
		{"keeps count", "> ", "Development", " 12", 12, "> Deve... 12", true},
		{"no suffix", "> ", "Learning Rust the hard way", "", 12, "> Learnin...", true},
		{"prefix and suffix too wide", "* ", "abc", "/", 4, "*...", true},
		{"zero width", "> ", "blog", " 3", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := FitLabel(tt.prefix, tt.text, tt.suffix, tt.maxWidth, cfg)
			if got != tt.want || truncated != tt.truncated {
				t.Errorf("FitLabel(%q, %q, %q, %d) = (%q, %v), want (%q, %v)",
					tt.prefix, tt.text, tt.suffix, tt.maxWidth, got, truncated, tt.want, tt.truncated)
			}
		})
	}
}

func TestFitLabel_EmojiArea(t *testing.T) {
	cfg := DefaultConfig().Text
	got, truncated := FitLabel("  ", "🦀 Rust and systems", " 14", 12, cfg)
	if !truncated {
		t.Fatal("expected truncation")
	}
	if w := Width(got); w > 12 {
		t.Errorf("%q is %d cells wide, want <= 12", got, w)
	}
	if !strings.HasSuffix(got, " 14") {
		t.Errorf("%q lost its count", got)
	}
}

func TestTruncateStyled(t *testing.T) {
	cfg := DefaultConfig().Text

	tests := []struct {
		name      string
		input     string
		maxWidth  int
		wantReset bool
	}{
		{"fits plain", "hello", 10, false},
		{"fits styled", "\x1b[1mhello\x1b[0m", 10, false},
		{"cut plain", "hello world", 8, true},
		{"cut styled", "\x1b[1mhello world\x1b[0m", 8, true},
		{"cut mid style", "he\x1b[1mllo wor\x1b[0mld", 8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateStyled(tt.input, tt.maxWidth, cfg)
			if w := Width(got); w > tt.maxWidth {
				t.Errorf("width = %d, want <= %d (got %q)", w, tt.maxWidth, got)
			}
			if tt.wantReset && !strings.HasSuffix(got, reset) {
				t.Errorf("cut line should end with a reset, got %q", got)
			}
			if !tt.wantReset && got != tt.input {
				t.Errorf("fitting input changed: %q", got)
			}
		})
	}

	if got := TruncateStyled("hello", 0, cfg); got != "" {
		t.Errorf("zero width = %q, want empty", got)
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"pads plain", "ab", 5, "ab   "},
		{"counts cells", "日本", 5, "日本 "},
		{"ignores escapes", "\x1b[1mab\x1b[0m", 3, "\x1b[1mab\x1b[0m "},
		{"already wide", "hello", 3, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PadRight(tt.input, tt.width); got != tt.want {
				t.Errorf("PadRight(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
			}
		})
	}
}
