package layout

import "testing"

func TestPanes(t *testing.T) {
	cfg := DefaultConfig().Pane // offset 10, sidebar 22% (min 18), list/preview min 24, height -7 (min 5)

	tests := []struct {
		name   string
		width  int
		height int
		want   PaneLayout
	}{
		{"wide", 120, 40, PaneLayout{Sidebar: 24, List: 43, Preview: 43, Height: 33}},
		{"odd column goes to the list", 162, 40, PaneLayout{Sidebar: 33, List: 60, Preview: 59, Height: 33}},
		{"sidebar minimum", 80, 24, PaneLayout{Sidebar: 18, List: 26, Preview: 26, Height: 17}},
		{"every minimum", 50, 8, PaneLayout{Sidebar: 18, List: 24, Preview: 24, Height: 5}},
		{"nothing", 0, 0, PaneLayout{Sidebar: 18, List: 24, Preview: 24, Height: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Panes(tt.width, tt.height, cfg)
			got.padding = 0
			if got != tt.want {
				t.Errorf("Panes(%d, %d) = %+v, want %+v", tt.width, tt.height, got, tt.want)
			}
		})
	}
}

func TestPaneLayout_InnerAndRows(t *testing.T) {
	p := Panes(120, 24, DefaultConfig().Pane) // padding 4, height 17

	if got := p.Inner(p.List); got != p.List-4 {
		t.Errorf("Inner(%d) = %d, want %d", p.List, got, p.List-4)
	}
	if got := p.Inner(2); got != 1 {
		t.Errorf("Inner(2) = %d, want 1", got)
	}
	if got := p.Rows(1); got != 16 {
		t.Errorf("Rows(1) = %d, want 16", got)
	}
	if got := p.Rows(40); got != 1 {
		t.Errorf("Rows(40) = %d, want 1", got)
	}
}

func TestViewport(t *testing.T) {
	tests := []struct {
		name   string
		cursor int
		total  int
		rows   int
		want   int
	}{
		{"fits", 2, 5, 10, 0},
		{"near top", 1, 20, 10, 0},
		{"centred", 10, 20, 10, 5},
		{"near bottom clamps", 18, 20, 10, 10},
		{"last row", 19, 20, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Viewport(tt.cursor, tt.total, tt.rows); got != tt.want {
				t.Errorf("Viewport(%d, %d, %d) = %d, want %d", tt.cursor, tt.total, tt.rows, got, tt.want)
			}
		})
	}
}
