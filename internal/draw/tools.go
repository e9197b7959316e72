package draw

import "strings"

// Tool changes the board at the cursor or over the selection. Use reports
// whether any cell changed.
type Tool interface {
	Name() string
	Emoji() string
	Use(b *Board) bool
}

type Brush struct{}

func (Brush) Name() string  { return "brush" }
func (Brush) Emoji() string { return "🖌️" }
func (Brush) Use(b *Board) bool {
	return b.fillRect(b.Selection(), b.Colour)
}

type Eraser struct{}

func (Eraser) Name() string  { return "eraser" }
func (Eraser) Emoji() string { return "🧽" }
func (Eraser) Use(b *Board) bool {
	return b.fillRect(b.Selection(), b.Background)
}

type Fill struct{}

func (Fill) Name() string  { return "fill" }
func (Fill) Emoji() string { return "🪣" }
func (Fill) Use(b *Board) bool {
	return b.FloodFill(b.Cursor, b.Colour)
}

// EyeDropper picks up the colour under the cursor. It never changes cells.
type EyeDropper struct{}

func (EyeDropper) Name() string  { return "eyedropper" }
func (EyeDropper) Emoji() string { return "💉" }
func (EyeDropper) Use(b *Board) bool {
	b.Colour = b.At(b.Cursor)
	return false
}

// Replace swaps every cell of the cursor's colour for the current colour.
type Replace struct{}

func (Replace) Name() string  { return "replace" }
func (Replace) Emoji() string { return "🔄" }
func (Replace) Use(b *Board) bool {
	target := b.At(b.Cursor)
	if target == b.Colour {
		return false
	}
	var changed bool
	for r, row := range b.Cells {
		for c, cell := range row {
			if cell == target {
				b.Cells[r][c] = b.Colour
				changed = true
			}
		}
	}
	return changed
}

type Clear struct{}

func (Clear) Name() string  { return "clear" }
func (Clear) Emoji() string { return "🗑️" }
func (Clear) Use(b *Board) bool {
	return b.fillRect(Rect{Max: Point{b.Height - 1, b.Width - 1}}, b.Background)
}

var Tools = []Tool{Brush{}, Eraser{}, Fill{}, EyeDropper{}, Replace{}, Clear{}}

func ToolByName(name string) (Tool, bool) {
	for _, t := range Tools {
		if strings.EqualFold(t.Name(), name) {
			return t, true
		}
	}
	return nil, false
}
