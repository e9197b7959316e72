package draw

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MinSize           = 5
	MaxSize           = 17
	DefaultSize       = 9
	DefaultMaxHistory = 30
)

var (
	ErrBadSize  = fmt.Errorf("boards must be between %d and %d cells on each side", MinSize, MaxSize)
	ErrBadBoard = errors.New("could not read a board from that text")
)

type Point struct {
	Row, Col int
}

// Rect is inclusive on both corners.
type Rect struct {
	Min, Max Point
}

func NewRect(a, b Point) Rect {
	return Rect{
		Min: Point{min(a.Row, b.Row), min(a.Col, b.Col)},
		Max: Point{max(a.Row, b.Row), max(a.Col, b.Col)},
	}
}

func (r Rect) Contains(p Point) bool {
	return p.Row >= r.Min.Row && p.Row <= r.Max.Row && p.Col >= r.Min.Col && p.Col <= r.Max.Col
}

type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
	UpLeft
	UpRight
	DownLeft
	DownRight
)

var directionOffsets = map[Direction]Point{
	Up:        {-1, 0},
	Down:      {1, 0},
	Left:      {0, -1},
	Right:     {0, 1},
	UpLeft:    {-1, -1},
	UpRight:   {-1, 1},
	DownLeft:  {1, -1},
	DownRight: {1, 1},
}

type Board struct {
	Height, Width int
	Cells         [][]Colour
	Background    Colour
	Cursor        Point
	Anchor        Point
	Selecting     bool
	Colour        Colour
	Tool          Tool
	MaxHistory    int

	history [][][]Colour
	index   int
}

func NewBoard(height, width int, background Colour) (*Board, error) {
	if height < MinSize || height > MaxSize || width < MinSize || width > MaxSize {
		return nil, ErrBadSize
	}
	if background == "" {
		background = White
	}
	b := &Board{
		Height:     height,
		Width:      width,
		Cells:      make([][]Colour, height),
		Background: background,
		Cursor:     Point{height / 2, width / 2},
		Colour:     Black,
		Tool:       Brush{},
		MaxHistory: DefaultMaxHistory,
	}
	for r := range b.Cells {
		b.Cells[r] = make([]Colour, width)
		for c := range b.Cells[r] {
			b.Cells[r][c] = background
		}
	}
	b.history = [][][]Colour{b.snapshot()}
	return b, nil
}

// Parse reads a board written by Export.
func Parse(text string, background Colour) (*Board, error) {
	var rows [][]Colour
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		row := SplitColours(line)
		for _, c := range row {
			if !looksLikeEmoji(c) {
				return nil, ErrBadBoard
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrBadBoard
	}
	width := len(rows[0])
	for _, row := range rows {
		if len(row) != width {
			return nil, ErrBadBoard
		}
	}

	b, err := NewBoard(len(rows), width, background)
	if err != nil {
		return nil, err
	}
	b.Cells = rows
	b.history = [][][]Colour{b.snapshot()}
	return b, nil
}

func (b *Board) snapshot() [][]Colour {
	s := make([][]Colour, len(b.Cells))
	for r, row := range b.Cells {
		s[r] = append([]Colour(nil), row...)
	}
	return s
}

func (b *Board) restore(s [][]Colour) {
	for r, row := range s {
		copy(b.Cells[r], row)
	}
}

func (b *Board) record() {
	b.history = append(b.history[:b.index+1], b.snapshot())
	if limit := max(b.MaxHistory, 1); len(b.history) > limit {
		b.history = b.history[len(b.history)-limit:]
	}
	b.index = len(b.history) - 1
}

func (b *Board) At(p Point) Colour {
	return b.Cells[p.Row][p.Col]
}

func (b *Board) set(p Point, c Colour) bool {
	if b.Cells[p.Row][p.Col] == c {
		return false
	}
	b.Cells[p.Row][p.Col] = c
	return true
}

func (b *Board) Move(d Direction) {
	off := directionOffsets[d]
	b.Cursor.Row = (b.Cursor.Row + off.Row + b.Height) % b.Height
	b.Cursor.Col = (b.Cursor.Col + off.Col + b.Width) % b.Width
}

// ToggleSelect starts a selection anchored at the cursor, or ends the current
// one.
func (b *Board) ToggleSelect() {
	b.Selecting = !b.Selecting
	if b.Selecting {
		b.Anchor = b.Cursor
	}
}

func (b *Board) Selection() Rect {
	if !b.Selecting {
		return NewRect(b.Cursor, b.Cursor)
	}
	return NewRect(b.Anchor, b.Cursor)
}

func (b *Board) SetColour(c Colour) {
	b.Colour = c
}

func (b *Board) SetTool(t Tool) {
	b.Tool = t
}

// UseTool applies the current tool and records a history entry when any cell
// changed.
func (b *Board) UseTool() bool {
	if b.Tool == nil {
		return false
	}
	if !b.Tool.Use(b) {
		return false
	}
	b.record()
	return true
}

func (b *Board) CanUndo() bool { return b.index > 0 }
func (b *Board) CanRedo() bool { return b.index < len(b.history)-1 }

func (b *Board) Undo() bool {
	if !b.CanUndo() {
		return false
	}
	b.index--
	b.restore(b.history[b.index])
	return true
}

func (b *Board) Redo() bool {
	if !b.CanRedo() {
		return false
	}
	b.index++
	b.restore(b.history[b.index])
	return true
}

func (b *Board) fillRect(r Rect, c Colour) bool {
	var changed bool
	for row := r.Min.Row; row <= r.Max.Row; row++ {
		for col := r.Min.Col; col <= r.Max.Col; col++ {
			if b.set(Point{row, col}, c) {
				changed = true
			}
		}
	}
	return changed
}

// FloodFill replaces the 4-connected region sharing the colour at p.
func (b *Board) FloodFill(p Point, c Colour) bool {
	target := b.At(p)
	if target == c {
		return false
	}
	queue := []Point{p}
	b.set(p, c)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range []Direction{Up, Down, Left, Right} {
			off := directionOffsets[d]
			next := Point{cur.Row + off.Row, cur.Col + off.Col}
			if next.Row < 0 || next.Row >= b.Height || next.Col < 0 || next.Col >= b.Width {
				continue
			}
			if b.At(next) != target {
				continue
			}
			b.set(next, c)
			queue = append(queue, next)
		}
	}
	return true
}

const (
	markerCorner = "🔲"
	markerIdle   = "▫️"
	markerColumn = "🔽"
	markerRow    = "▶️"
)

// Render draws the board with marker rows; the markers covering the selection
// (or the cursor cell) are highlighted.
func (b *Board) Render() string {
	sel := b.Selection()
	var sb strings.Builder
	sb.WriteString(markerCorner)
	for col := 0; col < b.Width; col++ {
		if col >= sel.Min.Col && col <= sel.Max.Col {
			sb.WriteString(markerColumn)
		} else {
			sb.WriteString(markerIdle)
		}
	}
	for row := 0; row < b.Height; row++ {
		sb.WriteByte('\n')
		if row >= sel.Min.Row && row <= sel.Max.Row {
			sb.WriteString(markerRow)
		} else {
			sb.WriteString(markerIdle)
		}
		for _, c := range b.Cells[row] {
			sb.WriteString(string(c))
		}
	}
	return sb.String()
}

func (b *Board) Export() string {
	rows := make([]string, len(b.Cells))
	for r, row := range b.Cells {
		var sb strings.Builder
		for _, c := range row {
			sb.WriteString(string(c))
		}
		rows[r] = sb.String()
	}
	return strings.Join(rows, "\n")
}
