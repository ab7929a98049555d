package termview

import (
	"math"

	"github.com/gdamore/tcell/v2"
)

// Cell is one composed terminal cell.
type Cell struct {
	Rune  rune
	Style tcell.Style
	Depth float64
}

// Buffer is a depth-tested cell grid flushed to a screen once per frame.
type Buffer struct {
	cells  []Cell
	width  int
	height int
}

// NewBuffer creates a buffer of the given size.
func NewBuffer(width, height int) *Buffer {
	b := &Buffer{}
	b.Resize(width, height)
	return b
}

// Resize changes the buffer size, reallocating only when it grows.
func (b *Buffer) Resize(width, height int) {
	size := max(width*height, 0)
	if cap(b.cells) < size {
		b.cells = make([]Cell, size)
	} else {
		b.cells = b.cells[:size]
	}
	b.width, b.height = width, height
	b.Clear()
}

// Size returns the buffer dimensions.
func (b *Buffer) Size() (int, int) { return b.width, b.height }

// Clear empties every cell.
func (b *Buffer) Clear() {
	for i := range b.cells {
		b.cells[i] = Cell{Rune: ' ', Style: tcell.StyleDefault, Depth: math.Inf(1)}
	}
}

// Plot writes r at (x, y) if it is nearer than what the cell holds.
func (b *Buffer) Plot(x, y int, r rune, style tcell.Style, depth float64) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return
	}
	c := &b.cells[y*b.width+x]
	if depth >= c.Depth {
		return
	}
	*c = Cell{Rune: r, Style: style, Depth: depth}
}

// Text writes s starting at (x, y) over anything already there.
func (b *Buffer) Text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		if x >= b.width {
			return
		}
		if x >= 0 && y >= 0 && y < b.height {
			b.cells[y*b.width+x] = Cell{Rune: r, Style: style, Depth: math.Inf(-1)}
		}
		x++
	}
}

// At returns the cell at (x, y).
func (b *Buffer) At(x, y int) Cell {
	return b.cells[y*b.width+x]
}

// Row returns the runes of row y as a string.
func (b *Buffer) Row(y int) string {
	out := make([]rune, b.width)
	for x := range out {
		out[x] = b.cells[y*b.width+x].Rune
	}
	return string(out)
}

// Filled counts cells that hold something other than a space.
func (b *Buffer) Filled() int {
	n := 0
	for _, c := range b.cells {
		if c.Rune != ' ' {
			n++
		}
	}
	return n
}

// Flush copies the buffer to screen and shows it.
func (b *Buffer) Flush(screen tcell.Screen) {
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			c := b.cells[y*b.width+x]
			screen.SetContent(x, y, c.Rune, nil, c.Style)
		}
	}
	screen.Show()
}
