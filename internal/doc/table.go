package doc

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	ErrLastRow    = errors.New("cannot delete the last row")
	ErrLastColumn = errors.New("cannot delete the last column")
	ErrNotMerged  = errors.New("cell is not merged")

	ErrMergeOverlap = errors.New("merge area overlaps a cell spanning in from outside")
)

// Default styles of cells created by table operations.
const (
	DefaultCellBorder  = "1px solid #ddd"
	DefaultCellPadding = "8px"
	DefaultStripeColor = "#f8f9fa"
	emptyCellText      = "\u00a0"
)

// Grid is the slot placement of a table's cells: rowspans occupy slots in
// later rows, colspans in later columns.
type Grid struct {
	Table *Node
	Rows  []*Node
	Slots [][]*Node
	Cols  int

	origin map[*Node][2]int
}

// NewGrid measures t.
func NewGrid(t *Node) *Grid {
	g := &Grid{Table: t, origin: make(map[*Node][2]int)}
	for _, c := range t.Children {
		if c.Kind == KindRow {
			g.Rows = append(g.Rows, c)
		}
	}
	g.Slots = make([][]*Node, len(g.Rows))
	for r, row := range g.Rows {
		col := 0
		for _, cell := range row.Children {
			if cell.Kind != KindCell {
				continue
			}
			for col < len(g.Slots[r]) && g.Slots[r][col] != nil {
				col++
			}
			g.origin[cell] = [2]int{r, col}
			rs, cs := spans(cell)
			for dr := 0; dr < rs && r+dr < len(g.Rows); dr++ {
				for dc := 0; dc < cs; dc++ {
					g.place(r+dr, col+dc, cell)
				}
			}
			col += cs
		}
	}
	for _, slots := range g.Slots {
		if len(slots) > g.Cols {
			g.Cols = len(slots)
		}
	}
	return g
}

func spans(cell *Node) (int, int) {
	rs, cs := cell.RowSpan, cell.ColSpan
	if rs < 1 {
		rs = 1
	}
	if cs < 1 {
		cs = 1
	}
	return rs, cs
}

func (g *Grid) place(r, c int, cell *Node) {
	for len(g.Slots[r]) <= c {
		g.Slots[r] = append(g.Slots[r], nil)
	}
	g.Slots[r][c] = cell
}

// At returns the cell occupying slot (r, c), or nil.
func (g *Grid) At(r, c int) *Node {
	if r < 0 || r >= len(g.Slots) || c < 0 || c >= len(g.Slots[r]) {
		return nil
	}
	return g.Slots[r][c]
}

// Origin returns the top-left slot of cell.
func (g *Grid) Origin(cell *Node) (row, col int, ok bool) {
	o, ok := g.origin[cell]
	return o[0], o[1], ok
}

// WellFormed reports whether every row occupies the same number of slots
// with no holes.
func (g *Grid) WellFormed() bool {
	for _, slots := range g.Slots {
		if len(slots) != g.Cols {
			return false
		}
		for _, s := range slots {
			if s == nil {
				return false
			}
		}
	}
	return true
}

// Shape returns rows and columns.
func (g *Grid) Shape() (int, int) { return len(g.Rows), g.Cols }

// NewTableNode builds a rows x cols table of empty styled cells.
func NewTableNode(rows, cols int) *Node {
	t := NewTable()
	t.Style.Set("width", "100%")
	t.Style.Set("border-collapse", "collapse")
	for r := 0; r < rows; r++ {
		row := NewRow()
		for c := 0; c < cols; c++ {
			row.AppendChild(newCell(nil))
		}
		t.AppendChild(row)
	}
	return t
}

// newCell creates an empty cell carrying the border and padding of ref.
func newCell(ref *Node) *Node {
	c := NewCell(false, NewText(emptyCellText))
	border, padding := DefaultCellBorder, DefaultCellPadding
	if ref != nil {
		if v := ref.Style.Get("border"); v != "" {
			border = v
		}
		if v := ref.Style.Get("padding"); v != "" {
			padding = v
		}
	}
	c.Style.Set("border", border)
	c.Style.Set("padding", padding)
	return c
}

// InsertRow inserts a row at grid line (0 inserts above the first row). The
// new row mirrors the column layout of the adjacent row; cells whose
// rowspan crosses the line grow instead of getting a new cell.
func InsertRow(t *Node, line int, ref *Node) {
	g := NewGrid(t)
	if line < 0 {
		line = 0
	}
	if line > len(g.Rows) {
		line = len(g.Rows)
	}
	row := NewRow()
	if len(g.Rows) == 0 {
		row.AppendChild(newCell(ref))
		t.AppendChild(row)
		return
	}
	mirror := line
	if mirror >= len(g.Rows) {
		mirror = len(g.Rows) - 1
	}
	grown := map[*Node]bool{}
	for c := 0; c < g.Cols; {
		cell := g.At(mirror, c)
		if cell == nil {
			row.AppendChild(newCell(ref))
			c++
			continue
		}
		or, oc, _ := g.Origin(cell)
		rs, cs := spans(cell)
		width := oc + cs - c
		if or < line && or+rs > line {
			if !grown[cell] {
				cell.RowSpan = rs + 1
				grown[cell] = true
			}
			c += width
			continue
		}
		nc := newCell(ref)
		if width > 1 {
			nc.ColSpan = width
		}
		row.AppendChild(nc)
		c += width
	}
	if line < len(g.Rows) {
		t.InsertBefore(row, g.Rows[line])
	} else {
		t.InsertAfter(row, g.Rows[len(g.Rows)-1])
	}
}

// InsertColumn inserts a column at grid line (0 inserts before the first
// column). Cells whose colspan crosses the line grow instead.
func InsertColumn(t *Node, line int, ref *Node) {
	g := NewGrid(t)
	if line < 0 {
		line = 0
	}
	if line > g.Cols {
		line = g.Cols
	}
	grown := map[*Node]bool{}
	for r, row := range g.Rows {
		if cell := g.At(r, line); cell != nil {
			_, oc, _ := g.Origin(cell)
			_, cs := spans(cell)
			if oc < line && oc+cs > line {
				if !grown[cell] {
					cell.ColSpan = cs + 1
					grown[cell] = true
				}
				continue
			}
		}
		nc := newCell(ref)
		row.InsertChild(domIndexForSlot(g, r, line), nc)
	}
}

// domIndexForSlot returns the child index in row r before which a cell
// starting at column col belongs.
func domIndexForSlot(g *Grid, r, col int) int {
	row := g.Rows[r]
	for i, c := range row.Children {
		if c.Kind != KindCell {
			continue
		}
		if _, oc, ok := g.Origin(c); ok && oc >= col {
			return i
		}
	}
	return len(row.Children)
}

// DeleteRow removes grid row r. Cells spanning into it shrink; cells that
// start in it and span further down move to the next row.
func DeleteRow(t *Node, r int) error {
	g := NewGrid(t)
	if len(g.Rows) <= 1 {
		return ErrLastRow
	}
	if r < 0 || r >= len(g.Rows) {
		return nil
	}
	seen := map[*Node]bool{}
	var moved []*Node
	for c := 0; c < len(g.Slots[r]); c++ {
		cell := g.Slots[r][c]
		if cell == nil || seen[cell] {
			continue
		}
		seen[cell] = true
		or, _, _ := g.Origin(cell)
		rs, _ := spans(cell)
		if rs <= 1 {
			continue
		}
		if or < r {
			cell.RowSpan = rs - 1
		} else if r+1 < len(g.Rows) {
			cell.RowSpan = rs - 1
			moved = append(moved, cell)
		}
	}
	if len(moved) > 0 {
		next := g.Rows[r+1]
		sort.Slice(moved, func(i, j int) bool {
			_, a, _ := g.Origin(moved[i])
			_, b, _ := g.Origin(moved[j])
			return a < b
		})
		isMoved := map[*Node]bool{}
		for _, cell := range moved {
			isMoved[cell] = true
		}
		for k, cell := range moved {
			_, oc, _ := g.Origin(cell)
			at := k
			for _, c := range next.Children {
				if c.Kind != KindCell || isMoved[c] {
					continue
				}
				if _, ocn, _ := g.Origin(c); ocn < oc {
					at++
				}
			}
			next.InsertChild(at, cell)
		}
	}
	g.Rows[r].Remove()
	return nil
}

// DeleteColumn removes grid column c. Cells spanning across it shrink.
func DeleteColumn(t *Node, c int) error {
	g := NewGrid(t)
	if g.Cols <= 1 {
		return ErrLastColumn
	}
	seen := map[*Node]bool{}
	for r := range g.Rows {
		cell := g.At(r, c)
		if cell == nil || seen[cell] {
			continue
		}
		seen[cell] = true
		_, cs := spans(cell)
		if cs > 1 {
			cell.ColSpan = cs - 1
			continue
		}
		cell.Remove()
	}
	return nil
}

// MergeCells extends cell to colSpan x rowSpan slots, clamped to the table
// edge and widened to fully contain any cell starting inside the area. Cells
// in the covered slots are removed. An area reaching into a cell that starts
// above or left of it is refused with ErrMergeOverlap and nothing changes.
func MergeCells(t *Node, cell *Node, colSpan, rowSpan int) error {
	g := NewGrid(t)
	r0, c0, ok := g.Origin(cell)
	if !ok {
		return nil
	}
	if colSpan < 1 {
		colSpan = 1
	}
	if rowSpan < 1 {
		rowSpan = 1
	}
	r1 := min(r0+rowSpan, len(g.Rows))
	c1 := min(c0+colSpan, g.Cols)
	for changed := true; changed; {
		changed = false
		for r := r0; r < r1; r++ {
			for c := c0; c < c1; c++ {
				other := g.At(r, c)
				if other == nil {
					continue
				}
				or, oc, _ := g.Origin(other)
				if or < r0 || oc < c0 {
					return fmt.Errorf("%w at row %d, column %d", ErrMergeOverlap, r, c)
				}
				rs, cs := spans(other)
				if end := min(or+rs, len(g.Rows)); end > r1 {
					r1, changed = end, true
				}
				if end := min(oc+cs, g.Cols); end > c1 {
					c1, changed = end, true
				}
			}
		}
	}
	removed := map[*Node]bool{cell: true}
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			other := g.At(r, c)
			if other == nil || removed[other] {
				continue
			}
			removed[other] = true
			other.Remove()
		}
	}
	cell.RowSpan = r1 - r0
	cell.ColSpan = c1 - c0
	return nil
}

// SplitCell resets a merged cell to 1x1. The cells removed by the merge are
// not recreated.
func SplitCell(cell *Node) error {
	rs, cs := spans(cell)
	if rs == 1 && cs == 1 {
		return ErrNotMerged
	}
	cell.RowSpan, cell.ColSpan = 1, 1
	return nil
}

// CellProps are inline styles applied to a cell. Empty fields are left
// untouched.
type CellProps struct {
	Background string `json:"background,omitempty" yaml:"background,omitempty"`
	TextColor  string `json:"textColor,omitempty" yaml:"textColor,omitempty"`
	Align      string `json:"align,omitempty" yaml:"align,omitempty"`
	VAlign     string `json:"vAlign,omitempty" yaml:"vAlign,omitempty"`
	Padding    string `json:"padding,omitempty" yaml:"padding,omitempty"`
}

// ApplyCellProps writes p onto cell.
func ApplyCellProps(cell *Node, p CellProps) {
	set := func(prop, v string) {
		if v != "" {
			cell.Style.Set(prop, v)
		}
	}
	set("background-color", p.Background)
	set("color", p.TextColor)
	set("text-align", p.Align)
	set("vertical-align", p.VAlign)
	set("padding", p.Padding)
}

// TableProps are inline styles applied to a whole table. Empty fields are
// left untouched; Striped nil leaves striping as it is.
type TableProps struct {
	Width       string `json:"width,omitempty" yaml:"width,omitempty"`
	BorderWidth string `json:"borderWidth,omitempty" yaml:"borderWidth,omitempty"`
	BorderStyle string `json:"borderStyle,omitempty" yaml:"borderStyle,omitempty"`
	BorderColor string `json:"borderColor,omitempty" yaml:"borderColor,omitempty"`
	CellSpacing string `json:"cellSpacing,omitempty" yaml:"cellSpacing,omitempty"`
	Striped     *bool  `json:"striped,omitempty" yaml:"striped,omitempty"`
	StripeColor string `json:"stripeColor,omitempty" yaml:"stripeColor,omitempty"`
}

// ApplyTableProps writes p onto t and, for borders, onto every cell.
func ApplyTableProps(t *Node, p TableProps) {
	if p.Width != "" {
		t.Style.Set("width", p.Width)
	}
	if p.BorderWidth != "" || p.BorderStyle != "" || p.BorderColor != "" {
		border := borderValue(p)
		t.Style.Set("border", border)
		for _, cell := range t.FindAll(KindCell) {
			cell.Style.Set("border", border)
		}
	}
	if p.CellSpacing != "" {
		t.Style.Set("border-spacing", p.CellSpacing)
		if p.CellSpacing == "0" || p.CellSpacing == "0px" {
			t.Style.Set("border-collapse", "collapse")
		} else {
			t.Style.Set("border-collapse", "separate")
		}
	}
	if p.Striped != nil {
		color := p.StripeColor
		if color == "" {
			color = DefaultStripeColor
		}
		Stripe(t, *p.Striped, color)
	}
}

func borderValue(p TableProps) string {
	w, s, c := p.BorderWidth, p.BorderStyle, p.BorderColor
	if w == "" {
		w = "1px"
	}
	if _, err := strconv.Atoi(w); err == nil {
		w += "px"
	}
	if s == "" {
		s = "solid"
	}
	if c == "" {
		c = "#ddd"
	}
	return w + " " + s + " " + c
}

// Stripe sets (or clears) the background of every even-indexed row after
// the header row.
func Stripe(t *Node, on bool, color string) {
	for i, row := range NewGrid(t).Rows {
		if i == 0 || i%2 != 0 {
			continue
		}
		if on {
			row.Style.Set("background-color", color)
		} else {
			row.Style.Del("background-color")
		}
	}
}
