package editor

import (
	"fmt"

	"github.com/dgallion1/mintaro/internal/doc"
)

// TableState is the state of the table editing subsystem.
type TableState string

const (
	NoSelection     TableState = "no_selection"
	CellSelected    TableState = "cell_selected"
	ContextMenuOpen TableState = "context_menu_open"
)

// CellRef addresses a cell: the table index in document order, the grid row
// and the grid column of any slot the cell covers.
type CellRef struct {
	Table int `json:"table"`
	Row   int `json:"row"`
	Col   int `json:"col"`
}

// TableStatus is a snapshot of the table subsystem.
type TableStatus struct {
	State TableState `json:"state"`
	Cell  *CellRef   `json:"cell,omitempty"`
	Rows  int        `json:"rows,omitempty"`
	Cols  int        `json:"cols,omitempty"`
}

// tableSelection is the selected cell handle. The handle is dropped as soon
// as the cell leaves the tree.
type tableSelection struct {
	cell *doc.Node
	menu bool
}

func (e *Editor) clearCellLocked() {
	e.table = tableSelection{}
	e.overlays.hide(overlayTableToolbar)
	e.overlays.hide(overlayTableMenu)
}

func (e *Editor) cellAt(ref CellRef) (*doc.Node, error) {
	tables := e.root.FindAll(doc.KindTable)
	if ref.Table < 0 || ref.Table >= len(tables) {
		return nil, fmt.Errorf("%w: table %d does not exist", ErrInvalidValue, ref.Table)
	}
	cell := doc.NewGrid(tables[ref.Table]).At(ref.Row, ref.Col)
	if cell == nil {
		return nil, fmt.Errorf("%w: no cell at row %d column %d", ErrInvalidValue, ref.Row, ref.Col)
	}
	return cell, nil
}

// refOf returns the address of the top-left slot of cell.
func (e *Editor) refOf(cell *doc.Node) (CellRef, int, int, bool) {
	t := cell.Ancestor(doc.KindTable)
	if t == nil {
		return CellRef{}, 0, 0, false
	}
	g := doc.NewGrid(t)
	r, c, ok := g.Origin(cell)
	if !ok {
		return CellRef{}, 0, 0, false
	}
	for i, other := range e.root.FindAll(doc.KindTable) {
		if other == t {
			rows, cols := g.Shape()
			return CellRef{Table: i, Row: r, Col: c}, rows, cols, true
		}
	}
	return CellRef{}, 0, 0, false
}

// SelectCell selects the cell at ref and shows the floating toolbar.
func (e *Editor) SelectCell(ref CellRef) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	cell, err := e.cellAt(ref)
	if err != nil {
		return err
	}
	e.table = tableSelection{cell: cell}
	e.overlays.hide(overlayTableMenu)
	e.overlays.show(overlayTableToolbar, Point{})
	return nil
}

// PositionToolbar places the floating toolbar relative to the selected
// table's bounding box.
func (e *Editor) PositionToolbar(table Rect, tb Size, viewport Size) (Point, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.table.cell == nil {
		return Point{}, ErrNoCellSelected
	}
	at := PlaceToolbar(table, tb, viewport)
	e.overlays.show(overlayTableToolbar, at)
	return at, nil
}

// OpenContextMenu selects the cell at ref (a right-click) and opens the
// context menu at the cursor, clamped to the viewport.
func (e *Editor) OpenContextMenu(ref CellRef, at Point, viewport Size) (Point, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Point{}, ErrClosed
	}
	cell, err := e.cellAt(ref)
	if err != nil {
		return Point{}, err
	}
	e.table = tableSelection{cell: cell, menu: true}
	pos := PlaceMenu(at, e.opts.MenuSize, viewport)
	e.overlays.show(overlayTableToolbar, Point{})
	e.overlays.show(overlayTableMenu, pos)
	return pos, nil
}

// CloseContextMenu closes the menu and keeps the cell selected.
func (e *Editor) CloseContextMenu() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeMenuLocked()
}

func (e *Editor) closeMenuLocked() {
	e.table.menu = false
	e.overlays.hide(overlayTableMenu)
}

// ClearCellSelection drops the selection (a click outside any cell).
func (e *Editor) ClearCellSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearCellLocked()
}

// TableStatus returns the current state and selected cell.
func (e *Editor) TableStatus() TableStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.validateSelectionsLocked()
	return e.tableStatusLocked()
}

func (e *Editor) tableStatusLocked() TableStatus {
	if e.table.cell == nil {
		return TableStatus{State: NoSelection}
	}
	ref, rows, cols, ok := e.refOf(e.table.cell)
	if !ok {
		return TableStatus{State: NoSelection}
	}
	st := TableStatus{State: CellSelected, Cell: &ref, Rows: rows, Cols: cols}
	if e.table.menu {
		st.State = ContextMenuOpen
	}
	return st
}

// tableOp runs a structural or styling action on the selected cell. A
// refused action raises a notice and leaves the document untouched; a
// successful one is recorded immediately. Either way the context menu
// closes.
func (e *Editor) tableOp(name string, fn func(t, cell *doc.Node) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.validateSelectionsLocked()
	cell := e.table.cell
	if cell == nil {
		e.noticeLocked(ErrNoCellSelected)
		return ErrNoCellSelected
	}
	e.closeMenuLocked()
	t := cell.Ancestor(doc.KindTable)
	e.flushLocked()
	if err := fn(t, cell); err != nil {
		e.noticeLocked(err)
		return err
	}
	e.log.Debug("table edit", "op", name)
	e.recordLocked()
	return nil
}

func span(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// InsertRow inserts a row above the selected cell, or below it (after its
// rowspan) when after is set.
func (e *Editor) InsertRow(after bool) error {
	return e.tableOp("insertRow", func(t, cell *doc.Node) error {
		r, _, _ := doc.NewGrid(t).Origin(cell)
		line := r
		if after {
			line = r + span(cell.RowSpan)
		}
		doc.InsertRow(t, line, cell)
		return nil
	})
}

// InsertColumn inserts a column left of the selected cell, or right of it
// when after is set.
func (e *Editor) InsertColumn(after bool) error {
	return e.tableOp("insertColumn", func(t, cell *doc.Node) error {
		_, c, _ := doc.NewGrid(t).Origin(cell)
		line := c
		if after {
			line = c + span(cell.ColSpan)
		}
		doc.InsertColumn(t, line, cell)
		return nil
	})
}

// DeleteRow removes the row of the selected cell. The last row is never
// removed (ErrLastRow).
func (e *Editor) DeleteRow() error {
	return e.tableOp("deleteRow", func(t, cell *doc.Node) error {
		r, _, _ := doc.NewGrid(t).Origin(cell)
		return doc.DeleteRow(t, r)
	})
}

// DeleteColumn removes the column of the selected cell. The last column is
// never removed (ErrLastColumn).
func (e *Editor) DeleteColumn() error {
	return e.tableOp("deleteColumn", func(t, cell *doc.Node) error {
		_, c, _ := doc.NewGrid(t).Origin(cell)
		return doc.DeleteColumn(t, c)
	})
}

// DeleteTable removes the table holding the selected cell.
func (e *Editor) DeleteTable() error {
	return e.tableOp("deleteTable", func(t, cell *doc.Node) error {
		t.Remove()
		return nil
	})
}

// MergeCells spans the selected cell over colSpan x rowSpan slots, clamped
// to the table edge. An area crossing a cell that spans in from above or
// the left is refused with ErrMergeOverlap.
func (e *Editor) MergeCells(colSpan, rowSpan int) error {
	return e.tableOp("mergeCells", func(t, cell *doc.Node) error {
		if colSpan < 1 || rowSpan < 1 {
			return fmt.Errorf("%w: merge %dx%d", ErrInvalidValue, colSpan, rowSpan)
		}
		return doc.MergeCells(t, cell, colSpan, rowSpan)
	})
}

// SplitCell resets the selected cell to 1x1 (ErrNotMerged when it already
// is). Cells removed by the merge are not recreated.
func (e *Editor) SplitCell() error {
	return e.tableOp("splitCell", func(t, cell *doc.Node) error {
		return doc.SplitCell(cell)
	})
}

// SetCellProperties styles the selected cell.
func (e *Editor) SetCellProperties(p doc.CellProps) error {
	return e.tableOp("cellProperties", func(t, cell *doc.Node) error {
		doc.ApplyCellProps(cell, p)
		return nil
	})
}

// SetTableProperties styles the table holding the selected cell.
func (e *Editor) SetTableProperties(p doc.TableProps) error {
	return e.tableOp("tableProperties", func(t, cell *doc.Node) error {
		doc.ApplyTableProps(t, p)
		return nil
	})
}
