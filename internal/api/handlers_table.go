package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/mintaro/internal/doc"
	"github.com/dgallion1/mintaro/internal/editor"
	"github.com/dgallion1/mintaro/internal/session"
)

func (s *Server) handleTableSelect(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var ref editor.CellRef
	if !decode(w, r, &ref) {
		return
	}
	respond(w, sess, sess.Editor.SelectCell(ref))
}

type menuRequest struct {
	Cell     editor.CellRef `json:"cell"`
	At       editor.Point   `json:"at"`
	Viewport editor.Size    `json:"viewport"`
}

func (s *Server) handleTableMenu(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req menuRequest
	if !decode(w, r, &req) {
		return
	}
	pos, err := sess.Editor.OpenContextMenu(req.Cell, req.At, req.Viewport)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"position": pos, "document": stateOf(sess)})
}

func (s *Server) handleTableMenuClose(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Editor.CloseContextMenu()
	respond(w, sess, nil)
}

type toolbarRequest struct {
	Table    editor.Rect `json:"table"`
	Toolbar  editor.Size `json:"toolbar"`
	Viewport editor.Size `json:"viewport"`
}

func (s *Server) handleTableToolbar(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req toolbarRequest
	if !decode(w, r, &req) {
		return
	}
	pos, err := sess.Editor.PositionToolbar(req.Table, req.Toolbar, req.Viewport)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"position": pos})
}

type mergeRequest struct {
	ColSpan int `json:"colSpan"`
	RowSpan int `json:"rowSpan"`
}

// handleTableOp runs one of the table context menu actions on the selected
// cell.
func (s *Server) handleTableOp(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	e := sess.Editor
	var err error
	switch op := chi.URLParam(r, "op"); op {
	case "insert-row-above":
		err = e.InsertRow(false)
	case "insert-row-below":
		err = e.InsertRow(true)
	case "insert-column-left":
		err = e.InsertColumn(false)
	case "insert-column-right":
		err = e.InsertColumn(true)
	case "delete-row":
		err = e.DeleteRow()
	case "delete-column":
		err = e.DeleteColumn()
	case "delete-table":
		err = e.DeleteTable()
	case "merge":
		var req mergeRequest
		if !decode(w, r, &req) {
			return
		}
		err = e.MergeCells(req.ColSpan, req.RowSpan)
	case "split":
		err = e.SplitCell()
	case "cell-properties":
		var p doc.CellProps
		if !decode(w, r, &p) {
			return
		}
		err = e.SetCellProperties(p)
	case "table-properties":
		var p doc.TableProps
		if !decode(w, r, &p) {
			return
		}
		err = e.SetTableProperties(p)
	default:
		jsonError(w, "unknown table action: "+op, http.StatusNotFound)
		return
	}
	respond(w, sess, err)
}
