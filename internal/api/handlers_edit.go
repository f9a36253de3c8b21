package api

import (
	"net/http"

	"github.com/dgallion1/mintaro/internal/editor"
	"github.com/dgallion1/mintaro/internal/session"
)

// respond writes the document state, or err when the edit was refused.
func respond(w http.ResponseWriter, sess *session.Session, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(sess))
}

type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req textRequest
	if !decode(w, r, &req) {
		return
	}
	respond(w, sess, sess.Editor.Input(req.Text))
}

func (s *Server) handleDeleteBackward(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	respond(w, sess, sess.Editor.DeleteBackward())
}

type compositionRequest struct {
	Active bool `json:"active"`
}

func (s *Server) handleComposition(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req compositionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Active {
		sess.Editor.BeginComposition()
	} else {
		sess.Editor.EndComposition()
	}
	respond(w, sess, nil)
}

type pasteRequest struct {
	HTML string `json:"html"`
}

func (s *Server) handlePaste(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req pasteRequest
	if !decode(w, r, &req) {
		return
	}
	respond(w, sess, sess.Editor.Paste(req.HTML))
}

type selectionRequest struct {
	Start int  `json:"start"`
	End   int  `json:"end"`
	All   bool `json:"all"`
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req selectionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.All {
		sess.Editor.SelectAll()
	} else {
		sess.Editor.Select(req.Start, req.End)
	}
	respond(w, sess, nil)
}

type focusRequest struct {
	Focused bool `json:"focused"`
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req focusRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Focused {
		sess.Editor.Focus()
	} else {
		sess.Editor.Blur()
	}
	respond(w, sess, nil)
}

type commandRequest struct {
	Command string `json:"command"`
	Value   string `json:"value"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req commandRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Command == "" {
		jsonError(w, "command is required", http.StatusBadRequest)
		return
	}
	respond(w, sess, sess.Editor.Execute(r.Context(), req.Command, req.Value))
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var k editor.Key
	if !decode(w, r, &k) {
		return
	}
	handled, err := sess.Editor.HandleKey(r.Context(), k)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"handled": handled, "document": stateOf(sess)})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	changed := sess.Editor.Undo()
	writeJSON(w, http.StatusOK, map[string]any{"changed": changed, "document": stateOf(sess)})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	changed := sess.Editor.Redo()
	writeJSON(w, http.StatusOK, map[string]any{"changed": changed, "document": stateOf(sess)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, map[string]any{
		"history": sess.Editor.History(),
		"entries": sess.Editor.HistoryEntries(),
	})
}
