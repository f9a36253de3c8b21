package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/mintaro/internal/editor"
	"github.com/dgallion1/mintaro/internal/session"
)

type sessionHandler func(w http.ResponseWriter, r *http.Request, s *session.Session)

// withSession resolves {id} to an open session, reopening a saved document
// when needed.
func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Open(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		h(w, r, sess)
	}
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req session.CreateRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := s.sessions.Create(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stateOf(sess))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"documents": s.sessions.List()})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, stateOf(sess))
}

// handleCloseDocument closes the editor; the saved copy is kept.
func (s *Server) handleCloseDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteDocument closes the editor and deletes the saved copy.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.log.Error("delete document", "session", id, "error", err)
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type contentRequest struct {
	Content string `json:"content"`
	HTML    bool   `json:"html"`
}

func (s *Server) handleSetContent(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req contentRequest
	if !decode(w, r, &req) {
		return
	}
	if err := sess.Editor.SetContent(req.Content, req.HTML); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(sess))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := sess.Editor.Clear(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(sess))
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	p, err := sess.Editor.Save(r.Context())
	if errors.Is(err, editor.ErrClosed) {
		writeError(w, err)
		return
	}
	if err != nil {
		s.log.Error("save failed", "session", sess.ID, "error", err)
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	name := r.URL.Query().Get("filename")
	if name == "" {
		name = sess.ID
	}
	d := sess.Editor.ExportHTML(name)
	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+d.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Body)))
	w.Write(d.Body)
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"commands": editor.Commands()})
}
