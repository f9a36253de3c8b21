package api

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/dgallion1/mintaro/internal/colorpick"
	"github.com/dgallion1/mintaro/internal/editor"
	"github.com/dgallion1/mintaro/internal/embed"
	"github.com/dgallion1/mintaro/internal/parser"
	"github.com/dgallion1/mintaro/internal/session"
)

// maxUploadFiles bounds a single multi-file image upload.
const maxUploadFiles = 10

func (s *Server) handleUploadImages(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	limit := s.cfg.MaxUploadBytes * maxUploadFiles
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		jsonError(w, fmt.Sprintf("upload exceeds %s or is malformed: %v", humanize.IBytes(uint64(limit)), err), http.StatusBadRequest)
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		jsonError(w, "no files uploaded", http.StatusBadRequest)
		return
	}
	if len(headers) > maxUploadFiles {
		jsonError(w, fmt.Sprintf("at most %d files per upload", maxUploadFiles), http.StatusBadRequest)
		return
	}

	files := make([]editor.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			jsonError(w, "failed to read upload "+fh.Filename, http.StatusBadRequest)
			return
		}
		defer f.Close()
		files = append(files, editor.File{Name: filepath.Base(fh.Filename), Reader: f})
	}

	// Failed files are reported as notices; the rest are inserted.
	if err := sess.Editor.InsertImages(r.Context(), files); err != nil {
		s.log.Warn("image upload partially failed", "session", sess.ID, "error", err)
	}
	respond(w, sess, nil)
}

type imageSelectRequest struct {
	Index int `json:"index"`
}

func (s *Server) handleSelectImage(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req imageSelectRequest
	if !decode(w, r, &req) {
		return
	}
	info, err := sess.Editor.SelectImage(req.Index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"image": info, "document": stateOf(sess)})
}

func (s *Server) handleResizeImage(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req embed.ResizeRequest
	if !decode(w, r, &req) {
		return
	}
	respond(w, sess, sess.Editor.ResizeImage(req))
}

type embedRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req embedRequest
	if !decode(w, r, &req) {
		return
	}
	respond(w, sess, sess.Editor.EmbedURL(req.URL))
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxImportBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxImportBytes); err != nil {
		jsonError(w, fmt.Sprintf("file exceeds %s or is malformed: %v", humanize.IBytes(uint64(s.cfg.MaxImportBytes)), err), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !parser.IsSupportedExtension(name) {
		jsonError(w, "unsupported file type: "+filepath.Ext(name), http.StatusBadRequest)
		return
	}
	s.log.Info("import received", "session", sess.ID, "filename", name, "size", humanize.IBytes(uint64(header.Size)))
	respond(w, sess, sess.Editor.Import(r.Context(), file, name))
}

type colorOpenRequest struct {
	Target colorpick.Target `json:"target"`
}

type colorPickRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type colorBrightnessRequest struct {
	Value float64 `json:"value"`
}

type colorHexRequest struct {
	Hex string `json:"hex"`
}

func colorResponse(w http.ResponseWriter, cs editor.ColorState, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (s *Server) handleColorOpen(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req colorOpenRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Target == "" {
		req.Target = colorpick.Foreground
	}
	cs, err := sess.Editor.OpenColorPicker(req.Target)
	colorResponse(w, cs, err)
}

func (s *Server) handleColorPick(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req colorPickRequest
	if !decode(w, r, &req) {
		return
	}
	cs, err := sess.Editor.PickColorAt(req.X, req.Y)
	colorResponse(w, cs, err)
}

func (s *Server) handleColorBrightness(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req colorBrightnessRequest
	if !decode(w, r, &req) {
		return
	}
	cs, err := sess.Editor.SetColorBrightness(req.Value)
	colorResponse(w, cs, err)
}

func (s *Server) handleColorHex(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req colorHexRequest
	if !decode(w, r, &req) {
		return
	}
	cs, err := sess.Editor.SetColorHex(req.Hex)
	colorResponse(w, cs, err)
}

func (s *Server) handleColorEyedropper(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	cs, err := sess.Editor.UseEyedropper(r.Context())
	colorResponse(w, cs, err)
}

func (s *Server) handleColorApply(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	respond(w, sess, sess.Editor.ApplyColor())
}

func (s *Server) handleColorCancel(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Editor.CancelColor()
	respond(w, sess, nil)
}
