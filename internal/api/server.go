package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/mintaro/internal/config"
	"github.com/dgallion1/mintaro/internal/session"
	"github.com/dgallion1/mintaro/internal/sink"
)

// Server is the HTTP API that hosts editor sessions.
type Server struct {
	router   chi.Router
	sessions *session.Manager
	stats    *sink.Stats
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. stats may be nil when
// save latency is not measured.
func NewServer(sessions *session.Manager, stats *sink.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		sessions: sessions,
		stats:    stats,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.EditorAPIKey, s.log))

		r.Get("/api/stats/save", s.handleSaveStats)
		r.Get("/api/commands", s.handleCommands)

		r.Post("/api/documents", s.handleCreateDocument)
		r.Get("/api/documents", s.handleListDocuments)

		r.Route("/api/documents/{id}", func(r chi.Router) {
			r.Get("/", s.withSession(s.handleGetDocument))
			r.Delete("/", s.handleDeleteDocument)

			r.Put("/content", s.withSession(s.handleSetContent))
			r.Delete("/content", s.withSession(s.handleClear))
			r.Post("/save", s.withSession(s.handleSave))
			r.Get("/export", s.withSession(s.handleExport))
			r.Post("/close", s.handleCloseDocument)

			r.Post("/input", s.withSession(s.handleInput))
			r.Post("/delete-backward", s.withSession(s.handleDeleteBackward))
			r.Post("/composition", s.withSession(s.handleComposition))
			r.Post("/paste", s.withSession(s.handlePaste))
			r.Post("/selection", s.withSession(s.handleSelection))
			r.Post("/focus", s.withSession(s.handleFocus))
			r.Post("/commands", s.withSession(s.handleCommand))
			r.Post("/keys", s.withSession(s.handleKey))
			r.Post("/undo", s.withSession(s.handleUndo))
			r.Post("/redo", s.withSession(s.handleRedo))
			r.Get("/history", s.withSession(s.handleHistory))

			r.Post("/table/select", s.withSession(s.handleTableSelect))
			r.Post("/table/menu", s.withSession(s.handleTableMenu))
			r.Delete("/table/menu", s.withSession(s.handleTableMenuClose))
			r.Post("/table/toolbar", s.withSession(s.handleTableToolbar))
			r.Post("/table/{op}", s.withSession(s.handleTableOp))

			r.Post("/images", s.withSession(s.handleUploadImages))
			r.Post("/images/select", s.withSession(s.handleSelectImage))
			r.Post("/images/resize", s.withSession(s.handleResizeImage))
			r.Post("/embed", s.withSession(s.handleEmbed))
			r.Post("/import", s.withSession(s.handleImport))

			r.Post("/color/open", s.withSession(s.handleColorOpen))
			r.Post("/color/pick", s.withSession(s.handleColorPick))
			r.Post("/color/brightness", s.withSession(s.handleColorBrightness))
			r.Post("/color/hex", s.withSession(s.handleColorHex))
			r.Post("/color/eyedropper", s.withSession(s.handleColorEyedropper))
			r.Post("/color/apply", s.withSession(s.handleColorApply))
			r.Post("/color/cancel", s.withSession(s.handleColorCancel))
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
