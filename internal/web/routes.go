package web

import (
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facetag/internal/web/handlers"
	"github.com/kozaktomas/facetag/internal/web/middleware"
	"github.com/kozaktomas/facetag/internal/web/static"
)

func (s *Server) setupRoutes() {
	identifyHandler := handlers.NewIdentifyHandler(s.deps.Pipeline)
	displayHandler := handlers.NewDisplayHandler()
	identitiesHandler := handlers.NewIdentitiesHandler(s.deps.Identities)
	configHandler := handlers.NewConfigHandler(s.config)

	// Health check (no session required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", configHandler.Get)
		r.Get("/identities", identitiesHandler.List)
		r.Get("/identities/{name}", identitiesHandler.Get)

		// Display state is per browser session.
		r.Group(func(r chi.Router) {
			r.Use(middleware.WithSession(s.sessionManager))

			r.Post("/identify", identifyHandler.Identify)
			r.Get("/display/image", displayHandler.Image)
			r.Get("/display/overlay", displayHandler.Overlay)
			r.Get("/display/annotated", displayHandler.Annotated)
			r.Delete("/display", displayHandler.Clear)
		})
	})

	// Serve the upload page
	s.router.Get("/*", s.serveStatic)
}

var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".json": "application/json",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".ico":  "image/x-icon",
}

// serveStatic serves the embedded upload page and its assets.
func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request) {
	if !static.HasDist() {
		http.Error(w, "Frontend not built", http.StatusNotFound)
		return
	}

	fs := static.GetFileSystem()
	p := r.URL.Path
	if p == "/" {
		p = "/index.html"
	}

	f, err := fs.Open(p)
	if err != nil {
		if strings.Contains(path.Base(p), ".") {
			http.NotFound(w, r)
			return
		}
		// Unknown routes fall back to the page itself.
		p = "/index.html"
		if f, err = fs.Open(p); err != nil {
			http.NotFound(w, r)
			return
		}
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil || stat.IsDir() {
		http.NotFound(w, r)
		return
	}

	contentType, ok := contentTypes[path.Ext(p)]
	if !ok {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, f)
}
