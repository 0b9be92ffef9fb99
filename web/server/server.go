// Package server streams progressive renders to a browser over server-sent
// events and answers scene listing and pixel inspection queries.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/scene"
	"go.uber.org/zap"
)

// Server handles web requests for the packet raytracer
type Server struct {
	port      int
	scenesDir string
	staticDir string
	logger    *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Render logs are also streamed to the
// client that started the render.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithScenesDir sets the directory searched for YAML scenes.
func WithScenesDir(dir string) Option {
	return func(s *Server) { s.scenesDir = dir }
}

// WithStaticDir serves the files in dir at the site root.
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// NewServer creates a new web server
func NewServer(port int, opts ...Option) *Server {
	s := &Server{port: port, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene      string `json:"scene"`      // Built-in name or yaml:<name>
	Width      int    `json:"width"`      // Image width
	Height     int    `json:"height"`     // Image height
	MaxPasses  int    `json:"maxPasses"`  // Number of progressive passes
	Lanes      int    `json:"lanes"`      // Packet width, 0 = auto
	RegionSize int    `json:"regionSize"` // Region edge in pixels
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	}
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", zap.String("addr", "http://localhost"+srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("web server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in scenes and the YAML scene files.
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	groups, err := scene.ListAllScenes(s.scenesDir)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	type sceneJSON struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
		Description string `json:"description,omitempty"`
		Type        string `json:"type"`
	}
	type groupJSON struct {
		Name   string      `json:"name"`
		Scenes []sceneJSON `json:"scenes"`
	}

	out := make([]groupJSON, 0, len(groups))
	for _, g := range groups {
		gj := groupJSON{Name: g.Name}
		for _, si := range g.Scenes {
			gj.Scenes = append(gj.Scenes, sceneJSON{
				ID:          si.ID,
				DisplayName: si.DisplayName,
				Description: si.Description,
				Type:        si.Type,
			})
		}
		out = append(out, gj)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": out})
}

// parseCommonSceneParams parses the parameters shared by render and inspect
func (s *Server) parseCommonSceneParams(r *http.Request, req *RenderRequest) error {
	q := r.URL.Query()
	req.Scene = q.Get("scene")
	if req.Scene == "" {
		req.Scene = "cornell"
	}

	var err error
	if req.Width, err = parseIntParam(q, "width", 400, 16, 2000); err != nil {
		return err
	}
	if req.Height, err = parseIntParam(q, "height", 400, 16, 2000); err != nil {
		return err
	}
	return nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// createScene resolves a built-in scene name or a yaml:<name> scene id.
func (s *Server) createScene(name string, logger *zap.Logger) (*core.Scene, error) {
	files, err := scene.ListYAMLScenes(s.scenesDir)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.ID == name {
			return scene.LoadYAML(f.FilePath, scene.WithLogger(logger))
		}
	}
	return scene.Builtin(name, scene.WithLogger(logger))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
