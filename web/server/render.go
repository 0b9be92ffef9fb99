package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"time"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/lane"
	"github.com/df07/go-packet-raytracer/pkg/renderer"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SSEEvent represents a server-sent event
type SSEEvent struct {
	Type string
	Data string
}

// RegionUpdate carries one finished region of a pass
type RegionUpdate struct {
	RegionX      int    `json:"regionX"`
	RegionY      int    `json:"regionY"`
	X            int    `json:"x"` // pixel position of the region
	Y            int    `json:"y"`
	ImageData    string `json:"imageData"` // Base64 encoded PNG
	PassNumber   int    `json:"passNumber"`
	RegionNumber int    `json:"regionNumber"`
	TotalRegions int    `json:"totalRegions"`
	TotalPasses  int    `json:"totalPasses"`
}

// PassUpdate is sent after every pass with the whole image
type PassUpdate struct {
	Event       string    `json:"event"`
	PassNumber  int       `json:"passNumber"`
	TotalPasses int       `json:"totalPasses"`
	ElapsedMs   int64     `json:"elapsedMs"`
	PassMs      int64     `json:"passMs"`
	ImageData   string    `json:"imageData"`
	IsComplete  bool      `json:"isComplete"`
	LaneWidth   int       `json:"laneWidth"`
	Triangles   int       `json:"triangles"`
	Stats       StageTime `json:"stats"`
}

// StageTime reports the accumulated time per pipeline stage in milliseconds
type StageTime struct {
	PrimaryRayGen  float64 `json:"primaryRayGen"`
	PrimaryTrace   float64 `json:"primaryTrace"`
	PrimaryShade   float64 `json:"primaryShade"`
	SecondarySort  float64 `json:"secondarySort"`
	SecondaryTrace float64 `json:"secondaryTrace"`
	SecondaryShade float64 `json:"secondaryShade"`
	Regions        int     `json:"regions"`
}

func newStageTime(st renderer.Stats) StageTime {
	ms := func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
	return StageTime{
		PrimaryRayGen:  ms(st.PrimaryRayGen),
		PrimaryTrace:   ms(st.PrimaryTrace),
		PrimaryShade:   ms(st.PrimaryShade),
		SecondarySort:  ms(st.SecondarySort),
		SecondaryTrace: ms(st.SecondaryTrace),
		SecondaryShade: ms(st.SecondaryShade),
		Regions:        st.Regions,
	}
}

// RenderingPipeline holds the scene and renderer of one request
type RenderingPipeline struct {
	Scene       *core.Scene
	Progressive *renderer.Progressive
}

// handleRender handles progressive rendering requests with SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.sendSSEEvent(w, flusher, SSEEvent{Type: "error", Data: fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	consoleChan := make(chan ConsoleMessage, 100)
	renderLogger := NewConsoleLogger(s.logger.With(zap.String("scene", req.Scene)), zapcore.InfoLevel, consoleChan)

	pipeline, err := s.setupRenderingPipeline(req, renderLogger)
	if err != nil {
		s.sendSSEEvent(w, flusher, SSEEvent{Type: "error", Data: err.Error()})
		return
	}

	ctx := r.Context()
	startTime := time.Now()
	passChan, regionChan, errChan := pipeline.Progressive.RenderProgressive(ctx, renderer.RenderOptions{RegionUpdates: true})

	s.streamRenderEvents(ctx, w, flusher, consoleChan, passChan, regionChan, errChan, pipeline, req, startTime)
}

// streamRenderEvents is the only writer of the response; it forwards console,
// region and pass events until rendering ends or the client goes away.
func (s *Server) streamRenderEvents(ctx context.Context, w http.ResponseWriter, flusher http.Flusher,
	consoleChan <-chan ConsoleMessage, passChan <-chan renderer.PassResult,
	regionChan <-chan renderer.RegionCompletionResult, errChan <-chan error,
	pipeline *RenderingPipeline, req *RenderRequest, startTime time.Time) {

	send := func(ev SSEEvent, ok bool) bool {
		if !ok {
			return true
		}
		return s.sendSSEEvent(w, flusher, ev) == nil
	}

	for passChan != nil || regionChan != nil {
		select {
		case msg := <-consoleChan:
			if !send(s.consoleEvent(msg)) {
				return
			}

		case result, ok := <-regionChan:
			if !ok {
				regionChan = nil
				continue
			}
			if !send(s.regionEvent(result)) {
				return
			}

		case result, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			if !send(s.passEvent(result, pipeline, req, startTime)) {
				return
			}

		case <-ctx.Done():
			return
		}
	}

	if err := <-errChan; err != nil {
		s.sendSSEEvent(w, flusher, SSEEvent{Type: "error", Data: fmt.Sprintf("Rendering failed: %v", err)})
		return
	}

	// flush what the last pass logged
	for drained := false; !drained; {
		select {
		case msg := <-consoleChan:
			if !send(s.consoleEvent(msg)) {
				return
			}
		default:
			drained = true
		}
	}

	s.sendSSEEvent(w, flusher, SSEEvent{Type: "complete", Data: "Rendering completed"})
}

func (s *Server) consoleEvent(msg ConsoleMessage) (SSEEvent, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("marshal console message", zap.Error(err))
		return SSEEvent{}, false
	}
	return SSEEvent{Type: "console", Data: string(data)}, true
}

func (s *Server) regionEvent(result renderer.RegionCompletionResult) (SSEEvent, bool) {
	imageData, err := s.imageToBase64PNG(result.Image)
	if err != nil {
		s.logger.Error("encode region image",
			zap.Int("regionX", result.RegionX), zap.Int("regionY", result.RegionY), zap.Error(err))
		return SSEEvent{}, false
	}

	origin := result.Image.Bounds().Min
	data, err := json.Marshal(RegionUpdate{
		RegionX:      result.RegionX,
		RegionY:      result.RegionY,
		X:            origin.X,
		Y:            origin.Y,
		ImageData:    imageData,
		PassNumber:   result.PassNumber,
		RegionNumber: result.RegionIndex,
		TotalRegions: result.TotalRegions,
		TotalPasses:  result.TotalPasses,
	})
	if err != nil {
		s.logger.Error("marshal region update", zap.Error(err))
		return SSEEvent{}, false
	}
	return SSEEvent{Type: "region", Data: string(data)}, true
}

func (s *Server) passEvent(result renderer.PassResult, pipeline *RenderingPipeline, req *RenderRequest, startTime time.Time) (SSEEvent, bool) {
	imageData, err := s.imageToBase64PNG(result.Image)
	if err != nil {
		s.logger.Error("encode pass image", zap.Int("pass", result.PassNumber), zap.Error(err))
		return SSEEvent{}, false
	}

	data, err := json.Marshal(PassUpdate{
		Event:       "passComplete",
		PassNumber:  result.PassNumber,
		TotalPasses: req.MaxPasses,
		ElapsedMs:   time.Since(startTime).Milliseconds(),
		PassMs:      result.Duration.Milliseconds(),
		ImageData:   imageData,
		IsComplete:  result.IsLast,
		LaneWidth:   pipeline.Progressive.Renderer().LaneWidth(),
		Triangles:   len(pipeline.Scene.Tris),
		Stats:       newStageTime(result.Stats),
	})
	if err != nil {
		s.logger.Error("marshal pass update", zap.Error(err))
		return SSEEvent{}, false
	}
	return SSEEvent{Type: "passComplete", Data: string(data)}, true
}

// setupRenderingPipeline creates the scene and the progressive renderer
func (s *Server) setupRenderingPipeline(req *RenderRequest, logger *zap.Logger) (*RenderingPipeline, error) {
	sceneObj, err := s.createScene(req.Scene, logger.Named("scene"))
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", req.Scene, err)
	}

	pr, err := renderer.NewProgressive(sceneObj, req.Width, req.Height, renderer.ProgressiveConfig{
		RegionSize: req.RegionSize,
		MaxPasses:  req.MaxPasses,
		NumWorkers: 0,
		LaneWidth:  req.Lanes,
		Logger:     logger.Named("renderer"),
	})
	if err != nil {
		return nil, err
	}

	return &RenderingPipeline{Scene: sceneObj, Progressive: pr}, nil
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, req); err != nil {
		return nil, err
	}

	q := r.URL.Query()
	var err error
	if req.MaxPasses, err = parseIntParam(q, "maxPasses", 16, 1, 10000); err != nil {
		return nil, err
	}
	if req.RegionSize, err = parseIntParam(q, "regionSize", 64, 8, 512); err != nil {
		return nil, err
	}
	if req.Lanes, err = parseIntParam(q, "lanes", 0, 0, lane.MaxWidth); err != nil {
		return nil, err
	}
	if req.Lanes != 0 {
		if err := lane.CheckWidth(req.Lanes); err != nil {
			return nil, err
		}
	}

	if req.Width*req.Height > 800*600 && req.MaxPasses > 256 {
		s.logger.Warn("large image with many passes may render slowly",
			zap.Int("width", req.Width), zap.Int("height", req.Height), zap.Int("passes", req.MaxPasses))
	}

	return req, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func (s *Server) imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// sendSSEEvent writes one event and flushes it to the client
func (s *Server) sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, ev SSEEvent) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, ev.Data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
