package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"go.uber.org/zap"
)

// ErrPoolClosed is returned when the worker pool stops before a pass is done.
var ErrPoolClosed = errors.New("worker pool closed unexpectedly")

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	RegionSize int         // Size of each square region in pixels
	MaxPasses  int         // Number of passes; each adds one sample per pixel
	NumWorkers int         // Number of parallel workers (0 = use CPU count)
	LaneWidth  int         // Packet width (0 = widest the CPU supports)
	Logger     *zap.Logger // nil logs nothing
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		RegionSize: 64,
		MaxPasses:  64,
		NumWorkers: 0,
		LaneWidth:  0,
	}
}

// Validate rejects configurations that cannot render.
func (c ProgressiveConfig) Validate() error {
	if c.RegionSize <= 0 {
		return fmt.Errorf("region size must be positive, got %d", c.RegionSize)
	}
	if c.MaxPasses <= 0 {
		return fmt.Errorf("max passes must be positive, got %d", c.MaxPasses)
	}
	return nil
}

// Progressive renders a scene pass after pass, every pass refining the
// running average in all regions.
type Progressive struct {
	scene         *core.Scene
	width, height int
	config        ProgressiveConfig
	regions       []*Region
	currentPass   int
	renderer      Renderer
	workerPool    *WorkerPool
	logger        *zap.Logger
}

// NewProgressive creates a progressive renderer for a width x height image.
func NewProgressive(scene *core.Scene, width, height int, config ProgressiveConfig) (*Progressive, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r, err := New(config.LaneWidth, width, height, WithLogger(logger))
	if err != nil {
		return nil, err
	}

	regions := NewRegionGrid(width, height, config.RegionSize)

	return &Progressive{
		scene:      scene,
		width:      width,
		height:     height,
		config:     config,
		regions:    regions,
		renderer:   r,
		workerPool: NewWorkerPool(scene, r, len(regions), config.NumWorkers),
		logger:     logger,
	}, nil
}

// Renderer exposes the underlying renderer, e.g. for its stats.
func (pr *Progressive) Renderer() Renderer { return pr.renderer }

// RenderPass renders every region once more and returns the current image.
func (pr *Progressive) RenderPass(passNumber int, regionCallback func(RegionCompletionResult)) (*image.RGBA, Stats, error) {
	pr.currentPass = passNumber
	pr.workerPool.Start()

	for i, region := range pr.regions {
		pr.workerPool.SubmitTask(RegionTask{
			Region:     region,
			PassNumber: passNumber,
			TaskID:     i,
		})
	}

	for i := 0; i < len(pr.regions); i++ {
		result, ok := pr.workerPool.GetResult()
		if !ok {
			return nil, Stats{}, ErrPoolClosed
		}
		if result.Error != nil {
			return nil, Stats{}, result.Error
		}

		region := pr.regions[result.TaskID]
		region.PassesCompleted++

		pr.logger.Debug("region complete",
			zap.Int("pass", passNumber), zap.Int("region", region.ID),
			zap.Int("iteration", int(region.Context.Iteration())))

		if regionCallback != nil {
			regionCallback(RegionCompletionResult{
				RegionX:      region.Bounds.Min.X / pr.config.RegionSize,
				RegionY:      region.Bounds.Min.Y / pr.config.RegionSize,
				Image:        pr.renderer.Framebuffer().ImageRect(region.Bounds),
				PassNumber:   passNumber,
				RegionIndex:  i + 1,
				TotalRegions: len(pr.regions),
				TotalPasses:  pr.config.MaxPasses,
			})
		}
	}

	return pr.renderer.Image(), pr.renderer.Stats(), nil
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Image      *image.RGBA
	Stats      Stats
	Duration   time.Duration
	IsLast     bool
}

// RegionCompletionResult describes a region finished during a pass.
type RegionCompletionResult struct {
	RegionX, RegionY int         // grid coordinates, not pixels
	Image            *image.RGBA // just this region
	PassNumber       int

	RegionIndex  int // 1-based completion order within the pass
	TotalRegions int
	TotalPasses  int
}

// RenderOptions configures progressive rendering behavior
type RenderOptions struct {
	RegionUpdates bool // Whether to generate region completion events
}

// RenderProgressive renders up to MaxPasses passes in the background. Pass
// results, region events and at most one error are delivered on the returned
// channels, which are all closed when rendering ends. Cancelling ctx stops
// rendering before the next pass. With options.RegionUpdates unset the
// region channel is closed immediately.
func (pr *Progressive) RenderProgressive(ctx context.Context, options RenderOptions) (<-chan PassResult, <-chan RegionCompletionResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	regionChan := make(chan RegionCompletionResult, 100)
	errChan := make(chan error, 1)

	if !options.RegionUpdates {
		close(regionChan)
	}

	go func() {
		defer close(passChan)
		if options.RegionUpdates {
			defer close(regionChan)
		}
		defer close(errChan)
		defer pr.workerPool.Stop()

		pr.logger.Info("starting progressive render",
			zap.Int("passes", pr.config.MaxPasses),
			zap.Int("regions", len(pr.regions)),
			zap.Int("workers", pr.workerPool.GetNumWorkers()),
			zap.Int("lanes", pr.renderer.LaneWidth()))

		for pass := 1; pass <= pr.config.MaxPasses; pass++ {
			select {
			case <-ctx.Done():
				pr.logger.Info("render cancelled", zap.Int("pass", pass))
				errChan <- ctx.Err()
				return
			default:
			}

			startTime := time.Now()
			pr.logger.Debug("pass start", zap.Int("pass", pass))

			var regionCallback func(RegionCompletionResult)
			if options.RegionUpdates {
				regionCallback = func(result RegionCompletionResult) {
					select {
					case regionChan <- result:
					case <-ctx.Done():
					default:
						// a slow reader only misses progress events
					}
				}
			}

			img, stats, err := pr.RenderPass(pass, regionCallback)
			if err != nil {
				errChan <- err
				return
			}

			passTime := time.Since(startTime)
			pr.logger.Info("pass complete",
				zap.Int("pass", pass), zap.Duration("elapsed", passTime), statsField(stats))

			result := PassResult{
				PassNumber: pass,
				Image:      img,
				Stats:      stats,
				Duration:   passTime,
				IsLast:     pass == pr.config.MaxPasses,
			}

			select {
			case passChan <- result:
			case <-ctx.Done():
				return
			}
		}
	}()

	return passChan, regionChan, errChan
}
