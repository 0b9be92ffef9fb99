package renderer

import (
	"image"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Stats accumulates the time spent in each stage of RenderScene, summed over
// every region rendered since the last reset.
type Stats struct {
	PrimaryRayGen  time.Duration
	PrimaryTrace   time.Duration
	PrimaryShade   time.Duration
	SecondarySort  time.Duration
	SecondaryTrace time.Duration
	SecondaryShade time.Duration

	Regions int // RenderScene calls
}

// Add folds o into s.
func (s *Stats) Add(o Stats) {
	s.PrimaryRayGen += o.PrimaryRayGen
	s.PrimaryTrace += o.PrimaryTrace
	s.PrimaryShade += o.PrimaryShade
	s.SecondarySort += o.SecondarySort
	s.SecondaryTrace += o.SecondaryTrace
	s.SecondaryShade += o.SecondaryShade
	s.Regions += o.Regions
}

// Total is the sum of all stage timings.
func (s Stats) Total() time.Duration {
	return s.PrimaryRayGen + s.PrimaryTrace + s.PrimaryShade +
		s.SecondarySort + s.SecondaryTrace + s.SecondaryShade
}

// MarshalLogObject lets Stats be logged with zap.Object.
func (s Stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddDuration("primary_ray_gen", s.PrimaryRayGen)
	enc.AddDuration("primary_trace", s.PrimaryTrace)
	enc.AddDuration("primary_shade", s.PrimaryShade)
	enc.AddDuration("secondary_sort", s.SecondarySort)
	enc.AddDuration("secondary_trace", s.SecondaryTrace)
	enc.AddDuration("secondary_shade", s.SecondaryShade)
	enc.AddInt("regions", s.Regions)
	return nil
}

var _ zapcore.ObjectMarshaler = Stats{}

func statsField(s Stats) zap.Field { return zap.Object("stats", s) }

// CalculateAverageLuminance returns the mean Rec. 709 luminance of img with
// channels mapped to [0, 1].
func CalculateAverageLuminance(img *image.RGBA) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}

	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			sum += 0.2126*float64(c.R)/255 + 0.7152*float64(c.G)/255 + 0.0722*float64(c.B)/255
		}
	}
	return sum / float64(n)
}
