package renderer

import (
	"image"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/lane"
)

// Pixel offsets of each lane inside a packet. Widths 4, 8 and 16 cover 2x2,
// 4x2 and 4x4 pixel blocks; the first W entries of each table are used.
var (
	packetLayoutX = [lane.MaxWidth]int{0, 1, 0, 1, 2, 3, 2, 3, 0, 1, 0, 1, 2, 3, 2, 3}
	packetLayoutY = [lane.MaxWidth]int{0, 0, 1, 1, 0, 0, 1, 1, 2, 2, 3, 3, 2, 2, 3, 3}
)

// packetDims returns the pixel block covered by one packet of width W.
func packetDims[W lane.Width]() (dimX, dimY int) {
	switch n := lane.Lanes[W](); n {
	case 1:
		return 1, 1
	case 4:
		return 2, 2
	default:
		return 4, n / 4
	}
}

// GeneratePrimaryRays fills rays with one camera ray per pixel of r, jittered
// by the Halton table, and returns the packets together with their active
// lanes. Lanes of a packet that fall outside r are masked off. The image is
// w x h pixels.
func GeneratePrimaryRays[W lane.Width](iteration int32, cam *core.Camera, r image.Rectangle, w, h int, halton []float32,
	rays []core.RayPacket[W], masks []lane.Int[W]) ([]core.RayPacket[W], []lane.Int[W]) {
	n := lane.Lanes[W]()
	dimX, dimY := packetDims[W]()

	count := ((r.Dx() + dimX - 1) / dimX) * ((r.Dy() + dimY - 1) / dimY)
	rays = grow(rays, count)
	masks = grow(masks, count)

	ww, hh := float32(w), float32(h)
	k := hh / ww

	var fwd, side, up [3]lane.Float[W]
	for j := 0; j < 3; j++ {
		fwd[j] = lane.Fill[W](cam.Fwd[j])
		side[j] = lane.Fill[W](cam.Side[j])
		up[j] = lane.Fill[W](cam.Up[j] * k)
	}

	pixelDir := func(x, y lane.Float[W]) [3]lane.Float[W] {
		dx := x.DivS(ww).SubS(0.5)
		dy := y.Neg().DivS(hh).AddS(0.5)

		var d [3]lane.Float[W]
		for j := 0; j < 3; j++ {
			d[j] = dx.Mul(side[j]).Add(dy.Mul(up[j])).Add(fwd[j])
		}
		lane.Normalize3(&d)
		return d
	}

	i := 0
	for y := r.Min.Y; y < r.Max.Y; y += dimY {
		for x := r.Min.X; x < r.Max.X; x += dimX {
			out := &rays[i]

			var xy, mask lane.Int[W]
			var fx, fy lane.Float[W]
			for l := 0; l < n; l++ {
				px, py := x+packetLayoutX[l], y+packetLayoutY[l]
				if px < r.Max.X && py < r.Max.Y {
					mask[l] = -1
				}

				hi := (core.Hash(int32(py*w+px)) + iteration) & (core.HaltonSeqLen - 1)
				fx[l] = float32(px) + halton[hi*2]
				fy[l] = float32(py) + halton[hi*2+1]
				xy[l] = core.PackXY(px, py)
			}

			d := pixelDir(fx, fy)
			ddx := pixelDir(fx.AddS(1), fy)
			ddy := pixelDir(fx, fy.AddS(1))

			for j := 0; j < 3; j++ {
				out.O[j] = lane.Fill[W](cam.Origin[j])
				out.D[j] = d[j]
				out.C[j] = lane.Fill[W](1)

				out.DoDx[j] = lane.Float[W]{}
				out.DdDx[j] = ddx[j].Sub(d[j])
				out.DoDy[j] = lane.Float[W]{}
				out.DdDy[j] = ddy[j].Sub(d[j])
			}
			out.C[3] = lane.Fill[W](1)
			out.XY = xy

			masks[i] = mask
			i++
		}
	}
	return rays, masks
}
