package texture

import (
	"math"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/lane"
)

// normFloat maps a byte channel to [0, 1].
var normFloat [256]float32

func init() {
	for i := range normFloat {
		normFloat[i] = float32(i) / 255
	}
}

func floor32(x float32) float32 { return float32(math.Floor(float64(x))) }

func clampLod(l int32) int32 {
	return min(max(l, 0), core.MaxMipLevel)
}

// TransformUV maps texture coordinates of mip level lod into normalised
// atlas coordinates. UVs repeat outside [0, 1).
func TransformUV[W lane.Width](uv *[2]lane.Float[W], sizeX, sizeY float32, t *core.Texture, lod, mask lane.Int[W]) [2]lane.Float[W] {
	var out [2]lane.Float[W]
	atlas := [2]float32{sizeX, sizeY}

	for i := 0; i < lane.Lanes[W](); i++ {
		if mask[i] == 0 {
			continue
		}
		l := clampLod(lod[i])
		for k := 0; k < 2; k++ {
			f := uv[k][i] - floor32(uv[k][i])
			size := float32(int32(t.Size[k]) >> l)
			out[k][i] = (float32(t.Pos[l][k]) + f*size + 1) / atlas[k]
		}
	}
	return out
}

// SampleNearest returns the texel under uv at integer level lod.
func SampleNearest[W lane.Width](a Source, t *core.Texture, uv *[2]lane.Float[W], lod lane.Float[W], mask lane.Int[W]) [4]lane.Float[W] {
	ilod := lod.TruncInt()
	st := TransformUV(uv, float32(a.SizeX()), float32(a.SizeY()), t, ilod, mask)

	var out [4]lane.Float[W]
	for i := 0; i < lane.Lanes[W](); i++ {
		if mask[i] == 0 {
			continue
		}
		pg := int(t.Page[clampLod(ilod[i])])
		p := a.Get(pg, int(st[0][i]*float32(a.SizeX())), int(st[1][i]*float32(a.SizeY())))
		out[0][i], out[1][i], out[2][i], out[3][i] = normFloat[p.R], normFloat[p.G], normFloat[p.B], normFloat[p.A]
	}
	return out
}

// bilinear filters the four texels around the pixel position (x, y), which
// is measured from texel corners.
func bilinear(a Source, pg int, x, y float32) [4]float32 {
	kx, ky := x-floor32(x), y-floor32(y)
	ix, iy := int(x), int(y)

	p00 := a.Get(pg, ix, iy)
	p01 := a.Get(pg, ix+1, iy)
	p10 := a.Get(pg, ix, iy+1)
	p11 := a.Get(pg, ix+1, iy+1)

	c00 := [4]float32{normFloat[p00.R], normFloat[p00.G], normFloat[p00.B], normFloat[p00.A]}
	c01 := [4]float32{normFloat[p01.R], normFloat[p01.G], normFloat[p01.B], normFloat[p01.A]}
	c10 := [4]float32{normFloat[p10.R], normFloat[p10.G], normFloat[p10.B], normFloat[p10.A]}
	c11 := [4]float32{normFloat[p11.R], normFloat[p11.G], normFloat[p11.B], normFloat[p11.A]}

	var out [4]float32
	for c := 0; c < 4; c++ {
		p0 := c01[c]*kx + c00[c]*(1-kx)
		p1 := c11[c]*kx + c10[c]*(1-kx)
		out[c] = p1*ky + p0*(1-ky)
	}
	return out
}

// SampleBilinear filters the four texels nearest to uv at level lod.
func SampleBilinear[W lane.Width](a Source, t *core.Texture, uv *[2]lane.Float[W], lod, mask lane.Int[W]) [4]lane.Float[W] {
	sx, sy := float32(a.SizeX()), float32(a.SizeY())
	st := TransformUV(uv, sx, sy, t, lod, mask)

	var out [4]lane.Float[W]
	for i := 0; i < lane.Lanes[W](); i++ {
		if mask[i] == 0 {
			continue
		}
		pg := int(t.Page[clampLod(lod[i])])
		c := bilinear(a, pg, st[0][i]*sx-0.5, st[1][i]*sy-0.5)
		for k := 0; k < 4; k++ {
			out[k][i] = c[k]
		}
	}
	return out
}

// SampleBilinearRaw filters at pixel positions xy of the given pages. It is
// the building block of SampleAnisotropic.
func SampleBilinearRaw[W lane.Width](a Source, xy *[2]lane.Float[W], page, mask lane.Int[W]) [4]lane.Float[W] {
	var out [4]lane.Float[W]
	for i := 0; i < lane.Lanes[W](); i++ {
		if mask[i] == 0 {
			continue
		}
		c := bilinear(a, int(page[i]), xy[0][i], xy[1][i])
		for k := 0; k < 4; k++ {
			out[k][i] = c[k]
		}
	}
	return out
}

// SampleTrilinear blends bilinear samples of the two levels around lod.
func SampleTrilinear[W lane.Width](a Source, t *core.Texture, uv *[2]lane.Float[W], lod lane.Float[W], mask lane.Int[W]) [4]lane.Float[W] {
	col1 := SampleBilinear(a, t, uv, lod.Floor().TruncInt(), mask)
	col2 := SampleBilinear(a, t, uv, lod.Ceil().TruncInt(), mask)
	k := lod.Fract()

	var out [4]lane.Float[W]
	for c := 0; c < 4; c++ {
		out[c] = col1[c].Mul(k.RSubS(1)).Add(col2[c].Mul(k))
	}
	return out
}

// SampleAnisotropic averages up to four trilinear taps spread along the
// longer of the two uv footprint axes. The mip level is chosen from the
// shorter axis so the taps stay sharp across the footprint.
func SampleAnisotropic[W lane.Width](a Source, t *core.Texture, uv, duvDx, duvDy *[2]lane.Float[W], mask lane.Int[W]) [4]lane.Float[W] {
	var out [4]lane.Float[W]
	for i := 0; i < lane.Lanes[W](); i++ {
		if mask[i] == 0 {
			continue
		}
		c := anisotropic(a, t,
			[2]float32{uv[0][i], uv[1][i]},
			[2]float32{duvDx[0][i], duvDx[1][i]},
			[2]float32{duvDy[0][i], duvDy[1][i]})
		for k := 0; k < 4; k++ {
			out[k][i] = c[k]
		}
	}
	return out
}

func anisotropic(a Source, t *core.Texture, uv, dx, dy [2]float32) [4]float32 {
	size := [2]float32{float32(t.Size[0]), float32(t.Size[1])}
	px := [2]float32{abs32(dx[0] * size[0]), abs32(dx[1] * size[1])}
	py := [2]float32{abs32(dy[0] * size[0]), abs32(dy[1] * size[1])}
	l1 := float32(math.Hypot(float64(px[0]), float64(px[1])))
	l2 := float32(math.Hypot(float64(py[0]), float64(py[1])))

	// major axis gives the step, minor axis the level
	step, minor, k := dx, py, l2/l1
	if l1 <= l2 {
		step, minor, k = dy, px, l1/l2
	}

	lod := float32(math.Log2(float64(min(minor[0], minor[1]))))
	if !(lod > 0) {
		lod = 0
	}
	lod = min(lod, core.MaxMipLevel)

	// a degenerate minor axis (k == 0) takes the full 4 taps; no footprint
	// at all (k is NaN) takes one
	num := 1
	if !math.IsNaN(float64(k)) {
		num = int(min(max(2/k, 1), 4))
	}

	u := uv[0] - step[0]*0.5
	v := uv[1] - step[1]*0.5
	step[0] /= float32(num)
	step[1] /= float32(num)

	lod1, lod2 := int(floor32(lod)), int(float32(math.Ceil(float64(lod))))
	kz := lod - floor32(lod)

	var out [4]float32
	for j := 0; j < num; j++ {
		u -= floor32(u)
		v -= floor32(v)

		c := bilinear(a, int(t.Page[lod1]), mipPos(t, lod1, 0, u), mipPos(t, lod1, 1, v))
		for ch := 0; ch < 4; ch++ {
			out[ch] += (1 - kz) * c[ch]
		}
		if kz > 0.0001 {
			c = bilinear(a, int(t.Page[lod2]), mipPos(t, lod2, 0, u), mipPos(t, lod2, 1, v))
			for ch := 0; ch < 4; ch++ {
				out[ch] += kz * c[ch]
			}
		}

		u += step[0]
		v += step[1]
	}

	for ch := 0; ch < 4; ch++ {
		out[ch] /= float32(num)
	}
	return out
}

// mipPos is the pixel position of texture coordinate f along axis k of
// mip level l, measured for bilinear filtering.
func mipPos(t *core.Texture, l, k int, f float32) float32 {
	return float32(t.Pos[l][k]) + 0.5 + f*float32(int(t.Size[k])>>l)
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
