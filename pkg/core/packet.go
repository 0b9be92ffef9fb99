package core

import "github.com/df07/go-packet-raytracer/pkg/lane"

// RayPacket carries one ray per lane together with its throughput and ray
// differentials. C[3] holds the index of refraction of the medium the ray
// travels in. XY packs the pixel as x<<16 | y.
type RayPacket[W lane.Width] struct {
	O, D [3]lane.Float[W]
	C    [4]lane.Float[W]

	DoDx, DdDx [3]lane.Float[W]
	DoDy, DdDy [3]lane.Float[W]

	XY lane.Int[W]
}

// Hit is the closest intersection found so far for each lane. Indices are
// only meaningful where Mask is set.
type Hit[W lane.Width] struct {
	Mask      lane.Int[W]
	ObjIndex  lane.Int[W]
	PrimIndex lane.Int[W]
	T, U, V   lane.Float[W]
	XY        lane.Int[W]
}

// NewHit returns an empty hit record: no lane hit anything and T is MaxDist.
func NewHit[W lane.Width]() Hit[W] {
	return Hit[W]{
		ObjIndex:  lane.FillInt[W](-1),
		PrimIndex: lane.FillInt[W](-1),
		T:         lane.Fill[W](MaxDist),
	}
}

// PackXY packs pixel coordinates the way RayPacket.XY stores them.
func PackXY(x, y int) int32 {
	return int32(x<<16 | y)
}

// UnpackXY is the inverse of PackXY.
func UnpackXY(xy int32) (x, y int) {
	return int(uint32(xy) >> 16), int(uint32(xy) & 0xffff)
}

// Lane extracts lane i of the packet as a scalar ray.
func (r *RayPacket[W]) Lane(i int) Ray {
	return Ray{
		O: [3]float32{r.O[0][i], r.O[1][i], r.O[2][i]},
		D: [3]float32{r.D[0][i], r.D[1][i], r.D[2][i]},
	}
}

// SetLane writes a scalar ray into lane i, leaving the other fields alone.
func (r *RayPacket[W]) SetLane(i int, ray Ray) {
	for k := 0; k < 3; k++ {
		r.O[k][i] = ray.O[k]
		r.D[k][i] = ray.D[k]
	}
}

// Ray is a single scalar ray used by reference checks.
type Ray struct {
	O, D [3]float32
}
