package core

// Numeric tolerances and limits shared by traversal and shading.
const (
	HitBias = float32(0.001)    // offset applied to secondary ray origins
	HitEps  = float32(0.000001) // tolerance of the triangle edge test
	FltEps  = float32(0.0000001)
	MaxDist = float32(3.402823466e+38)

	Pi = float32(3.141592653589793238463)
)

// MaxBounces bounds the secondary ray loop of a render pass.
const MaxBounces = 4

// Texture mip chain limits.
const (
	MaxMipLevel    = 11
	NumMipLevels   = MaxMipLevel + 1
	MaxTextureSize = 1 << NumMipLevels
)

// Material texture slots. A Mix material stores its two sub-materials in
// slots MixMat1 and MixMat2 instead of textures.
const (
	MaxMaterialTextures = 7

	NormalsTexture = 0
	MainTexture    = 1
	MixMat1        = 2
	MixMat2        = 3
)

// MaxMixDepth bounds the number of nested Mix materials a lane may resolve.
const MaxMixDepth = 16

// HaltonSeqLen is the number of 2D Halton points per table.
const HaltonSeqLen = 256

// TriWBits masks the dominant projection axis out of TriAccel.CI.
const TriWBits = 0b11

// NoIndex marks a missing node link; it is only found at a tree's physical root.
const NoIndex = uint32(0xffffffff)

// NextU and NextV give the two projection axes for a dominant axis w.
var (
	NextU = [3]int{1, 0, 0}
	NextV = [3]int{2, 2, 1}
)
