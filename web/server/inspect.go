package server

import (
	"fmt"
	"image"
	"math"
	"net/http"
	"strconv"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/geometry"
	"github.com/df07/go-packet-raytracer/pkg/lane"
	"github.com/df07/go-packet-raytracer/pkg/renderer"
	"github.com/df07/go-packet-raytracer/pkg/traverse"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType"`
	Point        [3]float32             `json:"point"`
	Normal       [3]float32             `json:"normal"`
	Distance     float32                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Instance     int                    `json:"instance"`
	Triangle     int                    `json:"triangle"`
	Properties   map[string]interface{} `json:"properties"`
}

// InspectResult describes the first surface seen through a pixel
type InspectResult struct {
	Hit       bool
	Point     [3]float32
	Normal    [3]float32 // geometric normal in world space
	Distance  float32
	FrontFace bool
	Instance  int
	Triangle  int
	Material  core.Material
}

// centerJitter places every inspection ray at the pixel center.
var centerJitter = func() []float32 {
	seq := make([]float32, core.HaltonSeqLen*2)
	for i := range seq {
		seq[i] = 0.5
	}
	return seq
}()

// inspectPixel casts the camera ray through the center of pixel (x, y) of a
// width x height image and reports the nearest hit.
func inspectPixel(s *core.Scene, width, height, x, y int) InspectResult {
	rect := image.Rect(x, y, x+1, y+1)
	rays, masks := renderer.GeneratePrimaryRays[lane.W1](0, &s.Camera, rect, width, height, centerJitter, nil, nil)

	r := &rays[0]
	hit := core.NewHit[lane.W1]()
	if !traverse.Trace(r, masks[0], s, &hit) || hit.Mask[0] == 0 {
		return InspectResult{}
	}

	t := hit.T[0]
	var d, p [3]float32
	for k := 0; k < 3; k++ {
		d[k] = r.D[k][0]
		p[k] = r.O[k][0] + t*d[k]
	}

	prim := int(hit.PrimIndex[0])
	inst := int(hit.ObjIndex[0])
	tri := &s.Tris[prim]
	tr := &s.Transforms[s.MeshInstances[inst].TrIndex]
	n := normalize(core.TransformNormal((*[16]float32)(&tr.InvXform), geometry.PlaneNormal(tri)))

	return InspectResult{
		Hit:       true,
		Point:     p,
		Normal:    n,
		Distance:  t,
		FrontFace: n[0]*d[0]+n[1]*d[1]+n[2]*d[2] < 0,
		Instance:  inst,
		Triangle:  prim,
		Material:  s.Materials[tri.MI],
	}
}

func normalize(v [3]float32) [3]float32 {
	l := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if l == 0 {
		return v
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

// extractMaterialInfo lists the parameters that matter for the material kind
func extractMaterialInfo(m core.Material) (string, map[string]interface{}) {
	properties := make(map[string]interface{})
	properties["color"] = hexColor(m.MainColor)
	properties["albedo"] = m.MainColor
	properties["texture"] = m.Textures[0]

	switch m.Kind {
	case core.Glossy:
		properties["roughness"] = m.Roughness
	case core.Refractive:
		properties["roughness"] = m.Roughness
		properties["refractiveIndex"] = m.IOR
	case core.Emissive:
		properties["strength"] = m.Strength
	case core.Mix:
		properties["strength"] = m.Strength
		properties["fresnel"] = m.Fresnel
	}
	return m.Kind.String(), properties
}

func hexColor(c [3]float32) string {
	conv := func(x float32) int { return int(min(max(x, 0), 1)*255 + 0.5) }
	return fmt.Sprintf("#%02x%02x%02x", conv(c[0]), conv(c[1]), conv(c[2]))
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	inspectReq := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, inspectReq); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid scene parameters: " + err.Error()})
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid x coordinate"})
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid y coordinate"})
		return
	}
	if pixelX < 0 || pixelX >= inspectReq.Width || pixelY < 0 || pixelY >= inspectReq.Height {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Pixel coordinates out of bounds"})
		return
	}

	sceneObj, err := s.createScene(inspectReq.Scene, s.logger.Named("scene"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result := inspectPixel(sceneObj, inspectReq.Width, inspectReq.Height, pixelX, pixelY)
	if !result.Hit {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false})
		return
	}

	materialType, materialProps := extractMaterialInfo(result.Material)
	writeJSON(w, http.StatusOK, InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		Point:        result.Point,
		Normal:       result.Normal,
		Distance:     result.Distance,
		FrontFace:    result.FrontFace,
		Instance:     result.Instance,
		Triangle:     result.Triangle,
		Properties:   map[string]interface{}{"material": materialProps},
	})
}
