package traverse

import (
	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/lane"
)

// scalarHit is the closest hit of a single lane.
type scalarHit struct {
	found     bool
	obj, prim int32
	t, u, v   float32
}

func scalarNear(d [3]float32, n *core.BVHNode) (near, far uint32) {
	if d[n.SpaceAxis] < 0 {
		return n.RightChild, n.LeftChild
	}
	return n.LeftChild, n.RightChild
}

// walkLastVisited is the stack-less traversal that decides where to go next
// from the node it came from, one ray at a time.
func walkLastVisited(ray core.Ray, invD [3]float32, nodes []core.BVHNode, root uint32, h *scalarHit, leaf func(n *core.BVHNode)) {
	cur, last := root, root
	if !nodes[root].IsLeaf() {
		cur, _ = scalarNear(ray.D, &nodes[root])
	}

	for cur != core.NoIndex {
		n := &nodes[cur]
		if n.IsLeaf() {
			leaf(n)
			last, cur = cur, n.Parent
			continue
		}

		near, far := scalarNear(ray.D, n)
		if last == far {
			last, cur = cur, n.Parent
			continue
		}

		try := far
		if last == n.Parent {
			try = near
		}

		c := &nodes[try]
		switch {
		case core.BBoxTest(ray.O, invD, h.t, c.BBox[0], c.BBox[1]):
			last, cur = cur, try
		case try == near:
			last = near
		default:
			last, cur = cur, n.Parent
		}
	}
}

func microLastVisited(ray core.Ray, nodes []core.BVHNode, root uint32, tris []core.TriAccel, indices []uint32, obj int32, h *scalarHit) {
	walkLastVisited(ray, core.SafeInvert(ray.D), nodes, root, h, func(n *core.BVHNode) {
		for _, idx := range indices[n.PrimIndex : n.PrimIndex+n.PrimCount] {
			if t, u, v, ok := tris[idx].Intersect(ray.O, ray.D, h.t); ok {
				*h = scalarHit{found: true, obj: obj, prim: int32(idx), t: t, u: u, v: v}
			}
		}
	})
}

// MacroTreeLastVisited answers the same query as MacroTree but walks every
// active lane on its own with the last-visited traversal. It is slower and
// exists to cross-check the packet traversal.
func MacroTreeLastVisited[W lane.Width](r *core.RayPacket[W], mask lane.Int[W], s *core.Scene, root uint32, hit *core.Hit[W]) bool {
	res := false

	for i := 0; i < lane.Lanes[W](); i++ {
		if mask[i] == 0 {
			continue
		}

		ray := r.Lane(i)
		invD := core.SafeInvert(ray.D)
		h := scalarHit{t: hit.T[i]}

		walkLastVisited(ray, invD, s.Nodes, root, &h, func(n *core.BVHNode) {
			for _, miIndex := range s.MiIndices[n.PrimIndex : n.PrimIndex+n.PrimCount] {
				mi := &s.MeshInstances[miIndex]
				if !core.BBoxTest(ray.O, invD, h.t, mi.BBoxMin, mi.BBoxMax) {
					continue
				}
				inv := (*[16]float32)(&s.Transforms[mi.TrIndex].InvXform)
				local := core.Ray{O: core.TransformPoint(inv, ray.O), D: core.TransformDir(inv, ray.D)}
				microLastVisited(local, s.Nodes, s.Meshes[mi.MeshIndex].NodeIndex, s.Tris, s.TriIndices, int32(miIndex), &h)
			}
		})

		if h.found {
			hit.Mask[i] = -1
			hit.ObjIndex[i] = h.obj
			hit.PrimIndex[i] = h.prim
			hit.T[i], hit.U[i], hit.V[i] = h.t, h.u, h.v
			res = true
		}
	}

	return res
}
