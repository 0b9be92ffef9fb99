package traverse

import (
	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/lane"
)

// source records how the walk arrived at the current node.
type source uint8

const (
	fromParent source = iota
	fromChild
	fromSibling
)

type workItem[W lane.Width] struct {
	mask lane.Int[W]
	node uint32
	src  source
}

// traversalState is a queue of lane groups still walking the tree. Items are
// only ever created by splitting the mask of an existing one into two
// non-empty disjoint halves, so there are never more items than lanes.
type traversalState[W lane.Width] struct {
	queue      [lane.MaxWidth]workItem[W]
	index, num int
}

func (st *traversalState[W]) push(mask lane.Int[W], node uint32, src source) {
	st.queue[st.num] = workItem[W]{mask: mask, node: node, src: src}
	st.num++
}

// selectNearChild moves the current item to the near child of n. Lanes that
// travel along the negative split axis visit the right child first; if the
// item holds both kinds the positive ones are split off towards the left.
func (st *traversalState[W]) selectNearChild(r *core.RayPacket[W], n *core.BVHNode) {
	cur := &st.queue[st.index]

	mask1 := r.D[n.SpaceAxis].LtS(0).And(cur.mask)
	if mask1.AllZeros() {
		cur.node = n.LeftChild
		return
	}

	mask2 := mask1.AndNot(cur.mask)
	if mask2.AllZeros() {
		cur.node = n.RightChild
		return
	}

	st.push(mask2, n.LeftChild, cur.src)
	cur.node = n.RightChild
	cur.mask = mask1
}

func nearChild[W lane.Width](r *core.RayPacket[W], mask lane.Int[W], n *core.BVHNode) uint32 {
	if r.D[n.SpaceAxis].LtS(0).AllZerosIn(mask) {
		return n.LeftChild
	}
	return n.RightChild
}

type leafFunc[W lane.Width] func(n *core.BVHNode, mask lane.Int[W]) bool

// walk visits every leaf of the tree rooted at root whose box is hit by some
// lane in mask, closer than the current hit distance.
func walk[W lane.Width](r *core.RayPacket[W], invD *[3]lane.Float[W], mask lane.Int[W], nodes []core.BVHNode, root uint32, hit *core.Hit[W], leaf leafFunc[W]) bool {
	res := false

	var st traversalState[W]
	st.push(mask, root, fromSibling)

	if !nodes[root].IsLeaf() {
		st.queue[0].src = fromParent
		st.selectNearChild(r, &nodes[root])
	}

	for st.index < st.num {
		cur := &st.queue[st.index]

		if cur.src == fromChild {
			if cur.node == root || cur.node == core.NoIndex {
				st.index++
				continue
			}
			n := &nodes[cur.node]
			if cur.node == nearChild(r, cur.mask, &nodes[n.Parent]) {
				cur.node, cur.src = n.Sibling, fromSibling
			} else {
				cur.node, cur.src = n.Parent, fromChild
			}
			continue
		}

		n := &nodes[cur.node]

		// Where to go once this node is done.
		next, nextSrc := n.Parent, fromChild
		if cur.src == fromParent {
			next, nextSrc = n.Sibling, fromSibling
		}

		mask1 := BBoxTest(&r.O, invD, hit.T, n.BBox[0], n.BBox[1]).And(cur.mask)
		if mask1.AllZeros() {
			cur.node, cur.src = next, nextSrc
			continue
		}

		if mask2 := mask1.AndNot(cur.mask); mask2.NotAllZeros() {
			st.push(mask2, next, nextSrc)
			cur.mask = mask1
		}

		if n.IsLeaf() {
			if leaf(n, cur.mask) {
				res = true
			}
			cur.node, cur.src = next, nextSrc
		} else {
			cur.src = fromParent
			st.selectNearChild(r, n)
		}
	}

	return res
}

// MicroTree intersects the masked lanes of r, already in object space, with
// the triangle BVH rooted at root.
func MicroTree[W lane.Width](r *core.RayPacket[W], mask lane.Int[W], nodes []core.BVHNode, root uint32, tris []core.TriAccel, indices []uint32, objIndex int32, hit *core.Hit[W]) bool {
	invD := SafeInvert(&r.D)

	return walk(r, &invD, mask, nodes, root, hit, func(n *core.BVHNode, m lane.Int[W]) bool {
		return IntersectTris(r, m, tris, indices[n.PrimIndex:n.PrimIndex+n.PrimCount], objIndex, hit)
	})
}

// MacroTree intersects the masked lanes of r with every mesh instance of the
// scene, starting at the instance BVH node root.
func MacroTree[W lane.Width](r *core.RayPacket[W], mask lane.Int[W], s *core.Scene, root uint32, hit *core.Hit[W]) bool {
	invD := SafeInvert(&r.D)

	return walk(r, &invD, mask, s.Nodes, root, hit, func(n *core.BVHNode, m lane.Int[W]) bool {
		res := false
		for i := n.PrimIndex; i < n.PrimIndex+n.PrimCount; i++ {
			miIndex := s.MiIndices[i]
			mi := &s.MeshInstances[miIndex]

			bboxMask := BBoxTest(&r.O, &invD, hit.T, mi.BBoxMin, mi.BBoxMax).And(m)
			if bboxMask.AllZeros() {
				continue
			}

			local := TransformRay(r, &s.Transforms[mi.TrIndex].InvXform)
			mesh := &s.Meshes[mi.MeshIndex]
			if MicroTree(&local, bboxMask, s.Nodes, mesh.NodeIndex, s.Tris, s.TriIndices, int32(miIndex), hit) {
				res = true
			}
		}
		return res
	})
}

// Trace runs MacroTree from the scene root. Empty scenes hit nothing.
func Trace[W lane.Width](r *core.RayPacket[W], mask lane.Int[W], s *core.Scene, hit *core.Hit[W]) bool {
	if s.Empty() {
		return false
	}
	return MacroTree(r, mask, s, s.MacroNodesStart, hit)
}
