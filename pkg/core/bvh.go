package core

import (
	"sort"
)

// Leaf threshold: if we have this many or fewer primitives, store them in a leaf node
const leafThreshold = 8

// BuildBVH constructs a flat BVH over the given primitive bounds. Nodes are
// laid out depth first with the root at index 0; every node links to its
// parent and sibling so the tree can be walked without a stack. The returned
// indices map leaf ranges back to positions in prims.
func BuildBVH(prims []AABB) ([]BVHNode, []uint32) {
	if len(prims) == 0 {
		return nil, nil
	}

	b := bvhBuilder{
		prims:   prims,
		indices: make([]uint32, len(prims)),
	}
	for i := range b.indices {
		b.indices[i] = uint32(i)
	}
	b.nodes = make([]BVHNode, 0, 2*len(prims)/leafThreshold+1)

	b.build(0, len(prims), NoIndex)
	return b.nodes, b.indices
}

type bvhBuilder struct {
	prims   []AABB
	indices []uint32
	nodes   []BVHNode
}

// build creates the node for indices[start:end] and returns its index
func (b *bvhBuilder) build(start, end int, parent uint32) uint32 {
	// Calculate bounding box for all primitives
	box := EmptyAABB()
	for _, i := range b.indices[start:end] {
		box = box.Union(b.prims[i])
	}

	index := uint32(len(b.nodes))
	b.nodes = append(b.nodes, BVHNode{
		Parent:  parent,
		Sibling: NoIndex,
		BBox:    box.Bounds(),
	})

	// Base case: few primitives - create leaf node
	if end-start <= leafThreshold {
		b.nodes[index].PrimIndex = uint32(start)
		b.nodes[index].PrimCount = uint32(end - start)
		return index
	}

	// For larger groups, use simple median split along longest centroid axis.
	// Centroid bounds avoid degenerate splits when boxes overlap heavily.
	centroids := EmptyAABB()
	for _, i := range b.indices[start:end] {
		centroids = centroids.Extend(b.prims[i].Center())
	}
	axis := centroids.LongestAxis()
	b.sortByAxis(b.indices[start:end], axis)

	mid := (start + end) / 2
	left := b.build(start, mid, index)
	right := b.build(mid, end, index)

	b.nodes[left].Sibling = right
	b.nodes[right].Sibling = left

	// The space axis is where the children are furthest apart; the near child
	// for a positive direction on that axis is stored on the left.
	lc := nodeBox(&b.nodes[left]).Center()
	rc := nodeBox(&b.nodes[right]).Center()
	d := rc.Sub(lc)
	space := 0
	for k := 1; k < 3; k++ {
		if abs32(d[k]) > abs32(d[space]) {
			space = k
		}
	}
	if d[space] < 0 {
		left, right = right, left
	}

	n := &b.nodes[index]
	n.LeftChild = left
	n.RightChild = right
	n.SpaceAxis = uint32(space)
	return index
}

// sortByAxis sorts primitives by their bounding box center along the specified axis
func (b *bvhBuilder) sortByAxis(indices []uint32, axis int) {
	sort.SliceStable(indices, func(i, j int) bool {
		return b.prims[indices[i]].Center()[axis] < b.prims[indices[j]].Center()[axis]
	})
}

func nodeBox(n *BVHNode) AABB {
	return AABB{Min: n.BBox[0], Max: n.BBox[1]}
}

// OffsetNodes shifts every node link by nodeOffset and every leaf range by
// primOffset so a tree built on its own can be appended to a shared array.
// NoIndex links are left untouched.
func OffsetNodes(nodes []BVHNode, nodeOffset, primOffset uint32) {
	shift := func(v uint32) uint32 {
		if v == NoIndex {
			return v
		}
		return v + nodeOffset
	}
	for i := range nodes {
		n := &nodes[i]
		n.Parent = shift(n.Parent)
		n.Sibling = shift(n.Sibling)
		if n.IsLeaf() {
			n.PrimIndex += primOffset
		} else {
			n.LeftChild = shift(n.LeftChild)
			n.RightChild = shift(n.RightChild)
		}
	}
}

// BVHStats contains statistics about a flat BVH
type BVHStats struct {
	TotalNodes int
	LeafNodes  int
	MaxDepth   int
	AvgDepth   float64
	TotalPrims int
}

// CollectBVHStats walks the tree rooted at root and gathers statistics
func CollectBVHStats(nodes []BVHNode, root uint32) BVHStats {
	var stats BVHStats
	if int(root) >= len(nodes) {
		return stats
	}
	collectStats(nodes, root, 0, &stats)

	// Calculate average depth after collecting all data
	if stats.LeafNodes > 0 {
		stats.AvgDepth = stats.AvgDepth / float64(stats.LeafNodes)
	}
	return stats
}

func collectStats(nodes []BVHNode, cur uint32, depth int, stats *BVHStats) {
	stats.TotalNodes++
	if depth > stats.MaxDepth {
		stats.MaxDepth = depth
	}

	n := &nodes[cur]
	if n.IsLeaf() {
		stats.LeafNodes++
		stats.TotalPrims += int(n.PrimCount)
		stats.AvgDepth += float64(depth) // Accumulate depth for average calculation
		return
	}
	collectStats(nodes, n.LeftChild, depth+1, stats)
	collectStats(nodes, n.RightChild, depth+1, stats)
}
