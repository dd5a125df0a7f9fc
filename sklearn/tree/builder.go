package tree

import (
	"container/heap"
	"math"
	"math/rand/v2"
	"sort"
)

const (
	// featureThreshold is the smallest gap between two sorted feature values
	// that is treated as a split point.
	featureThreshold = 1e-7
	// impurityEpsilon marks a node as pure.
	impurityEpsilon = 10 * 2.220446049250313e-16
	leafMarker      = -1
)

// Nodes stores a fitted tree as parallel arrays indexed by node id. Node 0
// is the root; a leaf has Left == Right == -1.
type Nodes struct {
	Feature   []int
	Threshold []float64
	Left      []int
	Right     []int
	Value     []float64
	NSamples  []int
	Impurity  []float64
}

func (n *Nodes) add(value, impurity float64, samples int) int {
	n.Feature = append(n.Feature, leafMarker)
	n.Threshold = append(n.Threshold, 0)
	n.Left = append(n.Left, leafMarker)
	n.Right = append(n.Right, leafMarker)
	n.Value = append(n.Value, value)
	n.NSamples = append(n.NSamples, samples)
	n.Impurity = append(n.Impurity, impurity)
	return len(n.Value) - 1
}

// Len returns the number of nodes.
func (n *Nodes) Len() int { return len(n.Value) }

// IsLeaf reports whether node id is a leaf.
func (n *Nodes) IsLeaf(id int) bool { return n.Left[id] == leafMarker }

// predict routes one row to its leaf value.
func (n *Nodes) predict(row func(j int) float64) float64 {
	id := 0
	for n.Left[id] != leafMarker {
		if row(n.Feature[id]) <= n.Threshold[id] {
			id = n.Left[id]
		} else {
			id = n.Right[id]
		}
	}
	return n.Value[id]
}

// split is the best partition found for a node.
type split struct {
	feature   int
	threshold float64
	pos       int // number of samples going left
	impLeft   float64
	impRight  float64
	// decrease is n*imp - nl*impLeft - nr*impRight.
	decrease float64
}

// builder grows a tree over samples[start:end) windows, partitioning the
// shared samples slice in place as nodes are split.
type builder struct {
	params  Params
	cols    [][]float64 // feature-major copy of X
	y       []float64
	samples []int
	scratch []int
	rng     *rand.Rand

	nodes      Nodes
	importance []float64
	nTotal     int
	maxDepth   int
	nLeaves    int
}

func newBuilder(params Params, cols [][]float64, y []float64, samples []int, seed uint64) *builder {
	return &builder{
		params:     params,
		cols:       cols,
		y:          y,
		samples:    samples,
		scratch:    make([]int, len(samples)),
		rng:        rand.New(rand.NewPCG(seed, seed)),
		importance: make([]float64, len(cols)),
		nTotal:     len(samples),
	}
}

// stats returns the mean target and its variance over a window. Two passes
// keep pure nodes at exactly zero impurity.
func (b *builder) stats(start, end int) (mean, impurity float64) {
	n := float64(end - start)
	for _, s := range b.samples[start:end] {
		mean += b.y[s]
	}
	mean /= n
	for _, s := range b.samples[start:end] {
		d := b.y[s] - mean
		impurity += d * d
	}
	return mean, impurity / n
}

func (b *builder) splittable(n, depth int, impurity float64) bool {
	p := b.params
	if p.MaxDepth > 0 && depth >= p.MaxDepth {
		return false
	}
	return n >= p.MinSamplesSplit && n >= 2*p.MinSamplesLeaf && impurity > impurityEpsilon
}

// findSplit searches the features in a random order for the partition that
// maximises sum_l^2/n_l + sum_r^2/n_r, which is equivalent to minimising
// the weighted child variance. Constant features do not count towards
// MaxFeatures. The window is left partitioned by the winning split.
func (b *builder) findSplit(start, end int, impurity float64) (split, bool) {
	n := end - start
	buf := b.scratch[:n]

	var sumTotal float64
	for _, s := range b.samples[start:end] {
		sumTotal += b.y[s]
	}

	best := split{feature: leafMarker}
	bestProxy := math.Inf(-1)
	visited := 0
	minLeaf := b.params.MinSamplesLeaf

	for _, f := range b.rng.Perm(len(b.cols)) {
		if b.params.MaxFeatures > 0 && visited >= b.params.MaxFeatures {
			break
		}
		col := b.cols[f]
		copy(buf, b.samples[start:end])
		sort.Slice(buf, func(i, j int) bool { return col[buf[i]] < col[buf[j]] })
		if col[buf[n-1]] <= col[buf[0]]+featureThreshold {
			continue
		}
		visited++

		var sumLeft float64
		for p := 1; p < n; p++ {
			sumLeft += b.y[buf[p-1]]
			lo, hi := col[buf[p-1]], col[buf[p]]
			if hi <= lo+featureThreshold {
				continue
			}
			if p < minLeaf || n-p < minLeaf {
				continue
			}
			sumRight := sumTotal - sumLeft
			proxy := sumLeft*sumLeft/float64(p) + sumRight*sumRight/float64(n-p)
			if proxy > bestProxy {
				bestProxy = proxy
				threshold := lo/2 + hi/2
				if threshold == hi || math.IsInf(threshold, 0) {
					threshold = lo
				}
				best = split{feature: f, threshold: threshold, pos: p}
			}
		}
	}
	if best.feature == leafMarker {
		return best, false
	}

	b.partition(start, end, best)
	_, best.impLeft = b.stats(start, start+best.pos)
	_, best.impRight = b.stats(start+best.pos, end)
	best.decrease = float64(n)*impurity -
		float64(best.pos)*best.impLeft -
		float64(n-best.pos)*best.impRight
	return best, true
}

func (b *builder) partition(start, end int, s split) {
	col := b.cols[s.feature]
	i, j := start, end-1
	for i <= j {
		if col[b.samples[i]] <= s.threshold {
			i++
			continue
		}
		b.samples[i], b.samples[j] = b.samples[j], b.samples[i]
		j--
	}
}

// accept applies the min_impurity_decrease rule, expressed on the
// fraction-of-samples scale scikit-learn uses.
func (b *builder) accept(s split) bool {
	improvement := s.decrease / float64(b.nTotal)
	return improvement+impurityEpsilon >= b.params.MinImpurityDecrease
}

func (b *builder) setSplit(id int, s split, left, right int) {
	b.nodes.Feature[id] = s.feature
	b.nodes.Threshold[id] = s.threshold
	b.nodes.Left[id] = left
	b.nodes.Right[id] = right
	b.importance[s.feature] += s.decrease
}

func (b *builder) build() {
	if b.params.MaxLeafNodes > 0 {
		b.buildBestFirst()
	} else {
		b.buildDepthFirst(0, len(b.samples), 0)
	}
	b.nLeaves = 0
	for id := 0; id < b.nodes.Len(); id++ {
		if b.nodes.IsLeaf(id) {
			b.nLeaves++
		}
	}
}

func (b *builder) buildDepthFirst(start, end, depth int) int {
	mean, impurity := b.stats(start, end)
	id := b.nodes.add(mean, impurity, end-start)
	if depth > b.maxDepth {
		b.maxDepth = depth
	}
	if !b.splittable(end-start, depth, impurity) {
		return id
	}
	s, ok := b.findSplit(start, end, impurity)
	if !ok || !b.accept(s) {
		return id
	}
	left := b.buildDepthFirst(start, start+s.pos, depth+1)
	right := b.buildDepthFirst(start+s.pos, end, depth+1)
	b.setSplit(id, s, left, right)
	return id
}

// frontier is a max-heap of expandable leaves keyed by impurity decrease.
type frontierItem struct {
	id, start, end, depth int
	split                 split
}

type frontier []frontierItem

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].split.decrease != f[j].split.decrease {
		return f[i].split.decrease > f[j].split.decrease
	}
	return f[i].id < f[j].id
}
func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)   { *f = append(*f, x.(frontierItem)) }
func (f *frontier) Pop() any {
	old := *f
	it := old[len(old)-1]
	*f = old[:len(old)-1]
	return it
}

func (b *builder) buildBestFirst() {
	h := &frontier{}
	push := func(start, end, depth int) int {
		mean, impurity := b.stats(start, end)
		id := b.nodes.add(mean, impurity, end-start)
		if depth > b.maxDepth {
			b.maxDepth = depth
		}
		if !b.splittable(end-start, depth, impurity) {
			return id
		}
		s, ok := b.findSplit(start, end, impurity)
		if ok && b.accept(s) {
			heap.Push(h, frontierItem{id: id, start: start, end: end, depth: depth, split: s})
		}
		return id
	}

	push(0, len(b.samples), 0)
	leaves := 1
	for h.Len() > 0 && leaves < b.params.MaxLeafNodes {
		it := heap.Pop(h).(frontierItem)
		mid := it.start + it.split.pos
		left := push(it.start, mid, it.depth+1)
		right := push(mid, it.end, it.depth+1)
		b.setSplit(it.id, it.split, left, right)
		leaves++
	}
}
