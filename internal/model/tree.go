package model

import (
	"math"
	"sort"
)

// treeNode is a split (Feature >= 0) or a leaf (Feature == -1)
type treeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
}

// Tree is one regression tree; rows with x[Feature] <= Threshold go left
type Tree struct {
	Nodes []treeNode `json:"nodes"`
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// depth returns the longest root-to-leaf path
func (t *Tree) depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return 0
		}
		l, r := walk(n.Left), walk(n.Right)
		if l > r {
			return l + 1
		}
		return r + 1
	}
	return walk(0)
}

// binnedMatrix holds per-feature bin indices of the training rows (feature-major)
type binnedMatrix struct {
	cuts [][]float64
	bins [][]uint16
}

// quantileCuts picks at most maxBins-1 ascending cut points for one column.
// Bin b holds values in (cuts[b-1], cuts[b]]; values above the last cut take the final bin.
func quantileCuts(column []float64, maxBins int) []float64 {
	sorted := make([]float64, len(column))
	copy(sorted, column)
	sort.Float64s(sorted)

	unique := sorted[:0:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			unique = append(unique, v)
		}
	}
	if len(unique) <= 1 {
		return nil
	}
	if len(unique) <= maxBins {
		return unique[:len(unique)-1]
	}

	cuts := make([]float64, 0, maxBins-1)
	for k := 1; k < maxBins; k++ {
		v := sorted[k*len(sorted)/maxBins]
		if v == unique[len(unique)-1] {
			break
		}
		if len(cuts) == 0 || v > cuts[len(cuts)-1] {
			cuts = append(cuts, v)
		}
	}
	return cuts
}

func newBinnedMatrix(x [][]float64, maxBins int) *binnedMatrix {
	width := len(x[0])
	m := &binnedMatrix{
		cuts: make([][]float64, width),
		bins: make([][]uint16, width),
	}

	column := make([]float64, len(x))
	for f := 0; f < width; f++ {
		for i, row := range x {
			column[i] = row[f]
		}
		cuts := quantileCuts(column, maxBins)
		bins := make([]uint16, len(x))
		for i, v := range column {
			bins[i] = uint16(sort.SearchFloat64s(cuts, v))
		}
		m.cuts[f] = cuts
		m.bins[f] = bins
	}
	return m
}

func (m *binnedMatrix) numBins(f int) int {
	return len(m.cuts[f]) + 1
}

// treeGrower builds one tree from gradient statistics
type treeGrower struct {
	data           *binnedMatrix
	grad, hess     []float64
	features       []int
	maxDepth       int
	lambda         float64
	minChildWeight float64
	learningRate   float64

	tree Tree
	// scratch histograms
	histG, histH []float64
}

type splitCandidate struct {
	feature int
	bin     int
	gain    float64
}

func (g *treeGrower) grow(rows []int) Tree {
	g.tree = Tree{}
	g.build(rows, 0)
	return g.tree
}

func (g *treeGrower) leafWeight(sumG, sumH float64) float64 {
	return -sumG / (sumH + g.lambda)
}

func (g *treeGrower) score(sumG, sumH float64) float64 {
	return sumG * sumG / (sumH + g.lambda)
}

func (g *treeGrower) build(rows []int, depth int) int {
	var sumG, sumH float64
	for _, i := range rows {
		sumG += g.grad[i]
		sumH += g.hess[i]
	}

	id := len(g.tree.Nodes)
	g.tree.Nodes = append(g.tree.Nodes, treeNode{Feature: -1, Value: g.learningRate * g.leafWeight(sumG, sumH)})

	if depth >= g.maxDepth || len(rows) < 2 || sumH < 2*g.minChildWeight {
		return id
	}

	best := g.findSplit(rows, sumG, sumH)
	if best.feature < 0 {
		return id
	}

	bins := g.data.bins[best.feature]
	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	for _, i := range rows {
		if int(bins[i]) <= best.bin {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	g.tree.Nodes[id] = treeNode{
		Feature:   best.feature,
		Threshold: g.data.cuts[best.feature][best.bin],
	}
	l := g.build(left, depth+1)
	r := g.build(right, depth+1)
	g.tree.Nodes[id].Left = l
	g.tree.Nodes[id].Right = r
	return id
}

func (g *treeGrower) findSplit(rows []int, sumG, sumH float64) splitCandidate {
	best := splitCandidate{feature: -1}
	parent := g.score(sumG, sumH)

	for _, f := range g.features {
		nb := g.data.numBins(f)
		if nb < 2 {
			continue
		}
		if cap(g.histG) < nb {
			g.histG = make([]float64, nb)
			g.histH = make([]float64, nb)
		}
		histG, histH := g.histG[:nb], g.histH[:nb]
		for b := range histG {
			histG[b], histH[b] = 0, 0
		}

		bins := g.data.bins[f]
		for _, i := range rows {
			histG[bins[i]] += g.grad[i]
			histH[bins[i]] += g.hess[i]
		}

		var gl, hl float64
		for b := 0; b < nb-1; b++ {
			gl += histG[b]
			hl += histH[b]
			gr, hr := sumG-gl, sumH-hl
			if hl < g.minChildWeight || hr < g.minChildWeight {
				continue
			}
			gain := 0.5 * (g.score(gl, hl) + g.score(gr, hr) - parent)
			if gain > best.gain && !math.IsNaN(gain) {
				best = splitCandidate{feature: f, bin: b, gain: gain}
			}
		}
	}
	return best
}
