package classifier

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"phishguard/features"
)

// Sample is one labelled row of the training set.
type Sample struct {
	Vector features.Vector
	Label  int
}

// TrainOptions controls forest fitting.
type TrainOptions struct {
	Trees          int
	MaxDepth       int // 0 means unlimited
	MinSamplesLeaf int
	MaxFeatures    int // 0 means sqrt(features.Size)
	Seed           int64
}

// DefaultTrainOptions returns the options the shipped model is built with.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Trees:          100,
		MinSamplesLeaf: 1,
		Seed:           42,
	}
}

// Train fits a random forest on samples: every tree sees a bootstrap
// resample and considers a random subset of features at each split.
func Train(samples []Sample, opts TrainOptions) (*Forest, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrDataset)
	}
	for i, s := range samples {
		if s.Label != ClassPhishing && s.Label != ClassLegitimate {
			return nil, fmt.Errorf("%w: sample %d has label %d", ErrDataset, i, s.Label)
		}
	}
	if opts.Trees <= 0 {
		opts.Trees = 1
	}
	if opts.MinSamplesLeaf <= 0 {
		opts.MinSamplesLeaf = 1
	}
	if opts.MaxFeatures <= 0 || opts.MaxFeatures > features.Size {
		opts.MaxFeatures = int(math.Sqrt(features.Size))
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	forest := &Forest{
		Classes:  [2]int{ClassPhishing, ClassLegitimate},
		Features: features.Names(),
		Trees:    make([]Tree, 0, opts.Trees),
	}
	for t := 0; t < opts.Trees; t++ {
		idx := make([]int, len(samples))
		for i := range idx {
			idx[i] = rng.Intn(len(samples))
		}
		b := &treeBuilder{samples: samples, opts: opts, rng: rng}
		b.grow(idx, 0)
		forest.Trees = append(forest.Trees, Tree{Nodes: b.nodes})
	}
	return forest, nil
}

type treeBuilder struct {
	samples []Sample
	opts    TrainOptions
	rng     *rand.Rand
	nodes   []Node
}

func classIndex(label int) int {
	if label == ClassLegitimate {
		return 1
	}
	return 0
}

func (b *treeBuilder) counts(idx []int) [2]int {
	var c [2]int
	for _, i := range idx {
		c[classIndex(b.samples[i].Label)]++
	}
	return c
}

func gini(c [2]int) float64 {
	n := float64(c[0] + c[1])
	if n == 0 {
		return 0
	}
	p0, p1 := float64(c[0])/n, float64(c[1])/n
	return 1 - p0*p0 - p1*p1
}

func (b *treeBuilder) leaf(c [2]int) int {
	n := float64(c[0] + c[1])
	b.nodes = append(b.nodes, Node{
		Left:  -1,
		Right: -1,
		Proba: [2]float64{float64(c[0]) / n, float64(c[1]) / n},
	})
	return len(b.nodes) - 1
}

// grow appends the subtree for idx and returns its root index. Children are
// always appended after their parent.
func (b *treeBuilder) grow(idx []int, depth int) int {
	c := b.counts(idx)
	if c[0] == 0 || c[1] == 0 ||
		len(idx) < 2*b.opts.MinSamplesLeaf ||
		(b.opts.MaxDepth > 0 && depth >= b.opts.MaxDepth) {
		return b.leaf(c)
	}

	feature, threshold, ok := b.bestSplit(idx, c)
	if !ok {
		return b.leaf(c)
	}

	var left, right []int
	for _, i := range idx {
		if float64(b.samples[i].Vector[feature]) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	self := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: feature, Threshold: threshold})
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[self].Left = l
	b.nodes[self].Right = r
	return self
}

func (b *treeBuilder) bestSplit(idx []int, parent [2]int) (int, float64, bool) {
	best := gini(parent)
	bestFeature, bestThreshold, found := 0, 0.0, false
	n := float64(len(idx))

	candidates := b.rng.Perm(features.Size)[:b.opts.MaxFeatures]
	for _, f := range candidates {
		// Per-value class counts; feature values are small integers.
		byValue := map[int][2]int{}
		for _, i := range idx {
			s := b.samples[i]
			c := byValue[s.Vector[f]]
			c[classIndex(s.Label)]++
			byValue[s.Vector[f]] = c
		}
		if len(byValue) < 2 {
			continue
		}
		values := make([]int, 0, len(byValue))
		for v := range byValue {
			values = append(values, v)
		}
		sort.Ints(values)

		var left [2]int
		for k := 0; k < len(values)-1; k++ {
			vc := byValue[values[k]]
			left[0] += vc[0]
			left[1] += vc[1]
			right := [2]int{parent[0] - left[0], parent[1] - left[1]}
			nl, nr := left[0]+left[1], right[0]+right[1]
			if nl < b.opts.MinSamplesLeaf || nr < b.opts.MinSamplesLeaf {
				continue
			}
			impurity := float64(nl)/n*gini(left) + float64(nr)/n*gini(right)
			if impurity < best-1e-12 {
				best = impurity
				bestFeature = f
				bestThreshold = float64(values[k]+values[k+1]) / 2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

// Split shuffles samples with seed and returns a (1-testFraction,
// testFraction) partition. The input slice is not modified.
func Split(samples []Sample, testFraction float64, seed int64) (train, test []Sample) {
	shuffled := make([]Sample, len(samples))
	copy(shuffled, samples)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	nTest := int(math.Round(float64(len(shuffled)) * testFraction))
	if nTest > len(shuffled) {
		nTest = len(shuffled)
	}
	return shuffled[nTest:], shuffled[:nTest]
}

// Accuracy returns the share of samples m labels correctly.
func Accuracy(m Model, samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	correct := 0
	for _, s := range samples {
		if m.Predict(s.Vector) == s.Label {
			correct++
		}
	}
	return float64(correct) / float64(len(samples))
}
