package estimator

import (
	"math"
	"math/rand"
	"sort"

	"github.com/spf13/cast"
	"gonum.org/v1/gonum/mat"
)

// TreeNode is one node of a fitted decision tree. Leaves carry the class
// distribution of the training samples that reached them.
type TreeNode struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Leaf      bool
	Proba     []float64
}

type DecisionTree struct {
	Nodes []TreeNode
}

func (t *DecisionTree) proba(row []float64) []float64 {
	i := 0
	for !t.Nodes[i].Leaf {
		node := t.Nodes[i]
		if row[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
	return t.Nodes[i].Proba
}

// RandomForestClassifier averages the class distributions of bootstrapped
// CART trees split on gini impurity.
type RandomForestClassifier struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     string
	Bootstrap       bool
	RandomState     int64

	Classes  []int
	Features int
	Trees    []DecisionTree
}

func newRandomForestClassifier(params Params) (*RandomForestClassifier, error) {
	r := newParamReader(RandomForest, params)
	m := &RandomForestClassifier{
		NEstimators:     r.minInt("n_estimators", 100, 1),
		MaxDepth:        r.minInt("max_depth", 0, 0),
		MinSamplesSplit: r.minInt("min_samples_split", 2, 2),
		MinSamplesLeaf:  r.minInt("min_samples_leaf", 1, 1),
		Bootstrap:       r.bool("bootstrap", true),
		RandomState:     int64(r.int("random_state", 0)),
		MaxFeatures:     "sqrt",
	}
	r.choice("criterion", "gini", "gini")

	if v, ok := r.raw("max_features"); ok {
		switch s := v.(type) {
		case string:
			if s != "sqrt" && s != "log2" {
				r.fail("max_features", v, "must be sqrt, log2, an integer or None")
			}
			m.MaxFeatures = s
		default:
			i, err := cast.ToIntE(v)
			if err != nil || i < 1 {
				r.fail("max_features", v, "must be sqrt, log2, an integer or None")
			}
			m.MaxFeatures = cast.ToString(i)
		}
	} else if _, declared := params.Get("max_features"); declared {
		m.MaxFeatures = ""
	}

	return m, r.finish()
}

// featuresPerSplit resolves MaxFeatures against the number of features.
// An empty setting means every feature is considered.
func (m *RandomForestClassifier) featuresPerSplit(d int) int {
	k := d
	switch m.MaxFeatures {
	case "":
	case "sqrt":
		k = int(math.Sqrt(float64(d)))
	case "log2":
		k = int(math.Log2(float64(d)))
	default:
		k = cast.ToInt(m.MaxFeatures)
	}
	if k < 1 {
		k = 1
	}
	if k > d {
		k = d
	}
	return k
}

func (m *RandomForestClassifier) Fit(X mat.Matrix, y []int) error {
	n, d, err := checkTrainingData(X, y)
	if err != nil {
		return err
	}

	classes := uniqueClasses(y)
	encoded := make([]int, n)
	for i, label := range y {
		encoded[i] = sort.SearchInts(classes, label)
	}
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, X)
	}

	b := &treeBuilder{
		rows:       rows,
		labels:     encoded,
		classes:    len(classes),
		maxDepth:   m.MaxDepth,
		minSplit:   m.MinSamplesSplit,
		minLeaf:    m.MinSamplesLeaf,
		maxFeature: m.featuresPerSplit(d),
		features:   d,
	}

	seeds := rand.New(rand.NewSource(m.RandomState))
	trees := make([]DecisionTree, m.NEstimators)
	for t := range trees {
		rng := rand.New(rand.NewSource(seeds.Int63()))
		sample := make([]int, n)
		for i := range sample {
			if m.Bootstrap {
				sample[i] = rng.Intn(n)
			} else {
				sample[i] = i
			}
		}
		trees[t] = b.build(sample, rng)
	}

	m.Classes = classes
	m.Features = d
	m.Trees = trees
	return nil
}

func (m *RandomForestClassifier) Predict(X mat.Matrix) ([]int, error) {
	if m.Trees == nil {
		return nil, ErrNotFitted
	}
	n, err := checkPredictInput(X, m.Features)
	if err != nil {
		return nil, err
	}

	out := make([]int, n)
	row := make([]float64, m.Features)
	avg := make([]float64, len(m.Classes))
	for i := 0; i < n; i++ {
		mat.Row(row, i, X)
		for c := range avg {
			avg[c] = 0
		}
		for t := range m.Trees {
			for c, p := range m.Trees[t].proba(row) {
				avg[c] += p
			}
		}
		best := 0
		for c := 1; c < len(avg); c++ {
			if avg[c] > avg[best] {
				best = c
			}
		}
		out[i] = m.Classes[best]
	}
	return out, nil
}

type treeBuilder struct {
	rows       [][]float64
	labels     []int
	classes    int
	maxDepth   int
	minSplit   int
	minLeaf    int
	maxFeature int
	features   int
}

func (b *treeBuilder) build(sample []int, rng *rand.Rand) DecisionTree {
	tree := DecisionTree{}
	b.grow(&tree, sample, 0, rng)
	return tree
}

func (b *treeBuilder) counts(sample []int) []float64 {
	counts := make([]float64, b.classes)
	for _, i := range sample {
		counts[b.labels[i]]++
	}
	return counts
}

func (b *treeBuilder) leaf(tree *DecisionTree, counts []float64, total int) int {
	proba := make([]float64, len(counts))
	for c, v := range counts {
		proba[c] = v / float64(total)
	}
	tree.Nodes = append(tree.Nodes, TreeNode{Leaf: true, Proba: proba})
	return len(tree.Nodes) - 1
}

func gini(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := c / total
		sum += p * p
	}
	return 1 - sum
}

func (b *treeBuilder) grow(tree *DecisionTree, sample []int, depth int, rng *rand.Rand) int {
	counts := b.counts(sample)
	total := len(sample)
	impurity := gini(counts, float64(total))

	if impurity == 0 || total < b.minSplit || (b.maxDepth > 0 && depth >= b.maxDepth) {
		return b.leaf(tree, counts, total)
	}

	feature, threshold, ok := b.bestSplit(sample, counts, impurity, rng)
	if !ok {
		return b.leaf(tree, counts, total)
	}

	var left, right []int
	for _, i := range sample {
		if b.rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	idx := len(tree.Nodes)
	tree.Nodes = append(tree.Nodes, TreeNode{Feature: feature, Threshold: threshold})
	l := b.grow(tree, left, depth+1, rng)
	r := b.grow(tree, right, depth+1, rng)
	tree.Nodes[idx].Left = l
	tree.Nodes[idx].Right = r
	return idx
}

func (b *treeBuilder) bestSplit(sample []int, counts []float64, impurity float64, rng *rand.Rand) (int, float64, bool) {
	total := float64(len(sample))
	bestGain := 0.0
	bestFeature, bestThreshold := -1, 0.0

	order := make([]int, len(sample))
	left := make([]float64, b.classes)
	right := make([]float64, b.classes)

	for _, f := range rng.Perm(b.features)[:b.maxFeature] {
		copy(order, sample)
		sort.SliceStable(order, func(a, c int) bool { return b.rows[order[a]][f] < b.rows[order[c]][f] })

		for c := range left {
			left[c] = 0
		}
		copy(right, counts)

		for k := 0; k < len(order)-1; k++ {
			label := b.labels[order[k]]
			left[label]++
			right[label]--

			cur, next := b.rows[order[k]][f], b.rows[order[k+1]][f]
			if cur == next {
				continue
			}
			nLeft := float64(k + 1)
			nRight := total - nLeft
			if int(nLeft) < b.minLeaf || int(nRight) < b.minLeaf {
				continue
			}

			weighted := (nLeft*gini(left, nLeft) + nRight*gini(right, nRight)) / total
			if gain := impurity - weighted; gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
				if bestThreshold >= next {
					bestThreshold = cur
				}
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}
