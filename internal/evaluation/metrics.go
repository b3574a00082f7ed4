package evaluation

import (
	"fmt"
	"sort"
)

// Report holds the held-out metrics of a trained model. It is built once
// and not modified afterwards.
type Report struct {
	Accuracy        float64 `yaml:"accuracy" json:"accuracy"`
	Precision       float64 `yaml:"precision" json:"precision"`
	Recall          float64 `yaml:"recall" json:"recall"`
	F1Score         float64 `yaml:"f1_score" json:"f1_score"`
	ConfusionMatrix [][]int `yaml:"confusion_matrix" json:"confusion_matrix"`
	Labels          []int   `yaml:"labels" json:"labels"`
	PositiveLabel   int     `yaml:"positive_label" json:"positive_label"`
	Samples         int     `yaml:"samples" json:"samples"`
}

// ComputeReport scores binary predictions. Rows of the confusion matrix are
// true labels and columns predicted labels, both in ascending label order.
// The positive class is 1 when present and the larger label otherwise.
// Ratios with a zero denominator are reported as 0.
func ComputeReport(yTrue, yPred []int) (Report, error) {
	if len(yTrue) == 0 {
		return Report{}, fmt.Errorf("no samples to evaluate")
	}
	if len(yTrue) != len(yPred) {
		return Report{}, fmt.Errorf("found %d labels but %d predictions", len(yTrue), len(yPred))
	}

	labels, err := binaryLabels(yTrue, yPred)
	if err != nil {
		return Report{}, err
	}
	positive := labels[1]
	if labels[0] == 1 {
		positive = 1
	}

	index := func(label int) int {
		if label == labels[0] {
			return 0
		}
		return 1
	}

	var cm [2][2]int
	correct := 0
	tp, fp, fn := 0, 0, 0
	for i := range yTrue {
		cm[index(yTrue[i])][index(yPred[i])]++
		if yTrue[i] == yPred[i] {
			correct++
		}
		switch {
		case yPred[i] == positive && yTrue[i] == positive:
			tp++
		case yPred[i] == positive:
			fp++
		case yTrue[i] == positive:
			fn++
		}
	}

	precision := ratio(tp, tp+fp)
	recall := ratio(tp, tp+fn)
	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	return Report{
		Accuracy:        ratio(correct, len(yTrue)),
		Precision:       precision,
		Recall:          recall,
		F1Score:         f1,
		ConfusionMatrix: [][]int{cm[0][:], cm[1][:]},
		Labels:          labels[:],
		PositiveLabel:   positive,
		Samples:         len(yTrue),
	}, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// binaryLabels returns the two labels of the problem in ascending order. A
// single observed label is paired with its complement so the matrix stays
// 2×2.
func binaryLabels(yTrue, yPred []int) ([2]int, error) {
	seen := make(map[int]bool, 2)
	var all []int
	for _, ys := range [][]int{yTrue, yPred} {
		for _, v := range ys {
			if !seen[v] {
				seen[v] = true
				all = append(all, v)
			}
		}
	}
	sort.Ints(all)

	switch len(all) {
	case 1:
		if all[0] == 1 {
			return [2]int{-1, 1}, nil
		}
		if all[0] == -1 || all[0] == 0 {
			return [2]int{all[0], 1}, nil
		}
		return [2]int{all[0], all[0] + 1}, nil
	case 2:
		return [2]int{all[0], all[1]}, nil
	default:
		return [2]int{}, fmt.Errorf("binary metrics need at most two labels, found %d", len(all))
	}
}
