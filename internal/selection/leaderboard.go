package selection

import (
	"phishdetector/internal/estimator"
	"sort"
)

// TrialResult is the cross-validated outcome of one trial. A trial with a
// non-nil Err failed and takes no part in aggregation.
type TrialResult struct {
	Trial
	FoldScores    []float64
	MeanTestScore float64
	StdTestScore  float64
	MeanFitTime   float64
	Err           error
}

func (r TrialResult) Succeeded() bool {
	return r.Err == nil
}

func (r TrialResult) Summary() estimator.TrialSummary {
	return estimator.TrialSummary{
		Family:        r.Family,
		Params:        r.Params,
		MeanTestScore: r.MeanTestScore,
		StdTestScore:  r.StdTestScore,
		MeanFitTime:   r.MeanFitTime,
	}
}

type Entry struct {
	ClfName       string           `yaml:"clf_name" json:"clf_name"`
	MeanTestScore float64          `yaml:"mean_test_score" json:"mean_test_score"`
	StdTestScore  float64          `yaml:"std_test_score" json:"std_test_score"`
	MeanFitTime   float64          `yaml:"mean_fit_time" json:"mean_fit_time"`
	ParamClf      string           `yaml:"param_clf" json:"param_clf"`
	Family        estimator.Family `yaml:"-" json:"-"`
	Params        estimator.Params `yaml:"-" json:"-"`
}

func newEntry(r TrialResult) Entry {
	return Entry{
		ClfName:       string(r.Family),
		MeanTestScore: r.MeanTestScore,
		StdTestScore:  r.StdTestScore,
		MeanFitTime:   r.MeanFitTime,
		ParamClf:      r.Trial.String(),
		Family:        r.Family,
		Params:        r.Params,
	}
}

// Leaderboard holds the best trial of every family, best family first.
type Leaderboard []Entry

// Aggregate reduces the trial results, given in evaluation order, to one row
// per family and picks the single best trial overall. Ties keep the trial
// evaluated first. ok is false when no trial succeeded.
func Aggregate(results []TrialResult) (leaderboard Leaderboard, best TrialResult, ok bool) {
	bestByFamily := make(map[estimator.Family]int)
	var order []estimator.Family

	bestIdx := -1
	for i, r := range results {
		if !r.Succeeded() {
			continue
		}
		if cur, seen := bestByFamily[r.Family]; !seen {
			bestByFamily[r.Family] = i
			order = append(order, r.Family)
		} else if r.MeanTestScore > results[cur].MeanTestScore {
			bestByFamily[r.Family] = i
		}
		if bestIdx < 0 || r.MeanTestScore > results[bestIdx].MeanTestScore {
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return nil, TrialResult{}, false
	}

	leaderboard = make(Leaderboard, 0, len(order))
	for _, family := range order {
		leaderboard = append(leaderboard, newEntry(results[bestByFamily[family]]))
	}
	sort.SliceStable(leaderboard, func(a, b int) bool {
		return leaderboard[a].MeanTestScore > leaderboard[b].MeanTestScore
	})

	return leaderboard, results[bestIdx], true
}
