package da

import (
	"fmt"
	"sort"
	"strings"

	"github.com/golangast/transitslu/sluerr"
)

const overOneTolerance = 1e-5

// NBHypothesis is one weighted dialogue act in an n-best list.
type NBHypothesis struct {
	Prob float64
	DA   *DA
}

// NBList ranks dialogue act hypotheses by descending probability.
type NBList struct {
	hyps []NBHypothesis
}

// NewNBList creates an empty dialogue act n-best list.
func NewNBList() *NBList {
	return &NBList{}
}

// Len returns the number of hypotheses.
func (l *NBList) Len() int {
	return len(l.hyps)
}

// Hyp returns the hypothesis at rank i.
func (l *NBList) Hyp(i int) NBHypothesis {
	return l.hyps[i]
}

// Best returns the top hypothesis.
func (l *NBList) Best() NBHypothesis {
	return l.hyps[0]
}

// Add inserts a hypothesis, keeping the list sorted.
func (l *NBList) Add(prob float64, d *DA) {
	l.hyps = append(l.hyps, NBHypothesis{Prob: prob, DA: d})
	l.sort()
}

func (l *NBList) sort() {
	sort.SliceStable(l.hyps, func(i, j int) bool {
		return l.hyps[i].Prob > l.hyps[j].Prob
	})
}

// Merge sums the probabilities of equal dialogue acts.
func (l *NBList) Merge() {
	merged := make([]NBHypothesis, 0, len(l.hyps))
	for _, h := range l.hyps {
		found := false
		for i := range merged {
			if merged[i].DA.Equal(h.DA) {
				merged[i].Prob += h.Prob
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, h)
		}
	}
	l.hyps = merged
	l.sort()
}

// Normalise scales probabilities to sum to one.
func (l *NBList) Normalise() error {
	total := 0.0
	for _, h := range l.hyps {
		total += h.Prob
	}
	if total > 1.0+overOneTolerance {
		return sluerr.Invariantf("dialogue act n-best list mass %f exceeds 1", total)
	}
	if total <= 0 {
		return nil
	}
	for i := range l.hyps {
		l.hyps[i].Prob /= total
	}
	return nil
}

// AddOther appends the special other() act with the residual probability
// mass.
func (l *NBList) AddOther() error {
	total := 0.0
	for _, h := range l.hyps {
		total += h.Prob
	}
	if total > 1.0+overOneTolerance {
		return sluerr.Invariantf("dialogue act n-best list mass %f exceeds 1", total)
	}
	if total >= 1.0 {
		return l.Normalise()
	}
	l.Add(1.0-total, NewDA(NewItem("other", "", "")))
	return nil
}

// String renders one hypothesis per line.
func (l *NBList) String() string {
	var b strings.Builder
	for _, h := range l.hyps {
		fmt.Fprintf(&b, "%.6f: %s\n", h.Prob, h.DA)
	}
	return b.String()
}
