package utterance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/golangast/transitslu/sluerr"
)

// OtherToken is the catch-all hypothesis payload appended by AddOther.
const OtherToken = "__other__"

// SilenceToken marks a recognized silence hypothesis.
const SilenceToken = "_silence_"

// overOneTolerance is how far above 1.0 the probability total may drift
// before Normalise raises.
const overOneTolerance = 1e-5

// Hypothesis is one weighted utterance in an n-best list.
type Hypothesis struct {
	Prob float64
	Utt  *Utterance
}

// NBList is a list of utterance hypotheses kept sorted by descending
// probability after every mutating operation.
type NBList struct {
	hyps []Hypothesis
}

// NewNBList creates an empty n-best list.
func NewNBList() *NBList {
	return &NBList{}
}

// Len returns the number of hypotheses.
func (l *NBList) Len() int {
	return len(l.hyps)
}

// Hyp returns the hypothesis at rank i (0 is best).
func (l *NBList) Hyp(i int) Hypothesis {
	return l.hyps[i]
}

// Best returns the top hypothesis.
func (l *NBList) Best() Hypothesis {
	return l.hyps[0]
}

// String renders one hypothesis per line as "prob: utterance".
func (l *NBList) String() string {
	var b strings.Builder
	for _, h := range l.hyps {
		fmt.Fprintf(&b, "%.6f: %s\n", h.Prob, h.Utt)
	}
	return b.String()
}

// Add inserts a hypothesis, keeping the list sorted.
func (l *NBList) Add(prob float64, utt *Utterance) {
	l.hyps = append(l.hyps, Hypothesis{Prob: prob, Utt: utt})
	l.sort()
}

func (l *NBList) sort() {
	sort.SliceStable(l.hyps, func(i, j int) bool {
		return l.hyps[i].Prob > l.hyps[j].Prob
	})
}

// Merge sums the probabilities of equal utterances, keeping one entry each.
func (l *NBList) Merge() {
	merged := make([]Hypothesis, 0, len(l.hyps))
	for _, h := range l.hyps {
		found := false
		for i := range merged {
			if merged[i].Utt.Equal(h.Utt) {
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

// Normalise scales the probabilities to sum to one. A total above
// 1+1e-5 raises an invariant error; an empty or zero-mass list is left
// untouched.
func (l *NBList) Normalise() error {
	total := 0.0
	for _, h := range l.hyps {
		total += h.Prob
	}
	if total > 1.0+overOneTolerance {
		return sluerr.Invariantf("utterance n-best list mass %f exceeds 1", total)
	}
	if total <= 0 {
		return nil
	}
	for i := range l.hyps {
		l.hyps[i].Prob /= total
	}
	return nil
}

// AddOther appends the catch-all __other__ hypothesis carrying the residual
// probability mass, so the list sums to one. When the residual is not
// positive the list is normalised instead.
func (l *NBList) AddOther() error {
	total := 0.0
	for _, h := range l.hyps {
		total += h.Prob
	}
	if total > 1.0+overOneTolerance {
		return sluerr.Invariantf("utterance n-best list mass %f exceeds 1", total)
	}
	if total >= 1.0 {
		return l.Normalise()
	}
	l.Add(1.0-total, New(OtherToken))
	return nil
}
