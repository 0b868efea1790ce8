package da

import (
	"container/heap"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/golangast/transitslu/sluerr"
)

// maxItemProb caps item probabilities so every probability stays strictly
// below one after normalisation.
const maxItemProb = 1.0 - 1e-9

// ItemHypothesis is one weighted dialogue act item inside a confusion
// network. The item is present with Prob and absent with 1-Prob,
// independently of the other items.
type ItemHypothesis struct {
	Prob float64
	Item *Item
}

// ConfusionNetwork is the SLU output: a list of independent
// presence/absence hypotheses over dialogue act items.
type ConfusionNetwork struct {
	hyps []ItemHypothesis
}

// NewConfusionNetwork creates an empty dialogue act confusion network.
func NewConfusionNetwork() *ConfusionNetwork {
	return &ConfusionNetwork{}
}

// Len returns the number of item hypotheses.
func (cn *ConfusionNetwork) Len() int {
	return len(cn.hyps)
}

// Hyp returns the hypothesis at position i.
func (cn *ConfusionNetwork) Hyp(i int) ItemHypothesis {
	return cn.hyps[i]
}

// Hyps returns the hypothesis slice; callers must not mutate it.
func (cn *ConfusionNetwork) Hyps() []ItemHypothesis {
	return cn.hyps
}

// Add appends an item hypothesis without merging.
func (cn *ConfusionNetwork) Add(prob float64, item *Item) {
	cn.hyps = append(cn.hyps, ItemHypothesis{Prob: prob, Item: item})
}

// MergeMode selects how AddMerge combines an incoming probability with an
// existing equal item.
type MergeMode int

const (
	// MergeAdd sums the probabilities.
	MergeAdd MergeMode = iota
	// MergeMax keeps the larger probability.
	MergeMax
	// MergeOverwrite replaces the stored probability.
	MergeOverwrite
)

// AddMerge inserts an item hypothesis, combining with an existing equal
// item per mode. The evidence weight scales the incoming probability
// before combination.
func (cn *ConfusionNetwork) AddMerge(prob float64, item *Item, mode MergeMode, evidenceWeight float64) {
	weighted := prob * evidenceWeight
	for i := range cn.hyps {
		if cn.hyps[i].Item.Equal(item) {
			switch mode {
			case MergeAdd:
				cn.hyps[i].Prob += weighted
			case MergeMax:
				if weighted > cn.hyps[i].Prob {
					cn.hyps[i].Prob = weighted
				}
			case MergeOverwrite:
				cn.hyps[i].Prob = weighted
			}
			if cn.hyps[i].Prob > maxItemProb {
				cn.hyps[i].Prob = maxItemProb
			}
			return
		}
	}
	cn.Add(weighted, item)
}

// Sort orders the hypotheses by descending probability, ties by canonical
// item form.
func (cn *ConfusionNetwork) Sort() {
	sort.SliceStable(cn.hyps, func(i, j int) bool {
		if cn.hyps[i].Prob != cn.hyps[j].Prob {
			return cn.hyps[i].Prob > cn.hyps[j].Prob
		}
		return CompareItems(cn.hyps[i].Item, cn.hyps[j].Item) < 0
	})
}

// MergeDuplicates folds equal items into one hypothesis, summing their
// probabilities capped below one.
func (cn *ConfusionNetwork) MergeDuplicates() {
	merged := make([]ItemHypothesis, 0, len(cn.hyps))
	for _, h := range cn.hyps {
		found := false
		for i := range merged {
			if merged[i].Item.Equal(h.Item) {
				merged[i].Prob += h.Prob
				if merged[i].Prob > maxItemProb {
					merged[i].Prob = maxItemProb
				}
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, h)
		}
	}
	cn.hyps = merged
}

// Prune drops hypotheses with probability below minProb.
func (cn *ConfusionNetwork) Prune(minProb float64) {
	kept := cn.hyps[:0]
	for _, h := range cn.hyps {
		if h.Prob >= minProb {
			kept = append(kept, h)
		}
	}
	cn.hyps = kept
}

// GetBestDA returns the dialogue act built from every item with
// probability above 0.5. An empty selection yields null().
func (cn *ConfusionNetwork) GetBestDA() *DA {
	d := &DA{}
	for _, h := range cn.hyps {
		if h.Prob > 0.5 {
			d.Append(h.Item.Clone())
		}
	}
	if d.Len() == 0 {
		d.Append(NewNull())
	}
	d.Sort()
	return d
}

// GetBestNonNullDA returns the best dialogue act, falling back to the
// single most probable non-null item when thresholding yields only null().
func (cn *ConfusionNetwork) GetBestNonNullDA() *DA {
	d := cn.GetBestDA()
	if d.Len() != 1 || !d.Items()[0].IsNull() {
		return d
	}
	var best *ItemHypothesis
	for i := range cn.hyps {
		if cn.hyps[i].Item.IsNull() {
			continue
		}
		if best == nil || cn.hyps[i].Prob > best.Prob {
			best = &cn.hyps[i]
		}
	}
	if best == nil {
		return d
	}
	return NewDA(best.Item.Clone())
}

// GetBestDAHyp returns the joint probability and dialogue act of including
// every item above threshold and excluding the rest. With logProb the
// returned score is the log joint probability.
func (cn *ConfusionNetwork) GetBestDAHyp(threshold float64, logProb bool) (float64, *DA) {
	d := &DA{}
	score := 0.0
	for _, h := range cn.hyps {
		p := h.Prob
		if p > threshold {
			d.Append(h.Item.Clone())
		} else {
			p = 1 - p
		}
		score += math.Log(p)
	}
	if d.Len() == 0 {
		d.Append(NewNull())
	}
	d.Sort()
	if logProb {
		return score, d
	}
	return math.Exp(score), d
}

// dacState is a partial joint assignment during n-best enumeration: the
// first `depth` items are decided, flips records which of them took their
// less probable side.
type dacState struct {
	prob  float64
	depth int
	take  []bool
}

type dacHeap []dacState

func (h dacHeap) Len() int           { return len(h) }
func (h dacHeap) Less(i, j int) bool { return h[i].prob > h[j].prob }
func (h dacHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *dacHeap) Push(x any)        { *h = append(*h, x.(dacState)) }
func (h *dacHeap) Pop() any {
	old := *h
	n := len(old)
	s := old[n-1]
	*h = old[:n-1]
	return s
}

// GetDANBList enumerates the n most probable joint hypotheses over the
// independent items as a dialogue act n-best list, with the residual mass
// folded into other().
func (cn *ConfusionNetwork) GetDANBList(n int) (*NBList, error) {
	list := NewNBList()
	h := &dacHeap{{prob: 1.0}}
	heap.Init(h)
	for h.Len() > 0 && list.Len() < n {
		s := heap.Pop(h).(dacState)
		if s.depth == len(cn.hyps) {
			d := &DA{}
			for i, take := range s.take {
				if take {
					d.Append(cn.hyps[i].Item.Clone())
				}
			}
			if d.Len() == 0 {
				d.Append(NewNull())
			}
			d.Sort()
			list.Add(s.prob, d)
			continue
		}
		p := cn.hyps[s.depth].Prob
		withItem := append(append([]bool(nil), s.take...), true)
		heap.Push(h, dacState{prob: s.prob * p, depth: s.depth + 1, take: withItem})
		without := append(append([]bool(nil), s.take...), false)
		heap.Push(h, dacState{prob: s.prob * (1 - p), depth: s.depth + 1, take: without})
	}
	list.Merge()
	if err := list.AddOther(); err != nil {
		return nil, err
	}
	return list, nil
}

// NormaliseBySlot rescales competing values of the same (act type, slot)
// pair so their joint mass, including the implicit "other value", does not
// exceed one. Every hypothesis, slot-less meta acts included, is then
// capped so its probability stays strictly below one.
func (cn *ConfusionNetwork) NormaliseBySlot() error {
	for i := range cn.hyps {
		if cn.hyps[i].Prob < 0 {
			return sluerr.Invariantf("negative probability for %s", cn.hyps[i].Item)
		}
	}
	groups := map[string][]int{}
	for i, h := range cn.hyps {
		if h.Item.Name == "" || h.Item.Value == "" {
			continue
		}
		key := h.Item.DAType + "\x00" + h.Item.Name
		groups[key] = append(groups[key], i)
	}
	for _, idxs := range groups {
		total := 0.0
		for _, i := range idxs {
			total += cn.hyps[i].Prob
		}
		if total > 1.0 {
			for _, i := range idxs {
				cn.hyps[i].Prob /= total
			}
		}
	}
	for i := range cn.hyps {
		if cn.hyps[i].Prob > maxItemProb {
			cn.hyps[i].Prob = maxItemProb
		}
	}
	return nil
}

// String renders one line per item as "prob:DAI".
func (cn *ConfusionNetwork) String() string {
	var b strings.Builder
	for _, h := range cn.hyps {
		fmt.Fprintf(&b, "%.6f:%s\n", h.Prob, h.Item)
	}
	return b.String()
}

// ParseConfusionNetwork parses the one-line-per-item serialization.
func ParseConfusionNetwork(text string) (*ConfusionNetwork, error) {
	cn := NewConfusionNetwork()
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		probStr, itemStr, found := strings.Cut(line, ":")
		if !found {
			return nil, sluerr.DAIParsef("confusion network line lacks ':': %q", line)
		}
		prob, err := strconv.ParseFloat(probStr, 64)
		if err != nil {
			return nil, sluerr.DAIParsef("bad probability %q", probStr)
		}
		item, err := ParseItem(itemStr)
		if err != nil {
			return nil, err
		}
		cn.Add(prob, item)
	}
	return cn, nil
}
