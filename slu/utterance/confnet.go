package utterance

import (
	"container/heap"
	"math"
	"sort"

	"github.com/golangast/transitslu/sluerr"
)

// EmptyWord is the empty-word alternative inside a confusion network slot.
const EmptyWord = ""

// Alternative is one weighted word at a confusion network slot.
type Alternative struct {
	Prob float64
	Word string
}

// LongLink is a multi-word phrase alternative spanning the slots
// [Start, End). OrigProbs keeps the per-position probabilities of the
// words the link replaced. Links with Normalise set take part in the
// per-slot probability mass during Normalise.
type LongLink struct {
	Prob      float64
	Words     []string
	Start     int
	End       int
	OrigProbs []float64
	Normalise bool
}

// Index addresses a word inside a confusion network. It is a tagged
// variant: Link < 0 addresses slots[Slot][Alt], otherwise it addresses
// links[Link].Words[Pos].
type Index struct {
	Slot int
	Alt  int
	Link int
	Pos  int
}

// WordIndex addresses a plain slot alternative.
func WordIndex(slot, alt int) Index {
	return Index{Slot: slot, Alt: alt, Link: -1}
}

// LinkIndex addresses a position inside a long link.
func LinkIndex(link, pos int) Index {
	return Index{Slot: -1, Alt: -1, Link: link, Pos: pos}
}

// ConfusionNetwork is a linear sequence of word-position slots, each
// holding weighted word alternatives, plus long links spanning several
// slots at once.
type ConfusionNetwork struct {
	slots          [][]Alternative
	links          []LongLink
	abstractedIdxs []Index
}

// NewConfusionNetwork creates an empty confusion network.
func NewConfusionNetwork() *ConfusionNetwork {
	return &ConfusionNetwork{}
}

// AddSlot appends a slot with the given alternatives.
func (cn *ConfusionNetwork) AddSlot(alts []Alternative) {
	copied := make([]Alternative, len(alts))
	copy(copied, alts)
	cn.slots = append(cn.slots, copied)
}

// AddLongLink registers a multi-word alternative.
func (cn *ConfusionNetwork) AddLongLink(link LongLink) {
	cn.links = append(cn.links, link)
}

// Len returns the number of slots.
func (cn *ConfusionNetwork) Len() int {
	return len(cn.slots)
}

// Slot returns the alternatives at slot i.
func (cn *ConfusionNetwork) Slot(i int) []Alternative {
	return cn.slots[i]
}

// Links returns the long links.
func (cn *ConfusionNetwork) Links() []LongLink {
	return cn.links
}

// Word resolves an index to its word.
func (cn *ConfusionNetwork) Word(idx Index) string {
	if idx.Link >= 0 {
		return cn.links[idx.Link].Words[idx.Pos]
	}
	return cn.slots[idx.Slot][idx.Alt].Word
}

// IsEmpty reports whether the network has no slots.
func (cn *ConfusionNetwork) IsEmpty() bool {
	return len(cn.slots) == 0
}

// AbstractedIdxs returns the indices recorded as abstracted.
func (cn *ConfusionNetwork) AbstractedIdxs() []Index {
	out := make([]Index, len(cn.abstractedIdxs))
	copy(out, cn.abstractedIdxs)
	return out
}

// MarkAbstracted records an index as holding a category-label token.
func (cn *ConfusionNetwork) MarkAbstracted(idx Index) {
	cn.abstractedIdxs = append(cn.abstractedIdxs, idx)
}

// GetPhraseIdxs finds the first occurrence of phrase and returns one index
// per phrase word, or nil when absent. The search interleaves plain slot
// alternatives with positions inside long links, and a slot containing the
// empty word may be skipped.
func (cn *ConfusionNetwork) GetPhraseIdxs(phrase []string) []Index {
	if len(phrase) == 0 {
		return nil
	}
	for start := 0; start < len(cn.slots); start++ {
		if idxs := cn.matchFrom(start, phrase); idxs != nil {
			return idxs
		}
		// the phrase may also begin inside a long link
		for li, l := range cn.links {
			if l.Start != start {
				continue
			}
			for pos := range l.Words {
				if idxs := cn.matchLink(li, pos, phrase, nil); idxs != nil {
					return idxs
				}
			}
		}
	}
	return nil
}

// Find reports whether phrase occurs in the network.
func (cn *ConfusionNetwork) Find(phrase []string) bool {
	return cn.GetPhraseIdxs(phrase) != nil
}

// matchFrom matches phrase starting at slot; empty-word alternatives let a
// slot be skipped entirely.
func (cn *ConfusionNetwork) matchFrom(slot int, phrase []string) []Index {
	if len(phrase) == 0 {
		return []Index{}
	}
	if slot >= len(cn.slots) {
		return nil
	}
	for ai, alt := range cn.slots[slot] {
		if alt.Word == EmptyWord {
			// skip this slot through the empty word
			if rest := cn.matchFrom(slot+1, phrase); rest != nil {
				return rest
			}
			continue
		}
		if alt.Word == phrase[0] {
			if rest := cn.matchFrom(slot+1, phrase[1:]); rest != nil {
				return append([]Index{WordIndex(slot, ai)}, rest...)
			}
		}
	}
	// a long link starting here may carry the next phrase words
	for li, l := range cn.links {
		if l.Start != slot {
			continue
		}
		if idxs := cn.matchLink(li, 0, phrase, nil); idxs != nil {
			return idxs
		}
	}
	return nil
}

// matchLink matches phrase against links[li].Words starting at pos; when
// the link is exhausted the match continues at the slot after the link.
func (cn *ConfusionNetwork) matchLink(li, pos int, phrase []string, acc []Index) []Index {
	l := cn.links[li]
	for len(phrase) > 0 && pos < len(l.Words) {
		if l.Words[pos] != phrase[0] {
			return nil
		}
		acc = append(acc, LinkIndex(li, pos))
		phrase = phrase[1:]
		pos++
	}
	if len(phrase) == 0 {
		return acc
	}
	if rest := cn.matchFrom(l.End, phrase); rest != nil {
		return append(acc, rest...)
	}
	return nil
}

// Replace substitutes the first occurrence of phrase by replacement. A
// single-word-for-single-word replacement rewrites the alternative in
// place; anything spanning several slots or changing arity is realized as
// a new long link carrying the product of the matched probabilities.
func (cn *ConfusionNetwork) Replace(phrase, replacement []string) Index {
	idxs := cn.GetPhraseIdxs(phrase)
	if idxs == nil {
		return Index{Slot: -1, Alt: -1, Link: -1, Pos: -1}
	}
	if len(idxs) == 1 && len(replacement) == 1 && idxs[0].Link < 0 {
		cn.slots[idxs[0].Slot][idxs[0].Alt].Word = replacement[0]
		return idxs[0]
	}
	if idxs[0].Link >= 0 {
		// rewrite inside the link when the whole match lives in one link
		l := &cn.links[idxs[0].Link]
		sameLink := true
		for _, idx := range idxs {
			if idx.Link != idxs[0].Link {
				sameLink = false
				break
			}
		}
		if sameLink && len(idxs) == len(l.Words) {
			l.Words = append([]string(nil), replacement...)
			return LinkIndex(idxs[0].Link, 0)
		}
	}
	start, end, prob, origProbs := cn.spanOf(idxs)
	cn.links = append(cn.links, LongLink{
		Prob:      prob,
		Words:     append([]string(nil), replacement...),
		Start:     start,
		End:       end,
		OrigProbs: origProbs,
		Normalise: true,
	})
	return LinkIndex(len(cn.links)-1, 0)
}

func (cn *ConfusionNetwork) spanOf(idxs []Index) (start, end int, prob float64, origProbs []float64) {
	start = len(cn.slots)
	end = 0
	prob = 1.0
	for _, idx := range idxs {
		var s, e int
		var p float64
		if idx.Link >= 0 {
			s, e = cn.links[idx.Link].Start, cn.links[idx.Link].End
			p = cn.links[idx.Link].Prob
			if len(cn.links[idx.Link].OrigProbs) > idx.Pos {
				p = cn.links[idx.Link].OrigProbs[idx.Pos]
			}
		} else {
			s, e = idx.Slot, idx.Slot+1
			p = cn.slots[idx.Slot][idx.Alt].Prob
		}
		if s < start {
			start = s
		}
		if e > end {
			end = e
		}
		prob *= p
		origProbs = append(origProbs, p)
	}
	return start, end, prob, origProbs
}

// NGrams calls fn with every n-gram of consecutive words together with its
// path probability. Paths run through plain alternatives, across long
// links and through link-internal positions; empty words are skipped
// with their probability included.
func (cn *ConfusionNetwork) NGrams(n int, fn func(ngram []string, prob float64)) {
	for start := 0; start < len(cn.slots); start++ {
		cn.ngramFrom(start, n, nil, 1.0, fn, false)
	}
	// n-grams starting inside long links; the pos 0 prefix is already
	// produced by the slot walk at the link start
	for _, l := range cn.links {
		for pos := 1; pos < len(l.Words); pos++ {
			if pos+n <= len(l.Words) {
				fn(l.Words[pos:pos+n], l.Prob)
				continue
			}
			// the suffix is shorter than n, continue past the link end
			rest := append([]string(nil), l.Words[pos:]...)
			cn.ngramFrom(l.End, n-(len(l.Words)-pos), rest, l.Prob, fn, true)
		}
	}
}

func (cn *ConfusionNetwork) ngramFrom(slot, need int, acc []string, prob float64, fn func([]string, float64), entered bool) {
	if need == 0 {
		fn(acc, prob)
		return
	}
	if slot >= len(cn.slots) {
		return
	}
	for _, alt := range cn.slots[slot] {
		if alt.Word == EmptyWord {
			if entered {
				cn.ngramFrom(slot+1, need, acc, prob*alt.Prob, fn, entered)
			}
			continue
		}
		next := append(append([]string(nil), acc...), alt.Word)
		cn.ngramFrom(slot+1, need-1, next, prob*alt.Prob, fn, true)
	}
	for _, l := range cn.links {
		if l.Start != slot {
			continue
		}
		words := l.Words
		if len(words) >= need {
			ng := append(append([]string(nil), acc...), words[:need]...)
			fn(ng, prob*l.Prob)
		} else {
			next := append(append([]string(nil), acc...), words...)
			cn.ngramFrom(l.End, need-len(words), next, prob*l.Prob, fn, true)
		}
	}
}

// nbState is a partial path during n-best enumeration.
type nbState struct {
	slot   int
	prob   float64
	tokens []string
}

type nbHeap []nbState

func (h nbHeap) Len() int            { return len(h) }
func (h nbHeap) Less(i, j int) bool  { return h[i].prob > h[j].prob }
func (h nbHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nbHeap) Push(x any)         { *h = append(*h, x.(nbState)) }
func (h *nbHeap) Pop() any           { old := *h; n := len(old); s := old[n-1]; *h = old[:n-1]; return s }

// GetUtteranceNBList enumerates the n best utterance hypotheses of the
// network by best-first search. Equal utterances are merged; probabilities
// are the raw joint path probabilities.
func (cn *ConfusionNetwork) GetUtteranceNBList(n int) *NBList {
	list := NewNBList()
	if cn.IsEmpty() {
		return list
	}
	h := &nbHeap{{slot: 0, prob: 1.0}}
	heap.Init(h)
	for h.Len() > 0 && list.Len() < n {
		s := heap.Pop(h).(nbState)
		if s.slot >= len(cn.slots) {
			list.Add(s.prob, FromTokens(s.tokens))
			continue
		}
		for _, alt := range cn.slots[s.slot] {
			tokens := s.tokens
			if alt.Word != EmptyWord {
				tokens = append(append([]string(nil), s.tokens...), alt.Word)
			}
			heap.Push(h, nbState{slot: s.slot + 1, prob: s.prob * alt.Prob, tokens: tokens})
		}
		for _, l := range cn.links {
			if l.Start != s.slot {
				continue
			}
			tokens := append(append([]string(nil), s.tokens...), l.Words...)
			heap.Push(h, nbState{slot: l.End, prob: s.prob * l.Prob, tokens: tokens})
		}
	}
	list.Merge()
	return list
}

// Prune drops alternatives with probability below minProb and repairs the
// network: slots left empty, or holding only the empty word or silence,
// are removed and the long links reindexed. No empty slot remains.
func (cn *ConfusionNetwork) Prune(minProb float64) {
	keepSlot := make([]bool, len(cn.slots))
	for i, alts := range cn.slots {
		kept := alts[:0]
		for _, alt := range alts {
			if alt.Prob >= minProb {
				kept = append(kept, alt)
			}
		}
		cn.slots[i] = kept
		for _, alt := range kept {
			if alt.Word != EmptyWord && alt.Word != SilenceToken {
				keepSlot[i] = true
				break
			}
		}
	}
	newIndex := make([]int, len(cn.slots))
	slots := make([][]Alternative, 0, len(cn.slots))
	for i, alts := range cn.slots {
		newIndex[i] = len(slots)
		if keepSlot[i] {
			slots = append(slots, alts)
		}
	}
	links := cn.links[:0]
	for _, l := range cn.links {
		if l.Prob < minProb {
			continue
		}
		l.Start = newIndex[l.Start]
		if l.End >= len(newIndex) {
			l.End = len(slots)
		} else {
			l.End = newIndex[l.End]
		}
		if l.End > l.Start {
			links = append(links, l)
		}
	}
	cn.slots = slots
	cn.links = links
	cn.abstractedIdxs = nil
}

// Normalise rescales every slot so the alternative mass plus the mass of
// overlapping normalise-marked long links equals one. A link mass at or
// above one, or a zero-mass slot that a link does not fully cover, raises
// an invariant error.
func (cn *ConfusionNetwork) Normalise() error {
	for i, alts := range cn.slots {
		linkMass := 0.0
		for _, l := range cn.links {
			if l.Normalise && l.Start <= i && i < l.End {
				linkMass += l.Prob
			}
		}
		if linkMass > 1.0+overOneTolerance {
			return sluerr.Invariantf("long-link mass %f at slot %d exceeds 1", linkMass, i)
		}
		altMass := 0.0
		for _, alt := range alts {
			altMass += alt.Prob
		}
		target := 1.0 - linkMass
		if target < 0 {
			target = 0
		}
		if altMass <= 0 {
			if math.Abs(target) > overOneTolerance {
				return sluerr.Invariantf("zero alternative mass at slot %d but %f unclaimed", i, target)
			}
			continue
		}
		for ai := range alts {
			cn.slots[i][ai].Prob = alts[ai].Prob / altMass * target
		}
	}
	return nil
}

// SortAlternatives orders each slot's alternatives by descending
// probability.
func (cn *ConfusionNetwork) SortAlternatives() {
	for i := range cn.slots {
		sort.SliceStable(cn.slots[i], func(a, b int) bool {
			return cn.slots[i][a].Prob > cn.slots[i][b].Prob
		})
	}
}
