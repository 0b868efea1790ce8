package features

import (
	"fmt"

	"github.com/golangast/transitslu/slu/da"
	"github.com/golangast/transitslu/slu/utterance"
)

// BiasKey is the always-on bias feature.
const BiasKey = "bias"

// EmptyKey fires when the utterance has no tokens.
const EmptyKey = "empty"

// FromUtterance extracts n-gram and skip-n-gram features up to maxSize
// (4 by default), plus the bias and the empty-utterance
// indicator.
func FromUtterance(u *utterance.Utterance, maxSize int) Features {
	f := New()
	f.Set(BiasKey, 1.0)
	if u.IsEmpty() {
		f.Set(EmptyKey, 1.0)
		return f
	}
	for n := 1; n <= maxSize; n++ {
		u.NGrams(n, true, func(ngram []string) {
			f.Add(NGramKey(ngram), 1.0)
		})
	}
	// skip bigrams over trigram and 4-gram windows
	u.NGrams(3, true, func(ngram []string) {
		f.Add(SkipGramKey(ngram[0], ngram[2]), 1.0)
	})
	u.NGrams(4, true, func(ngram []string) {
		f.Add(SkipGramKey(ngram[0], ngram[3]), 1.0)
	})
	return f
}

// FromNBList extracts features from an n-best list: each hypothesis'
// features weighted by its probability, the rank at which each n-gram
// first occurs, the top-hypothesis features and the list length.
func FromNBList(l *utterance.NBList, maxSize int) Features {
	f := New()
	f.Set(BiasKey, 1.0)
	f.Set(fmt.Sprintf("nbl_len:%d", l.Len()), 1.0)
	firstRank := map[string]int{}
	for i := 0; i < l.Len(); i++ {
		h := l.Hyp(i)
		hf := FromUtterance(h.Utt, maxSize)
		f.Merge(hf, h.Prob)
		for k := range hf {
			if _, seen := firstRank[k]; !seen {
				firstRank[k] = i
			}
		}
		if i == 0 {
			for k := range hf {
				f.Add("top:"+k, 1.0)
			}
		}
	}
	for k, rank := range firstRank {
		f.Set(fmt.Sprintf("rank%d:%s", rank, k), 1.0)
	}
	return f
}

// FromConfNet extracts probability-weighted n-gram features across the
// network.
func FromConfNet(cn *utterance.ConfusionNetwork, maxSize int) Features {
	f := New()
	f.Set(BiasKey, 1.0)
	if cn.IsEmpty() {
		f.Set(EmptyKey, 1.0)
		return f
	}
	for n := 1; n <= maxSize; n++ {
		cn.NGrams(n, func(ngram []string, prob float64) {
			f.Add(NGramKey(ngram), prob)
		})
	}
	return f
}

// FromDA extracts per-item, act-type-only and slot-value features from a
// dialogue act.
func FromDA(d *da.DA) Features {
	f := New()
	f.Set(BiasKey, 1.0)
	for _, it := range d.Items() {
		f.Add("dai:"+it.String(), 1.0)
		f.Add("dat:"+it.DAType, 1.0)
		if it.Name != "" {
			f.Add(fmt.Sprintf("svt:%s %s %s", it.DAType, it.Name, it.Value), 1.0)
		}
	}
	return f
}
