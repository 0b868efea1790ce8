// Package features provides the sparse feature representation shared by
// the trained SLU back-ends, plus the extractors over utterances, n-best
// lists, confusion networks and dialogue acts.
package features

import (
	"sort"
	"strings"

	"golang.org/x/exp/maps"
)

// Features is a sparse mapping from feature key to real value. Keys are
// rendered tuples (n-grams, rank indicators, phrase markers).
type Features map[string]float64

// New creates an empty feature map.
func New() Features {
	return Features{}
}

// Add increments the value stored under key.
func (f Features) Add(key string, value float64) {
	f[key] += value
}

// Set stores value under key.
func (f Features) Set(key string, value float64) {
	f[key] = value
}

// Merge adds other's entries scaled by weight.
func (f Features) Merge(other Features, weight float64) {
	for k, v := range other {
		f[k] += v * weight
	}
}

// Scale multiplies every value by factor.
func (f Features) Scale(factor float64) {
	for k := range f {
		f[k] *= factor
	}
}

// Prune removes entries whose absolute value is below minValue.
func (f Features) Prune(minValue float64) {
	for k, v := range f {
		if v < minValue && v > -minValue {
			delete(f, k)
		}
	}
}

// Keys returns the sorted feature keys.
func (f Features) Keys() []string {
	keys := maps.Keys(f)
	sort.Strings(keys)
	return keys
}

// Vector renders the features as a dense vector under the given
// key-to-index mapping. Unknown keys are dropped.
func (f Features) Vector(index map[string]int) []float64 {
	v := make([]float64, len(index))
	for k, val := range f {
		if i, ok := index[k]; ok {
			v[i] = val
		}
	}
	return v
}

// NGramKey renders an n-gram feature key.
func NGramKey(ngram []string) string {
	return "ng:" + strings.Join(ngram, " ")
}

// SkipGramKey renders a skip-bigram feature key: the first and last word
// with the middle skipped.
func SkipGramKey(first, last string) string {
	return "sk:" + first + " * " + last
}
