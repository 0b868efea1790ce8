package utterance

import (
	"sort"
	"strings"
)

// Splitter separates the category type from the value inside an abstracted
// token, e.g. "CITY=New York".
const Splitter = "="

// Abstracted is an utterance in which some tokens stand for category-label
// substitutions. The abstracted token positions are kept sorted and stay
// consistent across replace operations.
type Abstracted struct {
	Utterance
	abstractedIdxs []int
}

// NewAbstracted wraps a plain utterance with no abstracted positions yet.
func NewAbstracted(u *Utterance) *Abstracted {
	return &Abstracted{Utterance: Utterance{tokens: u.Tokens()}}
}

// AbstractedIdxs returns a copy of the sorted abstracted token positions.
func (a *Abstracted) AbstractedIdxs() []int {
	out := make([]int, len(a.abstractedIdxs))
	copy(out, a.abstractedIdxs)
	return out
}

// PhraseToCategoryLabel replaces the first occurrence of phrase by the
// single category-label token catlab and records the resulting position as
// abstracted. Positions recorded earlier are shifted to stay aligned.
func (a *Abstracted) PhraseToCategoryLabel(phrase []string, catlab string) *Abstracted {
	start := a.Find(phrase)
	if start < 0 {
		return a
	}
	return a.replaceSpan(start, start+len(phrase), catlab)
}

func (a *Abstracted) replaceSpan(start, end int, catlab string) *Abstracted {
	shift := 1 - (end - start)
	idxs := make([]int, 0, len(a.abstractedIdxs)+1)
	for _, i := range a.abstractedIdxs {
		switch {
		case i < start:
			idxs = append(idxs, i)
		case i >= end:
			idxs = append(idxs, i+shift)
		}
		// positions inside the replaced span are dropped
	}
	idxs = append(idxs, start)
	sort.Ints(idxs)
	spliced := a.spliced(start, end, []string{catlab})
	return &Abstracted{Utterance: *spliced, abstractedIdxs: idxs}
}

// TypeVal is one abstracted token split into its category type and value.
type TypeVal struct {
	Type  string
	Value string
	Index int
}

// TypeVals returns the (type, value) pair of every abstracted token, in
// token order. Exactly len(AbstractedIdxs()) items are returned.
func (a *Abstracted) TypeVals() []TypeVal {
	out := make([]TypeVal, 0, len(a.abstractedIdxs))
	for _, i := range a.abstractedIdxs {
		typ, val := SplitTypeVal(a.tokens[i])
		out = append(out, TypeVal{Type: typ, Value: val, Index: i})
	}
	return out
}

// Triple groups the combined token forms of the abstraction: the combined
// token string, the tuple of values and the tuple of types.
type Triple struct {
	Combined string
	Values   []string
	Types    []string
}

// Triples returns for each abstracted token its combined form plus the
// value and type tuples.
func (a *Abstracted) Triples() []Triple {
	out := make([]Triple, 0, len(a.abstractedIdxs))
	for _, tv := range a.TypeVals() {
		out = append(out, Triple{
			Combined: tv.Type + Splitter + tv.Value,
			Values:   []string{tv.Value},
			Types:    []string{tv.Type},
		})
	}
	return out
}

// SplitTypeVal splits an abstracted token "TYPE=VALUE" on the first
// splitter character. Tokens without a splitter yield an empty value.
func SplitTypeVal(token string) (string, string) {
	typ, val, found := strings.Cut(token, Splitter)
	if !found {
		return token, ""
	}
	return typ, val
}

// JoinTypeVal renders a category type and value as an abstracted token.
func JoinTypeVal(typ, val string) string {
	return typ + Splitter + val
}
