// Package abstraction substitutes known surface forms by category labels,
// tracking the alignment back to the original (form, value, category)
// triples. Abstraction never fails: unknown surfaces stay concrete.
package abstraction

import (
	"strings"

	"github.com/golangast/transitslu/slu/cldb"
	"github.com/golangast/transitslu/slu/utterance"
)

// Mode selects the shape of the emitted category-label token.
type Mode int

const (
	// ModeTypeValue emits "TYPE=VALUE" tokens.
	ModeTypeValue Mode = iota
	// ModeLabelOnly emits bare "CL_TYPE" tokens.
	ModeLabelOnly
)

// Triple records one abstracted span: the concrete surface form, the value
// it stands for, its category and the original token span.
type Triple struct {
	Form     []string
	Value    string
	Category string
	Start    int
	End      int
}

// Label renders the category-label token for the triple.
func (t Triple) Label(mode Mode) string {
	cat := strings.ToUpper(t.Category)
	if mode == ModeLabelOnly {
		return "CL_" + cat
	}
	return utterance.JoinTypeVal(cat, t.Value)
}

// Engine abstracts utterances against a category-label database. The
// database is read-only; the engine is safe to share.
type Engine struct {
	db   *cldb.Database
	mode Mode
}

// NewEngine creates an abstraction engine over db.
func NewEngine(db *cldb.Database, mode Mode) *Engine {
	return &Engine{db: db, mode: mode}
}

// Utterance abstracts u by longest-match left-to-right: at each start
// position the longest span with a database hit wins and the scan resumes
// after it. The returned triples are ordered by span start; among entries
// sharing a surface form the database iteration order decides.
func (e *Engine) Utterance(u *utterance.Utterance) (*utterance.Abstracted, []Triple) {
	au := utterance.NewAbstracted(u)
	var triples []Triple
	start := 0
	for start < au.Len() {
		matched := false
		maxEnd := start + e.db.MaxFormLen()
		if maxEnd > au.Len() {
			maxEnd = au.Len()
		}
		for end := maxEnd; end > start; end-- {
			span := au.Slice(start, end)
			entries := e.db.Lookup(span)
			if len(entries) == 0 {
				continue
			}
			hit := entries[0]
			triple := Triple{
				Form:     hit.Form,
				Value:    hit.Value,
				Category: hit.Category,
				Start:    start,
				End:      end,
			}
			au = au.PhraseToCategoryLabel(span, triple.Label(e.mode))
			triples = append(triples, triple)
			start++
			matched = true
			break
		}
		if !matched {
			start++
		}
	}
	return au, triples
}

// UtteranceAll returns every (value, category) reading of every matched
// span, not just the first. The abstracted utterance still carries the
// first reading; the extra readings widen the classifier hypothesis space.
func (e *Engine) UtteranceAll(u *utterance.Utterance) (*utterance.Abstracted, []Triple) {
	au, triples := e.Utterance(u)
	var all []Triple
	for _, t := range triples {
		for _, hit := range e.db.Lookup(t.Form) {
			all = append(all, Triple{
				Form:     hit.Form,
				Value:    hit.Value,
				Category: hit.Category,
				Start:    t.Start,
				End:      t.End,
			})
		}
	}
	return au, all
}

// NBList abstracts every hypothesis independently. The triples of the best
// hypothesis are returned alongside the per-hypothesis triple lists.
func (e *Engine) NBList(l *utterance.NBList) ([]*utterance.Abstracted, [][]Triple) {
	abstracted := make([]*utterance.Abstracted, l.Len())
	triples := make([][]Triple, l.Len())
	for i := 0; i < l.Len(); i++ {
		abstracted[i], triples[i] = e.Utterance(l.Hyp(i).Utt)
	}
	return abstracted, triples
}

// ConfNet abstracts a confusion network in place: every database form
// found among the network paths is replaced by its category-label token,
// and the same surface may add more than one abstraction hypothesis per
// position. The applied triples are returned.
func (e *Engine) ConfNet(cn *utterance.ConfusionNetwork) []Triple {
	var triples []Triple
	for _, fvc := range e.db.FormValCats() {
		if !cn.Find(fvc.Form) {
			continue
		}
		t := Triple{Form: fvc.Form, Value: fvc.Value, Category: fvc.Category}
		idx := cn.Replace(fvc.Form, []string{t.Label(e.mode)})
		if idx.Link >= 0 || idx.Slot >= 0 {
			cn.MarkAbstracted(idx)
			triples = append(triples, t)
		}
	}
	return triples
}
