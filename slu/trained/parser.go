package trained

import (
	"github.com/rs/zerolog/log"

	"github.com/golangast/transitslu/slu/abstraction"
	"github.com/golangast/transitslu/slu/cldb"
	"github.com/golangast/transitslu/slu/da"
	"github.com/golangast/transitslu/slu/normalize"
	"github.com/golangast/transitslu/slu/utterance"
)

// inferencePrune drops emissions below this probability.
const inferencePrune = 0.001

// Parser runs the trained ensemble on observations. The model is
// read-only; the parser owns no mutable state between calls.
type Parser struct {
	model  *Model
	norm   *normalize.Normalizer
	engine *abstraction.Engine
	cfg    Config
}

// NewParser builds an inference parser from a trained model.
func NewParser(model *Model, db *cldb.Database, norm *normalize.Normalizer) *Parser {
	cfg := DefaultConfig()
	cfg.MaxNGram = model.MaxNGram
	return &Parser{
		model:  model,
		norm:   norm,
		engine: abstraction.NewEngine(db, abstraction.ModeTypeValue),
		cfg:    cfg,
	}
}

// Parse classifies one utterance into a dialogue act confusion network.
// Concrete classifiers fire once; abstracted classifiers fire once per
// matching triple, with the category label de-abstracted to the triple's
// concrete value.
func (p *Parser) Parse(u *utterance.Utterance) (*da.ConfusionNetwork, error) {
	out := da.NewConfusionNetwork()
	norm := p.norm.Utterance(u)
	if norm.IsEmpty() {
		out.Add(1.0, da.NewItem("silence", "", ""))
		return out, nil
	}

	auAll, triples := p.engine.Utterance(norm)
	prep := prepared{utt: norm, auAll: auAll, triples: triples}
	t := &Trainer{cfg: p.cfg, norm: p.norm, engine: p.engine}

	for _, tpl := range p.model.Templates {
		backend, ok := p.model.Classifiers[tpl.Key()]
		if !ok {
			continue
		}
		if !tpl.Abstracted {
			f := t.featuresForTemplate(prep, tpl, nil)
			prob := backend.PredictProb(f.Vector(p.model.FeatureIdx))
			out.AddMerge(prob, tpl.Item.Clone(), da.MergeMax, 1.0)
			continue
		}
		for i := range triples {
			if triples[i].Category != tpl.Category {
				continue
			}
			f := t.featuresForTemplate(prep, tpl, &triples[i])
			prob := backend.PredictProb(f.Vector(p.model.FeatureIdx))
			item := tpl.Item.Clone()
			item.SetConcreteValue(triples[i].Value)
			out.AddMerge(prob, item, da.MergeMax, 1.0)
		}
	}

	out.MergeDuplicates()
	out.Prune(inferencePrune)
	out.Sort()
	if out.Len() == 0 {
		out.Add(1.0, da.NewNull())
	}
	log.Debug().Str("utterance", norm.String()).Int("items", out.Len()).Msg("trained parse")
	return out, nil
}
