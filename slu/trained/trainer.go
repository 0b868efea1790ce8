package trained

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/golangast/transitslu/slu/abstraction"
	"github.com/golangast/transitslu/slu/cldb"
	"github.com/golangast/transitslu/slu/da"
	"github.com/golangast/transitslu/slu/features"
	"github.com/golangast/transitslu/slu/normalize"
	"github.com/golangast/transitslu/slu/utterance"
	"github.com/golangast/transitslu/sluerr"
)

// Example is one (utterance, dialogue act) training pair.
type Example struct {
	Utt *utterance.Utterance
	DA  *da.DA
}

// Config carries the training hyperparameters shared by both back-ends.
type Config struct {
	BackendName        string // "logistic" or "neural"
	MaxNGram           int
	MinClassifierCount int
	MinPosFeatureCount int
	MinNegFeatureCount int

	// logistic regression
	InverseRegularization float64
	L1                    bool

	// neural net
	HiddenSizes   []int
	Activation    string
	LearningRate  float64
	BatchSize     int
	Epochs        int
	Patience      int
	L2Decay       float64
	GradClipMin   float64
	GradClipMax   float64
	GradNormLimit float64
	ClassWeightA  float64 // smoothing alpha for inverse-frequency weights
	Seed          uint64
}

// DefaultConfig returns the hyperparameters used when nothing is
// configured.
func DefaultConfig() Config {
	return Config{
		BackendName:           "logistic",
		MaxNGram:              4,
		MinClassifierCount:    5,
		MinPosFeatureCount:    2,
		MinNegFeatureCount:    2,
		InverseRegularization: 1.0,
		HiddenSizes:           []int{64},
		Activation:            "tanh",
		LearningRate:          0.1,
		BatchSize:             32,
		Epochs:                50,
		Patience:              5,
		L2Decay:               1e-4,
		GradClipMin:           -5.0,
		GradClipMax:           5.0,
		ClassWeightA:          0.5,
		Seed:                  23,
	}
}

// Trainer builds a Model from training pairs following the
// abstract-then-classify pipeline.
type Trainer struct {
	cfg    Config
	norm   *normalize.Normalizer
	engine *abstraction.Engine
}

// NewTrainer creates a trainer over the category-label database.
func NewTrainer(db *cldb.Database, norm *normalize.Normalizer, cfg Config) (*Trainer, error) {
	if cfg.BackendName != "logistic" && cfg.BackendName != "neural" {
		return nil, sluerr.Configurationf("unknown classifier back-end %q", cfg.BackendName)
	}
	return &Trainer{
		cfg:    cfg,
		norm:   norm,
		engine: abstraction.NewEngine(db, abstraction.ModeTypeValue),
	}, nil
}

// prepared is one example after normalization and abstraction.
type prepared struct {
	utt     *utterance.Utterance
	auAll   *utterance.Abstracted
	triples []abstraction.Triple
	absDA   *da.DA
}

// Train runs the full pipeline: abstraction, template extraction,
// feature extraction and per-template fitting.
func (t *Trainer) Train(examples []Example) (*Model, error) {
	if len(examples) == 0 {
		return nil, sluerr.Configurationf("no training examples")
	}
	prep := make([]prepared, len(examples))
	for i, ex := range examples {
		norm := t.norm.Utterance(ex.Utt)
		auAll, triples := t.engine.Utterance(norm)
		prep[i] = prepared{
			utt:     norm,
			auAll:   auAll,
			triples: triples,
			absDA:   abstractDA(ex.DA, triples),
		}
	}

	templates := t.collectTemplates(prep)
	log.Info().Int("templates", len(templates)).Int("examples", len(examples)).
		Msg("training classifier ensemble")

	model := &Model{
		Version:     modelVersion,
		FeatureIdx:  map[string]int{},
		Classifiers: map[string]Backend{},
		MaxNGram:    t.cfg.MaxNGram,
		Templates:   templates,
	}

	// per-example feature sets are computed lazily per template because
	// the triple-specific abstraction differs between templates
	for _, tpl := range templates {
		feats := make([]features.Features, len(prep))
		labels := make([]int, len(prep))
		for i := range prep {
			feats[i] = t.featuresForTemplate(prep[i], tpl, nil)
			if prep[i].absDA.Contains(tpl.Item) {
				labels[i] = 1
			}
		}
		keys := pruneFeatureKeys(feats, labels, t.cfg.MinPosFeatureCount, t.cfg.MinNegFeatureCount)
		for _, k := range keys {
			if _, ok := model.FeatureIdx[k]; !ok {
				model.FeatureIdx[k] = len(model.FeatureKeys)
				model.FeatureKeys = append(model.FeatureKeys, k)
			}
		}
	}

	for _, tpl := range templates {
		x := make([][]float64, len(prep))
		y := make([]int, len(prep))
		npos := 0
		for i := range prep {
			f := t.featuresForTemplate(prep[i], tpl, nil)
			x[i] = f.Vector(model.FeatureIdx)
			if prep[i].absDA.Contains(tpl.Item) {
				y[i] = 1
				npos++
			}
		}
		backend := t.newBackend(len(model.FeatureKeys))
		if err := backend.Fit(x, y); err != nil {
			return nil, sluerr.Wrap(err, "training failed for "+tpl.Key())
		}
		model.Classifiers[tpl.Key()] = backend
		log.Debug().Str("template", tpl.Key()).Int("positives", npos).Msg("trained classifier")
	}
	return model, nil
}

func (t *Trainer) newBackend(dim int) Backend {
	if t.cfg.BackendName == "neural" {
		return NewNeuralClassifier(dim, t.cfg)
	}
	return NewLogisticRegression(dim, t.cfg.InverseRegularization, t.cfg.L1)
}

// collectTemplates registers a template per distinct DAI of the abstracted
// training acts and prunes the rare, dontcare and null ones.
func (t *Trainer) collectTemplates(prep []prepared) []*Template {
	byKey := map[string]*Template{}
	for _, p := range prep {
		for _, it := range p.absDA.Items() {
			item := it.Clone()
			if label := item.CategoryLabel(); label != "" {
				// template identity is the bare label, not the surface
				// it stood in for
				item.SetConcreteValue(label)
			}
			key := item.String()
			tpl, ok := byKey[key]
			if !ok {
				abstracted := item.HasValue() && isCategoryLabel(item.Value)
				tpl = &Template{
					Item:       item,
					Abstracted: abstracted,
					Category:   strings.ToLower(item.Value),
				}
				if !abstracted {
					tpl.Category = ""
				}
				byKey[key] = tpl
			}
			tpl.Count++
		}
	}
	var out []*Template
	for _, tpl := range byKey {
		if tpl.Item.IsNull() || tpl.Item.Value == "dontcare" {
			continue
		}
		if tpl.Item.HasValue() && tpl.Count < t.cfg.MinClassifierCount {
			continue
		}
		out = append(out, tpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// featuresForTemplate extracts the union of three n-gram
// sources with equal 1/3 weight: the raw utterance, the utterance
// abstracted for the template's triple, and the utterance abstracted
// across all triples. For concrete templates the triple source falls back
// to the raw utterance. A non-nil triple overrides the triple lookup at
// inference time.
func (t *Trainer) featuresForTemplate(p prepared, tpl *Template, triple *abstraction.Triple) features.Features {
	raw := features.FromUtterance(p.utt, t.cfg.MaxNGram)
	all := features.FromUtterance(&p.auAll.Utterance, t.cfg.MaxNGram)

	one := raw
	if tpl.Abstracted {
		tr := triple
		if tr == nil {
			for i := range p.triples {
				if p.triples[i].Category == tpl.Category {
					tr = &p.triples[i]
					break
				}
			}
		}
		if tr != nil {
			au := utterance.NewAbstracted(p.utt)
			au = au.PhraseToCategoryLabel(tr.Form, tr.Label(abstraction.ModeTypeValue))
			one = features.FromUtterance(&au.Utterance, t.cfg.MaxNGram)
		}
	}

	f := features.New()
	f.Merge(raw, 1.0/3.0)
	f.Merge(one, 1.0/3.0)
	f.Merge(all, 1.0/3.0)
	return f
}

// abstractDA replaces slot values that appear among the triples with
// their category labels, remembering the concrete value.
func abstractDA(d *da.DA, triples []abstraction.Triple) *da.DA {
	out := d.Clone()
	for _, it := range out.Items() {
		if !it.HasValue() {
			continue
		}
		for _, tr := range triples {
			if strings.EqualFold(it.Value, tr.Value) {
				it.ValueToCategoryLabel(strings.ToUpper(tr.Category))
				break
			}
		}
	}
	out.Sort()
	return out
}

func isCategoryLabel(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if (r < 'A' || r > 'Z') && r != '_' {
			return false
		}
	}
	return true
}

// pruneFeatureKeys keeps feature keys meeting the minimum positive and
// negative occurrence counts for this classifier.
func pruneFeatureKeys(feats []features.Features, labels []int, minPos, minNeg int) []string {
	pos := map[string]int{}
	neg := map[string]int{}
	for i, f := range feats {
		for k := range f {
			if labels[i] == 1 {
				pos[k]++
			} else {
				neg[k]++
			}
		}
	}
	var keys []string
	for k := range pos {
		if pos[k] >= minPos || neg[k] >= minNeg {
			keys = append(keys, k)
		}
	}
	for k := range neg {
		if _, seen := pos[k]; seen {
			continue
		}
		if neg[k] >= minNeg {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Shuffle randomizes example order in place; training uses it between
// epochs for the stochastic back-end.
func Shuffle(examples []Example, seed uint64) {
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(examples), func(i, j int) {
		examples[i], examples[j] = examples[j], examples[i]
	})
}
