// Package trained is the statistical SLU: an ensemble of per-DAI-template
// binary classifiers over sparse n-gram features, with interchangeable
// logistic-regression and neural back-ends.
package trained

import (
	"compress/gzip"
	"encoding/gob"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/golangast/transitslu/slu/da"
	"github.com/golangast/transitslu/sluerr"
)

// modelVersion guards the gob blob layout.
const modelVersion = 2

// Backend is the fit/predict contract both classifier back-ends satisfy.
// Both accept the same dense rendering of the sparse feature vectors.
type Backend interface {
	Fit(x [][]float64, y []int) error
	PredictProb(x []float64) float64
}

// Template is one DAI pattern a binary classifier is trained for. A
// concrete template carries a literal value; an abstracted one carries a
// category label as its value.
type Template struct {
	Item       *da.Item
	Abstracted bool
	Category   string // lowercase category for abstracted templates
	Count      int
}

// Key is the canonical identity of the template.
func (t *Template) Key() string {
	return t.Item.String()
}

// Model is a trained classifier ensemble ready for inference. All fields
// are read-only after training or load.
type Model struct {
	Version     int
	FeatureKeys []string
	FeatureIdx  map[string]int
	Templates   []*Template
	Classifiers map[string]Backend
	MaxNGram    int
}

// persistedModel is the gob image of a model; templates are stored by
// their textual DAI form so the blob stays independent of unexported
// fields.
type persistedModel struct {
	Version     int
	FeatureKeys []string
	Templates   []persistedTemplate
	Classifiers map[string]Backend
	MaxNGram    int
}

type persistedTemplate struct {
	DAI        string
	Abstracted bool
	Category   string
	Count      int
}

func init() {
	gob.Register(&LogisticRegression{})
	gob.Register(&NeuralClassifier{})
}

// Save writes the model as a gob blob; paths ending in .gz are
// transparently gzipped.
func (m *Model) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return sluerr.Wrap(err, "cannot create model file")
	}
	defer file.Close()

	p := persistedModel{
		Version:     modelVersion,
		FeatureKeys: m.FeatureKeys,
		Classifiers: m.Classifiers,
		MaxNGram:    m.MaxNGram,
	}
	for _, t := range m.Templates {
		p.Templates = append(p.Templates, persistedTemplate{
			DAI:        t.Item.String(),
			Abstracted: t.Abstracted,
			Category:   t.Category,
			Count:      t.Count,
		})
	}

	if strings.HasSuffix(path, ".gz") {
		zw := gzip.NewWriter(file)
		if err := gob.NewEncoder(zw).Encode(&p); err != nil {
			return sluerr.Wrap(err, "cannot encode model")
		}
		return zw.Close()
	}
	if err := gob.NewEncoder(file).Encode(&p); err != nil {
		return sluerr.Wrap(err, "cannot encode model")
	}
	return nil
}

// Load reads a model saved by Save.
func Load(path string) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, sluerr.Wrap(err, "cannot open model file")
	}
	defer file.Close()

	var p persistedModel
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(file)
		if err != nil {
			return nil, sluerr.Wrap(err, "model file is not gzipped")
		}
		defer zr.Close()
		err = gob.NewDecoder(zr).Decode(&p)
		if err != nil {
			return nil, sluerr.Wrap(err, "cannot decode model")
		}
	} else if err := gob.NewDecoder(file).Decode(&p); err != nil {
		return nil, sluerr.Wrap(err, "cannot decode model")
	}
	if p.Version != modelVersion {
		return nil, sluerr.Configurationf("model version %d does not match expected %d", p.Version, modelVersion)
	}

	m := &Model{
		Version:     p.Version,
		FeatureKeys: p.FeatureKeys,
		FeatureIdx:  map[string]int{},
		Classifiers: p.Classifiers,
		MaxNGram:    p.MaxNGram,
	}
	for i, k := range p.FeatureKeys {
		m.FeatureIdx[k] = i
	}
	for _, pt := range p.Templates {
		item, err := da.ParseItem(pt.DAI)
		if err != nil {
			return nil, sluerr.Wrap(err, "model holds an unparsable template")
		}
		m.Templates = append(m.Templates, &Template{
			Item:       item,
			Abstracted: pt.Abstracted,
			Category:   pt.Category,
			Count:      pt.Count,
		})
	}
	log.Info().Str("path", path).Int("templates", len(m.Templates)).
		Int("features", len(m.FeatureKeys)).Msg("loaded SLU model")
	return m, nil
}
