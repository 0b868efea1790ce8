package dispatch

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/golangast/transitslu/slu/da"
	"github.com/golangast/transitslu/slu/utterance"
	"github.com/golangast/transitslu/sluerr"
)

// defaultExpansionDepth bounds the n-best expansion of confusion
// network observations.
const defaultExpansionDepth = 40

// SLU is the contract both the handcrafted and the trained parser
// satisfy: one normalized-or-raw utterance in, one dialogue act
// confusion network out.
type SLU interface {
	Parse(u *utterance.Utterance) (*da.ConfusionNetwork, error)
}

// StateResetter is implemented by parsers that keep observation-scoped
// state, such as the handcrafted time cue. The dispatcher resets it
// before each new observation so nothing carries over between calls.
type StateResetter interface {
	ResetState()
}

// Dispatcher reduces any observation kind to a dialogue act confusion
// network by routing it through an SLU component. N-best lists are
// parsed per hypothesis and merged with probability weights; word
// confusion networks are expanded to a bounded n-best list first.
type Dispatcher struct {
	slu   SLU
	cache *Cache
	depth int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCache attaches a parse cache.
func WithCache(c *Cache) Option {
	return func(d *Dispatcher) { d.cache = c }
}

// WithExpansionDepth overrides how many hypotheses a confusion network
// observation expands into.
func WithExpansionDepth(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.depth = n
		}
	}
}

// NewDispatcher wraps an SLU component.
func NewDispatcher(slu SLU, opts ...Option) *Dispatcher {
	d := &Dispatcher{slu: slu, depth: defaultExpansionDepth}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Parse reduces the observation to a dialogue act confusion network.
// Confusion networks take precedence over n-best lists, n-best lists
// over 1-best utterances, when an observation carries several payloads.
func (d *Dispatcher) Parse(ctx context.Context, obs *Observation) (*da.ConfusionNetwork, error) {
	id := uuid.NewString()
	logger := log.With().Str("parse_id", id).Str("kind", string(obs.Kind())).Logger()

	if r, ok := d.slu.(StateResetter); ok {
		r.ResetState()
	}

	if d.cache != nil {
		if dac, ok := d.cache.Get(ctx, obs); ok {
			logger.Debug().Msg("parse cache hit")
			return dac, nil
		}
	}

	var (
		dac *da.ConfusionNetwork
		err error
	)
	switch obs.Kind() {
	case KindConfNet:
		dac, err = d.parseConfNet(obs.ConfNet)
	case KindNBList:
		dac, err = d.parseNBList(obs.NBList)
	default:
		if obs.Utt == nil {
			return nil, sluerr.Invariantf("observation carries no payload")
		}
		dac, err = d.parseUtterance(obs.Utt)
	}
	if err != nil {
		return nil, err
	}

	if d.cache != nil {
		d.cache.Put(ctx, obs, dac)
	}
	logger.Debug().Int("items", dac.Len()).Msg("dispatched parse")
	return dac, nil
}

// parseUtterance handles the non-speech tokens before delegating to the
// SLU component.
func (d *Dispatcher) parseUtterance(u *utterance.Utterance) (*da.ConfusionNetwork, error) {
	if special := nonSpeechAct(u); special != nil {
		out := da.NewConfusionNetwork()
		out.Add(1.0, special)
		return out, nil
	}
	return d.slu.Parse(u)
}

// parseNBList parses every hypothesis independently and merges the
// resulting networks with the hypothesis probabilities as evidence
// weights.
func (d *Dispatcher) parseNBList(l *utterance.NBList) (*da.ConfusionNetwork, error) {
	out := da.NewConfusionNetwork()
	for i := 0; i < l.Len(); i++ {
		hyp := l.Hyp(i)
		if hyp.Prob <= 0 {
			continue
		}
		dac, err := d.parseUtterance(hyp.Utt)
		if err != nil {
			return nil, err
		}
		for _, ih := range dac.Hyps() {
			out.AddMerge(ih.Prob, ih.Item, da.MergeAdd, hyp.Prob)
		}
	}
	out.MergeDuplicates()
	out.Sort()
	if out.Len() == 0 {
		out.Add(1.0, da.NewNull())
	}
	return out, nil
}

// parseConfNet expands the word network into its most probable
// hypotheses and continues as for an n-best list.
func (d *Dispatcher) parseConfNet(cn *utterance.ConfusionNetwork) (*da.ConfusionNetwork, error) {
	nbl := cn.GetUtteranceNBList(d.depth)
	if err := nbl.Normalise(); err != nil {
		return nil, sluerr.Wrap(err, "cannot normalise expanded confusion network")
	}
	return d.parseNBList(nbl)
}

// nonSpeechAct maps single-token non-speech utterances to their acts.
func nonSpeechAct(u *utterance.Utterance) *da.Item {
	if u.Len() != 1 {
		return nil
	}
	switch u.Token(0) {
	case utterance.OtherToken:
		return da.NewItem("other", "", "")
	case utterance.SilenceToken:
		return da.NewItem("silence", "", "")
	}
	return nil
}
