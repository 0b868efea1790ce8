// Package dispatch routes recognizer observations to an SLU component
// and reduces richer observations to dialogue act confusion networks.
package dispatch

import (
	"github.com/golangast/transitslu/slu/utterance"
	"github.com/golangast/transitslu/sluerr"
)

// Kind names the observation variants the dispatcher understands.
type Kind string

const (
	KindUtterance Kind = "utt"
	KindNBList    Kind = "utt_nbl"
	KindConfNet   Kind = "utt_cn"
)

// Observation is one recognizer output. Exactly one of the payload
// fields is set; Kind reports which.
type Observation struct {
	Utt     *utterance.Utterance
	NBList  *utterance.NBList
	ConfNet *utterance.ConfusionNetwork
}

// Observe classifies an arbitrary recognizer payload into an
// Observation. Strings and utterances become 1-best observations; this
// also covers the legacy "asr_hyp" channel, whose payloads arrive
// untyped.
func Observe(v any) (*Observation, error) {
	switch p := v.(type) {
	case string:
		return &Observation{Utt: utterance.New(p)}, nil
	case *utterance.Utterance:
		return &Observation{Utt: p}, nil
	case *utterance.NBList:
		return &Observation{NBList: p}, nil
	case *utterance.ConfusionNetwork:
		return &Observation{ConfNet: p}, nil
	default:
		return nil, sluerr.Invariantf("unsupported observation payload %T", v)
	}
}

// Kind reports the richest payload the observation carries; richer
// payloads win when several are set.
func (o *Observation) Kind() Kind {
	switch {
	case o.ConfNet != nil:
		return KindConfNet
	case o.NBList != nil:
		return KindNBList
	default:
		return KindUtterance
	}
}

// String renders the payload in its canonical textual form. The
// rendering doubles as the cache identity of the observation.
func (o *Observation) String() string {
	switch o.Kind() {
	case KindConfNet:
		return o.ConfNet.String()
	case KindNBList:
		return o.NBList.String()
	default:
		if o.Utt == nil {
			return ""
		}
		return o.Utt.String()
	}
}
