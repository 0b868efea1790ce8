// Package handcrafted is the rule-based SLU: it turns a normalized and
// abstracted observation into a dialogue act confusion network.
package handcrafted

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/golangast/transitslu/slu/abstraction"
	"github.com/golangast/transitslu/slu/cldb"
	"github.com/golangast/transitslu/slu/da"
	"github.com/golangast/transitslu/slu/normalize"
	"github.com/golangast/transitslu/slu/utterance"
)

// waypointCategories are the categories the preposition-window rules
// attach a direction to.
var waypointCategories = map[string]string{
	"STOP":    "stop",
	"CITY":    "city",
	"STREET":  "street",
	"BOROUGH": "borough",
	"STATE":   "state",
}

// pruneThreshold drops rule emissions below this probability.
const pruneThreshold = 0.001

// contextWindow is how many tokens of left context the waypoint rules
// examine.
const contextWindow = 5

// Parser is the handcrafted rule parser. It is stateless between
// observations except for the time-cue persistence, which ResetState
// clears.
type Parser struct {
	norm      *normalize.Normalizer
	engine    *abstraction.Engine
	overrides map[string]*da.DA

	// lastTimeCue persists the departure/arrival cue across the
	// hypotheses of one observation.
	lastTimeCue string
}

// NewParser builds a rule parser over the category-label database.
func NewParser(db *cldb.Database, norm *normalize.Normalizer) *Parser {
	return &Parser{
		norm:      norm,
		engine:    abstraction.NewEngine(db, abstraction.ModeTypeValue),
		overrides: map[string]*da.DA{},
	}
}

// SetOverride maps an exact normalized utterance to a fixed dialogue act,
// short-circuiting the rules.
func (p *Parser) SetOverride(text string, d *da.DA) {
	p.overrides[text] = d
}

// ResetState clears the per-observation time-cue persistence.
func (p *Parser) ResetState() {
	p.lastTimeCue = ""
}

// Parse runs the rule pipeline on one utterance and returns a dialogue
// act confusion network.
func (p *Parser) Parse(u *utterance.Utterance) (*da.ConfusionNetwork, error) {
	out := da.NewConfusionNetwork()
	norm := p.norm.Utterance(u)

	if norm.IsEmpty() || p.onlyToken(norm, utterance.SilenceToken) {
		out.Add(1.0, da.NewItem("silence", "", ""))
		return out, nil
	}
	if p.onlyToken(norm, utterance.OtherToken) {
		out.Add(1.0, da.NewItem("other", "", ""))
		return out, nil
	}

	if d, ok := p.overrides[norm.String()]; ok {
		for _, it := range d.Items() {
			out.Add(1.0, it.Clone())
		}
		out.Sort()
		return out, nil
	}

	au, _ := p.engine.Utterance(norm)
	tokens := au.Tokens()
	log.Debug().Str("utterance", norm.String()).Str("abstracted", au.String()).Msg("handcrafted parse")

	p.parseWaypoints(au, out)
	p.parseTime(tokens, norm, out)
	p.parseAmPm(norm, out)
	p.parseCategorySlots(au, out)
	p.parseNonSpeech(norm, out)
	p.parseRequests(norm, out)
	p.parseAlternatives(norm, out)
	p.parseMeta(norm, out)

	out.MergeDuplicates()
	out.Prune(pruneThreshold)
	out.Sort()
	if out.Len() == 0 {
		out.Add(1.0, da.NewNull())
	}
	return out, nil
}

func (p *Parser) onlyToken(u *utterance.Utterance, token string) bool {
	for _, tok := range u.Tokens() {
		if tok != token {
			return false
		}
	}
	return u.Len() > 0
}

// parseWaypoints emits inform/confirm/deny acts for abstracted waypoint
// tokens based on the preposition found in the left context window.
func (p *Parser) parseWaypoints(au *utterance.Abstracted, out *da.ConfusionNetwork) {
	tokens := au.Tokens()
	for _, tv := range au.TypeVals() {
		slot, isWaypoint := waypointCategories[tv.Type]
		if !isWaypoint {
			continue
		}
		winStart := tv.Index - contextWindow
		if winStart < 0 {
			winStart = 0
		}
		window := tokens[winStart:tv.Index]

		fromEnd := nearestMatch(window, fromPhrases)
		toEnd := nearestMatch(window, toPhrases)
		viaEnd := nearestMatch(window, viaPhrases)
		inEnd := nearestMatch(window, inPhrases)

		daType := "inform"
		if p.deniedIn(window) {
			daType = "deny"
		} else if p.confirmedIn(tokens[:tv.Index]) {
			daType = "confirm"
		}

		switch {
		case fromEnd >= 0 && fromEnd == toEnd:
			// genuinely ambiguous context; prefer "from" by a hair and
			// let slot normalisation settle it downstream
			out.AddMerge(0.501, da.NewItem(daType, "from_"+slot, tv.Value), da.MergeAdd, 1.0)
			out.AddMerge(0.499, da.NewItem(daType, "to_"+slot, tv.Value), da.MergeAdd, 1.0)
		case fromEnd > toEnd && fromEnd > viaEnd && fromEnd > inEnd:
			out.AddMerge(1.0, da.NewItem(daType, "from_"+slot, tv.Value), da.MergeMax, 1.0)
		case toEnd > viaEnd && toEnd > inEnd:
			out.AddMerge(1.0, da.NewItem(daType, "to_"+slot, tv.Value), da.MergeMax, 1.0)
		case viaEnd > inEnd:
			out.AddMerge(1.0, da.NewItem(daType, "via_"+slot, tv.Value), da.MergeMax, 1.0)
		case inEnd >= 0:
			out.AddMerge(1.0, da.NewItem(daType, "in_"+slot, tv.Value), da.MergeMax, 1.0)
		default:
			// no contextual preposition; the dialogue manager resolves
			// the direction
			out.AddMerge(1.0, da.NewItem(daType, "", tv.Value), da.MergeMax, 1.0)
		}
	}
}

// nearestMatch returns the greatest end position of any phrase from the
// set inside the window, or -1. Ties between sets are resolved by the
// caller; within a set the longer phrase wins at equal end.
func nearestMatch(window []string, phrases [][]string) int {
	best := -1
	for _, phrase := range phrases {
		for start := len(window) - len(phrase); start >= 0; start-- {
			if matchAt(window, start, phrase) {
				if end := start + len(phrase); end > best {
					best = end
				}
				break
			}
		}
	}
	return best
}

func matchAt(tokens []string, start int, phrase []string) bool {
	if start < 0 || start+len(phrase) > len(tokens) {
		return false
	}
	for i, w := range phrase {
		if tokens[start+i] != w {
			return false
		}
	}
	return true
}

func containsPhrase(tokens []string, phrase []string) bool {
	for start := 0; start+len(phrase) <= len(tokens); start++ {
		if matchAt(tokens, start, phrase) {
			return true
		}
	}
	return false
}

func containsAny(tokens []string, phrases [][]string) bool {
	for _, phrase := range phrases {
		if containsPhrase(tokens, phrase) {
			return true
		}
	}
	return false
}

// deniedIn reports whether the window carries a negating phrase that the
// negative-negative filters do not explain away.
func (p *Parser) deniedIn(window []string) bool {
	if !containsAny(window, denyPhrases) {
		return false
	}
	return !containsAny(window, denyFilters)
}

func (p *Parser) confirmedIn(prefix []string) bool {
	return containsAny(prefix, confirmPhrases)
}

// parseTime folds NUMBER and TIME tokens into canonical time mentions and
// attaches the departure/arrival cue active at the mention.
func (p *Parser) parseTime(tokens []string, norm *utterance.Utterance, out *da.ConfusionNetwork) {
	mentions := findTimes(tokens)
	if len(mentions) == 0 {
		p.updateTimeCue(tokens, len(tokens))
		return
	}
	for _, m := range mentions {
		p.updateTimeCue(tokens, m.endIdx)
		slot := "time"
		if m.relative {
			slot = "time_rel"
		} else if p.lastTimeCue != "" {
			slot = p.lastTimeCue + "_time"
		}
		daType := "inform"
		if p.confirmedIn(tokens[:m.endIdx]) {
			daType = "confirm"
		}
		out.AddMerge(1.0, da.NewItem(daType, slot, renderTime(m.minutes)), da.MergeMax, 1.0)
	}
	p.updateTimeCue(tokens, len(tokens))
}

// updateTimeCue records the most recent departure/arrival cue seen before
// the given token position. The cue persists across calls until the next
// ResetState, so later hypotheses of one observation inherit it.
func (p *Parser) updateTimeCue(tokens []string, before int) {
	if before > len(tokens) {
		before = len(tokens)
	}
	prefix := tokens[:before]
	lastDep, lastArr := -1, -1
	for _, cue := range departureCues {
		for start := len(prefix) - len(cue); start >= 0; start-- {
			if matchAt(prefix, start, cue) {
				if start > lastDep {
					lastDep = start
				}
				break
			}
		}
	}
	for _, cue := range arrivalCues {
		for start := len(prefix) - len(cue); start >= 0; start-- {
			if matchAt(prefix, start, cue) {
				if start > lastArr {
					lastArr = start
				}
				break
			}
		}
	}
	switch {
	case lastDep > lastArr:
		p.lastTimeCue = "departure"
	case lastArr > lastDep:
		p.lastTimeCue = "arrival"
	}
}

func (p *Parser) parseAmPm(norm *utterance.Utterance, out *da.ConfusionNetwork) {
	tokens := norm.Tokens()
	for _, rule := range amPmPhrases {
		if containsPhrase(tokens, rule.phrase) {
			out.AddMerge(1.0, da.NewItem("inform", "ampm", rule.value), da.MergeMax, 1.0)
			return
		}
	}
}

// parseCategorySlots emits the fixed-slot informs for the non-waypoint
// abstracted categories: vehicle, task, train name and relative date.
func (p *Parser) parseCategorySlots(au *utterance.Abstracted, out *da.ConfusionNetwork) {
	tokens := au.Tokens()
	fixedSlots := map[string]string{
		"VEHICLE":    "vehicle",
		"TASK":       "task",
		"TRAIN_NAME": "train_name",
		"DATE_REL":   "date_rel",
	}
	for _, tv := range au.TypeVals() {
		slot, ok := fixedSlots[tv.Type]
		if !ok {
			continue
		}
		winStart := tv.Index - contextWindow
		if winStart < 0 {
			winStart = 0
		}
		daType := "inform"
		if p.deniedIn(tokens[winStart:tv.Index]) {
			daType = "deny"
		} else if p.confirmedIn(tokens[:tv.Index]) {
			daType = "confirm"
		}
		out.AddMerge(1.0, da.NewItem(daType, slot, tv.Value), da.MergeMax, 1.0)
	}
}

// parseNonSpeech emits the special acts for non-speech event tokens left
// in the utterance.
func (p *Parser) parseNonSpeech(norm *utterance.Utterance, out *da.ConfusionNetwork) {
	for _, tok := range norm.Tokens() {
		switch tok {
		case utterance.SilenceToken:
			out.AddMerge(1.0, da.NewItem("silence", "", ""), da.MergeMax, 1.0)
		case "_noise_", "_laugh_", "_inhale_":
			out.AddMerge(1.0, da.NewNull(), da.MergeMax, 1.0)
		case utterance.OtherToken:
			out.AddMerge(1.0, da.NewItem("other", "", ""), da.MergeMax, 1.0)
		}
	}
}

func (p *Parser) parseRequests(norm *utterance.Utterance, out *da.ConfusionNetwork) {
	tokens := norm.Tokens()
	for _, rule := range requestRules {
		if !containsPhrase(tokens, rule.phrase) {
			continue
		}
		if len(rule.needs) > 0 && !containsAny(tokens, rule.needs) {
			continue
		}
		out.AddMerge(1.0, da.NewItem("request", rule.slot, ""), da.MergeMax, 1.0)
	}
}

func (p *Parser) parseAlternatives(norm *utterance.Utterance, out *da.ConfusionNetwork) {
	tokens := norm.Tokens()
	if containsAny(tokens, alternativeFilters) {
		return
	}
	for _, rule := range alternativePhrases {
		if containsPhrase(tokens, rule.phrase) {
			out.AddMerge(1.0, da.NewItem("inform", "alternative", rule.value), da.MergeMax, 1.0)
			return
		}
	}
}

// parseMeta detects the meta acts over the concrete utterance through the
// curated positive and negative trigger lists.
func (p *Parser) parseMeta(norm *utterance.Utterance, out *da.ConfusionNetwork) {
	tokens := norm.Tokens()
	for _, act := range metaActs {
		if !containsAny(tokens, act.positive) {
			continue
		}
		if len(act.negative) > 0 && containsAny(tokens, act.negative) {
			continue
		}
		daType := strings.TrimSuffix(act.da, "()")
		out.AddMerge(1.0, da.NewItem(daType, "", ""), da.MergeMax, 1.0)
	}
}
