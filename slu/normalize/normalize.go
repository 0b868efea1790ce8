// Package normalize canonicalizes recognized text before abstraction:
// lowercasing, ordered phrase rewrites, filler removal and digit spelling.
package normalize

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/golangast/transitslu/slu/cldb"
	"github.com/golangast/transitslu/slu/utterance"
	"github.com/golangast/transitslu/sluerr"
)

// Rule rewrites one source phrase to a target phrase. The target may be
// empty (removal), shorter or longer than the source.
type Rule struct {
	From []string
	To   []string
}

// Normalizer applies an ordered rewrite list. Order matters: later rules
// may depend on earlier rewrites. The rule list is read-only after
// construction.
type Normalizer struct {
	rules        []Rule
	spellDigits  bool
	spellOrdinal bool
}

// NewTransitEnglish builds the normalizer with the built-in transit-domain
// English rewrite list.
func NewTransitEnglish() *Normalizer {
	n := &Normalizer{spellDigits: true, spellOrdinal: true}
	for _, r := range transitEnglishRules {
		n.rules = append(n.rules, Rule{
			From: strings.Fields(r[0]),
			To:   strings.Fields(r[1]),
		})
	}
	return n
}

// transitEnglishRules is the ordered (source, target) rewrite list. Filler
// removal comes first, then contraction expansion, then domain aliases.
var transitEnglishRules = [][2]string{
	{"uh", ""},
	{"um", ""},
	{"er", ""},
	{"ehm", ""},
	{"uhm", ""},
	{"hm", ""},
	{"_noise_", ""},
	{"i'm", "i am"},
	{"i'd", "i would"},
	{"i'll", "i will"},
	{"i've", "i have"},
	{"don't", "do not"},
	{"doesn't", "does not"},
	{"won't", "will not"},
	{"can't", "cannot"},
	{"isn't", "is not"},
	{"aren't", "are not"},
	{"wasn't", "was not"},
	{"what's", "what is"},
	{"that's", "that is"},
	{"there's", "there is"},
	{"it's", "it is"},
	{"wanna", "want to"},
	{"gonna", "going to"},
	{"gotta", "got to"},
	{"lemme", "let me"},
	{"gimme", "give me"},
	{"nyc", "new york"},
	{"new york city", "new york"},
	{"big apple", "new york"},
	{"a.m.", "am"},
	{"p.m.", "pm"},
	{"a m", "am"},
	{"p m", "pm"},
	{"oclock", "o'clock"},
}

type rulesFile struct {
	Rewrites [][]string `yaml:"rewrites"`
}

// LoadRules reads an ordered rewrite list from YAML: a top-level
// `rewrites` list of [source, target] pairs.
func LoadRules(path string) (*Normalizer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, sluerr.Wrap(err, "cannot read rewrite rules")
	}
	var f rulesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, sluerr.Configurationf("rewrite rules are not valid YAML: %v", err)
	}
	if f.Rewrites == nil {
		return nil, sluerr.Configurationf("rewrite rules lack the top-level 'rewrites' list")
	}
	n := &Normalizer{spellDigits: true, spellOrdinal: true}
	for _, pair := range f.Rewrites {
		if len(pair) != 2 {
			return nil, sluerr.Configurationf("rewrite rule must be a [source, target] pair, got %v", pair)
		}
		n.rules = append(n.rules, Rule{From: strings.Fields(pair[0]), To: strings.Fields(pair[1])})
	}
	return n, nil
}

// Utterance lowercases the utterance and applies the rewrite list in
// order. Applying the result again is a no-op.
func (n *Normalizer) Utterance(u *utterance.Utterance) *utterance.Utterance {
	out := u.Lower()
	out = n.spellTokens(out)
	for _, r := range n.rules {
		out = out.ReplaceAll(r.From, r.To)
	}
	return out
}

// spellTokens rewrites digit tokens 0..59 to their spoken form and ordinal
// digit suffixes ("3rd") to spoken ordinals.
func (n *Normalizer) spellTokens(u *utterance.Utterance) *utterance.Utterance {
	tokens := u.Tokens()
	var out []string
	for _, tok := range tokens {
		switch {
		case n.spellDigits && isSmallInt(tok):
			v, _ := strconv.Atoi(tok)
			out = append(out, strings.Fields(cldb.SpellNumber(v))...)
		case n.spellOrdinal && isOrdinalDigits(tok):
			v, _ := strconv.Atoi(tok[:len(tok)-2])
			out = append(out, strings.Fields(cldb.SpellOrdinal(v))...)
		default:
			out = append(out, tok)
		}
	}
	return utterance.FromTokens(out)
}

func isSmallInt(tok string) bool {
	v, err := strconv.Atoi(tok)
	return err == nil && v >= 0 && v <= 59
}

func isOrdinalDigits(tok string) bool {
	if len(tok) < 3 {
		return false
	}
	suffix := tok[len(tok)-2:]
	if suffix != "st" && suffix != "nd" && suffix != "rd" && suffix != "th" {
		return false
	}
	v, err := strconv.Atoi(tok[:len(tok)-2])
	return err == nil && v >= 1 && v <= 59
}

// NBList normalizes every hypothesis of an n-best list consistently,
// merging hypotheses that collapse to the same text.
func (n *Normalizer) NBList(l *utterance.NBList) *utterance.NBList {
	out := utterance.NewNBList()
	for i := 0; i < l.Len(); i++ {
		h := l.Hyp(i)
		out.Add(h.Prob, n.Utterance(h.Utt))
	}
	out.Merge()
	return out
}

// ConfNet applies the single-token rewrites to every alternative word and
// the multi-token rules through confusion-network replacement.
func (n *Normalizer) ConfNet(cn *utterance.ConfusionNetwork) *utterance.ConfusionNetwork {
	for i := 0; i < cn.Len(); i++ {
		alts := cn.Slot(i)
		for ai := range alts {
			alts[ai].Word = strings.ToLower(alts[ai].Word)
		}
	}
	for _, r := range n.rules {
		if len(r.From) == 1 {
			to := utterance.EmptyWord
			if len(r.To) == 1 {
				to = r.To[0]
			}
			if len(r.To) <= 1 {
				for i := 0; i < cn.Len(); i++ {
					alts := cn.Slot(i)
					for ai := range alts {
						if alts[ai].Word == r.From[0] {
							alts[ai].Word = to
						}
					}
				}
				continue
			}
		}
		// multi-token rules run through phrase replacement once; the
		// source words stay as an alternative path, so repeating the
		// replacement would only stack identical links
		if cn.Find(r.From) {
			cn.Replace(r.From, r.To)
		}
	}
	return cn
}
