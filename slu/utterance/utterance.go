// Package utterance models recognized speech as ordered token sequences,
// together with the probabilistic containers the recognizer can emit:
// n-best lists and word confusion networks.
package utterance

import (
	"strings"
)

// Utterance is an ordered sequence of word tokens. All mutating-looking
// operations return a new Utterance; the receiver is never modified.
type Utterance struct {
	tokens []string
}

// New tokenizes text on whitespace into an Utterance.
func New(text string) *Utterance {
	return FromTokens(strings.Fields(text))
}

// FromTokens builds an Utterance from an already tokenized sequence.
// The slice is copied.
func FromTokens(tokens []string) *Utterance {
	t := make([]string, len(tokens))
	copy(t, tokens)
	return &Utterance{tokens: t}
}

// Tokens returns a copy of the token sequence.
func (u *Utterance) Tokens() []string {
	t := make([]string, len(u.tokens))
	copy(t, u.tokens)
	return t
}

// Token returns the token at index i.
func (u *Utterance) Token(i int) string {
	return u.tokens[i]
}

// Len returns the number of tokens.
func (u *Utterance) Len() int {
	return len(u.tokens)
}

// IsEmpty reports whether the utterance has no tokens.
func (u *Utterance) IsEmpty() bool {
	return len(u.tokens) == 0
}

// String renders the utterance as space-joined tokens.
func (u *Utterance) String() string {
	return strings.Join(u.tokens, " ")
}

// Equal reports token-wise equality.
func (u *Utterance) Equal(other *Utterance) bool {
	if u.Len() != other.Len() {
		return false
	}
	for i, tok := range u.tokens {
		if other.tokens[i] != tok {
			return false
		}
	}
	return true
}

// Lower returns a new utterance with every token lowercased.
func (u *Utterance) Lower() *Utterance {
	t := make([]string, len(u.tokens))
	for i, tok := range u.tokens {
		t[i] = strings.ToLower(tok)
	}
	return &Utterance{tokens: t}
}

// Find returns the start index of the first occurrence of phrase as a
// contiguous subsequence, or -1 when absent. The empty phrase is found at 0.
func (u *Utterance) Find(phrase []string) int {
	if len(phrase) == 0 {
		return 0
	}
	for start := 0; start+len(phrase) <= len(u.tokens); start++ {
		if u.matchesAt(phrase, start) {
			return start
		}
	}
	return -1
}

func (u *Utterance) matchesAt(phrase []string, start int) bool {
	for i, w := range phrase {
		if u.tokens[start+i] != w {
			return false
		}
	}
	return true
}

// Contains reports whether phrase occurs as a contiguous subsequence.
func (u *Utterance) Contains(phrase []string) bool {
	return u.Find(phrase) != -1
}

// Slice returns the tokens in [start, end).
func (u *Utterance) Slice(start, end int) []string {
	out := make([]string, end-start)
	copy(out, u.tokens[start:end])
	return out
}

// Replace substitutes the first occurrence of phrase by replacement, which
// may be empty, shorter or longer than the phrase. A new utterance is
// returned; when the phrase is absent the receiver is returned unchanged.
func (u *Utterance) Replace(phrase, replacement []string) *Utterance {
	start := u.Find(phrase)
	if start < 0 {
		return u
	}
	return u.spliced(start, start+len(phrase), replacement)
}

// ReplaceAll substitutes every non-overlapping occurrence of phrase.
func (u *Utterance) ReplaceAll(phrase, replacement []string) *Utterance {
	if len(phrase) == 0 {
		return u
	}
	out := u
	start := 0
	for {
		idx := -1
		for s := start; s+len(phrase) <= out.Len(); s++ {
			if out.matchesAt(phrase, s) {
				idx = s
				break
			}
		}
		if idx < 0 {
			return out
		}
		out = out.spliced(idx, idx+len(phrase), replacement)
		start = idx + len(replacement)
	}
}

func (u *Utterance) spliced(start, end int, replacement []string) *Utterance {
	t := make([]string, 0, len(u.tokens)-(end-start)+len(replacement))
	t = append(t, u.tokens[:start]...)
	t = append(t, replacement...)
	t = append(t, u.tokens[end:]...)
	return &Utterance{tokens: t}
}

// SentStart and SentEnd are the sentence boundary pseudo-tokens emitted by
// NGrams when boundaries are requested.
const (
	SentStart = "<s>"
	SentEnd   = "</s>"
)

// NGrams calls fn with every n-gram of size n. With boundaries enabled the
// token stream is padded with SentStart/SentEnd first. The slice passed to
// fn is reused between calls; copy it if it must outlive the callback.
func (u *Utterance) NGrams(n int, boundaries bool, fn func(ngram []string)) {
	tokens := u.tokens
	if boundaries {
		padded := make([]string, 0, len(tokens)+2)
		padded = append(padded, SentStart)
		padded = append(padded, tokens...)
		padded = append(padded, SentEnd)
		tokens = padded
	}
	for start := 0; start+n <= len(tokens); start++ {
		fn(tokens[start : start+n])
	}
}
