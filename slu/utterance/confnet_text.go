package utterance

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golangast/transitslu/sluerr"
)

// Textual confusion-network form: a bracketed list of abstracted-index
// tuples, then per-slot groups separated by ';'. Inside a slot the
// comma-separated (prob:word) pairs come first, then '|', then the
// comma-separated long-link records anchored at that slot. Structural
// characters inside words are backslash-escaped.

const cnEscapable = `():,|;[]"\`

func escapeWord(w string) string {
	var b strings.Builder
	for _, r := range w {
		if strings.ContainsRune(cnEscapable, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func unescapeWord(w string) string {
	var b strings.Builder
	escaped := false
	for _, r := range w {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// String renders the network in its textual form.
func (cn *ConfusionNetwork) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, idx := range cn.abstractedIdxs {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "(%d:%d:%d:%d)", idx.Slot, idx.Alt, idx.Link, idx.Pos)
	}
	b.WriteByte(']')
	for si, alts := range cn.slots {
		if si > 0 {
			b.WriteByte(';')
		}
		for ai, alt := range alts {
			if ai > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "(%g:%s)", alt.Prob, escapeWord(alt.Word))
		}
		b.WriteByte('|')
		first := true
		for _, l := range cn.links {
			if l.Start != si {
				continue
			}
			if !first {
				b.WriteByte(',')
			}
			first = false
			words := make([]string, len(l.Words))
			for wi, w := range l.Words {
				words[wi] = escapeWord(w)
			}
			norm := 0
			if l.Normalise {
				norm = 1
			}
			fmt.Fprintf(&b, "(%g:%d:%d:%s)", l.Prob, l.End, norm, strings.Join(words, " "))
		}
	}
	return b.String()
}

// ParseConfusionNetwork parses the textual form produced by String.
func ParseConfusionNetwork(text string) (*ConfusionNetwork, error) {
	cn := NewConfusionNetwork()
	rest := strings.TrimSpace(text)
	if !strings.HasPrefix(rest, "[") {
		return nil, sluerr.DAIParsef("confusion network text must begin with '[': %q", truncate(rest))
	}
	header, body, err := splitUnescaped(rest[1:], ']')
	if err != nil {
		return nil, sluerr.DAIParsef("unterminated abstracted-index header: %q", truncate(rest))
	}
	var pendingIdxs []Index
	for _, tuple := range splitAllUnescaped(header, ',') {
		tuple = strings.TrimSpace(tuple)
		if tuple == "" {
			continue
		}
		idx, err := parseIndexTuple(tuple)
		if err != nil {
			return nil, err
		}
		pendingIdxs = append(pendingIdxs, idx)
	}
	if strings.TrimSpace(body) == "" {
		cn.abstractedIdxs = pendingIdxs
		return cn, nil
	}
	for si, group := range splitAllUnescaped(body, ';') {
		altPart, linkPart, err := splitUnescaped(group, '|')
		if err != nil {
			return nil, sluerr.DAIParsef("slot %d lacks the '|' separator: %q", si, truncate(group))
		}
		var alts []Alternative
		for _, rec := range splitAllUnescaped(altPart, ',') {
			rec = strings.TrimSpace(rec)
			if rec == "" {
				continue
			}
			prob, fields, err := parseRecord(rec, 1)
			if err != nil {
				return nil, err
			}
			alts = append(alts, Alternative{Prob: prob, Word: unescapeWord(fields[0])})
		}
		cn.AddSlot(alts)
		for _, rec := range splitAllUnescaped(linkPart, ',') {
			rec = strings.TrimSpace(rec)
			if rec == "" {
				continue
			}
			prob, fields, err := parseRecord(rec, 3)
			if err != nil {
				return nil, err
			}
			end, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, sluerr.DAIParsef("bad long-link end index: %q", rec)
			}
			norm := fields[1] == "1"
			var words []string
			for _, w := range strings.Fields(fields[2]) {
				words = append(words, unescapeWord(w))
			}
			cn.AddLongLink(LongLink{Prob: prob, Words: words, Start: si, End: end, Normalise: norm})
		}
	}
	cn.abstractedIdxs = pendingIdxs
	return cn, nil
}

func parseIndexTuple(tuple string) (Index, error) {
	tuple = strings.TrimPrefix(tuple, "(")
	tuple = strings.TrimSuffix(tuple, ")")
	parts := strings.Split(tuple, ":")
	if len(parts) != 4 {
		return Index{}, sluerr.DAIParsef("bad abstracted-index tuple: %q", tuple)
	}
	nums := make([]int, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Index{}, sluerr.DAIParsef("bad abstracted-index tuple: %q", tuple)
		}
		nums[i] = n
	}
	return Index{Slot: nums[0], Alt: nums[1], Link: nums[2], Pos: nums[3]}, nil
}

// parseRecord parses "(prob:field[:field...])" into the probability and the
// requested number of trailing fields.
func parseRecord(rec string, nfields int) (float64, []string, error) {
	if !strings.HasPrefix(rec, "(") || !strings.HasSuffix(rec, ")") {
		return 0, nil, sluerr.DAIParsef("record is not parenthesized: %q", rec)
	}
	inner := rec[1 : len(rec)-1]
	parts := splitNUnescaped(inner, ':', nfields+1)
	if len(parts) != nfields+1 {
		return 0, nil, sluerr.DAIParsef("record has %d fields, want %d: %q", len(parts), nfields+1, rec)
	}
	prob, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, nil, sluerr.DAIParsef("bad probability in record: %q", rec)
	}
	return prob, parts[1:], nil
}

// splitUnescaped splits s at the first unescaped occurrence of sep.
func splitUnescaped(s string, sep byte) (string, string, error) {
	escaped := false
	for i := 0; i < len(s); i++ {
		if escaped {
			escaped = false
			continue
		}
		if s[i] == '\\' {
			escaped = true
			continue
		}
		if s[i] == sep {
			return s[:i], s[i+1:], nil
		}
	}
	return s, "", fmt.Errorf("separator %q not found", sep)
}

// splitAllUnescaped splits s at every unescaped occurrence of sep.
func splitAllUnescaped(s string, sep byte) []string {
	return splitNUnescaped(s, sep, -1)
}

func splitNUnescaped(s string, sep byte, n int) []string {
	var out []string
	start := 0
	escaped := false
	for i := 0; i < len(s); i++ {
		if escaped {
			escaped = false
			continue
		}
		if s[i] == '\\' {
			escaped = true
			continue
		}
		if s[i] == sep && (n < 0 || len(out) < n-1) {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func truncate(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
