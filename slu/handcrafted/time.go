package handcrafted

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golangast/transitslu/slu/utterance"
)

// timeMention is one detected time expression, in minutes, plus whether it
// is relative ("in five minutes") and the token index it ends at.
type timeMention struct {
	minutes  int
	relative bool
	endIdx   int
}

// renderTime renders minutes as the canonical H:MM form.
func renderTime(minutes int) string {
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

// numberAt returns the numeric value of an abstracted NUMBER token, or
// -1 when the token is something else.
func numberAt(tokens []string, i int) int {
	if i < 0 || i >= len(tokens) {
		return -1
	}
	typ, val := utterance.SplitTypeVal(tokens[i])
	if typ != "NUMBER" {
		return -1
	}
	v, err := strconv.Atoi(val)
	if err != nil {
		return -1
	}
	return v
}

// timeAt returns the minutes of an abstracted TIME token, or -1.
func timeAt(tokens []string, i int) int {
	if i < 0 || i >= len(tokens) {
		return -1
	}
	typ, val := utterance.SplitTypeVal(tokens[i])
	if typ != "TIME" {
		return -1
	}
	h, m, found := strings.Cut(val, ":")
	if !found {
		return -1
	}
	hv, err1 := strconv.Atoi(h)
	mv, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil {
		return -1
	}
	return hv*60 + mv
}

func wordsAt(tokens []string, i int, words ...string) bool {
	if i+len(words) > len(tokens) {
		return false
	}
	for j, w := range words {
		if tokens[i+j] != w {
			return false
		}
	}
	return true
}

// findTimes runs the deterministic token-stream state machine that folds
// NUMBER and TIME tokens, "quarter"/"half" constructions and relative
// forms into canonical minute counts.
func findTimes(tokens []string) []timeMention {
	var out []timeMention
	i := 0
	for i < len(tokens) {
		relative := tokens[i] == "in" // "in five minutes", "in half an hour"
		base := i
		if relative {
			base = i + 1
		}
		// half an hour
		if wordsAt(tokens, base, "half", "an", "hour") {
			out = append(out, timeMention{minutes: 30, relative: relative, endIdx: base + 3})
			i = base + 3
			continue
		}
		// an hour
		if wordsAt(tokens, base, "an", "hour") {
			out = append(out, timeMention{minutes: 60, relative: relative, endIdx: base + 2})
			i = base + 2
			continue
		}
		if t := timeAt(tokens, base); t >= 0 {
			out = append(out, timeMention{minutes: t, relative: relative, endIdx: base + 1})
			i = base + 1
			continue
		}
		if n := numberAt(tokens, base); n >= 0 {
			switch {
			case wordsAt(tokens, base+1, "hours", "and", "a", "half") ||
				wordsAt(tokens, base+1, "hour", "and", "a", "half"):
				out = append(out, timeMention{minutes: n*60 + 30, relative: relative, endIdx: base + 5})
				i = base + 5
			case wordsAt(tokens, base+1, "and", "a", "half", "hours"):
				out = append(out, timeMention{minutes: n*60 + 30, relative: relative, endIdx: base + 5})
				i = base + 5
			case wordsAt(tokens, base+1, "o'clock"):
				out = append(out, timeMention{minutes: n * 60, relative: relative, endIdx: base + 2})
				i = base + 2
			case wordsAt(tokens, base+1, "hours") || wordsAt(tokens, base+1, "hour"):
				out = append(out, timeMention{minutes: n * 60, relative: relative, endIdx: base + 2})
				i = base + 2
			case wordsAt(tokens, base+1, "minutes") || wordsAt(tokens, base+1, "minute"):
				out = append(out, timeMention{minutes: n, relative: true, endIdx: base + 2})
				i = base + 2
			case numberAt(tokens, base+1) >= 0 && numberAt(tokens, base+1) < 60 && n <= 23:
				// consecutive NUMBER tokens fold into H:MM
				m := numberAt(tokens, base+1)
				out = append(out, timeMention{minutes: n*60 + m, relative: relative, endIdx: base + 2})
				i = base + 2
			case wordsAt(tokens, base+1, "quarter") && n <= 23:
				// "ten quarter" style is not spoken; skip the bare number
				i = base + 1
			default:
				i = base + 1
			}
			continue
		}
		// quarter past / quarter to NUMBER (when the database did not fold it)
		if wordsAt(tokens, base, "quarter", "past") {
			if h := numberAt(tokens, base+2); h >= 0 {
				out = append(out, timeMention{minutes: h*60 + 15, relative: relative, endIdx: base + 3})
				i = base + 3
				continue
			}
		}
		if wordsAt(tokens, base, "quarter", "to") {
			if h := numberAt(tokens, base+2); h >= 1 {
				out = append(out, timeMention{minutes: (h-1)*60 + 45, relative: relative, endIdx: base + 3})
				i = base + 3
				continue
			}
		}
		if wordsAt(tokens, base, "half", "past") {
			if h := numberAt(tokens, base+2); h >= 0 {
				out = append(out, timeMention{minutes: h*60 + 30, relative: relative, endIdx: base + 3})
				i = base + 3
				continue
			}
		}
		i++
	}
	return out
}
