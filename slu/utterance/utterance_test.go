package utterance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFind(t *testing.T) {
	u := New("i want to go from new york to baltimore")
	tests := []struct {
		name   string
		phrase []string
		want   int
	}{
		{"single word", []string{"want"}, 1},
		{"phrase", []string{"new", "york"}, 5},
		{"first of repeated word", []string{"to"}, 2},
		{"absent", []string{"boston"}, -1},
		{"broken phrase", []string{"york", "baltimore"}, -1},
		{"empty phrase", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := u.Find(tt.phrase); got != tt.want {
				t.Errorf("Find(%v) = %d, want %d", tt.phrase, got, tt.want)
			}
		})
	}
}

func TestReplaceDoesNotMutateReceiver(t *testing.T) {
	u := New("go to new york")
	v := u.Replace([]string{"new", "york"}, []string{"CITY=New York"})
	assert.Equal(t, "go to new york", u.String())
	assert.Equal(t, "go to CITY=New York", v.String())
}

func TestReplaceArityChanges(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		phrase      []string
		replacement []string
		want        string
	}{
		{"shrink", "the big apple please", []string{"big", "apple"}, []string{"york"}, "the york please"},
		{"grow", "nyc please", []string{"nyc"}, []string{"new", "york"}, "new york please"},
		{"remove", "uh hello", []string{"uh"}, nil, "hello"},
		{"absent leaves unchanged", "hello there", []string{"bye"}, []string{"x"}, "hello there"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.text).Replace(tt.phrase, tt.replacement)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestReplaceAll(t *testing.T) {
	u := New("to go to the to")
	got := u.ReplaceAll([]string{"to"}, []string{"TO"})
	assert.Equal(t, "TO go TO the TO", got.String())

	// replacement re-containing the source must not loop
	got = New("a a").ReplaceAll([]string{"a"}, []string{"a", "a"})
	assert.Equal(t, "a a a a", got.String())
}

func TestNGramsWithBoundaries(t *testing.T) {
	u := New("ten o'clock")
	var got []string
	u.NGrams(2, true, func(ng []string) {
		got = append(got, strings.Join(ng, " "))
	})
	want := []string{"<s> ten", "ten o'clock", "o'clock </s>"}
	assert.Equal(t, want, got)
}

func TestNGramsLongerThanUtterance(t *testing.T) {
	u := New("hello")
	calls := 0
	u.NGrams(3, false, func([]string) { calls++ })
	assert.Zero(t, calls)
}
