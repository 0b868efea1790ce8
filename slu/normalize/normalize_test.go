package normalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golangast/transitslu/slu/utterance"
)

func TestUtteranceNormalization(t *testing.T) {
	n := NewTransitEnglish()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "I Want To GO", "i want to go"},
		{"filler removal", "uh i want um to go", "i want to go"},
		{"contraction", "i'm going", "i am going"},
		{"city alias", "take me to nyc", "take me to new york"},
		{"alias collapses", "new york city please", "new york please"},
		{"digit spelling", "at 10", "at ten"},
		{"two digit spelling", "at 45", "at forty five"},
		{"ordinal digits", "on 3rd street", "on third street"},
		{"ordinal suffix", "on 42nd street", "on forty second street"},
		{"noise token", "_noise_ hello", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Utterance(utterance.New(tt.in))
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestUtteranceNormalizationIdempotent(t *testing.T) {
	n := NewTransitEnglish()
	inputs := []string{
		"I'm going to NYC at 10",
		"uh what's the big apple like",
		"leave at 7 p.m.",
	}
	for _, in := range inputs {
		once := n.Utterance(utterance.New(in))
		twice := n.Utterance(once)
		assert.True(t, once.Equal(twice), "input %q: %q != %q", in, once, twice)
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	raw := "rewrites:\n  - [\"cab\", \"taxi\"]\n  - [\"uh\", \"\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	n, err := LoadRules(path)
	require.NoError(t, err)
	got := n.Utterance(utterance.New("uh call me a cab"))
	assert.Equal(t, "call me a taxi", got.String())
}

func TestLoadRulesErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rewrites:\n  - [only_one]\n"), 0o644))
	_, err := LoadRules(bad)
	assert.Error(t, err)

	missingKey := filepath.Join(dir, "missing.yaml")
	require.NoError(t, os.WriteFile(missingKey, []byte("rules: []\n"), 0o644))
	_, err = LoadRules(missingKey)
	assert.Error(t, err)

	_, err = LoadRules(filepath.Join(dir, "nonexistent.yaml"))
	assert.Error(t, err)
}

func TestNBListNormalization(t *testing.T) {
	n := NewTransitEnglish()
	l := utterance.NewNBList()
	l.Add(0.5, utterance.New("i want to go"))
	l.Add(0.3, utterance.New("uh i want to go"))
	l.Add(0.2, utterance.New("i went to go"))

	out := n.NBList(l)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, "i want to go", out.Best().Utt.String())
	assert.InDelta(t, 0.8, out.Best().Prob, 1e-12)
}

func TestConfNetNormalization(t *testing.T) {
	n := NewTransitEnglish()
	cn := utterance.NewConfusionNetwork()
	cn.AddSlot([]utterance.Alternative{{Prob: 0.7, Word: "UH"}, {Prob: 0.3, Word: "a"}})
	cn.AddSlot([]utterance.Alternative{{Prob: 1.0, Word: "NYC"}})

	n.ConfNet(cn)

	assert.Equal(t, utterance.EmptyWord, cn.Slot(0)[0].Word)
	assert.Equal(t, "a", cn.Slot(0)[1].Word)

	// the multi-token target lands in a long link
	require.Len(t, cn.Links(), 1)
	assert.Equal(t, []string{"new", "york"}, cn.Links()[0].Words)
}
