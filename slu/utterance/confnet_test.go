package utterance

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeByThree() *ConfusionNetwork {
	cn := NewConfusionNetwork()
	cn.AddSlot([]Alternative{{0.9, "i"}, {0.06, "hi"}, {0.04, "my"}})
	cn.AddSlot([]Alternative{{0.8, "want"}, {0.15, "went"}, {0.05, "what"}})
	cn.AddSlot([]Alternative{{0.7, "coffee"}, {0.2, "toffee"}, {0.1, "tea"}})
	return cn
}

func TestGetUtteranceNBListBestFirst(t *testing.T) {
	cn := threeByThree()
	nbl := cn.GetUtteranceNBList(8)

	require.Equal(t, 8, nbl.Len())
	assert.Equal(t, "i want coffee", nbl.Best().Utt.String())
	assert.InDelta(t, 0.9*0.8*0.7, nbl.Best().Prob, 1e-9)

	// raw joint probabilities come out monotonically non-increasing
	for i := 1; i < nbl.Len(); i++ {
		assert.LessOrEqual(t, nbl.Hyp(i).Prob, nbl.Hyp(i-1).Prob)
	}

	require.NoError(t, nbl.Normalise())
	total := 0.0
	for i := 0; i < nbl.Len(); i++ {
		total += nbl.Hyp(i).Prob
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestGetUtteranceNBListSkipsEmptyWord(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.AddSlot([]Alternative{{0.6, "go"}, {0.4, EmptyWord}})
	cn.AddSlot([]Alternative{{1.0, "home"}})
	nbl := cn.GetUtteranceNBList(4)

	require.Equal(t, 2, nbl.Len())
	assert.Equal(t, "go home", nbl.Best().Utt.String())
	assert.Equal(t, "home", nbl.Hyp(1).Utt.String())
	assert.InDelta(t, 0.4, nbl.Hyp(1).Prob, 1e-12)
}

func TestReplaceCreatesLongLink(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.AddSlot([]Alternative{{0.9, "new"}, {0.1, "knew"}})
	cn.AddSlot([]Alternative{{0.8, "york"}, {0.2, "fork"}})

	idx := cn.Replace([]string{"new", "york"}, []string{"CITY=New York"})
	require.GreaterOrEqual(t, idx.Link, 0)

	links := cn.Links()
	require.Len(t, links, 1)
	assert.Equal(t, []string{"CITY=New York"}, links[0].Words)
	assert.Equal(t, 0, links[0].Start)
	assert.Equal(t, 2, links[0].End)
	assert.InDelta(t, 0.72, links[0].Prob, 1e-12)
	assert.True(t, links[0].Normalise)
}

func TestReplaceSingleWordInPlace(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.AddSlot([]Alternative{{0.7, "nyc"}, {0.3, "nick"}})
	idx := cn.Replace([]string{"nyc"}, []string{"york"})

	assert.Equal(t, -1, idx.Link)
	assert.Equal(t, "york", cn.Word(idx))
	assert.Empty(t, cn.Links())
}

func TestGetPhraseIdxsThroughLink(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.AddSlot([]Alternative{{0.5, "to"}})
	cn.AddSlot([]Alternative{{0.5, "x"}})
	cn.AddSlot([]Alternative{{1.0, "city"}})
	cn.AddLongLink(LongLink{Prob: 0.4, Words: []string{"new", "york"}, Start: 1, End: 2})

	idxs := cn.GetPhraseIdxs([]string{"to", "new", "york", "city"})
	require.Len(t, idxs, 4)
	assert.Equal(t, -1, idxs[0].Link)
	assert.GreaterOrEqual(t, idxs[1].Link, 0)
	assert.Equal(t, 0, idxs[1].Pos)
	assert.Equal(t, 1, idxs[2].Pos)
	assert.Equal(t, -1, idxs[3].Link)
}

func TestNGramsCrossLinkBoundary(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.AddSlot([]Alternative{{1.0, "to"}})
	cn.AddSlot([]Alternative{{0.6, "newark"}})
	cn.AddLongLink(LongLink{Prob: 0.4, Words: []string{"new", "york"}, Start: 1, End: 2})

	got := map[string]float64{}
	cn.NGrams(2, func(ng []string, prob float64) {
		got[strings.Join(ng, " ")] += prob
	})

	assert.InDelta(t, 0.6, got["to newark"], 1e-12)
	assert.InDelta(t, 0.4, got["to new"], 1e-12)
	assert.InDelta(t, 0.4, got["new york"], 1e-12)
	assert.NotContains(t, got, "york to")
}

func TestNGramsFromLinkSuffix(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.AddSlot([]Alternative{{1.0, "nyc"}})
	cn.AddSlot([]Alternative{{1.0, "city"}})
	cn.Replace([]string{"nyc"}, []string{"new", "york"})

	got := map[string]float64{}
	cn.NGrams(2, func(ng []string, prob float64) {
		got[strings.Join(ng, " ")] += prob
	})

	// bigrams starting inside the link continue past its end
	assert.InDelta(t, 1.0, got["york city"], 1e-12)
	assert.InDelta(t, 1.0, got["new york"], 1e-12)
}

func TestPruneRepairsSlots(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.AddSlot([]Alternative{{0.9, "go"}, {0.1, "no"}})
	cn.AddSlot([]Alternative{{0.999, EmptyWord}, {0.001, "uh"}})
	cn.AddSlot([]Alternative{{1.0, "home"}})
	cn.AddLongLink(LongLink{Prob: 0.5, Words: []string{"go", "on"}, Start: 0, End: 2})

	cn.Prune(0.01)

	require.Equal(t, 2, cn.Len())
	assert.Equal(t, "go", cn.Slot(0)[0].Word)
	assert.Equal(t, "home", cn.Slot(1)[0].Word)
	require.Len(t, cn.Links(), 1)
	assert.Equal(t, 0, cn.Links()[0].Start)
	assert.Equal(t, 1, cn.Links()[0].End)
}

func TestNormaliseWithLinkMass(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.AddSlot([]Alternative{{0.3, "new"}, {0.3, "knew"}})
	cn.AddSlot([]Alternative{{0.6, "york"}})
	cn.AddLongLink(LongLink{Prob: 0.4, Words: []string{"newark"}, Start: 0, End: 2, Normalise: true})

	require.NoError(t, cn.Normalise())
	for i := 0; i < cn.Len(); i++ {
		mass := 0.4
		for _, alt := range cn.Slot(i) {
			mass += alt.Prob
		}
		assert.InDelta(t, 1.0, mass, 1e-9, "slot %d", i)
	}
}

func TestNormaliseRejectsExcessLinkMass(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.AddSlot([]Alternative{{0.5, "a"}})
	cn.AddLongLink(LongLink{Prob: 0.7, Words: []string{"x"}, Start: 0, End: 1, Normalise: true})
	cn.AddLongLink(LongLink{Prob: 0.6, Words: []string{"y"}, Start: 0, End: 1, Normalise: true})
	assert.Error(t, cn.Normalise())
}

func TestConfusionNetworkTextRoundTrip(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.AddSlot([]Alternative{{0.9, "go"}, {0.1, EmptyWord}})
	cn.AddSlot([]Alternative{{0.6, "to:home"}, {0.4, "(x)"}})
	cn.AddLongLink(LongLink{Prob: 0.25, Words: []string{"go", "on"}, Start: 0, End: 2, Normalise: true})
	cn.MarkAbstracted(WordIndex(1, 0))

	parsed, err := ParseConfusionNetwork(cn.String())
	require.NoError(t, err)

	require.Equal(t, cn.Len(), parsed.Len())
	for i := 0; i < cn.Len(); i++ {
		assert.Equal(t, cn.Slot(i), parsed.Slot(i), "slot %d", i)
	}
	require.Len(t, parsed.Links(), 1)
	assert.Equal(t, cn.Links()[0].Words, parsed.Links()[0].Words)
	assert.Equal(t, cn.Links()[0].End, parsed.Links()[0].End)
	assert.True(t, parsed.Links()[0].Normalise)
	assert.Equal(t, cn.AbstractedIdxs(), parsed.AbstractedIdxs())
}

func TestParseConfusionNetworkRejectsGarbage(t *testing.T) {
	for _, text := range []string{"", "no header", "[(1:2:3)]"} {
		_, err := ParseConfusionNetwork(text)
		assert.Error(t, err, "input %q", text)
	}
}

func TestSortAlternatives(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.AddSlot([]Alternative{{0.1, "a"}, {0.7, "b"}, {0.2, "c"}})
	cn.SortAlternatives()

	probs := make([]float64, 0, 3)
	for _, alt := range cn.Slot(0) {
		probs = append(probs, alt.Prob)
	}
	assert.True(t, sort.SliceIsSorted(probs, func(i, j int) bool { return probs[i] > probs[j] }))
	assert.Equal(t, "b", cn.Slot(0)[0].Word)
}
