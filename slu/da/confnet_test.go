package da

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMergeModes(t *testing.T) {
	tests := []struct {
		name string
		mode MergeMode
		want float64
	}{
		{"add sums", MergeAdd, 0.7},
		{"max keeps larger", MergeMax, 0.4},
		{"overwrite replaces", MergeOverwrite, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cn := NewConfusionNetwork()
			cn.AddMerge(0.4, NewItem("inform", "to_city", "Boston"), tt.mode, 1.0)
			cn.AddMerge(0.3, NewItem("inform", "to_city", "Boston"), tt.mode, 1.0)
			require.Equal(t, 1, cn.Len())
			assert.InDelta(t, tt.want, cn.Hyp(0).Prob, 1e-12)
		})
	}
}

func TestAddMergeCapsBelowOne(t *testing.T) {
	cn := NewConfusionNetwork()
	it := NewItem("affirm", "", "")
	cn.AddMerge(0.9, it, MergeAdd, 1.0)
	cn.AddMerge(0.9, it, MergeAdd, 1.0)
	assert.Less(t, cn.Hyp(0).Prob, 1.0)
}

func TestGetBestDA(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.Add(0.9, NewItem("inform", "to_city", "Boston"))
	cn.Add(0.6, NewItem("inform", "task", "find_connection"))
	cn.Add(0.3, NewItem("request", "duration", ""))

	best := cn.GetBestDA()
	assert.Equal(t, "inform(task=find_connection)&inform(to_city=Boston)", best.String())
}

func TestGetBestDAFallsBackToNull(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.Add(0.2, NewItem("inform", "to_city", "Boston"))
	assert.Equal(t, "null()", cn.GetBestDA().String())

	nonNull := cn.GetBestNonNullDA()
	assert.Equal(t, "inform(to_city=Boston)", nonNull.String())
}

func TestGetBestDAHyp(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.Add(0.8, NewItem("inform", "to_city", "Boston"))
	cn.Add(0.4, NewItem("request", "duration", ""))

	prob, d := cn.GetBestDAHyp(0.5, false)
	assert.Equal(t, "inform(to_city=Boston)", d.String())
	assert.InDelta(t, 0.8*0.6, prob, 1e-12)
}

func TestGetDANBList(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.Add(0.8, NewItem("inform", "to_city", "Boston"))
	cn.Add(0.3, NewItem("request", "duration", ""))

	nbl, err := cn.GetDANBList(3)
	require.NoError(t, err)
	require.Equal(t, 4, nbl.Len())

	best := nbl.Best()
	assert.Equal(t, "inform(to_city=Boston)", best.DA.String())
	assert.InDelta(t, 0.8*0.7, best.Prob, 1e-12)

	// residual mass lands on other()
	last := nbl.Hyp(nbl.Len() - 1)
	assert.Equal(t, "other()", last.DA.String())

	total := 0.0
	for i := 0; i < nbl.Len(); i++ {
		total += nbl.Hyp(i).Prob
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestNormaliseBySlot(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.Add(0.9, NewItem("inform", "to_city", "Boston"))
	cn.Add(0.6, NewItem("inform", "to_city", "Baltimore"))
	cn.Add(0.8, NewItem("inform", "from_city", "Philadelphia"))

	require.NoError(t, cn.NormaliseBySlot())
	assert.InDelta(t, 0.6, cn.Hyp(0).Prob, 1e-12)
	assert.InDelta(t, 0.4, cn.Hyp(1).Prob, 1e-12)
	// a lone value group under unit mass is untouched
	assert.InDelta(t, 0.8, cn.Hyp(2).Prob, 1e-12)
}

func TestNormaliseBySlotCapsSlotlessItems(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.Add(1.0, NewItem("thankyou", "", ""))
	cn.Add(1.0, NewItem("request", "duration", ""))
	cn.Add(1.0, NewItem("inform", "to_city", "Boston"))

	require.NoError(t, cn.NormaliseBySlot())
	for _, h := range cn.Hyps() {
		assert.Less(t, h.Prob, 1.0, "item %s", h.Item)
	}
}

func TestNormaliseBySlotRejectsNegative(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.Add(-0.1, NewItem("inform", "to_city", "Boston"))
	assert.Error(t, cn.NormaliseBySlot())
}

func TestConfusionNetworkSerialization(t *testing.T) {
	cn := NewConfusionNetwork()
	cn.Add(0.75, NewItem("inform", "time", "10:00"))
	cn.Add(0.25, NewItem("request", "departure_time", ""))

	parsed, err := ParseConfusionNetwork(cn.String())
	require.NoError(t, err)
	require.Equal(t, 2, parsed.Len())
	assert.True(t, parsed.Hyp(0).Item.Equal(cn.Hyp(0).Item))
	assert.InDelta(t, 0.75, parsed.Hyp(0).Prob, 1e-9)
	assert.Equal(t, "10:00", parsed.Hyp(0).Item.Value)
}
