package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golangast/transitslu/slu/cldb"
	"github.com/golangast/transitslu/slu/da"
	"github.com/golangast/transitslu/slu/handcrafted"
	"github.com/golangast/transitslu/slu/normalize"
	"github.com/golangast/transitslu/slu/utterance"
)

// echoSLU answers with one inform carrying the whole utterance text.
type echoSLU struct{}

func (echoSLU) Parse(u *utterance.Utterance) (*da.ConfusionNetwork, error) {
	out := da.NewConfusionNetwork()
	out.Add(1.0, da.NewItem("inform", "text", u.String()))
	return out, nil
}

func TestObserveClassifiesPayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    Kind
	}{
		{"string", "hello there", KindUtterance},
		{"utterance", utterance.New("hello"), KindUtterance},
		{"nblist", utterance.NewNBList(), KindNBList},
		{"confnet", utterance.NewConfusionNetwork(), KindConfNet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := Observe(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.want, obs.Kind())
		})
	}

	_, err := Observe(42)
	assert.Error(t, err)
}

func TestDispatchUtterance(t *testing.T) {
	d := NewDispatcher(echoSLU{})
	obs, err := Observe("go home")
	require.NoError(t, err)

	dac, err := d.Parse(context.Background(), obs)
	require.NoError(t, err)
	assert.Equal(t, `inform(text="go home")`, dac.GetBestDA().String())
}

func TestDispatchNonSpeechBypassesSLU(t *testing.T) {
	d := NewDispatcher(echoSLU{})
	tests := []struct {
		text string
		want string
	}{
		{utterance.OtherToken, "other()"},
		{utterance.SilenceToken, "silence()"},
	}
	for _, tt := range tests {
		obs, err := Observe(tt.text)
		require.NoError(t, err)
		dac, err := d.Parse(context.Background(), obs)
		require.NoError(t, err)
		assert.Equal(t, tt.want, dac.GetBestDA().String())
	}
}

func TestDispatchNBListWeightsHypotheses(t *testing.T) {
	nbl := utterance.NewNBList()
	nbl.Add(0.7, utterance.New("go home"))
	nbl.Add(0.3, utterance.New("no home"))

	d := NewDispatcher(echoSLU{})
	obs, err := Observe(nbl)
	require.NoError(t, err)

	dac, err := d.Parse(context.Background(), obs)
	require.NoError(t, err)

	probs := map[string]float64{}
	for _, h := range dac.Hyps() {
		probs[h.Item.String()] = h.Prob
	}
	assert.InDelta(t, 0.7, probs[`inform(text="go home")`], 1e-9)
	assert.InDelta(t, 0.3, probs[`inform(text="no home")`], 1e-9)
}

func TestDispatchNBListOtherHypothesis(t *testing.T) {
	nbl := utterance.NewNBList()
	nbl.Add(0.8, utterance.New("go home"))
	require.NoError(t, nbl.AddOther())

	d := NewDispatcher(echoSLU{})
	obs, err := Observe(nbl)
	require.NoError(t, err)

	dac, err := d.Parse(context.Background(), obs)
	require.NoError(t, err)

	probs := map[string]float64{}
	for _, h := range dac.Hyps() {
		probs[h.Item.String()] = h.Prob
	}
	assert.InDelta(t, 0.2, probs["other()"], 1e-9)
}

func TestDispatchConfNetExpands(t *testing.T) {
	cn := utterance.NewConfusionNetwork()
	cn.AddSlot([]utterance.Alternative{{Prob: 0.6, Word: "go"}, {Prob: 0.4, Word: "no"}})
	cn.AddSlot([]utterance.Alternative{{Prob: 1.0, Word: "home"}})

	d := NewDispatcher(echoSLU{}, WithExpansionDepth(10))
	obs, err := Observe(cn)
	require.NoError(t, err)

	dac, err := d.Parse(context.Background(), obs)
	require.NoError(t, err)

	probs := map[string]float64{}
	for _, h := range dac.Hyps() {
		probs[h.Item.String()] = h.Prob
	}
	assert.InDelta(t, 0.6, probs[`inform(text="go home")`], 1e-9)
	assert.InDelta(t, 0.4, probs[`inform(text="no home")`], 1e-9)
}

func TestDispatchScopesTimeCueToObservation(t *testing.T) {
	db := cldb.NewEmpty()
	db.AddNumberForms()
	db.AddTimeForms()
	db.BuildIndices()
	d := NewDispatcher(handcrafted.NewParser(db, normalize.NewTransitEnglish()))

	obs, err := Observe("leaving at eight o'clock")
	require.NoError(t, err)
	dac, err := d.Parse(context.Background(), obs)
	require.NoError(t, err)
	assert.Equal(t, "inform(departure_time=8:00)", dac.GetBestDA().String())

	// a fresh observation must not inherit the departure cue
	obs, err = Observe("at nine o'clock")
	require.NoError(t, err)
	dac, err = d.Parse(context.Background(), obs)
	require.NoError(t, err)
	assert.Equal(t, "inform(time=9:00)", dac.GetBestDA().String())
}

func TestDispatchEmptyObservation(t *testing.T) {
	d := NewDispatcher(echoSLU{})
	_, err := d.Parse(context.Background(), &Observation{})
	assert.Error(t, err)
}
