package sluerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		name string
		err  *SLUError
		kind Kind
	}{
		{"configuration", Configurationf("bad %s", "backend"), KindConfiguration},
		{"dai parse", DAIParsef("bad item %q", "x("), KindDAIParse},
		{"invariant", Invariantf("mass %f exceeds 1", 1.5), KindInvariant},
		{"generic", New("something"), KindGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk gone")
	err := Wrap(cause, "cannot save model")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "cannot save model")
	assert.Contains(t, err.Error(), "disk gone")
}

func TestIsConfiguration(t *testing.T) {
	err := fmt.Errorf("outer: %w", Configurationf("no database"))
	assert.True(t, IsConfiguration(err))
	assert.False(t, IsConfiguration(errors.New("plain")))

	var sluErr *SLUError
	require.True(t, errors.As(err, &sluErr))
	assert.Equal(t, KindConfiguration, sluErr.Kind)
}
