package qualify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStateSouthCarolina(t *testing.T) {
	state, err := LoadState("sc")
	require.NoError(t, err)

	assert.Equal(t, "South Carolina", state.Name)
	assert.Equal(t, "SC", state.Abbreviation)
	assert.Len(t, state.Counties, 46)
	assert.Contains(t, state.Counties, "charleston")
	assert.Equal(t, []string{"charleston", "berkeley", "dorchester"}, state.PreferredCounties)
	assert.Equal(t, 3, state.SOLYears)
	assert.Contains(t, state.MajorMetros, Metro{City: "mount pleasant", County: "charleston"})
}

func TestLoadStateUnknown(t *testing.T) {
	_, err := LoadState("ZZ")
	assert.Error(t, err)
}

func TestAvailableStates(t *testing.T) {
	states := AvailableStates()
	assert.Contains(t, states, "SC")
}
