package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGazetteerLookup(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantName string
		wantKm   float64
		wantOK   bool
	}{
		{"plain name", "kondele", "kondele", 4, true},
		{"mixed case", "KONDELE", "kondele", 4, true},
		{"embedded in sentence", "I stay near Kondele junction", "kondele", 4, true},
		{"two-word place", "kendu bay side", "kendu bay", 70, true},
		{"longest name wins", "paw akuche", "paw akuche", 16, true},
		{"unknown place", "nakuru town hall", "town", 1, true},
		{"nothing known", "somewhere in the village", "", 0, false},
		{"no partial word match", "mamboleopolis", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, km, ok := GazetteerLookup(tt.text)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantName, name)
				assert.Equal(t, tt.wantKm, km)
			}
		})
	}
}

func TestGazetteerLongestMatchShadowsShorter(t *testing.T) {
	// "siaya" and "bondo" are both known; the longer multi-word name
	// must win when a shorter one is embedded in it.
	name, km, ok := GazetteerLookup("take it to paw akuche please")
	require.True(t, ok)
	assert.Equal(t, "paw akuche", name)
	assert.Equal(t, 16.0, km)
}
