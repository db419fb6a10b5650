package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundDecodeGrid(t *testing.T) {
	grid := [][]string{
		{"cherry", "grape", "bell"},
		{"sun", "sun", "sun"},
	}
	b, err := MarshalDoc(grid)
	require.NoError(t, err)

	r := &Round{Grid: string(b)}
	got, err := r.DecodeGrid()
	require.NoError(t, err)
	assert.Equal(t, grid, got)
}

func TestRoundDecodeGridEmpty(t *testing.T) {
	r := &Round{}
	got, err := r.DecodeGrid()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRoundDecodeGridInvalid(t *testing.T) {
	r := &Round{Grid: "{broken"}
	_, err := r.DecodeGrid()
	assert.Error(t, err)
}

func TestRoundDecodeWinningLines(t *testing.T) {
	type line struct {
		PaylineIndex int    `json:"paylineIndex"`
		Symbol       string `json:"symbol"`
		Count        int    `json:"count"`
	}
	b, err := MarshalDoc([]line{{PaylineIndex: 0, Symbol: "bell", Count: 3}})
	require.NoError(t, err)

	r := &Round{WinningLines: string(b)}
	var got []line
	require.NoError(t, r.DecodeWinningLines(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "bell", got[0].Symbol)
	assert.Equal(t, 3, got[0].Count)
}
