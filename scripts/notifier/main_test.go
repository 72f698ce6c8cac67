package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	events, passes, err := read(strings.NewReader("UPDATE_CARD,pass-1\nDELETE_CARD,pass-2\n"))
	require.NoError(t, err)
	require.Equal(t, []string{`UPDATE_CARD`, `DELETE_CARD`}, events)
	require.Equal(t, []string{`pass-1`, `pass-2`}, passes)
}

func TestRead_MalformedRows(t *testing.T) {
	for _, in := range []string{
		"UPDATE_CARD\n",
		"UPDATE_CARD,pass-1\nDELETE_CARD\n",
		"UPDATE_CARD,pass-1,extra\n",
	} {
		require.NotPanics(t, func() {
			_, _, err := read(strings.NewReader(in))
			require.Error(t, err, in)
		})
	}
}

func TestAverage(t *testing.T) {
	avg, ok := average([]int64{10, 20})
	require.True(t, ok)
	require.EqualValues(t, 15, avg)

	_, ok = average(nil)
	require.False(t, ok)
}
