package compliance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCriticalValueLookup(t *testing.T) {
	cases := map[int]float64{
		1:   12.706,
		10:  2.228,
		30:  2.042,
		31:  2.040,
		33:  2.035,
		55:  2.004,
		110: 1.982,
		120: 1.980,
		199: 1.972,
		200: 1.972,
		201: LargeSampleCritical,
		900: LargeSampleCritical,
	}
	for df, want := range cases {
		got, ok := CriticalValue(df)
		require.True(t, ok, "df %d", df)
		require.InDelta(t, want, got, 1e-9, "df %d", df)
	}

	_, ok := CriticalValue(0)
	require.False(t, ok)
}

func TestCriticalValueTableCoversEveryDegreeOfFreedom(t *testing.T) {
	for df := 1; df <= maxTabulatedDF; df++ {
		_, ok := tCritical[df]
		require.True(t, ok, "df %d", df)
	}
	require.Len(t, tCritical, maxTabulatedDF)
}

func TestCriticalValuesConvergeTowardNormal(t *testing.T) {
	prev, _ := CriticalValue(1)
	for df := 2; df <= 250; df++ {
		v, ok := CriticalValue(df)
		require.True(t, ok)
		require.LessOrEqual(t, v, prev, "df %d", df)
		require.GreaterOrEqual(t, v, LargeSampleCritical, "df %d", df)
		prev = v
	}
}
