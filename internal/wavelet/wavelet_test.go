package wavelet

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func bitsNeeded(vals []uint64) int {
	var max uint64
	for _, v := range vals {
		if v > max {
			max = v
		}
	}
	w := 0
	for (uint64(1) << uint(w)) <= max {
		w++
	}
	if w == 0 {
		w = 1
	}
	return w
}

func TestAccessMatchesInput(t *testing.T) {
	// sequence_y from the fixture store: [1,2,1]
	values := []uint64{1, 2, 1}
	m := Build(values, bitsNeeded(values))
	for i, v := range values {
		require.Equal(t, v, m.Access(uint64(i)))
	}
}

func TestRankSelectAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for trial := 0; trial < 15; trial++ {
		n := 1 + rng.Intn(2000)
		alphabet := 1 + rng.Intn(30)
		values := make([]uint64, n)
		for i := range values {
			values[i] = uint64(rng.Intn(alphabet))
		}
		w := bitsNeeded(values)
		m := Build(values, w)

		for i, v := range values {
			require.Equal(t, v, m.Access(uint64(i)), "access(%d) trial %d", i, trial)
		}

		for v := uint64(0); v < uint64(alphabet); v++ {
			var count uint64
			occurrences := []uint64{}
			for i, vv := range values {
				if vv == v {
					count++
					occurrences = append(occurrences, uint64(i))
				}
				require.Equal(t, count, m.Rank(v, uint64(i+1)), "rank(%d,%d) trial %d", v, i+1, trial)
			}
			for k, want := range occurrences {
				got, ok := m.Select(v, uint64(k))
				require.True(t, ok)
				require.Equal(t, want, got, "select(%d,%d) trial %d", v, k, trial)
			}
			_, ok := m.Select(v, count)
			require.False(t, ok)
		}
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	values := []uint64{3, 1, 2, 1, 0, 3, 2, 2, 1}
	m := Build(values, bitsNeeded(values))
	buf := m.Serialize()
	got, ok := Deserialize(buf)
	require.True(t, ok)
	require.Equal(t, m.Width(), got.Width())
	require.Equal(t, m.Len(), got.Len())
	for i, v := range values {
		require.Equal(t, v, got.Access(uint64(i)))
	}
}

func TestEmptyMatrix(t *testing.T) {
	m := Build(nil, 0)
	require.EqualValues(t, 0, m.Len())
	_, ok := m.Select(0, 0)
	require.False(t, ok)
}
