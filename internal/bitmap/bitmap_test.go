package bitmap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildFromBools(t *testing.T, bits []bool) *Bitmap {
	t.Helper()
	b := NewBuilder()
	for _, bit := range bits {
		b.Add(bit)
	}
	return b.Build()
}

func TestRankSelectBasic(t *testing.T) {
	// bitmap_z from the fixture store: "1011"
	bm := buildFromBools(t, []bool{true, false, true, true})
	require.EqualValues(t, 4, bm.Len())
	require.EqualValues(t, 3, bm.Popcount())

	require.EqualValues(t, 0, bm.Rank1(0))
	require.EqualValues(t, 1, bm.Rank1(1))
	require.EqualValues(t, 1, bm.Rank1(2))
	require.EqualValues(t, 2, bm.Rank1(3))
	require.EqualValues(t, 3, bm.Rank1(4))

	p0, ok := bm.Select1(0)
	require.True(t, ok)
	require.EqualValues(t, 0, p0)

	p1, ok := bm.Select1(1)
	require.True(t, ok)
	require.EqualValues(t, 2, p1)

	p2, ok := bm.Select1(2)
	require.True(t, ok)
	require.EqualValues(t, 3, p2)

	_, ok = bm.Select1(3)
	require.False(t, ok)
}

func TestRankSelectAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		n := 1 + rng.Intn(5000)
		bits := make([]bool, n)
		var ones []uint64
		for i := range bits {
			bits[i] = rng.Intn(3) == 0
			if bits[i] {
				ones = append(ones, uint64(i))
			}
		}
		bm := buildFromBools(t, bits)
		require.EqualValues(t, len(ones), bm.Popcount())

		// rank1 at every position
		rank := uint64(0)
		for i := 0; i <= n; i++ {
			require.EqualValues(t, rank, bm.Rank1(uint64(i)), "rank1(%d) trial %d", i, trial)
			if i < n && bits[i] {
				rank++
			}
		}

		for k, want := range ones {
			got, ok := bm.Select1(uint64(k))
			require.True(t, ok)
			require.EqualValues(t, want, got, "select1(%d) trial %d", k, trial)
		}
		_, ok := bm.Select1(uint64(len(ones)))
		require.False(t, ok)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bits := make([]bool, 3000)
	for i := range bits {
		bits[i] = rng.Intn(2) == 0
	}
	bm := buildFromBools(t, bits)

	buf := bm.Serialize(1)
	got, tag, consumed, ok := Deserialize(buf)
	require.True(t, ok)
	require.EqualValues(t, 1, tag)
	require.Equal(t, len(buf), consumed)
	require.Equal(t, bm.Len(), got.Len())
	require.Equal(t, bm.Popcount(), got.Popcount())
	for i := uint64(0); i < bm.Len(); i++ {
		require.Equal(t, bm.Get(i), got.Get(i))
	}
}

func TestDeserializeRejectsCorruption(t *testing.T) {
	bm := buildFromBools(t, []bool{true, true, false, true, false, false, true})
	buf := bm.Serialize(2)
	buf[len(buf)-1] ^= 0xFF // corrupt trailing CRC32 byte
	_, _, _, ok := Deserialize(buf)
	require.False(t, ok)
}

func TestEmptyBitmap(t *testing.T) {
	bm := buildFromBools(t, nil)
	require.EqualValues(t, 0, bm.Len())
	require.EqualValues(t, 0, bm.Popcount())
	_, ok := bm.Select1(0)
	require.False(t, ok)
}
