package opindex

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildE1(t *testing.T) {
	// sequence_z from the fixture store: [1,2,3,1]
	idx := Build([]uint64{1, 2, 3, 1})
	require.EqualValues(t, 3, idx.ObjectCount())

	require.Equal(t, []uint64{0, 3}, idx.PositionsForObject(1))
	require.Equal(t, []uint64{1}, idx.PositionsForObject(2))
	require.Equal(t, []uint64{2}, idx.PositionsForObject(3))
}

func TestFindLastOp(t *testing.T) {
	idx := Build([]uint64{1, 2, 3, 1})
	start, ok := idx.FindOp(1)
	require.True(t, ok)
	require.EqualValues(t, 0, start)
	last, ok := idx.LastOp(1)
	require.True(t, ok)
	require.EqualValues(t, 1, last)

	start, ok = idx.FindOp(3)
	require.True(t, ok)
	last, ok = idx.LastOp(3)
	require.True(t, ok)
	require.Equal(t, start, last)
}

func TestOutOfRange(t *testing.T) {
	idx := Build([]uint64{1, 2, 3, 1})
	_, ok := idx.FindOp(0)
	require.False(t, ok)
	_, ok = idx.FindOp(4)
	require.False(t, ok)
}

func TestAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 10; trial++ {
		n := 1 + rng.Intn(20)
		maxObj := uint64(1 + rng.Intn(5))
		seqZ := make([]uint64, n)
		for i := range seqZ {
			seqZ[i] = 1 + uint64(rng.Intn(int(maxObj)))
		}
		// Ensure every object in [1,maxObj] occurs at least once, matching
		// the invariant Build relies on.
		for o := uint64(1); o <= maxObj; o++ {
			seqZ = append(seqZ, o)
		}

		idx := Build(seqZ)
		for o := uint64(1); o <= idx.ObjectCount(); o++ {
			var want []uint64
			for pos, v := range seqZ {
				if v == o {
					want = append(want, uint64(pos))
				}
			}
			require.Equal(t, want, idx.PositionsForObject(o), "trial %d object %d", trial, o)
		}
	}
}
