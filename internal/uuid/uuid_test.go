package uuid

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Lifecycle(t *testing.T) {
	var g Generator

	_, err := g.Generate()
	require.Error(t, err, "generate before init must fail")

	g.Init(1)
	u, err := g.Generate()
	require.NoError(t, err)
	assert.NotEqual(t, UUID{}, u)

	g.Shutdown()
	_, err = g.Generate()
	assert.Error(t, err, "generate after shutdown must fail")

	// Init brings the generator back.
	g.Init(2)
	_, err = g.Generate()
	assert.NoError(t, err)
}

func TestGenerator_Layout(t *testing.T) {
	var g Generator
	g.Init(42)

	u, err := g.Generate()
	require.NoError(t, err)

	// The version bits are folded into TIME_HI.
	hi := uint16(u[6])<<8 | uint16(u[7])
	assert.NotZero(t, hi&version)

	// The node identity is stable across calls.
	v, err := g.Generate()
	require.NoError(t, err)
	assert.Equal(t, u[8:16], v[8:16])
}

func TestGenerator_MonotonicWithinGranule(t *testing.T) {
	var g Generator
	g.Init(7)

	var last uint64
	for i := 0; i < 10000; i++ {
		u, err := g.Generate()
		require.NoError(t, err)
		prefix := u.TimePrefix()
		assert.Greater(t, prefix, last, "time prefix must strictly increase")
		last = prefix
	}
}

func TestGenerator_UniqueUnderContention(t *testing.T) {
	const workers = 8
	const perWorker = 2000

	var g Generator
	g.Init(99)

	results := make([][]UUID, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			out := make([]UUID, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				u, err := g.Generate()
				if err != nil {
					t.Error(err)
					return
				}
				out = append(out, u)
			}
			results[w] = out
		}(w)
	}
	wg.Wait()

	seen := make(map[UUID]bool, workers*perWorker)
	for w, out := range results {
		require.Len(t, out, perWorker)
		var last uint64
		for _, u := range out {
			assert.False(t, seen[u], "duplicate identifier")
			seen[u] = true

			prefix := u.TimePrefix()
			assert.Greater(t, prefix, last, "worker %d saw a non-increasing prefix", w)
			last = prefix
		}
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestGlobalGenerator(t *testing.T) {
	Init(5)
	defer Shutdown()

	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
