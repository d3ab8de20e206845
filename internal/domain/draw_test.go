package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrevent/internal/domain"
)

func TestDraw_WithoutDuplicates(t *testing.T) {
	t.Run("three draws exhaust a pool of three", func(t *testing.T) {
		engine := domain.NewDrawEngine(&sequenceRNG{values: []int{0}})
		registry := participants("A", "B", "C")
		engine.Reset(registry)

		for i := 0; i < 3; i++ {
			_, err := engine.Draw("", time.Now())
			require.NoError(t, err)
		}

		winners := engine.Winners()
		assert.Equal(t, []string{"C", "B", "A"}, names(winners), "most recent first")
		assert.Empty(t, engine.Pool())

		_, err := engine.Draw("", time.Now())
		assert.ErrorIs(t, err, domain.ErrEmptyPool)
		assert.Len(t, engine.Winners(), 3, "failed draw leaves winners unchanged")
		assert.False(t, engine.Busy())
	})

	t.Run("pool shrinks by one per draw and winners never repeat", func(t *testing.T) {
		engine := domain.NewDrawEngine(domain.StdRNG{})
		registry := participants("A", "B", "C", "D", "E", "F", "G", "H")
		engine.Reset(registry)

		for n := 1; n <= len(registry); n++ {
			_, err := engine.Draw("", time.Now())
			require.NoError(t, err)
			assert.Len(t, engine.Pool(), len(registry)-n)
		}

		seen := make(map[string]bool)
		for _, w := range engine.Winners() {
			assert.False(t, seen[w.ID], "participant %s drawn twice", w.ID)
			seen[w.ID] = true
		}
		assert.ElementsMatch(t, ids(registry), keys(seen))
	})

	t.Run("removes only the drawn occurrence of a repeated name", func(t *testing.T) {
		engine := domain.NewDrawEngine(&sequenceRNG{values: []int{0}})
		registry := participants("Alice", "Alice", "Bob")
		engine.Reset(registry)

		w, err := engine.Draw("", time.Now())
		require.NoError(t, err)

		assert.Equal(t, registry[0].ID, w.ID)
		assert.Equal(t, []string{registry[1].ID, registry[2].ID}, ids(engine.Pool()))
	})
}

func TestDraw_WithDuplicates(t *testing.T) {
	engine := domain.NewDrawEngine(&sequenceRNG{values: []int{1}})
	registry := participants("A", "B", "C")
	engine.Reset(registry)
	engine.SetAllowDuplicates(true)

	for i := 0; i < 10; i++ {
		w, err := engine.Draw("", time.Now())
		require.NoError(t, err)
		assert.Equal(t, "B", w.Name)
	}

	assert.Len(t, engine.Pool(), 3, "pool is not consulted")
	assert.Len(t, engine.Winners(), 10)

	remaining, limited := engine.Remaining()
	assert.False(t, limited)
	assert.Equal(t, 3, remaining)
}

func TestDraw_DuplicatesIgnoreExhaustedPool(t *testing.T) {
	engine := domain.NewDrawEngine(domain.StdRNG{})
	engine.Reset(participants("A"))

	_, err := engine.Draw("", time.Now())
	require.NoError(t, err)
	_, err = engine.Draw("", time.Now())
	require.ErrorIs(t, err, domain.ErrEmptyPool)

	engine.SetAllowDuplicates(true)
	_, err = engine.Draw("", time.Now())
	assert.NoError(t, err)
}

func TestDraw_EmptyRegistry(t *testing.T) {
	engine := domain.NewDrawEngine(domain.StdRNG{})

	_, err := engine.Draw("", time.Now())
	assert.ErrorIs(t, err, domain.ErrEmptyPool)

	engine.SetAllowDuplicates(true)
	_, err = engine.Draw("", time.Now())
	assert.ErrorIs(t, err, domain.ErrEmptyPool)
}

func TestDraw_BusyGuard(t *testing.T) {
	engine := domain.NewDrawEngine(&sequenceRNG{values: []int{0}})
	engine.Reset(participants("A", "B"))

	require.NoError(t, engine.Begin())
	assert.True(t, engine.Busy())
	assert.ErrorIs(t, engine.Begin(), domain.ErrDrawInProgress)

	_, err := engine.Draw("", time.Now())
	assert.ErrorIs(t, err, domain.ErrDrawInProgress)

	w, err := engine.Commit("Grand prize", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "A", w.Name)
	assert.Equal(t, "Grand prize", w.Prize)
	assert.False(t, engine.Busy())
}

func TestDraw_GlimpseDoesNotCommit(t *testing.T) {
	engine := domain.NewDrawEngine(domain.StdRNG{})
	engine.Reset(participants("A", "B", "C"))
	require.NoError(t, engine.Begin())

	for i := 0; i < 20; i++ {
		p, ok := engine.Glimpse()
		require.True(t, ok)
		assert.Contains(t, []string{"A", "B", "C"}, p.Name)
	}

	assert.Len(t, engine.Pool(), 3)
	assert.Empty(t, engine.Winners())
}

func TestDraw_Reset(t *testing.T) {
	engine := domain.NewDrawEngine(domain.StdRNG{})
	engine.Reset(participants("A", "B"))

	_, err := engine.Draw("", time.Now())
	require.NoError(t, err)

	engine.Restart()
	assert.Len(t, engine.Pool(), 2)
	assert.Empty(t, engine.Winners())
}

func TestDraw_RoughlyUniform(t *testing.T) {
	engine := domain.NewDrawEngine(domain.StdRNG{})
	registry := participants("A", "B", "C", "D")
	engine.Reset(registry)
	engine.SetAllowDuplicates(true)

	counts := make(map[string]int)
	const draws = 4000
	for i := 0; i < draws; i++ {
		w, err := engine.Draw("", time.Now())
		require.NoError(t, err)
		counts[w.Name]++
	}

	for _, name := range []string{"A", "B", "C", "D"} {
		assert.InDelta(t, draws/4, counts[name], draws/10, "count for %s", name)
	}
}

func TestRank(t *testing.T) {
	winners := []domain.Winner{
		{Participant: domain.Participant{Name: "C"}},
		{Participant: domain.Participant{Name: "B"}},
		{Participant: domain.Participant{Name: "A"}},
	}

	ranked := domain.Rank(winners)
	assert.Equal(t, 3, ranked[0].Rank)
	assert.Equal(t, 1, ranked[2].Rank)
}

func names(winners []domain.Winner) []string {
	out := make([]string, len(winners))
	for i, w := range winners {
		out[i] = w.Name
	}
	return out
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
