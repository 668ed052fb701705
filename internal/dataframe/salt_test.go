package dataframe

import (
	"strconv"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/mandrill/internal/config"
	dferrors "github.com/paveg/mandrill/internal/errors"
	"github.com/paveg/mandrill/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomSaltSource(t *testing.T) {
	t.Run("indices stay in range", func(t *testing.T) {
		src := NewUnseededSaltSource()
		for i := 0; i < 1000; i++ {
			idx := src.Index("k", i, 8)
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, 8)
		}
	})

	t.Run("same seed reproduces the sequence", func(t *testing.T) {
		a := NewRandomSaltSource(42)
		b := NewRandomSaltSource(42)
		for i := 0; i < 100; i++ {
			assert.Equal(t, a.Index("k", i, 16), b.Index("k", i, 16))
		}
	})
}

func TestHashSaltSource(t *testing.T) {
	src := HashSaltSource{}

	t.Run("deterministic", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			assert.Equal(t, src.Index("hot", i, 8), src.Index("hot", i, 8))
		}
	})

	t.Run("spreads rows of one key", func(t *testing.T) {
		seen := make(map[int]bool)
		for i := 0; i < 200; i++ {
			seen[src.Index("hot", i, 8)] = true
		}
		// 200 rows over 8 sub-partitions should hit more than one.
		assert.Greater(t, len(seen), 1)
	})

	t.Run("indices stay in range", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			idx := src.Index("k", i, 5)
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, 5)
		}
	})
}

func TestSaltSkewed(t *testing.T) {
	mem := memory.NewGoAllocator()
	salter := NewSalter(4, NewRandomSaltSource(1))

	df := New(
		series.New("k", []string{"hot", "hot", "cold"}, mem),
		series.New("v", []int64{1, 2, 3}, mem),
	)

	out, err := salter.SaltSkewed(df, "k")
	require.NoError(t, err)

	// One row per input row, original columns intact, salted key appended.
	require.Equal(t, 3, out.Len())
	assert.Equal(t, []string{"k", "v", "k__salted"}, out.Columns())

	k, _ := out.Column("k")
	salted, _ := out.Column("k__salted")
	delim := config.GetGlobalConfig().SaltDelimiter
	for i := 0; i < out.Len(); i++ {
		key := k.GetAsString(i)
		parts := strings.Split(salted.GetAsString(i), delim)
		require.Len(t, parts, 2, "salted key %q", salted.GetAsString(i))
		assert.Equal(t, key, parts[0])

		idx, err := strconv.Atoi(parts[1])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 4)
	}
}

func TestSaltSkewedParallelPreservesOrder(t *testing.T) {
	mem := memory.NewGoAllocator()

	withConfig(t, func(cfg *config.Config) {
		cfg.ParallelThreshold = 10
		cfg.ChunkSize = 16
	})

	const n = 300
	keys := make([]string, n)
	for i := range keys {
		keys[i] = "k" + strconv.Itoa(i)
	}
	df := New(series.New("k", keys, mem))

	salter := NewSalter(8, HashSaltSource{})
	out, err := salter.SaltSkewed(df, "k")
	require.NoError(t, err)

	salted, _ := out.Column("k__salted")
	src := HashSaltSource{}
	delim := config.GetGlobalConfig().SaltDelimiter
	for i := 0; i < n; i++ {
		want := keys[i] + delim + strconv.Itoa(src.Index(keys[i], i, 8))
		assert.Equal(t, want, salted.GetAsString(i), "row %d", i)
	}
}

func TestSaltSkewedSeededParallelReproducible(t *testing.T) {
	mem := memory.NewGoAllocator()

	withConfig(t, func(cfg *config.Config) {
		cfg.ParallelThreshold = 10
		cfg.ChunkSize = 16
		cfg.WorkerPoolSize = 8
	})

	const n = 400
	keys := make([]string, n)
	for i := range keys {
		keys[i] = "k" + strconv.Itoa(i%5)
	}
	df := New(series.New("k", keys, mem))

	run := func() []string {
		salter := NewSalter(8, NewRandomSaltSource(42))
		out, err := salter.SaltSkewed(df, "k")
		require.NoError(t, err)

		salted, _ := out.Column("k__salted")
		vals := make([]string, n)
		for i := range vals {
			vals[i] = salted.GetAsString(i)
		}
		return vals
	}

	// Chunked rendering must not change which index a seeded source assigns
	// to a row, however the scheduler interleaves the chunks.
	first := run()
	for attempt := 0; attempt < 4; attempt++ {
		require.Equal(t, first, run(),
			"same seed assigned different indices on attempt %d", attempt)
	}
}

func TestSaltSkewedDerivedColumnCollision(t *testing.T) {
	mem := memory.NewGoAllocator()

	df := New(
		series.New("k", []string{"a"}, mem),
		series.New("k__salted", []string{"x"}, mem),
	)

	salter := NewSalter(2, nil)
	_, err := salter.SaltSkewed(df, "k")
	require.Error(t, err)

	var dfErr *dferrors.DataFrameError
	require.ErrorAs(t, err, &dfErr)
	assert.Equal(t, "SaltSkewed", dfErr.Op)
	assert.Contains(t, err.Error(), "internal error")
	require.NotNil(t, dfErr.Unwrap())
	assert.Contains(t, dfErr.Unwrap().Error(), "already exists")
}

func TestExplode(t *testing.T) {
	mem := memory.NewGoAllocator()
	salter := NewSalter(3, nil)

	df := New(
		series.New("k", []string{"a", "b"}, mem),
		series.New("w", []int64{10, 20}, mem),
	)

	out, err := salter.Explode(df, "k")
	require.NoError(t, err)

	// Every source row appears once per salt index, row-major.
	require.Equal(t, 6, out.Len())

	k, _ := out.Column("k")
	salted, _ := out.Column("k__salted")
	delim := config.GetGlobalConfig().SaltDelimiter
	for j := 0; j < out.Len(); j++ {
		srcRow := j / 3
		saltIdx := j % 3
		wantKey := []string{"a", "b"}[srcRow]
		assert.Equal(t, wantKey, k.GetAsString(j))
		assert.Equal(t, wantKey+delim+strconv.Itoa(saltIdx), salted.GetAsString(j))
	}
}

func TestExplodeEmptyFrame(t *testing.T) {
	mem := memory.NewGoAllocator()
	salter := NewSalter(5, nil)

	df := New(series.New("k", []string{}, mem))

	out, err := salter.Explode(df, "k")
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}

func TestSaltTransformErrors(t *testing.T) {
	mem := memory.NewGoAllocator()
	salter := NewSalter(4, nil)

	df := New(series.New("k", []string{"a"}, mem))

	t.Run("salt missing column", func(t *testing.T) {
		_, err := salter.SaltSkewed(df, "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "column does not exist")
	})

	t.Run("explode missing column", func(t *testing.T) {
		_, err := salter.Explode(df, "nope")
		require.Error(t, err)
	})
}

func TestSalterDelimiterFromConfig(t *testing.T) {
	withConfig(t, func(cfg *config.Config) {
		cfg.SaltDelimiter = "#"
	})

	salter := NewSalter(2, nil)
	assert.Equal(t, "#", salter.Delimiter)
}
