package dataframe

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	xxhash "github.com/cespare/xxhash/v2"
	"github.com/paveg/mandrill/internal/config"
	"github.com/paveg/mandrill/internal/errors"
	"github.com/paveg/mandrill/internal/parallel"
	"github.com/paveg/mandrill/internal/series"
)

// Column names introduced by the salt transform. Both are internal to a
// salted join and never appear in its result.
const (
	saltIndexColumn = "__salt_idx"
	saltedKeySuffix = "__salted"
)

// SaltSource assigns a salt index in [0, factor) to a row of the skewed side.
// Implementations must be safe for concurrent use: large frames are salted in
// parallel chunks.
type SaltSource interface {
	Index(key string, row, factor int) int
}

// RandomSaltSource draws salt indices uniformly from a pseudorandom stream.
// With a seed, repeated runs over the same input produce the same assignment
// sequence; without one, runs differ but results stay logically correct.
type RandomSaltSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSaltSource returns a seeded source for reproducible runs.
func NewRandomSaltSource(seed int64) *RandomSaltSource {
	return &RandomSaltSource{rng: rand.New(rand.NewSource(seed))}
}

// NewUnseededSaltSource returns a source seeded from the clock.
func NewUnseededSaltSource() *RandomSaltSource {
	return &RandomSaltSource{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Index draws a uniform salt index, ignoring key and row.
func (s *RandomSaltSource) Index(_ string, _, factor int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(factor)
}

// HashSaltSource derives the salt index from the key and row ordinal, so the
// assignment is fully deterministic without coordinating a seed: the same row
// always lands in the same sub-partition.
type HashSaltSource struct{}

// Index hashes key and row ordinal into [0, factor).
func (HashSaltSource) Index(key string, row, factor int) int {
	h := xxhash.New()
	_, _ = h.WriteString(key)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strconv.Itoa(row))
	return int(h.Sum64() % uint64(factor))
}

// Salter widens a join key into factor sub-keys of the form
// key<delimiter><index>. The two transforms are deliberately asymmetric: the
// skewed side gets exactly one salt index per row, the other side is expanded
// to carry every index, which is what keeps the salted join equivalent to the
// plain one.
type Salter struct {
	Factor    int
	Delimiter string
	Source    SaltSource
}

// NewSalter builds a Salter, filling the delimiter from global config and
// defaulting to an unseeded random source.
func NewSalter(factor int, source SaltSource) *Salter {
	if source == nil {
		source = NewUnseededSaltSource()
	}
	delim := config.GetGlobalConfig().SaltDelimiter
	if delim == "" {
		delim = config.DefaultSaltDelimiter
	}
	return &Salter{Factor: factor, Delimiter: delim, Source: source}
}

// SaltedKeyColumn returns the name of the derived key column for a key.
func (s *Salter) SaltedKeyColumn(key string) string {
	return key + saltedKeySuffix
}

// SaltSkewed appends the salted-key column to the skewed-side frame: each
// row's key plus one salt index drawn from the source. Row order and count
// are preserved.
func (s *Salter) SaltSkewed(df *DataFrame, key string) (*DataFrame, error) {
	col, err := s.renderableKey(df, key, "SaltSkewed")
	if err != nil {
		return nil, err
	}

	salted := s.saltedKeys(df, col)
	mem := memory.NewGoAllocator()
	out, err := df.WithColumn(series.New(s.SaltedKeyColumn(key), salted, mem))
	if err != nil {
		return nil, errors.NewInternalError("SaltSkewed", err)
	}
	return out, nil
}

// saltedKeys renders each row's salted key. Salt indices are drawn in row
// order on a single goroutine, so a seeded source assigns the same index to
// the same row on every run; only the string rendering is chunked across the
// worker pool for frames above the parallel threshold.
func (s *Salter) saltedKeys(df *DataFrame, col ISeries) []string {
	n := df.Len()
	cfg := config.GetGlobalConfig()

	keys := make([]string, n)
	indices := make([]int, n)
	for i := 0; i < n; i++ {
		keys[i] = col.GetAsString(i)
		indices[i] = s.Source.Index(keys[i], i, s.Factor)
	}

	renderRange := func(start, end int, out []string) {
		for i := start; i < end; i++ {
			out[i] = keys[i] + s.Delimiter + strconv.Itoa(indices[i])
		}
	}

	out := make([]string, n)
	if n < cfg.ParallelThreshold {
		renderRange(0, n, out)
		return out
	}

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}
	numChunks := (n + chunkSize - 1) / chunkSize

	type span struct{ start, end int }
	chunks := make([]span, numChunks)
	for i := range chunks {
		start := i * chunkSize
		chunks[i] = span{start: start, end: min(start+chunkSize, n)}
	}

	wp := parallel.NewWorkerPool(cfg.WorkerPoolSize)
	defer wp.Close()
	parallel.Process(wp, chunks, func(c span) struct{} {
		renderRange(c.start, c.end, out)
		return struct{}{}
	})

	return out
}

// Explode expands the broadcast-side frame so every row appears once per salt
// index, carrying the matching salted key. The result has exactly
// df.Len() * Factor rows, in row-major order: product row j derives from
// source row j/Factor with salt index j%Factor. Growth is linear in the salt
// factor; very large factors are a caller trade-off, never capped here.
func (s *Salter) Explode(df *DataFrame, key string) (*DataFrame, error) {
	if _, err := s.renderableKey(df, key, "Explode"); err != nil {
		return nil, err
	}

	mem := memory.NewGoAllocator()
	seq := Sequence(saltIndexColumn, s.Factor, mem)
	defer seq.Release()

	exploded := df.CrossJoin(seq)

	keyCol, _ := exploded.Column(key)
	idxCol, _ := exploded.Column(saltIndexColumn)

	salted := make([]string, exploded.Len())
	for i := range salted {
		salted[i] = keyCol.GetAsString(i) + s.Delimiter + idxCol.GetAsString(i)
	}

	out, err := exploded.WithColumn(series.New(s.SaltedKeyColumn(key), salted, mem))
	if err != nil {
		return nil, errors.NewInternalError("Explode", err)
	}
	return out, nil
}

// renderableKey fetches the key column and verifies its type can be rendered
// as text. A key that cannot be rendered fails with a type error rather than
// being silently coerced.
func (s *Salter) renderableKey(df *DataFrame, key, op string) (ISeries, error) {
	col, ok := df.Column(key)
	if !ok {
		return nil, errors.NewColumnNotFoundError(op, key)
	}
	if !series.CanRender(col.DataType()) {
		return nil, errors.NewUnsupportedTypeError(op, key, col.DataType().String())
	}
	return col, nil
}
