package dataframe

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	xxhash "github.com/cespare/xxhash/v2"
	"github.com/paveg/mandrill/internal/config"
	"github.com/paveg/mandrill/internal/errors"
	"github.com/paveg/mandrill/internal/parallel"
)

// JoinType selects the join semantics for unmatched rows.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullOuterJoin
)

// String returns the conventional name of the join type.
func (jt JoinType) String() string {
	switch jt {
	case InnerJoin:
		return "inner"
	case LeftJoin:
		return "left"
	case RightJoin:
		return "right"
	case FullOuterJoin:
		return "full_outer"
	default:
		return fmt.Sprintf("unknown(%d)", int(jt))
	}
}

// validJoinType reports whether jt is one of the defined join types.
func validJoinType(jt JoinType) bool {
	return jt >= InnerJoin && jt <= FullOuterJoin
}

// JoinOptions configures a join operation.
type JoinOptions struct {
	Type      JoinType
	LeftKey   string   // single join key on the left frame
	RightKey  string   // single join key on the right frame
	LeftKeys  []string // multi-column join keys on the left frame
	RightKeys []string // multi-column join keys on the right frame
	Suffix    string   // suffix for right-side columns whose names collide (default "_right")
}

const defaultCollisionSuffix = "_right"

// keyDelimiter separates the parts of a composite join key.
const keyDelimiter = "|"

// Join performs a hash equality join and returns a new frame containing the
// left columns followed by the right columns. Right-side columns whose names
// collide with a left column are suffixed.
func (df *DataFrame) Join(right *DataFrame, options *JoinOptions) (*DataFrame, error) {
	leftKeys, rightKeys := normalizeJoinKeys(options)

	if len(leftKeys) != len(rightKeys) {
		return nil, errors.NewInvalidInputError("Join",
			fmt.Sprintf("left key count (%d) must match right key count (%d)",
				len(leftKeys), len(rightKeys)))
	}

	if err := validateJoinKeys(df, right, leftKeys, rightKeys); err != nil {
		return nil, err
	}

	if !validJoinType(options.Type) {
		return nil, errors.NewInvalidInputError("Join",
			fmt.Sprintf("unsupported join type: %v", options.Type))
	}

	li, ri := df.joinIndices(right, leftKeys, rightKeys, options.Type)

	suffix := options.Suffix
	if suffix == "" {
		suffix = defaultCollisionSuffix
	}
	return df.buildJoinResult(right, li, ri, suffix, memory.NewGoAllocator()), nil
}

// normalizeJoinKeys resolves single-key and multi-key option forms.
func normalizeJoinKeys(options *JoinOptions) ([]string, []string) {
	if len(options.LeftKeys) > 0 && len(options.RightKeys) > 0 {
		return options.LeftKeys, options.RightKeys
	}
	return []string{options.LeftKey}, []string{options.RightKey}
}

// validateJoinKeys ensures all join keys exist in both frames.
func validateJoinKeys(left, right *DataFrame, leftKeys, rightKeys []string) error {
	for _, key := range leftKeys {
		if !left.HasColumn(key) {
			return errors.NewColumnNotFoundError("Join", key)
		}
	}
	for _, key := range rightKeys {
		if !right.HasColumn(key) {
			return errors.NewColumnNotFoundError("Join", key)
		}
	}
	return nil
}

// joinIndices computes the row-index pairs of the join. An index of -1 marks
// the missing side of an unmatched row. Pair order is deterministic: probe
// rows in left order, build rows in right order within a key.
func (df *DataFrame) joinIndices(right *DataFrame, leftKeys, rightKeys []string, joinType JoinType) ([]int, []int) {
	build := newHashIndex(right.Len())
	for i := 0; i < right.Len(); i++ {
		build.put(buildJoinKey(right, rightKeys, i), i)
	}

	var li, ri []int
	matched := make(map[int]bool)

	pairs := df.probe(build, leftKeys, joinType)
	for _, p := range pairs {
		li = append(li, p.left)
		ri = append(ri, p.right)
		if p.right >= 0 {
			matched[p.right] = true
		}
	}

	if joinType == RightJoin || joinType == FullOuterJoin {
		for i := 0; i < right.Len(); i++ {
			if !matched[i] {
				li = append(li, -1)
				ri = append(ri, i)
			}
		}
	}

	return li, ri
}

type indexPair struct {
	left, right int
}

// probe scans the left frame against the build-side hash index. Frames above
// the configured parallel threshold are probed in chunks on a worker pool;
// chunk results are concatenated in chunk order, preserving determinism.
func (df *DataFrame) probe(build *hashIndex, leftKeys []string, joinType JoinType) []indexPair {
	cfg := config.GetGlobalConfig()
	emitUnmatched := joinType == LeftJoin || joinType == FullOuterJoin

	if df.Len() < cfg.ParallelThreshold {
		return df.probeRange(build, leftKeys, 0, df.Len(), emitUnmatched)
	}

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}
	numChunks := (df.Len() + chunkSize - 1) / chunkSize

	type span struct{ start, end int }
	chunks := make([]span, numChunks)
	for i := range chunks {
		start := i * chunkSize
		end := min(start+chunkSize, df.Len())
		chunks[i] = span{start: start, end: end}
	}

	wp := parallel.NewWorkerPool(cfg.WorkerPoolSize)
	defer wp.Close()

	chunkPairs := parallel.ProcessIndexed(wp, chunks, func(_ int, c span) []indexPair {
		return df.probeRange(build, leftKeys, c.start, c.end, emitUnmatched)
	})

	var pairs []indexPair
	for _, p := range chunkPairs {
		pairs = append(pairs, p...)
	}
	return pairs
}

func (df *DataFrame) probeRange(build *hashIndex, leftKeys []string, start, end int, emitUnmatched bool) []indexPair {
	var pairs []indexPair
	for i := start; i < end; i++ {
		key := buildJoinKey(df, leftKeys, i)
		if rows, ok := build.get(key); ok {
			for _, r := range rows {
				pairs = append(pairs, indexPair{left: i, right: r})
			}
		} else if emitUnmatched {
			pairs = append(pairs, indexPair{left: i, right: -1})
		}
	}
	return pairs
}

// buildJoinKey renders the composite join key for a row as text.
func buildJoinKey(df *DataFrame, keys []string, rowIndex int) string {
	if len(keys) == 1 {
		if s, ok := df.Column(keys[0]); ok {
			return s.GetAsString(rowIndex)
		}
		return ""
	}

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		if s, ok := df.Column(key); ok {
			parts = append(parts, s.GetAsString(rowIndex))
		} else {
			parts = append(parts, "")
		}
	}
	return strings.Join(parts, keyDelimiter)
}

// buildJoinResult gathers result columns from both frames by index pair.
func (df *DataFrame) buildJoinResult(
	right *DataFrame, li, ri []int, suffix string, mem memory.Allocator,
) *DataFrame {
	var cols []ISeries

	for _, name := range df.Columns() {
		src, _ := df.Column(name)
		cols = append(cols, takeColumn(src, li, mem))
	}

	for _, name := range right.Columns() {
		src, _ := right.Column(name)
		outName := name
		if df.HasColumn(name) {
			outName = name + suffix
		}
		cols = append(cols, takeColumnAs(outName, src, ri, mem))
	}

	return New(cols...)
}

// hashIndex is an xxhash-bucketed multimap from rendered key to row indices,
// used as the build side of hash joins.
type hashIndex struct {
	buckets    [][]hashIndexEntry
	capacity   int
	size       int
	loadFactor float64
}

type hashIndexEntry struct {
	key  string
	rows []int
}

const (
	hashIndexLoadFactor     = 0.75
	hashIndexGrowthFactor   = 2
	hashIndexCapacityFactor = 1.3
)

func newHashIndex(estimatedSize int) *hashIndex {
	capacity := nextPowerOfTwo(int(float64(estimatedSize) * hashIndexCapacityFactor))
	return &hashIndex{
		buckets:    make([][]hashIndexEntry, capacity),
		capacity:   capacity,
		loadFactor: hashIndexLoadFactor,
	}
}

func (h *hashIndex) bucketFor(key string, capacity int) int {
	return int(xxhash.Sum64String(key) % uint64(capacity))
}

func (h *hashIndex) put(key string, row int) {
	idx := h.bucketFor(key, h.capacity)

	for i := range h.buckets[idx] {
		if h.buckets[idx][i].key == key {
			h.buckets[idx][i].rows = append(h.buckets[idx][i].rows, row)
			return
		}
	}

	h.buckets[idx] = append(h.buckets[idx], hashIndexEntry{key: key, rows: []int{row}})
	h.size++

	if float64(h.size) > float64(h.capacity)*h.loadFactor {
		h.resize()
	}
}

func (h *hashIndex) get(key string) ([]int, bool) {
	idx := h.bucketFor(key, h.capacity)
	for _, entry := range h.buckets[idx] {
		if entry.key == key {
			return entry.rows, true
		}
	}
	return nil, false
}

func (h *hashIndex) resize() {
	newCapacity := h.capacity * hashIndexGrowthFactor
	newBuckets := make([][]hashIndexEntry, newCapacity)

	for _, bucket := range h.buckets {
		for _, entry := range bucket {
			idx := h.bucketFor(entry.key, newCapacity)
			newBuckets[idx] = append(newBuckets[idx], entry)
		}
	}

	h.buckets = newBuckets
	h.capacity = newCapacity
}

func nextPowerOfTwo(n int) int {
	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
