package dataframe

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/mandrill/internal/config"
	"github.com/paveg/mandrill/internal/errors"
)

// SkewedSide names which input of a salted join carries the skewed key
// distribution. The skewed side receives one salt index per row; the other
// side is exploded across all indices.
type SkewedSide int

const (
	// AutoDetectSkew profiles both inputs and picks the side whose most
	// frequent key exceeds the configured share threshold.
	AutoDetectSkew SkewedSide = iota
	SkewedLeft
	SkewedRight
)

// String returns the side's name.
func (s SkewedSide) String() string {
	switch s {
	case AutoDetectSkew:
		return "auto"
	case SkewedLeft:
		return "left"
	case SkewedRight:
		return "right"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// SaltedJoinOptions configures a salted join. Key names the join column,
// which must exist with the same type in both frames.
type SaltedJoinOptions struct {
	Key        string
	Type       JoinType
	SaltFactor int        // sub-partitions per key; 0 means the configured default
	Skewed     SkewedSide // which side is skewed; AutoDetectSkew profiles both
	Source     SaltSource // salt assignment strategy; nil means unseeded random
	Suffix     string     // suffix for colliding right-side column names (default "_right")
}

// SaltedJoin joins two frames on an equality key, restructured so no single
// key value concentrates all the work: the skewed side's keys are widened
// with a salt index and the other side is expanded to cover every index. The
// result is the same multiset of rows a plain join on the key would produce,
// with the original schema restored and all salt bookkeeping stripped.
//
// Configuration problems (bad salt factor, unknown join type, missing key
// column) are reported before any join work starts. Failures inside the
// engine propagate unchanged.
func SaltedJoin(left, right *DataFrame, opts *SaltedJoinOptions) (*DataFrame, error) {
	if opts == nil || opts.Key == "" {
		return nil, errors.NewInvalidInputError("SaltedJoin", "join key must be specified")
	}
	if !validJoinType(opts.Type) {
		return nil, errors.NewInvalidInputError("SaltedJoin",
			fmt.Sprintf("unsupported join type: %v", opts.Type))
	}
	if opts.SaltFactor < 0 {
		return nil, errors.NewInvalidInputError("SaltedJoin",
			fmt.Sprintf("salt factor must be positive, got %d", opts.SaltFactor))
	}

	leftKey, ok := left.Column(opts.Key)
	if !ok {
		return nil, errors.NewColumnNotFoundError("SaltedJoin", opts.Key)
	}
	rightKey, ok := right.Column(opts.Key)
	if !ok {
		return nil, errors.NewColumnNotFoundError("SaltedJoin", opts.Key)
	}
	if leftKey.DataType().ID() != rightKey.DataType().ID() {
		return nil, errors.NewInvalidInputError("SaltedJoin",
			fmt.Sprintf("key column %q has mismatched types: %s vs %s",
				opts.Key, leftKey.DataType(), rightKey.DataType()))
	}

	cfg := config.GetGlobalConfig()

	factor := opts.SaltFactor
	if factor == 0 {
		factor = cfg.DefaultSaltFactor
	}

	skewed := opts.Skewed
	if skewed == AutoDetectSkew {
		detected, err := detectSkewedSide(left, right, opts.Key, cfg.SkewShareThreshold)
		if err != nil {
			return nil, err
		}
		if detected == AutoDetectSkew {
			// Neither side is skewed; salting would only add overhead.
			factor = 1
			skewed = SkewedLeft
		} else {
			skewed = detected
		}
	}

	suffix := opts.Suffix
	if suffix == "" {
		suffix = defaultCollisionSuffix
	}
	mem := memory.NewGoAllocator()

	// Degenerate salt factor: a plain equality join on the original key.
	if factor == 1 {
		li, ri := left.joinIndices(right, []string{opts.Key}, []string{opts.Key}, opts.Type)
		return buildSaltedResult(left, right, opts.Key, li, ri, suffix, mem)
	}

	salter := NewSalter(factor, opts.Source)
	saltedCol := salter.SaltedKeyColumn(opts.Key)

	var li, ri []int
	switch skewed {
	case SkewedLeft:
		leftSalted, err := salter.SaltSkewed(left, opts.Key)
		if err != nil {
			return nil, err
		}
		rightExploded, err := salter.Explode(right, opts.Key)
		if err != nil {
			return nil, err
		}

		li, ri = leftSalted.joinIndices(rightExploded,
			[]string{saltedCol}, []string{saltedCol}, opts.Type)
		li, ri = collapseExploded(li, ri, factor, false)

	case SkewedRight:
		leftExploded, err := salter.Explode(left, opts.Key)
		if err != nil {
			return nil, err
		}
		rightSalted, err := salter.SaltSkewed(right, opts.Key)
		if err != nil {
			return nil, err
		}

		li, ri = leftExploded.joinIndices(rightSalted,
			[]string{saltedCol}, []string{saltedCol}, opts.Type)
		li, ri = collapseExploded(li, ri, factor, true)

	default:
		return nil, errors.NewInvalidInputError("SaltedJoin",
			fmt.Sprintf("unsupported skewed side: %v", skewed))
	}

	return buildSaltedResult(left, right, opts.Key, li, ri, suffix, mem)
}

// detectSkewedSide profiles both inputs and returns the side whose most
// frequent key exceeds the threshold, preferring the more skewed one.
// AutoDetectSkew is returned when neither side qualifies.
func detectSkewedSide(left, right *DataFrame, key string, threshold float64) (SkewedSide, error) {
	leftReport, err := DiagnoseSkew(left, key)
	if err != nil {
		return AutoDetectSkew, err
	}
	rightReport, err := DiagnoseSkew(right, key)
	if err != nil {
		return AutoDetectSkew, err
	}

	_, leftShare := leftReport.MaxShare()
	_, rightShare := rightReport.MaxShare()

	switch {
	case leftShare <= threshold && rightShare <= threshold:
		return AutoDetectSkew, nil
	case rightShare > leftShare:
		return SkewedRight, nil
	default:
		return SkewedLeft, nil
	}
}

// collapseExploded rewrites index pairs computed against an exploded frame
// back to the source frame's row numbers, and repairs outer-join semantics:
// an exploded source row appears once per salt index, so without collapsing,
// a row unmatched at every index would surface factor times. A source row
// contributes an unmatched result row only when none of its variants matched,
// and then exactly once. leftExploded says which side of the pairs was
// exploded.
func collapseExploded(li, ri []int, factor int, leftExploded bool) ([]int, []int) {
	exploded, other := ri, li
	if leftExploded {
		exploded, other = li, ri
	}

	// First pass: which exploded source rows matched at least one variant.
	matched := make(map[int]bool)
	for i := range exploded {
		if exploded[i] >= 0 && other[i] >= 0 {
			matched[exploded[i]/factor] = true
		}
	}

	outLeft := make([]int, 0, len(li))
	outRight := make([]int, 0, len(ri))
	emittedUnmatched := make(map[int]bool)

	for i := range exploded {
		e, o := exploded[i], other[i]
		if e < 0 {
			// Unmatched row of the non-exploded side; passes through as-is.
			outLeft, outRight = appendPair(outLeft, outRight, e, o, leftExploded)
			continue
		}

		src := e / factor
		if o < 0 {
			if matched[src] || emittedUnmatched[src] {
				continue
			}
			emittedUnmatched[src] = true
		}
		outLeft, outRight = appendPair(outLeft, outRight, src, o, leftExploded)
	}

	return outLeft, outRight
}

func appendPair(li, ri []int, exploded, other int, leftExploded bool) ([]int, []int) {
	if leftExploded {
		return append(li, exploded), append(ri, other)
	}
	return append(li, other), append(ri, exploded)
}

// buildSaltedResult assembles the final frame from original-row index pairs:
// left columns, then right columns minus the join key, with the key column
// coalesced across sides so outer joins keep it populated for unmatched rows.
func buildSaltedResult(
	left, right *DataFrame, key string, li, ri []int, suffix string, mem memory.Allocator,
) (*DataFrame, error) {
	var cols []ISeries

	leftKey, _ := left.Column(key)
	rightKey, _ := right.Column(key)

	for _, name := range left.Columns() {
		src, _ := left.Column(name)
		if name == key {
			coalesced, err := takeCoalesced(key, leftKey, rightKey, li, ri, mem)
			if err != nil {
				return nil, err
			}
			cols = append(cols, coalesced)
			continue
		}
		cols = append(cols, takeColumn(src, li, mem))
	}

	for _, name := range right.Columns() {
		if name == key {
			continue
		}
		src, _ := right.Column(name)
		outName := name
		if left.HasColumn(name) {
			outName = name + suffix
		}
		cols = append(cols, takeColumnAs(outName, src, ri, mem))
	}

	return New(cols...), nil
}
