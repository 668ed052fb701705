package dataframe

import (
	"github.com/paveg/mandrill/internal/errors"
	"github.com/paveg/mandrill/internal/series"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// SkewReport summarizes the distribution of a join key in one frame: how many
// rows carry each rendered key value and what share of the total that is.
// Reports are ephemeral, recomputed per call and never persisted.
type SkewReport struct {
	Total  int64              // total row count of the profiled frame
	Counts map[string]int64   // rows per rendered key value
	Shares map[string]float64 // Counts normalized by Total
}

// DiagnoseSkew profiles the distribution of a key column. An empty frame
// yields an empty report, not an error. The report is purely advisory; the
// caller decides whether to act on it.
func DiagnoseSkew(df *DataFrame, key string) (*SkewReport, error) {
	col, ok := df.Column(key)
	if !ok {
		return nil, errors.NewColumnNotFoundError("DiagnoseSkew", key)
	}
	if !series.CanRender(col.DataType()) {
		return nil, errors.NewUnsupportedTypeError("DiagnoseSkew", key, col.DataType().String())
	}

	report := &SkewReport{
		Total:  int64(df.Len()),
		Counts: make(map[string]int64),
		Shares: make(map[string]float64),
	}
	if report.Total == 0 {
		return report, nil
	}

	gb := df.GroupBy(key)
	for k, rows := range gb.groups {
		report.Counts[k] = int64(len(rows))
		report.Shares[k] = float64(len(rows)) / float64(report.Total)
	}

	return report, nil
}

// Keys returns the distinct key values in sorted order.
func (r *SkewReport) Keys() []string {
	keys := maps.Keys(r.Counts)
	slices.Sort(keys)
	return keys
}

// MaxShare returns the key with the largest share of rows. The second return
// is zero for an empty report.
func (r *SkewReport) MaxShare() (string, float64) {
	var maxKey string
	var maxShare float64
	for _, key := range r.Keys() {
		if r.Shares[key] > maxShare {
			maxKey = key
			maxShare = r.Shares[key]
		}
	}
	return maxKey, maxShare
}

// IsSkewed reports whether any single key exceeds the given share of total
// rows, the signal that salting is worth applying.
func (r *SkewReport) IsSkewed(threshold float64) bool {
	_, share := r.MaxShare()
	return share > threshold
}

// RecommendFactor suggests a salt factor: the given default when the
// distribution is skewed past the threshold, 1 (no salting) otherwise.
func (r *SkewReport) RecommendFactor(threshold float64, defaultFactor int) int {
	if r.IsSkewed(threshold) {
		return defaultFactor
	}
	return 1
}
