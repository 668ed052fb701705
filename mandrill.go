// Package mandrill is a skew-aware equi-join toolkit for Arrow-backed
// DataFrames. A join key whose distribution is heavily skewed concentrates
// most of the work on a single partition; mandrill mitigates this by salting
// the skewed side's keys across sub-partitions and exploding the other side
// to match, producing exactly the rows a plain join would while spreading
// the heavy key's work evenly.
//
// Basic usage:
//
//	mem := memory.NewGoAllocator()
//	facts := mandrill.NewDataFrame(
//		mandrill.NewSeries("user_id", []string{"u1", "u1", "u2"}, mem),
//		mandrill.NewSeries("amount", []int64{10, 20, 30}, mem),
//	)
//	dims := mandrill.NewDataFrame(
//		mandrill.NewSeries("user_id", []string{"u1", "u2"}, mem),
//		mandrill.NewSeries("country", []string{"JP", "US"}, mem),
//	)
//
//	result, err := mandrill.SaltedJoin(facts, dims, &mandrill.SaltedJoinOptions{
//		Key:        "user_id",
//		Type:       mandrill.InnerJoin,
//		SaltFactor: 16,
//		Skewed:     mandrill.SkewedLeft,
//	})
//
// The package root re-exports the public surface of the internal engine;
// applications should not need to import the internal packages directly.
package mandrill

import (
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/mandrill/internal/config"
	"github.com/paveg/mandrill/internal/dataframe"
	"github.com/paveg/mandrill/internal/series"
)

// Core types re-exported from the internal engine.
type (
	// DataFrame is an immutable, ordered collection of named columns.
	DataFrame = dataframe.DataFrame

	// ISeries is the type-erased column interface.
	ISeries = dataframe.ISeries

	// JoinType selects the join semantics for unmatched rows.
	JoinType = dataframe.JoinType

	// JoinOptions configures a plain equality join.
	JoinOptions = dataframe.JoinOptions

	// SaltedJoinOptions configures a salted join.
	SaltedJoinOptions = dataframe.SaltedJoinOptions

	// SkewedSide names which join input carries the skewed distribution.
	SkewedSide = dataframe.SkewedSide

	// SkewReport summarizes a key column's distribution.
	SkewReport = dataframe.SkewReport

	// SaltSource assigns salt indices to rows of the skewed side.
	SaltSource = dataframe.SaltSource

	// Salter applies the salt and explode transforms directly, for callers
	// composing their own pipelines instead of using SaltedJoin.
	Salter = dataframe.Salter

	// HashSaltSource derives salt indices deterministically from key and row.
	HashSaltSource = dataframe.HashSaltSource

	// Config holds the global engine settings.
	Config = config.Config
)

// Join type constants.
const (
	InnerJoin     = dataframe.InnerJoin
	LeftJoin      = dataframe.LeftJoin
	RightJoin     = dataframe.RightJoin
	FullOuterJoin = dataframe.FullOuterJoin
)

// Skewed side constants.
const (
	AutoDetectSkew = dataframe.AutoDetectSkew
	SkewedLeft     = dataframe.SkewedLeft
	SkewedRight    = dataframe.SkewedRight
)

// NewDataFrame creates a DataFrame from columns. Column order follows
// argument order.
func NewDataFrame(cols ...ISeries) *DataFrame {
	return dataframe.New(cols...)
}

// NewSeries creates a typed column from a slice of values. Supported element
// types are string, int64, int32, float64, float32 and bool. A nil allocator
// falls back to the Go allocator.
func NewSeries[T any](name string, values []T, mem memory.Allocator) ISeries {
	return series.New(name, values, mem)
}

// Sequence creates a single-column DataFrame holding the integers [0, n).
func Sequence(name string, n int) *DataFrame {
	return dataframe.Sequence(name, n, memory.NewGoAllocator())
}

// DiagnoseSkew profiles the distribution of a key column and returns the
// per-key counts and shares. The report is advisory; pair it with
// SkewReport.IsSkewed and SkewReport.RecommendFactor to decide whether and
// how hard to salt.
func DiagnoseSkew(df *DataFrame, key string) (*SkewReport, error) {
	return dataframe.DiagnoseSkew(df, key)
}

// SaltedJoin performs an equality join mitigated for key skew. See the
// package documentation for the transform it applies; the result is
// row-equivalent to a plain join on the key, with no salt columns.
func SaltedJoin(left, right *DataFrame, opts *SaltedJoinOptions) (*DataFrame, error) {
	return dataframe.SaltedJoin(left, right, opts)
}

// NewSalter builds a Salter with the given factor. A nil source means
// unseeded random assignment.
func NewSalter(factor int, source SaltSource) *Salter {
	return dataframe.NewSalter(factor, source)
}

// NewRandomSaltSource returns a seeded random salt source for reproducible
// runs.
func NewRandomSaltSource(seed int64) SaltSource {
	return dataframe.NewRandomSaltSource(seed)
}

// NewUnseededSaltSource returns a random salt source seeded from the clock.
func NewUnseededSaltSource() SaltSource {
	return dataframe.NewUnseededSaltSource()
}

// SetConfig replaces the global engine configuration.
func SetConfig(cfg Config) {
	config.SetGlobalConfig(cfg)
}

// GetConfig returns the current global engine configuration.
func GetConfig() Config {
	return config.GetGlobalConfig()
}

// LoadConfigFromFile loads configuration from a JSON or YAML file and makes
// it the global configuration.
func LoadConfigFromFile(filename string) error {
	cfg, err := config.LoadFromFile(filename)
	if err != nil {
		return err
	}
	config.SetGlobalConfig(cfg)
	return nil
}

// LoadConfigFromEnv loads configuration from MANDRILL_* environment
// variables and makes it the global configuration.
func LoadConfigFromEnv() {
	config.SetGlobalConfig(config.LoadFromEnv())
}
