package runtime

import "github.com/BurntSushi/toml"

// Config holds the tunables a host embedding the engine may want to
// override: none of these are named by any spec.md [MODULE], but an
// embeddable engine needs them the way the teacher needs its own side
// configuration (go-mysql-server reads session variables from a similar
// TOML-ish side channel).
type Config struct {
	// LoopIterationCap bounds how many times a single recursive
	// stratum's Loop may iterate before Tick gives up and reports an
	// Internal error, guarding against a host-supplied predicate or
	// aggregate that never lets delta go empty. Zero means unlimited.
	LoopIterationCap int `toml:"loop_iteration_cap"`
	// BlockStoreBufferSize is the high-water mark passed to
	// block.NewBufferedStore when New is not given an explicit store.
	// Zero disables automatic flushing: writes stay in the buffer (still
	// readable through the store) until Flush is called.
	BlockStoreBufferSize int `toml:"block_store_buffer_size"`
	// EpochBatchSize caps how many ingested tuples, across all sources,
	// a Tick bundles into a single epoch record (block.Epoch); a Tick
	// ingesting more chains several epochs. Zero means "one epoch per
	// Tick regardless of size".
	EpochBatchSize int `toml:"epoch_batch_size"`
	// FixpointTickCap bounds how many Ticks RunToFixpoint will run
	// before giving up, guarding against a host whose sinks keep
	// feeding new input back into sources. Zero means unlimited.
	FixpointTickCap int `toml:"fixpoint_tick_cap"`
	// ParallelExecution enables the interpreter's optional parallel-rule
	// path (spec.md §5 "Parallelism opportunities"): consecutive Insert
	// statements run concurrently instead of one at a time, as long as
	// none reads a relation an earlier one in the run writes. Off by
	// default.
	ParallelExecution bool `toml:"parallel_execution"`
}

// DefaultConfig returns the configuration New uses when no WithConfig
// option is given.
func DefaultConfig() Config {
	return Config{
		LoopIterationCap:     0,
		BlockStoreBufferSize: 256,
		EpochBatchSize:       0,
		FixpointTickCap:      10000,
	}
}

// LoadConfig reads a TOML file at path into a Config seeded with
// DefaultConfig, so a file overriding only one field leaves the rest at
// their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
