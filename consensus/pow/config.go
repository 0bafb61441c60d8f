package pow

import "time"

// Config is the configuration of the PoW engine, following the teacher's
// toml-tagged-struct-plus-DefaultConfig convention.
type Config struct {
	// SealPrefix is prepended to every nonce search (spec: "yeeroot-").
	SealPrefix string `toml:",omitempty"`
	// SealPrefixLen is the fixed byte length the prefix is padded/truncated
	// to before hashing.
	SealPrefixLen uint8 `toml:",omitempty"`
	// IterPerCycle bounds the number of nonce trials attempted per worker
	// iteration before yielding back to the poll loop.
	IterPerCycle uint64 `toml:",omitempty"`
	// PollInterval is how often the idle worker checks for new best-header
	// work (spec: 5s).
	PollInterval time.Duration `toml:",omitempty"`
	// ProposeTimeout bounds how long the worker waits for the proposer to
	// build a body (spec: 10s).
	ProposeTimeout time.Duration `toml:",omitempty"`
	// ClockSkewBound is the maximum amount a seal's timestamp may exceed
	// "now" and still verify (spec §4.2).
	ClockSkewBound time.Duration `toml:",omitempty"`
	// Shards lists the shard numbers this worker mines for. With more than
	// one element, Worker.cycle commits every shard's candidate pre-hash
	// into a shared merkle root and runs a single nonce search against
	// their hardest difficulty (spec.md §4.3's multi-mining extension);
	// with exactly one it seals a plain WorkProofNonce seal.
	Shards []uint16 `toml:",omitempty"`
}

// DefaultConfig mirrors the teacher's DefaultConfig package var, seeded
// straight from spec.md's constants.
var DefaultConfig = Config{
	SealPrefix:     "yeeroot-",
	SealPrefixLen:  12,
	IterPerCycle:   10_000,
	PollInterval:   5 * time.Second,
	ProposeTimeout: 10 * time.Second,
	ClockSkewBound: 10 * time.Second,
	Shards:         []uint16{0},
}

// ApplyDefaults fills zero-valued fields of cfg from DefaultConfig, the same
// shape as the teacher's ApplyDefaultMinerConfig idiom.
func ApplyDefaults(cfg *Config) {
	if cfg.SealPrefix == "" {
		cfg.SealPrefix = DefaultConfig.SealPrefix
	}
	if cfg.SealPrefixLen == 0 {
		cfg.SealPrefixLen = DefaultConfig.SealPrefixLen
	}
	if cfg.IterPerCycle == 0 {
		cfg.IterPerCycle = DefaultConfig.IterPerCycle
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultConfig.PollInterval
	}
	if cfg.ProposeTimeout == 0 {
		cfg.ProposeTimeout = DefaultConfig.ProposeTimeout
	}
	if cfg.ClockSkewBound == 0 {
		cfg.ClockSkewBound = DefaultConfig.ClockSkewBound
	}
	if len(cfg.Shards) == 0 {
		cfg.Shards = DefaultConfig.Shards
	}
}
