package heap

import "log/slog"

// DefaultPoisonByte is painted over unused memory when poisoning is enabled.
const DefaultPoisonByte = 0xEE

// Options configures diagnostics. A nil *Options selects the defaults:
// no poisoning, no logging and no hook.
type Options struct {
	// Poison paints the whole buffer on Init and every released data area
	// with PoisonByte, making reads of stale memory easy to spot.
	Poison bool

	// PoisonByte is the fill pattern. Zero selects DefaultPoisonByte.
	PoisonByte byte

	// Logger receives debug records for exhaustion, coalescing and
	// relocation. Nil discards.
	Logger *slog.Logger

	// AfterOp is called after every mutating operation with the name of the
	// operation ("init", "alloc", "free", "realloc"). Tests use it to verify
	// invariants; the CLI uses it to trace.
	AfterOp func(op string, h *Heap)
}

func (o *Options) withDefaults() Options {
	var opts Options
	if o != nil {
		opts = *o
	}
	if opts.PoisonByte == 0 {
		opts.PoisonByte = DefaultPoisonByte
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return opts
}
