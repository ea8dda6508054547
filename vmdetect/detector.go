package vmdetect

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrInvalidArgument is returned when a caller passes a flag mask the
// façade cannot honor: an unrecognized bit, or a Check argument that is
// not exactly one technique bit.
var ErrInvalidArgument = errors.New("vmdetect: invalid flag argument")

// Result is one full detection outcome.
type Result struct {
	Verdict    bool
	Percentage uint8
	Brand      BrandID
}

// Logger is the optional logging surface the engine accepts. It matches
// the project-wide logger; a nil Logger is valid and silent.
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

var (
	// mu serializes the aggregate-and-memoize path so concurrent callers
	// never observe a torn cache slot.
	mu sync.Mutex

	// memo is the single-slot result cache. It deliberately stores the
	// last result irrespective of the flag set that produced it; callers
	// that mix flag sets should pass NO_MEMO.
	memo struct {
		valid bool
		res   Result
	}

	log Logger
)

// SetLogger installs a logger for probe-level diagnostics. Passing nil
// silences the engine (the default).
func SetLogger(l Logger) {
	mu.Lock()
	log = l
	mu.Unlock()
}

func debugf(format string, v ...interface{}) {
	if log != nil {
		log.Debug(format, v...)
	}
}

// Detect reports whether the process appears to be running inside a VM,
// emulator, container, or sandbox. With no flags the default technique
// set runs; pass technique bits to subset it, ALL to include everything,
// EXTREME to flag on any single hit, and NO_MEMO to bypass the result
// cache.
func Detect(flags ...Flag) (bool, error) {
	res, err := run(combine(flags))
	if err != nil {
		return false, err
	}
	return res.Verdict, nil
}

// Percentage returns the clamped confidence score in [0,100] for the
// given flag set.
func Percentage(flags ...Flag) (uint8, error) {
	res, err := run(combine(flags))
	if err != nil {
		return 0, err
	}
	return res.Percentage, nil
}

// Brand runs the default technique set and names the suspected product.
// It returns "Unknown" when no probe cast a vote or the vote is tied.
func Brand() string {
	res, err := run(DEFAULT)
	if err != nil {
		return BrandUnknown.String()
	}
	return res.Brand.String()
}

// Check invokes one named probe and returns its raw reading. The argument
// must be exactly one technique bit; modifier bits and multi-bit masks are
// rejected. Check bypasses scoring and never reads or writes the result
// cache.
func Check(flag Flag) (bool, error) {
	if !flag.singleTechnique() {
		return false, errors.Wrapf(ErrInvalidArgument, "check wants a single technique bit, got %#x", uint64(flag))
	}
	tc, ok := lookup(flag)
	if !ok {
		return false, errors.Wrapf(ErrInvalidArgument, "unregistered technique bit %#x", uint64(flag))
	}
	if !tc.runnable() {
		return false, nil
	}
	var tl tally
	return tc.invoke(&tl), nil
}

// run validates the mask and executes one aggregator pass, subject to the
// memo cache.
func run(flags Flag) (Result, error) {
	if !flags.valid() {
		return Result{}, errors.Wrapf(ErrInvalidArgument, "unrecognized flag bits in %#x", uint64(flags))
	}
	enabled := flags & techniqueMask
	noMemo := flags&NO_MEMO != 0
	extreme := flags&EXTREME != 0

	mu.Lock()
	defer mu.Unlock()

	if !noMemo && memo.valid {
		return memo.res, nil
	}

	res := aggregate(enabled, extreme)
	if !noMemo {
		memo.valid = true
		memo.res = res
	}
	return res, nil
}

// aggregate walks the enabled subset of the registry in declaration
// order, sums the weights of firing probes, and attributes a brand by
// plurality vote. Callers hold mu.
func aggregate(enabled Flag, extreme bool) Result {
	var (
		tl    tally
		score uint32
	)
	for i := range techniques {
		tc := &techniques[i]
		if enabled&tc.flag == 0 || !tc.runnable() {
			continue
		}
		if tc.invoke(&tl) {
			score += uint32(tc.weight)
			debugf("technique %s fired (weight %d, running score %d)", tc.name, tc.weight, score)
		}
	}

	pct := score
	if pct > 100 {
		pct = 100
	}
	verdict := pct >= 100
	if extreme {
		verdict = score > 0
	}
	return Result{
		Verdict:    verdict,
		Percentage: uint8(pct),
		Brand:      tl.winner(),
	}
}

// resetMemo clears the result cache. Used by tests, and exported through
// InvalidateCache for callers that know the environment changed
// underneath them (for example after a container migration).
func resetMemo() {
	mu.Lock()
	memo.valid = false
	memo.res = Result{}
	mu.Unlock()
}

// InvalidateCache drops the memoized result so the next call re-runs the
// probes.
func InvalidateCache() {
	resetMemo()
}
