package vmdetect

import (
	"runtime"

	"github.com/pkg/errors"
)

// Reading is what one technique did during a Report pass.
type Reading struct {
	Name       string
	Flag       Flag
	Weight     uint8
	Platforms  string
	Fired      bool
	Skipped    bool
	SkipReason string
}

// Report runs the enabled techniques like Detect does but returns the
// per-technique readings alongside the overall result. Report never
// reads or writes the memo cache: it exists for diagnostics, and a
// diagnostic that answers from cache would lie about the probes.
func Report(flags ...Flag) ([]Reading, Result, error) {
	f := combine(flags)
	if !f.valid() {
		return nil, Result{}, errors.Wrapf(ErrInvalidArgument, "unrecognized flag bits in %#x", uint64(f))
	}
	enabled := f & techniqueMask
	extreme := f&EXTREME != 0

	mu.Lock()
	defer mu.Unlock()

	var (
		tl       tally
		score    uint32
		readings []Reading
	)
	for i := range techniques {
		tc := &techniques[i]
		if enabled&tc.flag == 0 {
			continue
		}
		r := Reading{
			Name:      tc.name,
			Flag:      tc.flag,
			Weight:    tc.weight,
			Platforms: tc.platforms.String(),
		}
		switch {
		case !tc.platforms.matches(runtime.GOOS):
			r.Skipped = true
			r.SkipReason = "platform"
		case tc.requiresRoot && !isElevated():
			r.Skipped = true
			r.SkipReason = "privilege"
		default:
			r.Fired = tc.invoke(&tl)
			if r.Fired {
				score += uint32(tc.weight)
			}
		}
		readings = append(readings, r)
	}

	pct := score
	if pct > 100 {
		pct = 100
	}
	verdict := pct >= 100
	if extreme {
		verdict = score > 0
	}
	return readings, Result{Verdict: verdict, Percentage: uint8(pct), Brand: tl.winner()}, nil
}
