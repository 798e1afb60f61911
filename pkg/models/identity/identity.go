package identity

import (
	"math"

	"github.com/tidemark-db/tidemark/pkg/models/tmerror"
	"github.com/tidemark-db/tidemark/tdb"
)

// Mode selects who may supply values for an identity column.
type Mode string

const (
	GeneratedAlways    = Mode("ALWAYS")
	GeneratedByDefault = Mode("BY_DEFAULT")
)

// Spec defines the arithmetic sequence S(k) = Start + k*Step, k over all
// integers, backing a generated column. Immutable once the column exists;
// only the high-water-mark stored next to it in table metadata mutates.
type Spec struct {
	Mode  Mode
	Start int64
	Step  int64
}

func SpecFromDB(spec *tdb.IdentitySpec) *Spec {
	return &Spec{
		Mode:  Mode(spec.Mode),
		Start: spec.Start,
		Step:  spec.Step,
	}
}

func (s *Spec) ToDB(highWaterMark int64) *tdb.IdentitySpec {
	return &tdb.IdentitySpec{
		Mode:          string(s.Mode),
		Start:         s.Start,
		Step:          s.Step,
		HighWaterMark: highWaterMark,
	}
}

func (s *Spec) Validate() error {
	switch s.Mode {
	case GeneratedAlways, GeneratedByDefault:
	default:
		return tmerror.Newf(tmerror.TIDE_METADATA_ERROR, "unknown identity generation mode %q", s.Mode)
	}
	if s.Step == 0 {
		return tmerror.New(tmerror.TIDE_METADATA_ERROR, "identity step must be non-zero")
	}
	// Reject specs whose empty-table watermark is unrepresentable, so a
	// sync against an empty column can never overflow.
	if _, err := s.InitialWaterMark(); err != nil {
		return tmerror.Newf(tmerror.TIDE_METADATA_ERROR, "identity start %d is within one step of the int64 bound", s.Start)
	}
	return nil
}

// Ascending reports the generation direction.
func (s *Spec) Ascending() bool {
	return s.Step > 0
}

// InitialWaterMark is Start-Step, so the first generated value is Start.
func (s *Spec) InitialWaterMark() (int64, error) {
	return checkedSub(s.Start, s.Step)
}

// Next advances a watermark by one step, overflow-checked. The generator
// calls this once per row needing a value.
func (s *Spec) Next(waterMark int64) (int64, error) {
	return checkedAdd(waterMark, s.Step)
}

// NearestTerm returns the sequence term closest to target that is not
// behind it in the generation direction: the smallest S(k) >= target for
// positive step, the largest S(k) <= target for negative step.
func (s *Spec) NearestTerm(target int64) (int64, error) {
	delta, err := checkedSub(target, s.Start)
	if err != nil {
		return 0, err
	}
	k := ceilDiv(delta, s.Step)
	scaled, err := checkedMul(k, s.Step)
	if err != nil {
		return 0, err
	}
	return checkedAdd(s.Start, scaled)
}

// ReconcileWaterMark computes the watermark that makes every future
// generated value land strictly past target in the generation direction.
// A target already on the sequence becomes the watermark itself (it is
// considered used); otherwise the watermark is the nearest term minus one
// step, so the next generated value is the nearest term.
func (s *Spec) ReconcileWaterMark(target int64) (int64, error) {
	term, err := s.NearestTerm(target)
	if err != nil {
		return 0, err
	}
	waterMark := term
	if term != target {
		waterMark, err = checkedSub(term, s.Step)
		if err != nil {
			return 0, err
		}
	}
	// The generator must be able to produce at least one more value.
	if _, err := checkedAdd(waterMark, s.Step); err != nil {
		return 0, err
	}
	return waterMark, nil
}

// OnSequence reports whether v is congruent to Start modulo Step.
func (s *Spec) OnSequence(v int64) bool {
	r := (v%s.Step - s.Start%s.Step) % s.Step
	return r == 0
}

// ceilDiv rounds the quotient a/b toward positive infinity. b is non-zero.
func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) == (b < 0) {
		q++
	}
	return q
}

func checkedAdd(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, tmerror.Newf(tmerror.TIDE_OVERFLOW, "int64 overflow: %d + %d", a, b)
	}
	return a + b, nil
}

func checkedSub(a, b int64) (int64, error) {
	if (b > 0 && a < math.MinInt64+b) || (b < 0 && a > math.MaxInt64+b) {
		return 0, tmerror.Newf(tmerror.TIDE_OVERFLOW, "int64 overflow: %d - %d", a, b)
	}
	return a - b, nil
}

func checkedMul(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, tmerror.Newf(tmerror.TIDE_OVERFLOW, "int64 overflow: %d * %d", a, b)
	}
	c := a * b
	if c/b != a {
		return 0, tmerror.Newf(tmerror.TIDE_OVERFLOW, "int64 overflow: %d * %d", a, b)
	}
	return c, nil
}
