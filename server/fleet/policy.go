// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package fleet

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/speedforceev/fleetstats/server/errors"
)

// PolicyKind names a mutation policy.
type PolicyKind string

const (
	KindStatic             PolicyKind = "static"
	KindBoundedRandom      PolicyKind = "bounded_random"
	KindIncrementingRandom PolicyKind = "incrementing_random"
)

// Policy decides how a metric changes on each mutation pass. The set of
// implementations is closed: Static, BoundedRandom and IncrementingRandom.
type Policy interface {
	Kind() PolicyKind
	validate() error
}

// Static metrics never change.
type Static struct{}

func (Static) Kind() PolicyKind { return KindStatic }

func (Static) validate() error { return nil }

// BoundedRandom redraws the value uniformly from [Min, Max] on every pass.
type BoundedRandom struct {
	Min int64
	Max int64
}

func (BoundedRandom) Kind() PolicyKind { return KindBoundedRandom }

func (p BoundedRandom) validate() error {
	if p.Min < 0 || p.Min > p.Max || !drawable(p.Min, p.Max) {
		return fmt.Errorf("%w: bounded random [%d, %d]", errors.ErrInvalidBounds, p.Min, p.Max)
	}

	return nil
}

// IncrementingRandom adds an increment drawn uniformly from [MinStep, MaxStep]
// on every tick. Base is the seed value and is never mutated.
type IncrementingRandom struct {
	MinStep int64
	MaxStep int64
	Base    int64
}

func (IncrementingRandom) Kind() PolicyKind { return KindIncrementingRandom }

func (p IncrementingRandom) validate() error {
	if p.MinStep < 0 || p.MinStep > p.MaxStep || !drawable(p.MinStep, p.MaxStep) {
		return fmt.Errorf("%w: incrementing random step [%d, %d]", errors.ErrInvalidBounds, p.MinStep, p.MaxStep)
	}

	if p.Base < 0 {
		return fmt.Errorf("%w: base %d", errors.ErrNegativeValue, p.Base)
	}

	return nil
}

// Rand is the random source used by mutation passes.
type Rand interface {
	// Int64N returns a uniform value in [0, n). n is always > 0.
	Int64N(n int64) int64
}

type globalRand struct{}

func (globalRand) Int64N(n int64) int64 { return rand.Int64N(n) }

// NewRand returns a deterministic PCG based source.
func NewRand(seed uint64) Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// drawable reports whether the width of [lo, hi] fits in an int64. Requires 0 <= lo <= hi.
func drawable(lo, hi int64) bool {
	return hi-lo < math.MaxInt64
}

// drawInclusive returns a uniform value in [lo, hi].
func drawInclusive(r Rand, lo, hi int64) int64 {
	return lo + r.Int64N(hi-lo+1)
}
