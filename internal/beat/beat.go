// Package beat implements exact rational beat positions and the
// little-endian primitive codecs shared by every chart wire format in this
// module.
package beat

import (
	"fmt"
	"math/big"
)

// Beat is an exact non-negative rational number of quarter-note beats,
// always kept in lowest terms with a positive denominator. Values are
// compared and combined using exact rational arithmetic, never float64.
type Beat struct {
	N uint64
	D uint64
}

// Zero is beat position 0 (start of the chart).
var Zero = Beat{N: 0, D: 1}

// New builds a Beat from a numerator and denominator, reducing to lowest
// terms. d must be non-zero.
func New(n, d uint64) (Beat, error) {
	if d == 0 {
		return Beat{}, fmt.Errorf("beat: zero denominator")
	}
	return reduce(n, d), nil
}

// MustNew is New but panics on error; for use with compile-time-known
// literals in tests and internal callers.
func MustNew(n, d uint64) Beat {
	b, err := New(n, d)
	if err != nil {
		panic(err)
	}
	return b
}

func reduce(n, d uint64) Beat {
	if n == 0 {
		return Beat{N: 0, D: 1}
	}
	g := gcd(n, d)
	return Beat{N: n / g, D: d / g}
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func (b Beat) rat() *big.Rat {
	return new(big.Rat).SetFrac(new(big.Int).SetUint64(b.N), new(big.Int).SetUint64(b.D))
}

// Rat returns b as a big.Rat, for callers (e.g. package cbt) that need to
// combine a Beat with an arithmetic domain wider than non-negative
// rationals. The returned value is a fresh copy; mutating it cannot
// affect b.
func (b Beat) Rat() *big.Rat {
	return b.rat()
}

func fromRat(r *big.Rat) Beat {
	n := r.Num()
	d := r.Denom()
	if n.Sign() < 0 {
		panic("beat: negative result")
	}
	if !n.IsUint64() || !d.IsUint64() {
		panic("beat: overflow")
	}
	return Beat{N: n.Uint64(), D: d.Uint64()}
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than c.
func Compare(a, c Beat) int {
	// a.N/a.D vs c.N/c.D without overflow: cross-multiply with big.Int.
	lhs := new(big.Int).Mul(new(big.Int).SetUint64(a.N), new(big.Int).SetUint64(c.D))
	rhs := new(big.Int).Mul(new(big.Int).SetUint64(c.N), new(big.Int).SetUint64(a.D))
	return lhs.Cmp(rhs)
}

// Less reports whether a < c.
func Less(a, c Beat) bool { return Compare(a, c) < 0 }

// LessOrEqual reports whether a <= c.
func LessOrEqual(a, c Beat) bool { return Compare(a, c) <= 0 }

// Equal reports whether a == c (as exact rationals, independent of how
// each is reduced — though New/Add/Sub always return reduced values).
func Equal(a, c Beat) bool { return Compare(a, c) == 0 }

// Add returns a + c, exactly, reduced to lowest terms.
func Add(a, c Beat) Beat {
	return fromRat(new(big.Rat).Add(a.rat(), c.rat()))
}

// Sub returns a - c, exactly, reduced to lowest terms. Panics if the result
// would be negative — beats are never negative in this model.
func Sub(a, c Beat) Beat {
	return fromRat(new(big.Rat).Sub(a.rat(), c.rat()))
}

// Mul returns a * c, exactly, reduced to lowest terms.
func Mul(a, c Beat) Beat {
	return fromRat(new(big.Rat).Mul(a.rat(), c.rat()))
}

// Float64 converts to a float64, losing exactness. Used only at the
// boundary where a rational must be combined with an inherently floating
// quantity (e.g. dividing by a bps value).
func (b Beat) Float64() float64 {
	f, _ := new(big.Float).SetRat(b.rat()).Float64()
	return f
}

// Floor returns the greatest integer beat count <= b, i.e. floor(b.N/b.D).
func (b Beat) Floor() uint64 {
	return b.N / b.D
}

// String renders "n/d" for debugging.
func (b Beat) String() string {
	return fmt.Sprintf("%d/%d", b.N, b.D)
}
