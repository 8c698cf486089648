package beat

import "math"

// Float16 is an IEEE-754 binary16 value stored as its raw bit pattern.
// The codec needs this precisely (rather than a library/stdlib float16,
// which this corpus and the Go standard library don't provide) because the
// note-width field doubles as a variant discriminant via its sign bit,
// including the sign of zero — something no off-the-shelf float16 type
// exposes directly.
type Float16 uint16

// ToFloat16 rounds f to the nearest representable binary16 value.
func ToFloat16(f float64) Float16 {
	return Float16(float32BitsToFloat16Bits(math.Float32bits(float32(f))))
}

// Float64 widens back to float64 (exact, since every binary16 value is
// exactly representable in float64).
func (h Float16) Float64() float64 {
	return float64(math.Float32frombits(float16BitsToFloat32Bits(uint16(h))))
}

// Negative reports whether the sign bit is set, including for -0 — the
// discriminant the wire format uses to distinguish Drag from Tap/Hold.
func (h Float16) Negative() bool {
	return h&0x8000 != 0
}

// Negate flips the sign bit, turning +w into -w and vice versa (including
// +0 <-> -0).
func (h Float16) Negate() Float16 {
	return h ^ 0x8000
}

// Abs clears the sign bit.
func (h Float16) Abs() Float16 {
	return h &^ 0x8000
}

func float32BitsToFloat16Bits(b uint32) uint16 {
	sign := uint16((b >> 16) & 0x8000)
	exp := int32((b>>23)&0xff) - 127 + 15
	mant := b & 0x7fffff

	switch {
	case exp <= 0:
		if exp < -10 {
			return sign // underflows to signed zero
		}
		mant |= 0x800000
		shift := uint(14 - exp)
		half := uint16(mant >> shift)
		if mant&(1<<(shift-1)) != 0 {
			half++
		}
		return sign | half
	case exp >= 0x1f:
		if b&0x7fffffff > 0x7f800000 {
			return sign | 0x7e00 // NaN
		}
		return sign | 0x7c00 // +/-Inf
	default:
		half := sign | uint16(exp)<<10 | uint16(mant>>13)
		if mant&0x1000 != 0 {
			half++
		}
		return half
	}
}

func float16BitsToFloat32Bits(h uint16) uint32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h & 0x3ff)

	switch {
	case exp == 0 && mant == 0:
		return sign
	case exp == 0:
		// subnormal binary16 -> normalize into binary32's representation
		e := int32(-14)
		for mant&0x400 == 0 {
			mant <<= 1
			e--
		}
		mant &= 0x3ff
		return sign | uint32(e+127)<<23 | (mant << 13)
	case exp == 0x1f:
		return sign | 0x7f800000 | (mant << 13)
	default:
		return sign | ((exp + 127 - 15) << 23) | (mant << 13)
	}
}
