package measure

import "math"

// BytesPerKB is the divisor used for every kilobyte figure.
const BytesPerKB = 1024

// Measurement is a completed size measurement for one compile unit.
type Measurement struct {
	Identity      string
	OriginalBytes int
	CompiledBytes int
}

// Change is the size change of a unit relative to its original size.
// Defined is false when the original size is zero and no ratio exists.
type Change struct {
	Percent float64
	Defined bool
}

// OriginalKB returns the original size in kilobytes.
func (m Measurement) OriginalKB() float64 {
	return toKB(m.OriginalBytes)
}

// CompiledKB returns the compiled size in kilobytes.
func (m Measurement) CompiledKB() float64 {
	return toKB(m.CompiledBytes)
}

// Change computes the change ratio in percent, always relative to the
// original size. A zero-length original yields an undefined Change rather
// than NaN or Inf.
func (m Measurement) Change() Change {
	orig := m.OriginalKB()
	if orig == 0 {
		return Change{}
	}
	return Change{
		Percent: (m.CompiledKB() - orig) / orig * 100,
		Defined: true,
	}
}

// Rounded returns the percentage rounded half away from zero to two decimal
// places. Negative zero is normalised to zero.
func (c Change) Rounded() float64 {
	r := math.Round(c.Percent*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

func toKB(n int) float64 {
	return float64(n) / BytesPerKB
}
