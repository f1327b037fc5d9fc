package filter

// Strategy decides which predictor the encoder uses for each row.
type Strategy struct {
	adaptive bool
	fixed    Type
}

// Adaptive tries every predictor per row and keeps the one with the
// smallest sum of absolute signed residuals.
var Adaptive = Strategy{adaptive: true}

// Fixed always uses t.
func Fixed(t Type) Strategy { return Strategy{fixed: t} }

// IsAdaptive reports whether s picks predictors per row.
func (s Strategy) IsAdaptive() bool { return s.adaptive }

// Valid reports whether s is adaptive or fixed to a known predictor.
func (s Strategy) Valid() bool { return s.adaptive || s.fixed.Valid() }

func (s Strategy) String() string {
	if s.adaptive {
		return "adaptive"
	}
	return s.fixed.String()
}

// ParseStrategy accepts "adaptive" or any predictor name.
func ParseStrategy(name string) (Strategy, bool) {
	if name == "adaptive" {
		return Adaptive, true
	}
	t, ok := ParseType(name)
	if !ok {
		return Strategy{}, false
	}
	return Fixed(t), true
}

// A RowFilter filters consecutive rows of one pass. Its scratch buffers
// are reused between calls, so the slice returned by Row is only valid
// until the next call.
type RowFilter struct {
	strategy Strategy
	bpp      int
	out      [numTypes][]byte
}

// NewRowFilter allocates scratch space for rows of rowLen bytes. It
// panics if s is not Valid.
func NewRowFilter(s Strategy, bpp, rowLen int) *RowFilter {
	f := &RowFilter{strategy: s, bpp: bpp}
	if !s.Valid() {
		panic("filter: invalid strategy " + s.String())
	}
	if s.adaptive {
		for i := range f.out {
			f.out[i] = make([]byte, rowLen)
		}
	} else {
		f.out[s.fixed] = make([]byte, rowLen)
	}
	return f
}

// Row filters cur against prev and returns the chosen tag and the
// filtered bytes.
func (f *RowFilter) Row(cur, prev []byte) (Type, []byte) {
	if !f.strategy.adaptive {
		t := f.strategy.fixed
		Apply(f.out[t], t, cur, prev, f.bpp)
		return t, f.out[t][:len(cur)]
	}
	best, bestSum := None, -1
	for t := None; t < numTypes; t++ {
		Apply(f.out[t], t, cur, prev, f.bpp)
		sum := residualSum(f.out[t][:len(cur)], bestSum)
		if bestSum < 0 || sum < bestSum {
			best, bestSum = t, sum
		}
	}
	return best, f.out[best][:len(cur)]
}

// residualSum stops early once the running total passes limit.
func residualSum(b []byte, limit int) int {
	sum := 0
	for _, v := range b {
		sum += abs(int(int8(v)))
		if limit >= 0 && sum >= limit {
			break
		}
	}
	return sum
}
