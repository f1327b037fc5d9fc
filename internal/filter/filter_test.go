package filter

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomRow(r *rand.Rand, n int) []byte {
	b := make([]byte, n)
	r.Read(b)
	return b
}

func TestApplyUnfilterRoundtrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, bpp := range []int{1, 2, 3, 4, 6, 8} {
		for ft := None; ft <= Paeth; ft++ {
			prev := randomRow(r, 37)
			cur := randomRow(r, 37)
			want := append([]byte(nil), cur...)

			filtered := make([]byte, len(cur))
			Apply(filtered, ft, cur, prev, bpp)
			require.NoError(t, Unfilter(ft, filtered, prev, bpp))
			assert.Equal(t, want, filtered, "filter %s bpp %d", ft, bpp)
		}
	}
}

func TestUnfilterFirstRow(t *testing.T) {
	zero := make([]byte, 6)
	row := []byte{10, 20, 30, 1, 2, 3}

	sub := append([]byte(nil), row...)
	require.NoError(t, Unfilter(Sub, sub, zero, 3))
	assert.Equal(t, []byte{10, 20, 30, 11, 22, 33}, sub)

	avg := append([]byte(nil), row...)
	require.NoError(t, Unfilter(Average, avg, zero, 3))
	assert.Equal(t, []byte{10, 20, 30, 6, 12, 18}, avg)

	// With a zero previous row Paeth degenerates to Sub.
	paeth := append([]byte(nil), row...)
	require.NoError(t, Unfilter(Paeth, paeth, zero, 3))
	assert.Equal(t, sub, paeth)
}

func TestUnfilterWraps(t *testing.T) {
	prev := []byte{200, 255}
	cur := []byte{100, 1}
	require.NoError(t, Unfilter(Up, cur, prev, 1))
	assert.Equal(t, []byte{44, 0}, cur)
}

func TestUnfilterBadType(t *testing.T) {
	err := Unfilter(Type(5), []byte{1}, []byte{0}, 1)
	var bad InvalidTypeError
	require.ErrorAs(t, err, &bad)
	assert.EqualValues(t, 5, bad)
}

func TestPaethPredictorTies(t *testing.T) {
	// p = a+b-c; all distances equal resolves to left.
	assert.EqualValues(t, 5, PaethPredictor(5, 5, 5))
	// pa=|b-c|=10, pb=|a-c|=0 → up.
	assert.EqualValues(t, 30, PaethPredictor(20, 30, 20))
	// a=10, b=20, c=15 → p=15, pa=5, pb=5, pc=0 → upper-left.
	assert.EqualValues(t, 15, PaethPredictor(10, 20, 15))
}

func TestAdaptivePicksFlatPredictor(t *testing.T) {
	prev := make([]byte, 16)
	cur := make([]byte, 16)
	for i := range cur {
		cur[i] = byte(i * 9)
		prev[i] = byte(i * 9)
	}
	f := NewRowFilter(Adaptive, 1, len(cur))
	ft, out := f.Row(cur, prev)
	assert.Equal(t, Up, ft)
	assert.Equal(t, make([]byte, 16), out)
}

func TestFixedStrategy(t *testing.T) {
	cur := []byte{1, 2, 3, 4}
	prev := make([]byte, 4)
	f := NewRowFilter(Fixed(Sub), 1, len(cur))
	ft, out := f.Row(cur, prev)
	assert.Equal(t, Sub, ft)
	assert.Equal(t, []byte{1, 1, 1, 1}, out)
}

func TestStrategyValid(t *testing.T) {
	assert.True(t, Adaptive.Valid())
	assert.True(t, Fixed(Paeth).Valid())
	assert.False(t, Fixed(Type(7)).Valid())
	assert.Panics(t, func() { NewRowFilter(Fixed(Type(7)), 1, 4) })
}

func TestParseStrategy(t *testing.T) {
	s, ok := ParseStrategy("adaptive")
	require.True(t, ok)
	assert.True(t, s.IsAdaptive())

	s, ok = ParseStrategy("paeth")
	require.True(t, ok)
	assert.Equal(t, "paeth", s.String())

	_, ok = ParseStrategy("blur")
	assert.False(t, ok)
}
