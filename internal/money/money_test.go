package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	a, err := Parse("100.50")
	require.NoError(t, err)
	assert.Equal(t, "100.5", a.String())

	_, err = Parse("not-a-number")
	assert.Error(t, err)
}

func TestFromFloatRejectsNonFinite(t *testing.T) {
	_, err := FromFloat(math.NaN())
	assert.Error(t, err)

	_, err = FromFloat(math.Inf(1))
	assert.Error(t, err)

	a, err := FromFloat(12.34)
	require.NoError(t, err)
	assert.Equal(t, "12.34", a.String())
}

func TestArithmeticIsExact(t *testing.T) {
	// 0.1 + 0.2 is the classic binary float trap.
	a := MustParse("0.1").Add(MustParse("0.2"))
	assert.True(t, a.Equal(MustParse("0.3")))

	b := MustParse("100.50").Sub(MustParse("50.25"))
	assert.Equal(t, "50.25", b.String())

	assert.True(t, MustParse("-5").Neg().Equal(MustParse("5")))
	assert.True(t, MustParse("-5").Abs().Equal(MustParse("5")))
}

func TestRoundModes(t *testing.T) {
	cases := []struct {
		in     string
		places int32
		mode   RoundingMode
		want   string
	}{
		{"0.005", 2, RoundHalfUp, "0.01"},
		{"0.004", 2, RoundHalfUp, "0"},
		{"0.001", 2, RoundHalfUp, "0"},
		{"0.005", 2, RoundHalfEven, "0"},
		{"0.015", 2, RoundHalfEven, "0.02"},
		{"0.019", 2, RoundDown, "0.01"},
		{"-0.019", 2, RoundDown, "-0.01"},
	}
	for _, tc := range cases {
		got := MustParse(tc.in).Round(tc.places, tc.mode)
		assert.Equal(t, tc.want, got.String(), "round %s %s", tc.in, tc.mode)
	}
}

func TestParseRoundingMode(t *testing.T) {
	m, err := ParseRoundingMode("")
	require.NoError(t, err)
	assert.Equal(t, RoundHalfUp, m)

	m, err = ParseRoundingMode("Half-Even")
	require.NoError(t, err)
	assert.Equal(t, RoundHalfEven, m)

	_, err = ParseRoundingMode("nearest-prime")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "+100.50 USD", MustParse("100.5").Format(2, "USD"))
	assert.Equal(t, "-50.00 USD", MustParse("-50").Format(2, "USD"))
	assert.Equal(t, "+0.00 USD", Zero().Format(2, "USD"))
}

func TestComparisons(t *testing.T) {
	assert.True(t, MustParse("1").LessThan(MustParse("2")))
	assert.True(t, MustParse("2").GreaterThan(MustParse("1")))
	assert.Equal(t, 0, MustParse("1.10").Cmp(MustParse("1.1")))
	assert.True(t, Zero().IsZero())
	assert.True(t, MustParse("0.01").IsPositive())
	assert.True(t, MustParse("-0.01").IsNegative())
}
