package ets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpec(t *testing.T) {
	cases := map[string]Spec{
		"ETS(A,N,N)":  SES(),
		"ets(a,ad,n)": Holt(true),
		"A,A,A":       HoltWinters(AdditiveSeason, false),
		"MAdM":        HoltWinters(MultiplicativeSeason, true),
		" AMdN ":      {Error: AdditiveError, Trend: DampedMultiplicativeTrend},
	}
	for text, want := range cases {
		got, err := ParseSpec(text)
		require.NoErrorf(t, err, "parse %q", text)
		assert.Equalf(t, want, got, "parse %q", text)
	}

	for _, bad := range []string{"", "ETS()", "X,N,N", "A,X,N", "A,N,X", "A,N"} {
		_, err := ParseSpec(bad)
		assert.Errorf(t, err, "expected %q to be rejected", bad)
	}
}

func TestAllSpecsRoundTrip(t *testing.T) {
	specs := AllSpecs()
	assert.Len(t, specs, 30)

	seen := make(map[string]bool)
	for _, s := range specs {
		require.NoError(t, s.Validate())
		parsed, err := ParseSpec(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
		seen[s.String()] = true
	}
	assert.Len(t, seen, 30)
}

func TestSpecValidate(t *testing.T) {
	var perr *InvalidParameterError
	assert.ErrorAs(t, Spec{Trend: TrendType(9)}.Validate(), &perr)
	assert.ErrorAs(t, Spec{Error: ErrorType(-1)}.Validate(), &perr)
}

func TestSpecFree(t *testing.T) {
	assert.Equal(t, []Name{Alpha}, SES().Free())
	assert.Equal(t, []Name{Alpha, Beta, Phi}, Holt(true).Free())
	assert.Equal(t, []Name{Alpha, Beta, Gamma}, HoltWinters(AdditiveSeason, false).Free())
}

func TestParams(t *testing.T) {
	p := Params{Alpha: 0.1}.With(Gamma, 0.3).With(Phi, 0.9)
	assert.Equal(t, 0.3, p.Get(Gamma))
	assert.Equal(t, 0.9, p.Get(Phi))

	n, err := ParseName("beta")
	require.NoError(t, err)
	assert.Equal(t, Beta, n)
	_, err = ParseName("delta")
	assert.Error(t, err)

	lo, hi, open := ValidRange(Alpha)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)
	assert.True(t, open)
	_, _, open = ValidRange(Gamma)
	assert.False(t, open)
}
