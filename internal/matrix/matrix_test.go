package matrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsDenseAndValid(t *testing.T) {
	m := New()
	require.NoError(t, m.Validate())
	for src := 0; src < ClassCount; src++ {
		for dst := 0; dst < ClassCount; dst++ {
			assert.Greater(t, m.At(src, dst).Radius, 0.0)
		}
	}
}

func TestSetIsAsymmetric(t *testing.T) {
	m := New()
	require.NoError(t, m.Set(0, 1, Params{Power: 1, Radius: 30}))
	require.NoError(t, m.Set(1, 0, Params{Power: -0.5, Radius: 10}))

	assert.Equal(t, 1.0, m.At(0, 1).Power)
	assert.Equal(t, -0.5, m.At(1, 0).Power)
	assert.Equal(t, m.Row(0)[1], m.At(0, 1))
}

func TestSetRejectsInvalid(t *testing.T) {
	m := New()
	tests := []struct {
		name     string
		src, dst int
		p        Params
		want     error
	}{
		{"src out of range", ClassCount, 0, Params{Power: 0, Radius: 1}, ErrClassOutOfRange},
		{"negative dst", 0, -1, Params{Power: 0, Radius: 1}, ErrClassOutOfRange},
		{"power too large", 0, 0, Params{Power: 1.5, Radius: 1}, ErrInvalidParams},
		{"nan power", 0, 0, Params{Power: math.NaN(), Radius: 1}, ErrInvalidParams},
		{"zero radius", 0, 0, Params{Power: 0, Radius: 0}, ErrInvalidParams},
		{"radius too large", 0, 0, Params{Power: 0, Radius: MaxRadius + 1}, ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := m
			err := m.Set(tt.src, tt.dst, tt.p)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, m)
		})
	}
}

func TestQuantizeIsIdempotent(t *testing.T) {
	for _, p := range []Params{
		{Power: 0.123456, Radius: 17.3},
		{Power: -1, Radius: MaxRadius},
		{Power: 0.999, Radius: 0.001},
	} {
		q, err := Quantize(p)
		require.NoError(t, err)
		again, err := Quantize(q)
		require.NoError(t, err)
		assert.Equal(t, q, again)
		assert.Greater(t, q.Radius, 0.0)
	}
}

func TestStepConversionsRoundTrip(t *testing.T) {
	for s := -PowerSteps; s <= PowerSteps; s++ {
		assert.Equal(t, s, PowerStep(PowerFromStep(s)))
	}
	for s := 1; s <= RadiusSteps; s++ {
		assert.Equal(t, s, RadiusStep(RadiusFromStep(s)))
	}
}

func TestMaxRadius(t *testing.T) {
	m := New()
	require.NoError(t, m.Set(3, 5, Params{Power: 0.2, Radius: 42}))
	want := RadiusFromStep(RadiusStep(42))
	assert.Equal(t, want, m.MaxRadius())
}
