package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmount_DivCeil(t *testing.T) {
	tests := []struct {
		name string
		a    Amount
		n    int
		want Amount
	}{
		{name: "even split", a: 900, n: 2, want: 450},
		{name: "rounds up", a: 1000, n: 3, want: 334},
		{name: "single subscriber", a: 799, n: 1, want: 799},
		{name: "fraction of a cent rounds up", a: 601, n: 6, want: 101},
		{name: "zero amount", a: 0, n: 4, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.DivCeil(tt.n)
			assert.Equal(t, tt.want, got)
			// сумма по всем подписчикам всегда покрывает исходную цену
			assert.GreaterOrEqual(t, int64(got)*int64(tt.n), int64(tt.a))
		})
	}
}

func TestAmount_DivCeil_PanicsOnZero(t *testing.T) {
	assert.Panics(t, func() {
		Amount(900).DivCeil(0)
	})
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "4.50", Amount(450).String())
	assert.Equal(t, "0.00", Amount(0).String())
	assert.Equal(t, "0.05", Amount(5).String())
	assert.Equal(t, "12.34", Amount(1234).String())
	assert.Equal(t, "-1.01", Amount(-101).String())
}

func TestFromMajor(t *testing.T) {
	assert.Equal(t, Amount(900), FromMajor(9))
}
