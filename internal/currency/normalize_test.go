package currency

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"brazilian real with symbol", "R$ 1.200,50", 1200.50},
		{"parenthesized negative", "(150.00)", -150.00},
		{"us thousands", "1,234.56", 1234.56},
		{"empty string", "", 0},
		{"plain integer", "42", 42},
		{"brazilian without symbol", "1.234,56", 1234.56},
		{"comma decimal no thousands", "39,90", 39.90},
		{"negative with sign", "-39,90", -39.90},
		{"us plain decimal", "5000.00", 5000.00},
		{"dollar symbol", "$ 99.95", 99.95},
		{"brl code", "BRL 2.500,00", 2500.00},
		{"real forces br convention", "R$ 1.200", 1200},
		{"parenthesized brazilian", "(1.200,50)", -1200.50},
		{"whitespace only", "   ", 0},
		{"big us number", "1,234,567.89", 1234567.89},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NormalizeString(tt.in), 1e-9)
		})
	}
}

func TestNormalizeString_Unparseable(t *testing.T) {
	for _, in := range []string{"abc", "--", "1.2.3,4,5", "()"} {
		got := NormalizeString(in)
		assert.True(t, math.IsNaN(got), "expected NaN for %q, got %v", in, got)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 42.0, Normalize(42))
	assert.Equal(t, 42.5, Normalize(42.5))
	assert.Equal(t, float64(7), Normalize(int64(7)))
	assert.Equal(t, 0.0, Normalize(nil))
	assert.Equal(t, 1200.50, Normalize("R$ 1.200,50"))
	assert.True(t, math.IsNaN(Normalize(struct{}{})))
}
