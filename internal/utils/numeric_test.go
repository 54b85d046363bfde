package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionalFloat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *float64
	}{
		{"plain number", "123.45", floatPtr(123.45)},
		{"integer", "42", floatPtr(42)},
		{"leading plus sign", "+1.5", floatPtr(1.5)},
		{"negative", "-3.2", floatPtr(-3.2)},
		{"thousands separator", "1,234.50", floatPtr(1234.5)},
		{"whitespace", " 12.5 ", floatPtr(12.5)},
		{"dash placeholder", "-", nil},
		{"empty string", "", nil},
		{"whitespace only", "  ", nil},
		{"garbage", "N.A.", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOptionalFloat(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestParseMandatoryFloat(t *testing.T) {
	// Placeholders and garbage default to 0 for mandatory fields
	assert.Equal(t, 0.0, ParseMandatoryFloat("-"))
	assert.Equal(t, 0.0, ParseMandatoryFloat(""))
	assert.Equal(t, 0.0, ParseMandatoryFloat("n/a"))
	assert.Equal(t, 10.0, ParseMandatoryFloat("10"))
	assert.Equal(t, 2.5, ParseMandatoryFloat("+2.5"))
}

func TestFormatSignedPercent(t *testing.T) {
	assert.Equal(t, "+20.00%", FormatSignedPercent(decimal.NewFromInt(20)))
	assert.Equal(t, "+0.00%", FormatSignedPercent(decimal.Zero))
	assert.Equal(t, "-3.25%", FormatSignedPercent(decimal.NewFromFloat(-3.25)))
	assert.Equal(t, "+12.35%", FormatSignedPercent(decimal.NewFromFloat(12.345)))
}

func floatPtr(f float64) *float64 {
	return &f
}
