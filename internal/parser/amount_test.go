package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountToCents(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int64
	}{
		{"156,50", 15650},
		{"156,5", 15650},
		{"156", 15600},
		{"0,01", 1},
		{"0,29", 29},
		{"1,005", 100},
		{"999999,99", 99999999},
		{"12345678901234,57", 1234567890123457},
		{"90071992547409,93", 9007199254740993},
		{"-25,10", -2510},
	}
	for _, tc := range cases {
		got, err := amountToCents(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestAmountToCentsRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "  ", "abc", "1,2,3", "1.000,50", "99999999999999999999,00"} {
		_, err := amountToCents(in)
		assert.ErrorIs(t, err, errInvalidAmount, in)
	}
}
