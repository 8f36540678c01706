package statement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1234.50", "1234.5"},
		{"₹1,234.50 Dr", "-1234.5"},
		{"1,234.50Cr", "1234.5"},
		{"(45.00)", "-45"},
		{"-12", "-12"},
		{"12.00-", "-12"},
		{"Rs. 3,00,000.00", "300000"},
		{"INR 99", "99"},
		{"$ 10.25", "10.25"},
		{"+7.10", "7.1"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, raw := range []string{"", " ", "-", "abc", "Dr"} {
		_, err := ParseAmount(raw)
		assert.Error(t, err, "%q", raw)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{
		"2024-03-05",
		"05/03/2024",
		"05-03-2024",
		"05/03/24",
		"5/3/2024",
		"05 Mar 2024",
		"05-Mar-24",
		"Mar 5, 2024",
		"45356",
	} {
		got, ok := ParseDate(raw)
		require.True(t, ok, raw)
		assert.True(t, want.Equal(got), "%s parsed as %s", raw, got)
	}

	_, ok := ParseDate("sometime last week")
	assert.False(t, ok)
}
