package utils

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test_ValidNumber tests the finite number guard
func Test_ValidNumber(t *testing.T) {
	tests := []struct {
		name        string
		value       float64
		fallback    float64
		expected    float64
		description string
	}{
		{
			name:        "Finite value",
			value:       42.5,
			fallback:    1,
			expected:    42.5,
			description: "Should return finite values unchanged",
		},
		{
			name:        "Zero",
			value:       0,
			fallback:    1,
			expected:    0,
			description: "Zero is a valid number",
		},
		{
			name:        "NaN",
			value:       math.NaN(),
			fallback:    7,
			expected:    7,
			description: "Should substitute NaN with fallback",
		},
		{
			name:        "Positive infinity",
			value:       math.Inf(1),
			fallback:    3,
			expected:    3,
			description: "Should substitute +Inf with fallback",
		},
		{
			name:        "Negative infinity",
			value:       math.Inf(-1),
			fallback:    -3,
			expected:    -3,
			description: "Should substitute -Inf with fallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidNumber(tt.value, tt.fallback), tt.description)
		})
	}
}

// Test_ClassToken tests class token derivation from metric names
func Test_ClassToken(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		index       int
		expected    string
		expectError error
		description string
	}{
		{
			name:        "Plain name",
			input:       "latency",
			index:       0,
			expected:    "latency_0",
			description: "Should append the index",
		},
		{
			name:        "Argus expression",
			input:       "-1h:scope:cpu.user{host=a}:avg",
			index:       3,
			expected:    "m-1h_scope_cpu_user_host_a_avg_3",
			description: "Should collapse unsafe characters and prefix leading digit",
		},
		{
			name:        "Whitespace",
			input:       "   ",
			expectError: ErrEmptyName,
			description: "Should reject blank names",
		},
		{
			name:        "Only symbols",
			input:       "{}:.",
			expectError: ErrInvalidName,
			description: "Should reject names without usable characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClassToken(tt.input, tt.index)
			if tt.expectError != nil {
				require.Error(t, err, tt.description)
				assert.True(t, errors.Is(err, tt.expectError), "Should wrap the sentinel error")
				return
			}
			require.NoError(t, err, tt.description)
			assert.Equal(t, tt.expected, got, tt.description)
		})
	}
}

// Test_ValidateChartID tests chart identifier validation
func Test_ValidateChartID(t *testing.T) {
	assert.NoError(t, ValidateChartID("chart-1"))
	assert.ErrorIs(t, ValidateChartID(""), ErrEmptyName)
	assert.ErrorIs(t, ValidateChartID("chart 1"), ErrInvalidName)
}
