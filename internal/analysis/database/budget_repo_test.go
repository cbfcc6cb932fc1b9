package database

import (
	"testing"
)

func TestParseThresholds(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected map[string]float64
	}{
		{
			name:     "well-formed thresholds",
			raw:      `{"warning": 80, "critical": 95}`,
			expected: map[string]float64{"warning": 80, "critical": 95},
		},
		{
			name:     "empty column",
			raw:      "",
			expected: nil,
		},
		{
			name:     "string percentages fall back to defaults",
			raw:      `{"warning": "80"}`,
			expected: nil,
		},
		{
			name:     "array shape falls back to defaults",
			raw:      `[80, 95]`,
			expected: nil,
		},
		{
			name:     "json null",
			raw:      `null`,
			expected: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseThresholds(1, []byte(tt.raw))
			if len(got) != len(tt.expected) {
				t.Fatalf("parseThresholds(%q) = %v, want %v", tt.raw, got, tt.expected)
			}
			for k, v := range tt.expected {
				if got[k] != v {
					t.Errorf("parseThresholds(%q)[%s] = %v, want %v", tt.raw, k, got[k], v)
				}
			}
		})
	}
}
