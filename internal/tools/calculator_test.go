package tools

import (
	"strings"
	"testing"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"2+3", "Result: 5"},
		{"2 + 3 * 4", "Result: 14"},
		{"(2 + 3) * 4", "Result: 20"},
		{"10 / 4", "Result: 2.5"},
		{"2 ** 10", "Result: 1024"},
		{"2 ** 3 ** 2", "Result: 512"},
		{"10 % 3", "Result: 1"},
		{"-5 + 3", "Result: -2"},
		{"1.5 * 2", "Result: 3"},
	}
	for _, tt := range tests {
		if got := Calculate(tt.expr); got != tt.want {
			t.Errorf("Calculate(%q) = %q, want %q", tt.expr, got, tt.want)
		}
	}
}

func TestCalculate_Errors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"letters", "2 + x"},
		{"injection", "__import__('os')"},
		{"division by zero", "1 / 0"},
		{"unbalanced", "(2 + 3"},
		{"trailing operator", "2 +"},
		{"empty", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.expr)
			if !strings.HasPrefix(got, "Error") {
				t.Errorf("Calculate(%q) = %q, want an error string", tt.expr, got)
			}
		})
	}
}
