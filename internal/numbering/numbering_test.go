package numbering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		prefix              string
		year, month, serial int
		want                string
	}{
		{"INV", 2024, 6, 1, "INV-202406-0001"},
		{"QT", 2025, 12, 42, "QT-202512-0042"},
		{"REC", 2025, 1, 12345, "REC-202501-12345"},
	}
	for _, tt := range tests {
		got := Format(tt.prefix, tt.year, tt.month, tt.serial)
		assert.Equal(t, tt.want, got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Number
	}{
		{"INV-202406-0005", Number{"INV", 2024, 6, 5}},
		{"REC-202512-0100", Number{"REC", 2025, 12, 100}},
		{"ACME-INV-202401-0001", Number{"ACME-INV", 2024, 1, 1}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.input)
		require.NoError(t, err, "input: %s", tt.input)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.input, got.String())
	}
}

func TestParse_Errors(t *testing.T) {
	badInputs := []string{
		"",
		"INV",
		"INV-0001",
		"-202406-0001",
		"INV-2024-0001",
		"INV-202413-0001",
		"INV-202406-abcd",
		"INV-202406-0000",
	}
	for _, input := range badInputs {
		_, err := Parse(input)
		assert.Error(t, err, "expected error for input: %s", input)
	}
}
