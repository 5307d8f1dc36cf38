package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Asha Rao", CleanString("  Asha Rao \n"))
	assert.Equal(t, "asha@school.test", CleanString(" Asha@School.test ", true))
	assert.Equal(t, "", CleanString("   "))
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		part, total, places int
		want                float64
	}{
		{1, 1, 2, 100},
		{0, 0, 2, 0},
		{2, 3, 2, 66.67},
		{1, 3, 1, 33.3},
		{1, 8, 1, 12.5},
		{1, 6, 0, 17},
		{5, -1, 2, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percentage(tt.part, tt.total, tt.places), "%d/%d", tt.part, tt.total)
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "66.67", FormatPercent(66.666))
	assert.Equal(t, "50", FormatPercent(50))
	assert.Equal(t, "12.5", FormatPercent(12.5))
	assert.Equal(t, "0", FormatPercent(0))
	assert.Equal(t, "75", FormatPercent(75.001))
}
