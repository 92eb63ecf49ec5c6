package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampCount(t *testing.T) {
	tests := []struct {
		name    string
		current int
		delta   int
		want    int
	}{
		{"инкремент", 3, 1, 4},
		{"декремент", 3, -1, 2},
		{"до нуля", 1, -1, 0},
		{"ниже нуля не уходит", 0, -1, 0},
		{"много лишних декрементов", 2, -10, 0},
		{"нулевая дельта", 5, 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampCount(tt.current, tt.delta))
		})
	}
}

func TestClampCountNeverNegative(t *testing.T) {
	// Сколько бы раз не декрементировали, счётчик не уходит в минус
	count := 2
	for i := 0; i < 20; i++ {
		count = ClampCount(count, -1)
		assert.GreaterOrEqual(t, count, 0)
	}
	assert.Equal(t, 0, count)
}
