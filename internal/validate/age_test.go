package validate

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

func TestAgeAtLeast14_ParsedDates(t *testing.T) {
	tests := []struct {
		name string
		date string
		want bool
	}{
		{"взрослый", "01.01.1990", true},
		{"ровно 14 лет сегодня", "01.09.2012", true},
		{"на день младше 14", "02.09.2012", false},
		{"13 лет", "01.01.2013", false},
		{"день рождения ещё впереди в этом году", "31.12.2012", false},
		{"день рождения уже прошёл", "01.08.2012", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeAtLeast14(tt.date, testNow))
		})
	}
}

func TestAgeAtLeast14_MalformedInputPasses(t *testing.T) {
	// Нечитаемый ввод не должен блокировать диалог
	inputs := []string{
		"",
		"привет",
		"01.01",
		"01.01.2013.05",
		"аа.бб.вввв",
		"0.0.0",
		"00.01.2013",
		"32.01.2013",
		"29.02.2013", // не високосный год
		"01/01/2013",
	}

	for _, in := range inputs {
		assert.True(t, AgeAtLeast14(in, testNow), "input %q", in)
	}
}

func TestAgeAtLeast14_Total(t *testing.T) {
	// Функция тотальна: не паникует ни на каком вводе
	for i := -5; i < 50; i++ {
		s := fmt.Sprintf("%d.%d.%d", i, i*3, i*100)
		assert.NotPanics(t, func() { AgeAtLeast14(s, testNow) })
	}
}
