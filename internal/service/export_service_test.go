package service

import (
	"strings"
	"testing"

	"github.com/avitoexc/excursion-bot/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeSheetName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"слот как есть", "25 февраля, 15:00_MSK", "25 февраля, 15 00_MSK"},
		{"запрещённые символы", `a/b\c*d?e:f[g]h`, "a b c d e f g h"},
		{"пустая строка", "", "Slot"},
		{"схлопывание пробелов", "a    b", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeSheetName(tt.in))
		})
	}
}

func TestSanitizeSheetNameLength(t *testing.T) {
	long := strings.Repeat("январь ", 20)
	got := sanitizeSheetName(long)
	assert.LessOrEqual(t, len(got), maxSheetNameLength)
	assert.NotEmpty(t, got)
}

func TestFormatParticipants(t *testing.T) {
	participants := []model.Participant{
		{FullName: "Иванов Иван", BirthDate: "01.01.2005"},
		{FullName: "Петров Пётр", BirthDate: "02.02.2006"},
	}

	got := model.FormatParticipants(participants)
	assert.Equal(t, "Иванов Иван — 01.01.2005; Петров Пётр — 02.02.2006", got)

	assert.Equal(t, "", model.FormatParticipants(nil))
}
