package validate

import (
	"strconv"
	"strings"
	"time"
)

// MinParticipantAge минимальный возраст участника экскурсии
const MinParticipantAge = 14

// AgeAtLeast14 проверяет, что дате рождения в формате ДД.ММ.ГГГГ
// соответствует возраст не меньше 14 лет на момент now.
//
// Проверка намеренно мягкая: если текст не разбирается как дата, возраст
// считается достаточным — некорректный ввод не должен блокировать диалог,
// блокируют только корректно распознанные даты младше 14 лет.
func AgeAtLeast14(dateText string, now time.Time) bool {
	parts := strings.Split(strings.TrimSpace(dateText), ".")
	if len(parts) != 3 {
		return true
	}

	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return true
	}
	if day == 0 || month == 0 || year == 0 {
		return true
	}

	// time.Date нормализует 32.01 в 01.02 — отлавливаем такие даты
	birth := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if birth.Day() != day || int(birth.Month()) != month || birth.Year() != year {
		return true
	}

	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}

	return age >= MinParticipantAge
}
