package model

import "fmt"

type City string

const (
	CityMoscow City = "MSK"
	CitySPB    City = "SPB"
)

// DisplayName возвращает название города для сообщений и выгрузок
func (c City) DisplayName() string {
	switch c {
	case CityMoscow:
		return "Москва"
	case CitySPB:
		return "Санкт-Петербург"
	default:
		return string(c)
	}
}

// Вместимость студенческого слота и лимит участников группы
const (
	StudentSlotCapacity = 15
	MaxParticipants     = 15
)

// SlotID собирает идентификатор слота из человекочитаемой метки и кода города.
// Формат "<метка>_<город>" используется и в хранилище, и в выгрузках.
func SlotID(label string, city City) string {
	return fmt.Sprintf("%s_%s", label, city)
}

// StudentSlots слоты экскурсий для студентов по городам
var StudentSlots = map[City][]string{
	CityMoscow: {
		"25 февраля, 15:00",
		"27 февраля, 12:00",
		"3 марта, 15:00",
	},
	CitySPB: {
		"26 февраля, 15:00",
		"5 марта, 12:00",
	},
}

// GroupSlots слоты для руководителей групп (один слот — одна группа)
var GroupSlots = map[City][]string{
	CityMoscow: {
		"20 февраля, 15:00",
		"28 февраля, 11:00",
		"6 марта, 15:00",
	},
	CitySPB: {
		"21 февраля, 15:00",
		"7 марта, 11:00",
	},
}

// Universities фиксированное меню вузов
var Universities = []string{
	"МГУ",
	"МФТИ",
	"НИУ ВШЭ",
	"МГТУ им. Баумана",
	"СПбГУ",
	"ИТМО",
	"Другой",
}

type InstitutionType string

const (
	InstitutionUniversity InstitutionType = "university"
	InstitutionSchool     InstitutionType = "school"
	InstitutionSPO        InstitutionType = "spo"
)

// DisplayName возвращает русское название типа учреждения для выгрузок
func (t InstitutionType) DisplayName() string {
	switch t {
	case InstitutionUniversity:
		return "ВУЗ"
	case InstitutionSchool:
		return "Школа"
	case InstitutionSPO:
		return "СПО"
	default:
		return string(t)
	}
}
