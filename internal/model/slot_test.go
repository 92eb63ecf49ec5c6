package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotIDRoundTrip(t *testing.T) {
	id := SlotID("25 февраля, 15:00", CityMoscow)
	assert.Equal(t, "25 февраля, 15:00_MSK", id)

	draft := Draft{Slot: id, City: CityMoscow}
	assert.Equal(t, "25 февраля, 15:00", draft.SlotLabel())
}

func TestSlotLabelWithoutCitySuffix(t *testing.T) {
	draft := Draft{Slot: "просто метка"}
	assert.Equal(t, "просто метка", draft.SlotLabel())
}

func TestCityDisplayName(t *testing.T) {
	assert.Equal(t, "Москва", CityMoscow.DisplayName())
	assert.Equal(t, "Санкт-Петербург", CitySPB.DisplayName())
	assert.Equal(t, "KZN", City("KZN").DisplayName())
}

func TestSlotCatalogsNotEmpty(t *testing.T) {
	for _, city := range []City{CityMoscow, CitySPB} {
		assert.NotEmpty(t, StudentSlots[city], "student slots for %s", city)
		assert.NotEmpty(t, GroupSlots[city], "group slots for %s", city)
	}
}
