package domain

import (
	"testing"
	"time"
)

func TestAvailableSlotsFloorsAtZero(t *testing.T) {
	deal := Deal{TotalSlots: 4, ClaimsCount: 2}
	if deal.AvailableSlots() != 2 {
		t.Fatalf("ожидали 2 свободных слота, получили %d", deal.AvailableSlots())
	}
	deal.ClaimsCount = 6
	if deal.AvailableSlots() != 0 {
		t.Fatalf("ожидали 0, свободные слоты не могут быть отрицательными")
	}
}

func TestExpiringSoonInclusiveBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	exact := now.AddDate(0, 0, 7)
	deal := Deal{ExpiryDate: &exact}
	if !deal.ExpiringSoon(now) {
		t.Fatalf("срок ровно через 7 дней должен считаться «скоро истекает»")
	}
	later := exact.Add(time.Hour)
	deal.ExpiryDate = &later
	if deal.ExpiringSoon(now) {
		t.Fatalf("срок за границей окна не должен попадать под флаг")
	}
	deal.ExpiryDate = nil
	if deal.ExpiringSoon(now) {
		t.Fatalf("без даты истечения флаг не ставится")
	}
}

func TestParseCategoryFallsBackToOther(t *testing.T) {
	if ParseCategory(" Cinema ") != CategoryCinema {
		t.Fatalf("ожидали нормализацию категории")
	}
	if ParseCategory("spaceship") != CategoryOther {
		t.Fatalf("неизвестная категория сводится к other")
	}
}
